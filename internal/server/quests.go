package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/meteoright00/diary-quest-sub001/internal/character"
	"github.com/meteoright00/diary-quest-sub001/internal/quest"
)

type createQuestRequest struct {
	CharacterID string           `json:"characterId"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Difficulty  quest.Difficulty `json:"difficulty,omitempty"`
	Reward      *quest.Reward    `json:"reward,omitempty"`
}

// handleCreateQuest creates a quest for a character. An accepted quest is
// immediately in progress; there is no separate start step in the API.
func (s *Server) handleCreateQuest(w http.ResponseWriter, r *http.Request) {
	var req createQuestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CharacterID == "" {
		writeError(w, http.StatusBadRequest, "characterId is required")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Difficulty != "" && !req.Difficulty.IsValid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown difficulty %q", req.Difficulty))
		return
	}

	if _, err := s.stores.Characters.Get(r.Context(), req.CharacterID); err != nil {
		s.fail(w, r, err)
		return
	}

	var opts []quest.CreateOption
	if req.Description != "" {
		opts = append(opts, quest.WithDescription(req.Description))
	}
	if req.Difficulty != "" {
		opts = append(opts, quest.WithDifficulty(req.Difficulty))
	}
	if req.Reward != nil {
		opts = append(opts, quest.WithReward(*req.Reward))
	}

	q := quest.New(req.CharacterID, req.Title, opts...)
	if err := q.Start(); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.stores.Quests.Create(r.Context(), q); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

type completeQuestResponse struct {
	Quest       *quest.Quest     `json:"quest"`
	Progression character.Result `json:"progression"`
}

// handleCompleteQuest transitions the quest to completed and awards its
// reward to the owning character. The completion is persisted before the
// reward so a failed character write never re-opens the quest.
func (s *Server) handleCompleteQuest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q, err := s.stores.Quests.Get(ctx, r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := q.Complete(time.Now()); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.stores.Quests.Update(ctx, q); err != nil {
		s.fail(w, r, err)
		return
	}

	ch, err := s.stores.Characters.Get(ctx, q.CharacterID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.engine.AddExperience(ch, q.Reward.Exp)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.engine.AddCurrency(ch, q.Reward.Gold, 0); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.stores.Characters.Update(ctx, ch); err != nil {
		s.fail(w, r, err)
		return
	}
	s.metrics.RecordLevelUps(ctx, ch.ID, int64(res.LevelsGained))

	writeJSON(w, http.StatusOK, completeQuestResponse{Quest: q, Progression: res})
}

func (s *Server) handleListQuests(w http.ResponseWriter, r *http.Request) {
	quests, err := s.stores.Quests.ListByCharacter(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if quests == nil {
		quests = []*quest.Quest{}
	}
	writeJSON(w, http.StatusOK, quests)
}
