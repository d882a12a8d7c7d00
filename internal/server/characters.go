package server

import (
	"fmt"
	"net/http"

	"github.com/meteoright00/diary-quest-sub001/internal/character"
)

type createCharacterRequest struct {
	Name    string `json:"name"`
	WorldID string `json:"worldId"`
	Class   string `json:"class,omitempty"`
	Guild   string `json:"guild,omitempty"`
	Title   string `json:"title,omitempty"`
}

func (s *Server) handleCreateCharacter(w http.ResponseWriter, r *http.Request) {
	var req createCharacterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	var opts []character.CreateOption
	if req.Class != "" {
		opts = append(opts, character.WithClass(req.Class))
	}
	if req.Guild != "" {
		opts = append(opts, character.WithGuild(req.Guild))
	}
	if req.Title != "" {
		opts = append(opts, character.WithTitle(req.Title))
	}

	ch := s.engine.CreateCharacter(req.Name, req.WorldID, opts...)
	if err := s.stores.Characters.Create(r.Context(), ch); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ch)
}

func (s *Server) handleGetCharacter(w http.ResponseWriter, r *http.Request) {
	ch, err := s.stores.Characters.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

// statsResponse is the derived stat sheet: base stats next to the effective
// totals with equipment bonuses applied.
type statsResponse struct {
	CharacterID string          `json:"characterId"`
	Level       int             `json:"level"`
	Base        character.Stats `json:"base"`
	Total       character.Stats `json:"total"`
}

func (s *Server) handleCharacterStats(w http.ResponseWriter, r *http.Request) {
	ch, err := s.stores.Characters.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		CharacterID: ch.ID,
		Level:       ch.Level.Current,
		Base:        ch.Stats,
		Total:       s.engine.TotalStats(ch),
	})
}

func (s *Server) handleEquip(w http.ResponseWriter, r *http.Request) {
	var item character.Equipment
	if err := decodeJSON(r, &item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !item.Slot.IsValid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown equipment slot %q", item.Slot))
		return
	}

	ch, err := s.stores.Characters.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	// The slot is already validated, so a refusal here is the level gate.
	if !s.engine.EquipItem(ch, item) {
		writeError(w, http.StatusConflict,
			fmt.Sprintf("cannot equip %q: level %d required", item.Name, item.RequiredLevel))
		return
	}
	if err := s.stores.Characters.Update(r.Context(), ch); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

type unequipRequest struct {
	Slot character.Slot `json:"slot"`
}

func (s *Server) handleUnequip(w http.ResponseWriter, r *http.Request) {
	var req unequipRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ch, err := s.stores.Characters.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.engine.UnequipItem(ch, req.Slot); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.stores.Characters.Update(r.Context(), ch); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ch)
}
