package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/meteoright00/diary-quest-sub001/internal/character"
	"github.com/meteoright00/diary-quest-sub001/internal/diary"
)

type createDiaryRequest struct {
	CharacterID string `json:"characterId"`
	Date        string `json:"date,omitempty"`
	Title       string `json:"title,omitempty"`
	Text        string `json:"text"`
}

type createDiaryResponse struct {
	Diary       *diary.Diary     `json:"diary"`
	Progression character.Result `json:"progression"`
}

// handleCreateDiary converts the raw entry, persists it, and applies the
// progression side effects to the owning character: experience, gold and
// the streak counters. The response carries both the assembled diary and
// the progression result so clients can announce level-ups immediately.
func (s *Server) handleCreateDiary(w http.ResponseWriter, r *http.Request) {
	var req createDiaryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CharacterID == "" {
		writeError(w, http.StatusBadRequest, "characterId is required")
		return
	}
	if s.provider == nil {
		writeError(w, http.StatusServiceUnavailable, "no llm provider configured")
		return
	}

	ctx := r.Context()
	ch, err := s.stores.Characters.Get(ctx, req.CharacterID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	date := diary.Day(time.Now())
	if req.Date != "" {
		if date, err = parseDay(req.Date); err != nil {
			s.fail(w, r, err)
			return
		}
	}

	d, err := s.newConverter().Convert(ctx, diary.ConvertRequest{
		Character: ch,
		Date:      date,
		Title:     req.Title,
		Text:      req.Text,
	})
	if err != nil {
		s.metrics.RecordConversion(ctx, "error")
		s.fail(w, r, err)
		return
	}
	s.metrics.RecordConversion(ctx, "ok")

	if err := s.stores.Diaries.Create(ctx, d); err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := s.applyProgression(ctx, ch, d)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.metrics.RecordLevelUps(ctx, ch.ID, int64(res.LevelsGained))

	if s.index != nil {
		// Indexing is best effort; the entry is already saved.
		if err := s.index.IndexDiary(ctx, d); err != nil {
			slog.WarnContext(ctx, "diary indexing failed", "id", d.ID, "error", err)
		}
	}

	writeJSON(w, http.StatusCreated, createDiaryResponse{Diary: d, Progression: res})
}

// applyProgression feeds one saved entry into the progression engine and
// persists the resulting character state. The streak extends when the
// previous calendar day has at least one entry.
func (s *Server) applyProgression(ctx context.Context, ch *character.Character, d *diary.Diary) (character.Result, error) {
	rewards := d.TotalRewards()
	res, err := s.engine.AddExperience(ch, rewards.Exp)
	if err != nil {
		return character.Result{}, err
	}
	if err := s.engine.AddCurrency(ch, rewards.Gold, 0); err != nil {
		return character.Result{}, err
	}

	prev := d.Date.AddDate(0, 0, -1)
	prevEntries, err := s.stores.Diaries.ListByPeriod(ctx, ch.ID, prev, prev)
	if err != nil {
		return character.Result{}, err
	}
	s.engine.UpdateDiaryStatistics(ch, d.Metadata.WordCount, len(prevEntries) > 0)

	if err := s.stores.Characters.Update(ctx, ch); err != nil {
		return character.Result{}, err
	}
	return res, nil
}

func (s *Server) handleGetDiary(w http.ResponseWriter, r *http.Request) {
	d, err := s.stores.Diaries.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleListDiaries lists a character's entries, the whole history by
// default or a window when both start and end query parameters are given.
func (s *Server) handleListDiaries(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	q := r.URL.Query()
	startStr, endStr := q.Get("start"), q.Get("end")

	var (
		entries []*diary.Diary
		err     error
	)
	switch {
	case startStr == "" && endStr == "":
		entries, err = s.stores.Diaries.ListByCharacter(r.Context(), id)
	case startStr == "" || endStr == "":
		writeError(w, http.StatusBadRequest, "start and end must be given together")
		return
	default:
		var start, end time.Time
		if start, err = parseDay(startStr); err != nil {
			s.fail(w, r, err)
			return
		}
		if end, err = parseDay(endStr); err != nil {
			s.fail(w, r, err)
			return
		}
		if start.After(end) {
			writeError(w, http.StatusBadRequest, "start is after end")
			return
		}
		entries, err = s.stores.Diaries.ListByPeriod(r.Context(), id, start, end)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if entries == nil {
		entries = []*diary.Diary{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleConvertStream upgrades to WebSocket, reads one JSON conversion
// request, and streams the narrative back as text messages. The entry is
// not persisted; clients save through POST /api/diaries once satisfied.
func (s *Server) handleConvertStream(w http.ResponseWriter, r *http.Request) {
	if s.provider == nil {
		writeError(w, http.StatusServiceUnavailable, "no llm provider configured")
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	_, data, err := conn.Read(ctx)
	if err != nil {
		return
	}

	var req createDiaryRequest
	if err := json.Unmarshal(data, &req); err != nil {
		conn.Close(websocket.StatusInvalidFramePayloadData, "invalid request")
		return
	}

	ch, err := s.stores.Characters.Get(ctx, req.CharacterID)
	if err != nil {
		conn.Close(websocket.StatusPolicyViolation, "unknown character")
		return
	}

	date := diary.Day(time.Now())
	if req.Date != "" {
		if date, err = parseDay(req.Date); err != nil {
			conn.Close(websocket.StatusInvalidFramePayloadData, "invalid date")
			return
		}
	}

	chunks, err := s.newConverter().StreamConvert(ctx, diary.ConvertRequest{
		Character: ch,
		Date:      date,
		Title:     req.Title,
		Text:      req.Text,
	})
	if err != nil {
		if errors.Is(err, diary.ErrEmptyText) {
			conn.Close(websocket.StatusInvalidFramePayloadData, "entry text is empty")
			return
		}
		conn.Close(websocket.StatusInternalError, "conversion failed")
		return
	}

	for chunk := range chunks {
		if chunk.FinishReason == "error" {
			conn.Close(websocket.StatusInternalError, "stream failed")
			return
		}
		if chunk.Text == "" {
			continue
		}
		if err := conn.Write(ctx, websocket.MessageText, []byte(chunk.Text)); err != nil {
			return
		}
	}
	conn.Close(websocket.StatusNormalClosure, "conversion complete")
}
