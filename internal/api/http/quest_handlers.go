package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	appLifecycle "github.com/questledger/questledger/internal/application/lifecycle"
	"github.com/questledger/questledger/internal/domain/audit"
	"github.com/questledger/questledger/internal/domain/ledger"
	"github.com/questledger/questledger/internal/domain/quest"
)

type questCreateRequest struct {
	QuestKey      int64  `json:"quest_key"`
	Title         string `json:"title"`
	Creator       string `json:"creator"`
	DraftDuration string `json:"draft_duration,omitempty"`
}

type transitionRequest struct {
	AuthorityID string `json:"authority_id,omitempty"`
	// Duration of the voting window an edge opens, where applicable.
	WindowDuration string `json:"window_duration,omitempty"`
	// Answer set for publish.
	Answers []int64 `json:"answers,omitempty"`
	// Winning answer for the answer edge.
	AnswerKey *int64 `json:"answer_key,omitempty"`
}

type unsignedRequest struct {
	Operation string                 `json:"operation"`
	Params    map[string]interface{} `json:"params,omitempty"`
}

func (s *Server) createQuest(w http.ResponseWriter, r *http.Request) {
	var req questCreateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if req.QuestKey <= 0 || req.Title == "" || req.Creator == "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "quest_key, title and creator are required")
		return
	}
	draft := s.windows.Draft
	if req.DraftDuration != "" {
		d, err := time.ParseDuration(req.DraftDuration)
		if err != nil || d <= 0 {
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid draft_duration")
			return
		}
		draft = d
	}
	q, err := s.lifecycleSvc.CreateQuest(r.Context(), req.QuestKey, req.Title, req.Creator, draft)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, q)
}

func (s *Server) getQuest(w http.ResponseWriter, r *http.Request) {
	questKey, err := parseQuestKey(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid quest key")
		return
	}
	q, err := s.lifecycleSvc.GetQuest(r.Context(), questKey)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, q)
}

func (s *Server) listQuests(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 50, 200)
	filter := quest.Filter{}
	if v := r.URL.Query().Get("status"); v != "" {
		st := quest.Status(v)
		filter.Status = &st
	}
	if v := r.URL.Query().Get("creator"); v != "" {
		filter.Creator = &v
	}
	quests, err := s.lifecycleSvc.ListQuests(r.Context(), filter, limit, offset)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"quests": quests,
		"limit":  limit,
		"offset": offset,
	})
}

func (s *Server) advanceToDecision(w http.ResponseWriter, r *http.Request) {
	questKey, req, auth, ok := s.transitionInput(w, r)
	if !ok {
		return
	}
	window := parseWindow(req.WindowDuration, s.windows.Decision)
	out, err := s.lifecycleSvc.AdvanceToDecision(r.Context(), auth, questKey, window)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondOutcome(w, out)
}

func (s *Server) publishMarket(w http.ResponseWriter, r *http.Request) {
	questKey, req, auth, ok := s.transitionInput(w, r)
	if !ok {
		return
	}
	window := parseWindow(req.WindowDuration, s.windows.Answer)
	out, err := s.lifecycleSvc.PublishMarket(r.Context(), auth, questKey, req.Answers, window)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondOutcome(w, out)
}

func (s *Server) selectAnswer(w http.ResponseWriter, r *http.Request) {
	questKey, req, auth, ok := s.transitionInput(w, r)
	if !ok {
		return
	}
	if req.AnswerKey == nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "answer_key is required")
		return
	}
	out, err := s.lifecycleSvc.SelectAnswer(r.Context(), auth, questKey, *req.AnswerKey)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondOutcome(w, out)
}

func (s *Server) markMarketSuccess(w http.ResponseWriter, r *http.Request) {
	s.simpleTransition(w, r, s.lifecycleSvc.MarkMarketSuccess)
}

func (s *Server) finishQuest(w http.ResponseWriter, r *http.Request) {
	s.simpleTransition(w, r, s.lifecycleSvc.Finish)
}

func (s *Server) adjournQuest(w http.ResponseWriter, r *http.Request) {
	s.simpleTransition(w, r, s.lifecycleSvc.Adjourn)
}

func (s *Server) rejectQuest(w http.ResponseWriter, r *http.Request) {
	s.simpleTransition(w, r, s.lifecycleSvc.Reject)
}

func (s *Server) retrieveQuest(w http.ResponseWriter, r *http.Request) {
	s.simpleTransition(w, r, s.lifecycleSvc.Retrieve)
}

func (s *Server) buildUnsigned(w http.ResponseWriter, r *http.Request) {
	questKey, err := parseQuestKey(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid quest key")
		return
	}
	var req unsignedRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	payload, err := s.lifecycleSvc.BuildUnsigned(r.Context(), ledger.Operation(req.Operation), questKey, req.Params)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, payload)
}

func (s *Server) questAudit(w http.ResponseWriter, r *http.Request) {
	questKey := chi.URLParam(r, "questKey")
	limit, offset := parseLimitOffset(r, 50, 200)
	logs, err := s.auditSvc.ListByEntity(r.Context(), audit.EntityTypeQuest, questKey, limit, offset)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"logs": logs})
}

type transitionFunc func(ctx context.Context, auth ledger.Authority, questKey int64) (*appLifecycle.Outcome, error)

func (s *Server) simpleTransition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	questKey, _, auth, ok := s.transitionInput(w, r)
	if !ok {
		return
	}
	out, err := fn(r.Context(), auth, questKey)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondOutcome(w, out)
}

func (s *Server) transitionInput(w http.ResponseWriter, r *http.Request) (int64, transitionRequest, ledger.Authority, bool) {
	var zero ledger.Authority
	questKey, err := parseQuestKey(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid quest key")
		return 0, transitionRequest{}, zero, false
	}
	var req transitionRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
			return 0, transitionRequest{}, zero, false
		}
	}
	auth, err := s.authority(req.AuthorityID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "UNKNOWN_AUTHORITY", err.Error())
		return 0, transitionRequest{}, zero, false
	}
	return questKey, req, auth, true
}

func parseWindow(raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
