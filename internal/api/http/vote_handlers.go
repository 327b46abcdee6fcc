package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	appBallot "github.com/questledger/questledger/internal/application/ballot"
	"github.com/questledger/questledger/internal/domain/vote"
)

type voteCastRequest struct {
	AuthorityID string `json:"authority_id,omitempty"`
	Voter       string `json:"voter"`
	Phase       string `json:"phase"`
	Option      int64  `json:"option"`
	Power       int64  `json:"power"`
}

func (s *Server) castVote(w http.ResponseWriter, r *http.Request) {
	questKey, err := parseQuestKey(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid quest key")
		return
	}
	var req voteCastRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if req.Voter == "" || req.Phase == "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "voter and phase are required")
		return
	}
	auth, err := s.authority(req.AuthorityID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "UNKNOWN_AUTHORITY", err.Error())
		return
	}
	v, err := s.ballotSvc.Cast(r.Context(), auth, appBallot.Request{
		QuestKey: questKey,
		Voter:    req.Voter,
		Phase:    vote.Phase(req.Phase),
		Option:   req.Option,
		Power:    req.Power,
	})
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

func (s *Server) listVotes(w http.ResponseWriter, r *http.Request) {
	questKey, err := parseQuestKey(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid quest key")
		return
	}
	votes, err := s.ballotSvc.ListByQuest(r.Context(), questKey)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"votes": votes})
}

func (s *Server) getVote(w http.ResponseWriter, r *http.Request) {
	questKey, err := parseQuestKey(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid quest key")
		return
	}
	voter := chi.URLParam(r, "voter")
	v, err := s.ballotSvc.Get(r.Context(), questKey, voter)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

type voteRewardRequest struct {
	Reward int64 `json:"reward"`
}

func (s *Server) setVoteReward(w http.ResponseWriter, r *http.Request) {
	questKey, err := parseQuestKey(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid quest key")
		return
	}
	voter := chi.URLParam(r, "voter")
	var req voteRewardRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if req.Reward < 0 {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "reward must not be negative")
		return
	}
	if err := s.ballotSvc.SetReward(r.Context(), questKey, voter, req.Reward); err != nil {
		s.respondServiceError(w, err)
		return
	}
	v, err := s.ballotSvc.Get(r.Context(), questKey, voter)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

func (s *Server) reconcileAll(w http.ResponseWriter, r *http.Request) {
	report, err := s.reconcileSvc.Reconcile(r.Context())
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (s *Server) reconcileQuest(w http.ResponseWriter, r *http.Request) {
	questKey, err := parseQuestKey(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid quest key")
		return
	}
	report, err := s.reconcileSvc.ReconcileQuest(r.Context(), questKey)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}
