package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appAudit "github.com/questledger/questledger/internal/application/audit"
	appBallot "github.com/questledger/questledger/internal/application/ballot"
	appLifecycle "github.com/questledger/questledger/internal/application/lifecycle"
	appReconcile "github.com/questledger/questledger/internal/application/reconcile"
	"github.com/questledger/questledger/internal/domain/ledger"
	"github.com/questledger/questledger/internal/domain/quest"
	"github.com/questledger/questledger/internal/domain/vote"
	"github.com/questledger/questledger/internal/infrastructure/keystore"
)

// WindowDefaults are the voting-window durations used when a request does
// not override them.
type WindowDefaults struct {
	Draft    time.Duration
	Decision time.Duration
	Answer   time.Duration
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	lifecycleSvc     *appLifecycle.Service
	ballotSvc        *appBallot.Service
	reconcileSvc     *appReconcile.Service
	auditSvc         *appAudit.Service
	keys             *keystore.StaticKeyStore
	windows          WindowDefaults
	exposeLedgerLogs bool
}

func NewServer(
	lifecycleSvc *appLifecycle.Service,
	ballotSvc *appBallot.Service,
	reconcileSvc *appReconcile.Service,
	auditSvc *appAudit.Service,
	keys *keystore.StaticKeyStore,
	windows WindowDefaults,
	exposeLedgerLogs bool,
) *Server {
	if windows.Draft <= 0 {
		windows.Draft = 72 * time.Hour
	}
	if windows.Decision <= 0 {
		windows.Decision = 48 * time.Hour
	}
	if windows.Answer <= 0 {
		windows.Answer = 72 * time.Hour
	}
	return &Server{
		lifecycleSvc:     lifecycleSvc,
		ballotSvc:        ballotSvc,
		reconcileSvc:     reconcileSvc,
		auditSvc:         auditSvc,
		keys:             keys,
		windows:          windows,
		exposeLedgerLogs: exposeLedgerLogs,
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/quests", func(r chi.Router) {
			r.Post("/", s.createQuest)
			r.Get("/", s.listQuests)
			r.Get("/{questKey}", s.getQuest)

			r.Post("/{questKey}/decision", s.advanceToDecision)
			r.Post("/{questKey}/publish", s.publishMarket)
			r.Post("/{questKey}/answer", s.selectAnswer)
			r.Post("/{questKey}/market-success", s.markMarketSuccess)
			r.Post("/{questKey}/finish", s.finishQuest)
			r.Post("/{questKey}/adjourn", s.adjournQuest)
			r.Post("/{questKey}/reject", s.rejectQuest)
			r.Post("/{questKey}/retrieve", s.retrieveQuest)
			r.Post("/{questKey}/unsigned", s.buildUnsigned)

			r.Post("/{questKey}/votes", s.castVote)
			r.Get("/{questKey}/votes", s.listVotes)
			r.Get("/{questKey}/votes/{voter}", s.getVote)
			r.Put("/{questKey}/votes/{voter}/reward", s.setVoteReward)

			r.Get("/{questKey}/audit", s.questAudit)
			r.Post("/{questKey}/reconcile", s.reconcileQuest)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/reconcile", s.reconcileAll)
			r.Post("/reconcile/{questKey}", s.reconcileQuest)
		})
	})

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helpers
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func parseQuestKey(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "questKey"), 10, 64)
}

func parseLimitOffset(r *http.Request, defaultLimit, maxLimit int) (int, int) {
	limit := defaultLimit
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil {
			limit = l
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if o, err := strconv.Atoi(v); err == nil {
			offset = o
		}
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// authority resolves the signing authority for a request: an explicit
// authorityId in the body wins, otherwise the configured default is used.
func (s *Server) authority(authorityID string) (ledger.Authority, error) {
	if authorityID != "" {
		return s.keys.Get(authorityID)
	}
	return s.keys.Default()
}

// respondOutcome maps a transition outcome onto HTTP semantics: pending is
// 202, everything else reported as applied is 200. A warning means the
// ledger applied the operation but the local record lags.
func respondOutcome(w http.ResponseWriter, out *appLifecycle.Outcome) {
	body := map[string]interface{}{
		"outcome": out.Status,
	}
	if out.TxRef != "" {
		body["txRef"] = out.TxRef
	}
	if out.Warning != "" {
		body["warning"] = out.Warning
	}
	status := http.StatusOK
	if out.Status == appLifecycle.OutcomePending {
		status = http.StatusAccepted
	}
	respondJSON(w, status, body)
}

// respondServiceError maps domain errors onto status codes. Program logs
// ride along only when configured.
func (s *Server) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quest.ErrNotFound), errors.Is(err, vote.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	case errors.Is(err, quest.ErrPending):
		respondError(w, http.StatusConflict, "TRANSITION_IN_FLIGHT", err.Error())
		return
	case errors.Is(err, quest.ErrInvalidStatus), errors.Is(err, quest.ErrInvalidTransition):
		respondError(w, http.StatusConflict, "INVALID_STATUS", err.Error())
		return
	case errors.Is(err, vote.ErrPhaseOrder):
		respondError(w, http.StatusConflict, "VOTE_PHASE_ORDER", err.Error())
		return
	case errors.Is(err, vote.ErrDuplicate):
		respondError(w, http.StatusConflict, "DUPLICATE_VOTE", err.Error())
		return
	}

	var cerr *ledger.ContractError
	if errors.As(err, &cerr) {
		body := map[string]interface{}{
			"error":   cerr.Code,
			"message": cerr.Detail,
		}
		if s.exposeLedgerLogs && len(cerr.Logs) > 0 {
			body["logs"] = cerr.Logs
		}
		respondJSON(w, http.StatusBadRequest, body)
		return
	}
	var serr *ledger.SubmitError
	if errors.As(err, &serr) {
		respondError(w, http.StatusBadGateway, "LEDGER_UNAVAILABLE", serr.Message)
		return
	}
	respondError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
}
