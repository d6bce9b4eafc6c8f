package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/wallet"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/platform/logging"
	"github.com/sunnygoyal1983/play11-w-sub000/internal/usecase"
)

type Handler struct {
	schedulerService  *usecase.SchedulerService
	liveService       *usecase.LiveService
	settlementService *usecase.SettlementService
	logger            *logging.Logger
	validator         *validator.Validate
}

func NewHandler(
	schedulerService *usecase.SchedulerService,
	liveService *usecase.LiveService,
	settlementService *usecase.SettlementService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		schedulerService:  schedulerService,
		liveService:       liveService,
		settlementService: settlementService,
		logger:            logger,
		validator:         validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetLiveMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLiveMatch")
	defer span.End()

	matchID := r.PathValue("matchID")
	data, err := h.liveService.GetLiveMatchData(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "get live match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, data)
}

func (h *Handler) GetMatchLineup(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatchLineup")
	defer span.End()

	matchID := r.PathValue("matchID")
	lineup, err := h.liveService.RefreshLineup(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "get match lineup failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, lineup)
}

type matchPollDTO struct {
	MatchID string `json:"match_id"`
	Polled  bool   `json:"polled"`
}

func (h *Handler) TriggerMatchPoll(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.TriggerMatchPoll")
	defer span.End()

	matchID := r.PathValue("matchID")
	polled, err := h.schedulerService.TriggerMatchUpdate(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "manual match poll failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchPollDTO{MatchID: matchID, Polled: polled})
}

type settlementResultDTO struct {
	MatchID string `json:"match_id"`
	Settled bool   `json:"settled"`
}

func (h *Handler) ForceSettleMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ForceSettleMatch")
	defer span.End()

	matchID := r.PathValue("matchID")
	if err := h.settlementService.ForceSettle(ctx, matchID); err != nil {
		h.logger.ErrorContext(ctx, "force settle failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, settlementResultDTO{MatchID: matchID, Settled: true})
}

type ballResyncDTO struct {
	MatchID  string `json:"match_id"`
	Inserted int    `json:"inserted"`
	Skipped  int    `json:"skipped"`
	Failed   int    `json:"failed"`
}

func (h *Handler) ResyncMatchBalls(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResyncMatchBalls")
	defer span.End()

	matchID := r.PathValue("matchID")
	outcome, err := h.schedulerService.ResyncBalls(ctx, matchID)
	if err != nil {
		h.logger.ErrorContext(ctx, "ball resync failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, ballResyncDTO{
		MatchID:  matchID,
		Inserted: outcome.Inserted,
		Skipped:  outcome.Skipped,
		Failed:   outcome.Failed,
	})
}

// replayPayoutRequest matches the payload the replay queue forwards
// back from a published FailureRecord.
type replayPayoutRequest struct {
	FailureID string  `json:"failure_id"`
	UserID    string  `json:"user_id" validate:"required"`
	ContestID string  `json:"contest_id"`
	EntryID   string  `json:"entry_id" validate:"required"`
	Rank      int     `json:"rank" validate:"required,min=1"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Reason    string  `json:"reason"`
}

type replayPayoutDTO struct {
	ContestID string `json:"contest_id"`
	EntryID   string `json:"entry_id"`
	Replayed  bool   `json:"replayed"`
}

func (h *Handler) ReplaySettlementPayout(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ReplaySettlementPayout")
	defer span.End()

	contestID := r.PathValue("contestID")

	var req replayPayoutRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid request body: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	err := h.settlementService.ReplayPayout(ctx, wallet.FailureRecord{
		ID:        req.FailureID,
		UserID:    req.UserID,
		ContestID: contestID,
		EntryID:   req.EntryID,
		Rank:      req.Rank,
		Amount:    req.Amount,
		Reason:    req.Reason,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "replay payout failed",
			"contest_id", contestID,
			"entry_id", req.EntryID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, replayPayoutDTO{
		ContestID: contestID,
		EntryID:   req.EntryID,
		Replayed:  true,
	})
}

type settlementFailureDTO struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ContestID string    `json:"contest_id"`
	EntryID   string    `json:"entry_id"`
	Rank      int       `json:"rank"`
	Amount    float64   `json:"amount"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) ListSettlementFailures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSettlementFailures")
	defer span.End()

	contestID := r.PathValue("contestID")
	records, err := h.settlementService.ListFailures(ctx, contestID)
	if err != nil {
		h.logger.WarnContext(ctx, "list settlement failures failed", "contest_id", contestID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]settlementFailureDTO, 0, len(records))
	for _, rec := range records {
		items = append(items, settlementFailureDTO{
			ID:        rec.ID,
			UserID:    rec.UserID,
			ContestID: rec.ContestID,
			EntryID:   rec.EntryID,
			Rank:      rec.Rank,
			Amount:    rec.Amount,
			Reason:    rec.Reason,
			CreatedAt: rec.CreatedAt,
		})
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}
