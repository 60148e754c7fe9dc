// Package services wires the divination pipeline together: one cast runs
// compute, interpret, render, quota charge and history append as a unit.
package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"liuyao/internal/config"
	"liuyao/internal/divination"
	"liuyao/internal/history"
	"liuyao/internal/interpreter"
	"liuyao/internal/logging"
	"liuyao/internal/models"
	"liuyao/internal/quota"
)

// DivinationService orchestrates a full cast. The quota is charged only
// after every step has succeeded; a failed cast never burns a use.
type DivinationService struct {
	calculator *divination.Calculator
	interp     *interpreter.Interpreter
	quota      *quota.Store
	history    *history.Store
	settings   *config.Settings
	metrics    *Metrics

	now func() time.Time
}

// NewDivinationService creates the orchestrator. metrics may be nil in tests.
func NewDivinationService(
	calculator *divination.Calculator,
	interp *interpreter.Interpreter,
	quotaStore *quota.Store,
	historyStore *history.Store,
	settings *config.Settings,
	metrics *Metrics,
) *DivinationService {
	return &DivinationService{
		calculator: calculator,
		interp:     interp,
		quota:      quotaStore,
		history:    historyStore,
		settings:   settings,
		metrics:    metrics,
		now:        time.Now,
	}
}

// Divine runs one cast end to end and returns the full result payload.
func (s *DivinationService) Divine(ctx context.Context, req *models.DivineRequest) (*models.DivinationResult, error) {
	start := s.now()
	requestID := uuid.New().String()
	logger := logging.WithRequest(requestID, req.UserID, req.Method)

	if req.UserID == "" {
		s.countError("validation")
		return nil, &models.ValidationError{Field: "user_id", Message: "user_id is required"}
	}

	hexagram, err := s.calculator.Compute(req.Method, req.Question, req.UserID)
	if err != nil {
		s.countError("computation")
		return nil, err
	}

	useLLM := req.UseLLM && s.settings.LLM.Enabled
	interp, source := s.interp.Interpret(ctx, hexagram.OriginalNumber, hexagram.ChangedNumber,
		hexagram.Moving, req.Question, useLLM)

	rendering := divination.Render(hexagram.Original, hexagram.Changed, hexagram.Moving,
		s.settings.Display.Style)

	// The cast succeeded; charge the quota and persist history. A storage
	// failure here still fails the request so the caller never sees a result
	// that was not accounted for.
	if err := s.quota.RecordUse(req.UserID); err != nil {
		s.countError("storage")
		return nil, err
	}
	remaining, err := s.quota.Remaining(req.UserID)
	if err != nil {
		s.countError("storage")
		return nil, err
	}

	record := s.history.BuildRecord(req.Question, hexagram, interp)
	if err := s.history.Append(req.UserID, record); err != nil {
		s.countError("storage")
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.Divinations.WithLabelValues(req.Method).Inc()
		s.metrics.InterpretationSrc.WithLabelValues(string(source)).Inc()
		s.metrics.DivinationLatency.Observe(s.now().Sub(start).Seconds())
	}
	logger.Info("divination completed",
		"original", hexagram.OriginalNumber,
		"changed", hexagram.ChangedNumber,
		"source", string(source),
		"remaining", remaining,
	)

	return &models.DivinationResult{
		ID:             requestID,
		UserID:         req.UserID,
		Method:         req.Method,
		Question:       req.Question,
		Hexagram:       hexagram,
		Rendering:      rendering,
		Interpretation: interp,
		Remaining:      remaining,
		CreatedAt:      s.now().Format(time.RFC3339),
	}, nil
}

// QuotaStatus reports a user's current standing against the daily limit.
func (s *DivinationService) QuotaStatus(userID string) (*models.QuotaStatus, error) {
	remaining, err := s.quota.Remaining(userID)
	if err != nil {
		return nil, err
	}
	return &models.QuotaStatus{
		UserID:    userID,
		Used:      s.quota.DailyMax() - remaining,
		Limit:     s.quota.DailyMax(),
		Remaining: remaining,
		ResetAt:   s.quota.NextResetTime().Format(time.RFC3339),
	}, nil
}

// ResetQuota clears one user's usage for today. Admin only; the handler
// enforces that.
func (s *DivinationService) ResetQuota(userID string) error {
	if err := s.quota.ResetUser(userID); err != nil {
		return err
	}
	log.Printf("🔄 [QUOTA] Usage reset for user %s", userID)
	return nil
}

// Statistics aggregates usage across all users.
func (s *DivinationService) Statistics() (*models.QuotaStatistics, error) {
	return s.quota.Statistics()
}

// History returns a user's recent casts, newest first.
func (s *DivinationService) History(userID string, limit int) ([]models.HistoryRecord, error) {
	if limit <= 0 || limit > history.MaxRecords {
		limit = history.MaxRecords
	}
	return s.history.Recent(userID, limit)
}

// ClearHistory drops all of a user's stored casts.
func (s *DivinationService) ClearHistory(userID string) error {
	return s.history.Clear(userID)
}

func (s *DivinationService) countError(errorType string) {
	if s.metrics != nil {
		s.metrics.DivinationErrors.WithLabelValues(errorType).Inc()
	}
}
