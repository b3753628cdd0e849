// internal/workflow/engine.go
// Package workflow implements the provider application review workflow:
// submission with eligibility checks, status queries, admin review actions
// and the atomic client-to-provider promotion on approval.
package workflow

import (
	"context"
	"strings"
	"time"

	apperrors "provider-workflow/internal/common/errors"
	"provider-workflow/internal/common/logger"
	"provider-workflow/internal/common/metrics"
	"provider-workflow/internal/models"
)

// Engine orchestrates the application lifecycle. It is stateless between
// calls; all state lives in the injected stores.
type Engine struct {
	apps     ApplicationStore
	users    UserDirectory
	notifier Dispatcher
	counts   CountsCache
	logger   logger.Logger

	// now is replaceable in tests.
	now func() time.Time

	// dispatchTimeout bounds each fire-and-forget notification attempt.
	dispatchTimeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine's time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithCountsCache attaches a status-counts cache to the listing path.
func WithCountsCache(cache CountsCache) Option {
	return func(e *Engine) { e.counts = cache }
}

// WithDispatchTimeout bounds each notification attempt.
func WithDispatchTimeout(d time.Duration) Option {
	return func(e *Engine) { e.dispatchTimeout = d }
}

// NewEngine creates a workflow engine with injected collaborators.
func NewEngine(apps ApplicationStore, users UserDirectory, notifier Dispatcher, log logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		apps:            apps,
		users:           users,
		notifier:        notifier,
		logger:          log.WithFields(map[string]interface{}{"component": "workflow-engine"}),
		now:             time.Now,
		dispatchTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Submit validates the payload, checks eligibility and persists a new
// pending application. The store's partial unique index is the authority for
// the one-pending-per-user invariant; the eligibility read here only gives
// callers a precise error for the common cases.
func (e *Engine) Submit(ctx context.Context, userID string, payload *models.SubmissionPayload) (*models.Application, error) {
	result := ValidatePayload(payload)
	if !result.Valid {
		return nil, apperrors.NewValidationError(result.FieldErrors)
	}

	user, err := e.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NewNotFoundError("User", userID)
	}

	if user.Role == models.RoleProvider || user.Role == models.RoleAdmin {
		metrics.SubmissionsRejected.WithLabelValues(string(apperrors.ErrCodeRoleIneligible)).Inc()
		return nil, apperrors.NewRoleIneligibleError(user.Role)
	}

	latest, err := e.apps.LatestByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if latest != nil {
		switch latest.Status {
		case models.StatusPending:
			metrics.SubmissionsRejected.WithLabelValues(string(apperrors.ErrCodeDuplicatePending)).Inc()
			return nil, apperrors.NewDuplicatePendingError(userID)
		case models.StatusRejected:
			if latest.ReviewedAt != nil {
				reapplyAt := latest.ReviewedAt.Add(models.CooldownPeriod)
				if e.now().Before(reapplyAt) {
					metrics.SubmissionsRejected.WithLabelValues(string(apperrors.ErrCodeCooldownActive)).Inc()
					return nil, apperrors.NewCooldownError(reapplyAt)
				}
			}
		}
	}

	app := &models.Application{
		UserID:            userID,
		BusinessName:      strings.TrimSpace(payload.BusinessName),
		Bio:               strings.TrimSpace(payload.Bio),
		YearsOfExperience: int(*payload.YearsOfExperience),
		ServiceCategories: payload.ServiceCategories,
		PhoneNumber:       strings.TrimSpace(payload.PhoneNumber),
		ServiceAddress:    strings.TrimSpace(payload.ServiceAddress),
		Status:            models.StatusPending,
		SubmittedAt:       e.now().UTC(),
	}

	created, err := e.apps.Create(ctx, app)
	if err != nil {
		// The second of two concurrent submissions loses the insert race and
		// surfaces here as a duplicate-pending error from the store.
		if apperrors.IsCode(err, apperrors.ErrCodeDuplicatePending) {
			metrics.SubmissionsRejected.WithLabelValues(string(apperrors.ErrCodeDuplicatePending)).Inc()
		}
		return nil, err
	}

	metrics.ApplicationsSubmitted.Inc()
	e.invalidateCounts()
	e.dispatch(models.NotificationSubmitted, created.UserID, func(ctx context.Context) error {
		return e.notifier.NotifySubmitted(ctx, created.UserID)
	})

	e.logger.Info("application submitted", map[string]interface{}{
		"applicationId": created.ID,
		"userId":        created.UserID,
	})

	return created, nil
}

// Status returns the most recent application for a user with derived
// reapplication fields, or nil if the user has never applied.
func (e *Engine) Status(ctx context.Context, userID string) (*models.ApplicationStatusView, error) {
	app, err := e.apps.LatestByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, nil
	}

	view := &models.ApplicationStatusView{
		ID:              app.ID,
		Status:          app.Status,
		SubmittedAt:     app.SubmittedAt,
		ReviewedAt:      app.ReviewedAt,
		RejectionReason: app.RejectionReason,
	}

	if app.Status == models.StatusRejected && app.ReviewedAt != nil {
		reapplyAt := app.ReviewedAt.Add(models.CooldownPeriod)
		if e.now().Before(reapplyAt) {
			view.ReapplyDate = &reapplyAt
		} else {
			view.CanReapply = true
		}
	}

	return view, nil
}

// Approve transitions a pending application to approved and, in the same
// transaction, promotes the owning user to provider with the application's
// profile fields.
func (e *Engine) Approve(ctx context.Context, applicationID, reviewerID string) (*models.Application, error) {
	app, err := e.apps.Approve(ctx, applicationID, reviewerID, e.now().UTC())
	if err != nil {
		return nil, err
	}

	metrics.ApplicationsReviewed.WithLabelValues(models.StatusApproved).Inc()
	e.invalidateCounts()
	e.dispatch(models.NotificationApproved, app.UserID, func(ctx context.Context) error {
		return e.notifier.NotifyApproved(ctx, app.UserID)
	})

	e.logger.Info("application approved", map[string]interface{}{
		"applicationId": app.ID,
		"userId":        app.UserID,
		"reviewerId":    reviewerID,
	})

	return app, nil
}

// Reject transitions a pending application to rejected with a reviewer
// reason of at least 10 characters.
func (e *Engine) Reject(ctx context.Context, applicationID, reviewerID, reason string) (*models.Application, error) {
	if len(strings.TrimSpace(reason)) < 10 {
		return nil, apperrors.NewInvalidReasonError()
	}

	app, err := e.apps.Reject(ctx, applicationID, reviewerID, reason, e.now().UTC())
	if err != nil {
		return nil, err
	}

	metrics.ApplicationsReviewed.WithLabelValues(models.StatusRejected).Inc()
	e.invalidateCounts()
	e.dispatch(models.NotificationRejected, app.UserID, func(ctx context.Context) error {
		return e.notifier.NotifyRejected(ctx, app.UserID, reason)
	})

	e.logger.Info("application rejected", map[string]interface{}{
		"applicationId": app.ID,
		"userId":        app.UserID,
		"reviewerId":    reviewerID,
	})

	return app, nil
}

// List returns the admin listing page with global status counts. Counts come
// from the cache when warm; the filtered rows always come from the store.
func (e *Engine) List(ctx context.Context, filter models.ListFilter, page models.Pagination) (*models.ApplicationPage, error) {
	if page.Page < 1 {
		page.Page = 1
	}
	if page.Limit < 1 {
		page.Limit = 10
	}

	apps, meta, err := e.apps.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}

	counts, err := e.statusCounts(ctx)
	if err != nil {
		return nil, err
	}

	return &models.ApplicationPage{
		Applications: apps,
		Pagination:   meta,
		Counts:       counts,
	}, nil
}

func (e *Engine) statusCounts(ctx context.Context) (models.StatusCounts, error) {
	if e.counts != nil {
		if counts, ok := e.counts.Get(ctx); ok {
			return counts, nil
		}
	}

	counts, err := e.apps.StatusCounts(ctx)
	if err != nil {
		return models.StatusCounts{}, err
	}

	if e.counts != nil {
		e.counts.Set(ctx, counts)
	}
	return counts, nil
}

func (e *Engine) invalidateCounts() {
	if e.counts == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	e.counts.Invalidate(ctx)
}

// dispatch runs one notification attempt on a detached goroutine, outside
// any transaction. Failures are logged and counted; they never reach the
// caller of the surrounding transition.
func (e *Engine) dispatch(event, userID string, fn func(context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.dispatchTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			metrics.NotificationFailures.WithLabelValues(event).Inc()
			e.logger.Warn("notification dispatch failed", map[string]interface{}{
				"event":  event,
				"userId": userID,
				"error":  err.Error(),
			})
		}
	}()
}
