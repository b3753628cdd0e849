// internal/store/review.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "provider-workflow/internal/common/errors"
	"provider-workflow/internal/models"
)

// Approve moves a pending application to approved and promotes the owning
// user in one transaction. The row lock taken by the initial SELECT makes
// concurrent review attempts serialize: the second sees a terminal status
// and fails with an already-processed error.
func (s *Store) Approve(ctx context.Context, applicationID, reviewerID string, reviewedAt time.Time) (*models.Application, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin approve tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	app, err := lockApplication(ctx, tx, applicationID)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE provider_applications
		SET status = 'approved', reviewed_at = $1, reviewed_by = $2
		WHERE id = $3`,
		reviewedAt, reviewerID, applicationID)
	if err != nil {
		return nil, fmt.Errorf("update application status: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE users
		SET role = 'provider', bio = $1, phone_number = $2, service_address = $3, updated_at = $4
		WHERE id = $5`,
		app.Bio, app.PhoneNumber, app.ServiceAddress, reviewedAt, app.UserID)
	if err != nil {
		return nil, fmt.Errorf("promote user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit approve tx: %w", err)
	}

	app.Status = models.StatusApproved
	app.ReviewedAt = &reviewedAt
	app.ReviewedBy = &reviewerID
	return app, nil
}

// Reject moves a pending application to rejected with the reviewer's reason.
// Only the application row is touched; user state is unchanged.
func (s *Store) Reject(ctx context.Context, applicationID, reviewerID, reason string, reviewedAt time.Time) (*models.Application, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin reject tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	app, err := lockApplication(ctx, tx, applicationID)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE provider_applications
		SET status = 'rejected', reviewed_at = $1, reviewed_by = $2, rejection_reason = $3
		WHERE id = $4`,
		reviewedAt, reviewerID, reason, applicationID)
	if err != nil {
		return nil, fmt.Errorf("update application status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reject tx: %w", err)
	}

	app.Status = models.StatusRejected
	app.ReviewedAt = &reviewedAt
	app.ReviewedBy = &reviewerID
	app.RejectionReason = &reason
	return app, nil
}

// lockApplication loads the application row under FOR UPDATE and verifies it
// is still pending.
func lockApplication(ctx context.Context, tx *sql.Tx, applicationID string) (*models.Application, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT `+applicationColumns+`
		FROM provider_applications
		WHERE id = $1
		FOR UPDATE`, applicationID)

	app, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("Application", applicationID)
	}
	if err != nil {
		return nil, fmt.Errorf("lock application: %w", err)
	}

	if app.Status != models.StatusPending {
		return nil, apperrors.NewAlreadyProcessedError(app.ID, app.Status)
	}

	return app, nil
}
