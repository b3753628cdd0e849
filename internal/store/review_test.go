// internal/store/review_test.go
package store

import (
	"context"
	"testing"
	"time"

	apperrors "provider-workflow/internal/common/errors"
	"provider-workflow/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingRow(appID, userID string) *sqlmock.Rows {
	return sqlmock.NewRows(applicationRowColumns).
		AddRow(appID, userID, "Sparkle Cleaning Co",
			"We clean residential and commercial properties with eco-friendly products.",
			5, "{1,3}", "4035550142", "123 Main Street, Calgary",
			"pending", time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC), nil, nil, nil)
}

func TestApprove_CommitsApplicationAndUserUpdate(t *testing.T) {
	store, mock, cleanup := newTestStore(t)
	defer cleanup()

	reviewedAt := time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM provider_applications WHERE id = \$1 FOR UPDATE`).
		WithArgs("app-1").
		WillReturnRows(pendingRow("app-1", "user-1"))
	mock.ExpectExec(`UPDATE provider_applications SET status = 'approved'`).
		WithArgs(reviewedAt, "admin-1", "app-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users SET role = 'provider'`).
		WithArgs(
			"We clean residential and commercial properties with eco-friendly products.",
			"4035550142",
			"123 Main Street, Calgary",
			reviewedAt,
			"user-1",
		).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	app, err := store.Approve(context.Background(), "app-1", "admin-1", reviewedAt)

	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, app.Status)
	require.NotNil(t, app.ReviewedAt)
	assert.Equal(t, reviewedAt, *app.ReviewedAt)
	require.NotNil(t, app.ReviewedBy)
	assert.Equal(t, "admin-1", *app.ReviewedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprove_MissingApplicationRollsBack(t *testing.T) {
	store, mock, cleanup := newTestStore(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(applicationRowColumns))
	mock.ExpectRollback()

	_, err := store.Approve(context.Background(), "nope", "admin-1", time.Now())

	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprove_AlreadyProcessedRollsBack(t *testing.T) {
	store, mock, cleanup := newTestStore(t)
	defer cleanup()

	reviewedAt := time.Date(2025, 6, 5, 10, 0, 0, 0, time.UTC)
	reason := "Incomplete details"

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs("app-1").
		WillReturnRows(sqlmock.NewRows(applicationRowColumns).
			AddRow("app-1", "user-1", "Sparkle Cleaning Co",
				"We clean residential and commercial properties with eco-friendly products.",
				5, "{1,3}", "4035550142", "123 Main Street, Calgary",
				"rejected", reviewedAt.Add(-time.Hour), reviewedAt, "admin-2", reason))
	mock.ExpectRollback()

	_, err := store.Approve(context.Background(), "app-1", "admin-1", time.Now())

	require.Error(t, err)
	wfErr, ok := apperrors.AsWorkflowError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeAlreadyProcessed, wfErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprove_UserUpdateFailureRollsBack(t *testing.T) {
	store, mock, cleanup := newTestStore(t)
	defer cleanup()

	reviewedAt := time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs("app-1").
		WillReturnRows(pendingRow("app-1", "user-1"))
	mock.ExpectExec(`UPDATE provider_applications SET status = 'approved'`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users SET role = 'provider'`).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := store.Approve(context.Background(), "app-1", "admin-1", reviewedAt)

	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReject_CommitsApplicationUpdateOnly(t *testing.T) {
	store, mock, cleanup := newTestStore(t)
	defer cleanup()

	reviewedAt := time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC)
	reason := "Service categories do not match the listed experience"

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs("app-1").
		WillReturnRows(pendingRow("app-1", "user-1"))
	mock.ExpectExec(`UPDATE provider_applications SET status = 'rejected'`).
		WithArgs(reviewedAt, "admin-1", reason, "app-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	app, err := store.Reject(context.Background(), "app-1", "admin-1", reason, reviewedAt)

	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, app.Status)
	require.NotNil(t, app.RejectionReason)
	assert.Equal(t, reason, *app.RejectionReason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReject_AlreadyProcessedRollsBack(t *testing.T) {
	store, mock, cleanup := newTestStore(t)
	defer cleanup()

	reviewedAt := time.Date(2025, 6, 5, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs("app-1").
		WillReturnRows(sqlmock.NewRows(applicationRowColumns).
			AddRow("app-1", "user-1", "Sparkle Cleaning Co",
				"We clean residential and commercial properties with eco-friendly products.",
				5, "{1,3}", "4035550142", "123 Main Street, Calgary",
				"approved", reviewedAt.Add(-time.Hour), reviewedAt, "admin-2", nil))
	mock.ExpectRollback()

	_, err := store.Reject(context.Background(), "app-1", "admin-1", "Some valid reason text", time.Now())

	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeAlreadyProcessed))
	assert.NoError(t, mock.ExpectationsWereMet())
}
