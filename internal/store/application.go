// internal/store/application.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	apperrors "provider-workflow/internal/common/errors"
	"provider-workflow/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Names from migrations/0001_initial_schema.sql. The partial unique index is
// what makes concurrent duplicate submissions lose deterministically.
const (
	pendingUniqueConstraint = "uq_provider_applications_pending"
	userFKConstraint        = "fk_provider_applications_user"
)

const applicationColumns = `
	id, user_id, business_name, bio, years_of_experience,
	service_categories, phone_number, service_address, status,
	submitted_at, reviewed_at, reviewed_by, rejection_reason`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanApplication(row rowScanner) (*models.Application, error) {
	var app models.Application
	var categories pq.Int64Array

	err := row.Scan(
		&app.ID,
		&app.UserID,
		&app.BusinessName,
		&app.Bio,
		&app.YearsOfExperience,
		&categories,
		&app.PhoneNumber,
		&app.ServiceAddress,
		&app.Status,
		&app.SubmittedAt,
		&app.ReviewedAt,
		&app.ReviewedBy,
		&app.RejectionReason,
	)
	if err != nil {
		return nil, err
	}

	app.ServiceCategories = categories
	return &app, nil
}

// Create inserts a new pending application. A conflicting concurrent insert
// for the same user hits the partial unique index and is returned as a
// duplicate-pending error.
func (s *Store) Create(ctx context.Context, app *models.Application) (*models.Application, error) {
	created := *app
	created.ID = uuid.New().String()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO provider_applications (
			id, user_id, business_name, bio, years_of_experience,
			service_categories, phone_number, service_address, status, submitted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		created.ID,
		created.UserID,
		created.BusinessName,
		created.Bio,
		created.YearsOfExperience,
		pq.Array(created.ServiceCategories),
		created.PhoneNumber,
		created.ServiceAddress,
		created.Status,
		created.SubmittedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch {
			case pqErr.Code == "23505" && pqErr.Constraint == pendingUniqueConstraint:
				return nil, apperrors.NewDuplicatePendingError(created.UserID)
			case pqErr.Code == "23503" && pqErr.Constraint == userFKConstraint:
				return nil, apperrors.NewNotFoundError("User", created.UserID)
			}
		}
		return nil, fmt.Errorf("insert application: %w", err)
	}

	s.logger.Debug("application row inserted", map[string]interface{}{
		"applicationId": created.ID,
		"userId":        created.UserID,
	})

	return &created, nil
}

// GetByID returns the application or nil when it does not exist.
func (s *Store) GetByID(ctx context.Context, id string) (*models.Application, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+applicationColumns+`
		FROM provider_applications
		WHERE id = $1`, id)

	app, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	return app, nil
}

// LatestByUser returns the user's most recently submitted application, or
// nil when the user has never applied.
func (s *Store) LatestByUser(ctx context.Context, userID string) (*models.Application, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+applicationColumns+`
		FROM provider_applications
		WHERE user_id = $1
		ORDER BY submitted_at DESC
		LIMIT 1`, userID)

	app, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest application by user: %w", err)
	}
	return app, nil
}

// List returns one page of the admin listing, joined with applicant and
// reviewer display attributes.
func (s *Store) List(ctx context.Context, filter models.ListFilter, page models.Pagination) ([]models.ApplicationSummary, models.PaginationMeta, error) {
	offset := (page.Page - 1) * page.Limit

	query := `
		SELECT
			pa.id, pa.user_id, pa.business_name, pa.bio, pa.years_of_experience,
			pa.service_categories, pa.phone_number, pa.service_address, pa.status,
			pa.submitted_at, pa.reviewed_at, pa.reviewed_by, pa.rejection_reason,
			u.full_name AS applicant_name,
			u.email AS applicant_email,
			reviewer.full_name AS reviewer_name
		FROM provider_applications pa
		JOIN users u ON pa.user_id = u.id
		LEFT JOIN users reviewer ON pa.reviewed_by = reviewer.id
		WHERE 1=1`

	countQuery := `
		SELECT COUNT(*)
		FROM provider_applications pa
		JOIN users u ON pa.user_id = u.id
		WHERE 1=1`

	var args []interface{}
	var countArgs []interface{}
	paramCount := 1

	if filter.Status != "" && filter.Status != "all" {
		clause := fmt.Sprintf(" AND pa.status = $%d", paramCount)
		query += clause
		countQuery += clause
		args = append(args, filter.Status)
		countArgs = append(countArgs, filter.Status)
		paramCount++
	}

	if filter.Search != "" {
		clause := fmt.Sprintf(" AND (u.full_name ILIKE $%d OR u.email ILIKE $%d)", paramCount, paramCount)
		query += clause
		countQuery += clause
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern)
		countArgs = append(countArgs, pattern)
		paramCount++
	}

	query += fmt.Sprintf(" ORDER BY pa.submitted_at DESC LIMIT $%d OFFSET $%d", paramCount, paramCount+1)
	args = append(args, page.Limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, models.PaginationMeta{}, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	summaries := []models.ApplicationSummary{}
	for rows.Next() {
		var summary models.ApplicationSummary
		var categories pq.Int64Array

		err := rows.Scan(
			&summary.ID,
			&summary.UserID,
			&summary.BusinessName,
			&summary.Bio,
			&summary.YearsOfExperience,
			&categories,
			&summary.PhoneNumber,
			&summary.ServiceAddress,
			&summary.Status,
			&summary.SubmittedAt,
			&summary.ReviewedAt,
			&summary.ReviewedBy,
			&summary.RejectionReason,
			&summary.ApplicantName,
			&summary.ApplicantEmail,
			&summary.ReviewerName,
		)
		if err != nil {
			return nil, models.PaginationMeta{}, fmt.Errorf("scan application row: %w", err)
		}

		summary.ServiceCategories = categories
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, models.PaginationMeta{}, fmt.Errorf("iterate application rows: %w", err)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, models.PaginationMeta{}, fmt.Errorf("count applications: %w", err)
	}

	meta := models.PaginationMeta{
		Total:      total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(page.Limit))),
	}

	return summaries, meta, nil
}

// StatusCounts returns global per-status totals, independent of any listing
// filter or page.
func (s *Store) StatusCounts(ctx context.Context) (models.StatusCounts, error) {
	var counts models.StatusCounts

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'approved'),
			COUNT(*) FILTER (WHERE status = 'rejected')
		FROM provider_applications`).Scan(&counts.Pending, &counts.Approved, &counts.Rejected)
	if err != nil {
		return models.StatusCounts{}, fmt.Errorf("status counts: %w", err)
	}

	return counts, nil
}
