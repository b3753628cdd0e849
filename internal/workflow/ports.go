// internal/workflow/ports.go
package workflow

import (
	"context"
	"time"

	"provider-workflow/internal/models"
)

// ApplicationStore owns persistence of application records. Create must be
// backed by a storage-level one-pending-per-user constraint: a conflicting
// concurrent insert returns the duplicate-pending error, never a second row.
// Approve and Reject run their read-check-write sequence inside one
// transaction; Approve additionally mutates the owning user's role and
// profile in that same transaction.
type ApplicationStore interface {
	Create(ctx context.Context, app *models.Application) (*models.Application, error)
	GetByID(ctx context.Context, id string) (*models.Application, error)
	LatestByUser(ctx context.Context, userID string) (*models.Application, error)
	Approve(ctx context.Context, applicationID, reviewerID string, reviewedAt time.Time) (*models.Application, error)
	Reject(ctx context.Context, applicationID, reviewerID, reason string, reviewedAt time.Time) (*models.Application, error)
	List(ctx context.Context, filter models.ListFilter, page models.Pagination) ([]models.ApplicationSummary, models.PaginationMeta, error)
	StatusCounts(ctx context.Context) (models.StatusCounts, error)
}

// UserDirectory resolves user records. Role and profile mutation happen only
// inside the approval transaction and are not exposed here.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// Dispatcher delivers notifications after committed transitions. Calls are
// made from a detached goroutine; returned errors are logged and dropped.
type Dispatcher interface {
	NotifySubmitted(ctx context.Context, userID string) error
	NotifyApproved(ctx context.Context, userID string) error
	NotifyRejected(ctx context.Context, userID, reason string) error
}

// CountsCache caches the global status counts consumed by the admin listing.
// A nil cache or any cache error degrades to a direct store read.
type CountsCache interface {
	Get(ctx context.Context) (models.StatusCounts, bool)
	Set(ctx context.Context, counts models.StatusCounts)
	Invalidate(ctx context.Context)
}
