// internal/models/application.go
package models

import "time"

// Application lifecycle states. An application starts as pending and moves
// exactly once to approved or rejected.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// CooldownPeriod is how long a user must wait after a rejection before
// submitting a new application.
const CooldownPeriod = 30 * 24 * time.Hour

// Application is a client's request for promotion to provider status.
// Applicant-supplied fields are frozen at submission; only the user record is
// updated from them on approval.
type Application struct {
	ID                string     `json:"id"`
	UserID            string     `json:"userId"`
	BusinessName      string     `json:"businessName"`
	Bio               string     `json:"bio"`
	YearsOfExperience int        `json:"yearsOfExperience"`
	ServiceCategories []int64    `json:"serviceCategories"`
	PhoneNumber       string     `json:"phoneNumber"`
	ServiceAddress    string     `json:"serviceAddress"`
	Status            string     `json:"status"`
	SubmittedAt       time.Time  `json:"submittedAt"`
	ReviewedAt        *time.Time `json:"reviewedAt,omitempty"`
	ReviewedBy        *string    `json:"reviewedBy,omitempty"`
	RejectionReason   *string    `json:"rejectionReason,omitempty"`
}

// SubmissionPayload is the applicant-supplied data for a new application.
// YearsOfExperience is a pointer so the validator can distinguish a missing
// field from an explicit zero.
type SubmissionPayload struct {
	BusinessName      string   `json:"businessName"`
	Bio               string   `json:"bio"`
	YearsOfExperience *float64 `json:"yearsOfExperience"`
	ServiceCategories []int64  `json:"serviceCategories"`
	PhoneNumber       string   `json:"phoneNumber"`
	ServiceAddress    string   `json:"serviceAddress"`
}

// ApplicationStatusView is the applicant-facing view of their most recent
// application, with derived reapplication fields.
type ApplicationStatusView struct {
	ID              string     `json:"id"`
	Status          string     `json:"status"`
	SubmittedAt     time.Time  `json:"submittedAt"`
	ReviewedAt      *time.Time `json:"reviewedAt,omitempty"`
	RejectionReason *string    `json:"rejectionReason,omitempty"`
	CanReapply      bool       `json:"canReapply"`
	ReapplyDate     *time.Time `json:"reapplyDate,omitempty"`
}

// ApplicationSummary is one row of the admin listing, joined with applicant
// and reviewer display attributes.
type ApplicationSummary struct {
	Application
	ApplicantName  string  `json:"applicantName"`
	ApplicantEmail string  `json:"applicantEmail"`
	ReviewerName   *string `json:"reviewerName,omitempty"`
}

// ListFilter narrows the admin listing. Status is empty or "all" for no
// status filter; Search matches applicant name or email, case-insensitive.
type ListFilter struct {
	Status string `json:"status"`
	Search string `json:"search"`
}

// Pagination is the requested page window.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// PaginationMeta describes the returned page.
type PaginationMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// StatusCounts are global per-status totals, independent of filter and page.
type StatusCounts struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

// ApplicationPage is the full admin listing result.
type ApplicationPage struct {
	Applications []ApplicationSummary `json:"applications"`
	Pagination   PaginationMeta       `json:"pagination"`
	Counts       StatusCounts         `json:"counts"`
}
