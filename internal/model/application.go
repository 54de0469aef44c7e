package model

import "time"

// ApplicationStatus tracks a partner application through review.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationDenied   ApplicationStatus = "denied"
)

// Application is a request to join the partner program. Answers line up
// positionally with the question list that was live when the applicant
// submitted. ReviewedBy/ReviewedAt are server-assigned on review.
type Application struct {
	ID          string            `json:"id"`
	ApplicantID string            `json:"applicantId"`
	Status      ApplicationStatus `json:"status"`
	Answers     []string          `json:"answers"`
	ReviewedBy  string            `json:"reviewedBy,omitempty"`
	ReviewedAt  *time.Time        `json:"reviewedAt,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// Question is one prompt on the partner application form. The list is
// managed by founders/co-founders only.
type Question struct {
	ID       string `json:"id"`
	Prompt   string `json:"prompt"`
	Position int    `json:"position"`
}
