package model

import "time"

// Status is the moderation gate on shared code: only approved
// submissions are visible on the public feed.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Section groups code submissions. Deleting a section never deletes its
// submissions; their SectionID is cleared instead.
type Section struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// Submission is a shared code snippet going through moderation.
// Any signed-in user may submit; the submission stays pending until a
// staff member approves or rejects it. ApprovedBy/ApprovedAt are
// server-assigned audit fields, set only by the moderation mutators.
type Submission struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Code       string     `json:"codeContent"`
	Language   string     `json:"language"`
	AuthorID   string     `json:"authorId"`
	AuthorName string     `json:"authorName"`
	SectionID  string     `json:"sectionId,omitempty"`
	Status     Status     `json:"status"`
	ApprovedBy string     `json:"approvedBy,omitempty"`
	ApprovedAt *time.Time `json:"approvedAt,omitempty"`
	CreatedAt  time.Time  `json:"timestamp"`
}
