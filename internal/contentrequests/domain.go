// Package contentrequests implements the club content approval workflow:
// club managers submit proposed content, reviewers approve or reject it once.
package contentrequests

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status represents the lifecycle of a content request.
type Status string

const (
	StatusPending  Status = "pending"  // Awaiting review
	StatusApproved Status = "approved" // Terminal, accepted by a reviewer
	StatusRejected Status = "rejected" // Terminal, declined by a reviewer
)

// IsValid checks if the status is valid.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// CanReview checks if the request may be approved or rejected.
func (s Status) CanReview() bool {
	return s == StatusPending
}

// ContentRequest is proposed club content awaiting disposition. Payload is
// opaque to the workflow.
type ContentRequest struct {
	ID          int64           `json:"id"`
	ClubID      int64           `json:"club_id"`
	Payload     json.RawMessage `json:"event_data"`
	Status      Status          `json:"status"`
	SubmittedAt time.Time       `json:"submitted_at"`
	ReviewedAt  *time.Time      `json:"reviewed_at,omitempty"`
	ReviewerID  *int64          `json:"reviewer_id,omitempty"`
}

// OwningClubID returns the club the request was submitted for.
func (r ContentRequest) OwningClubID() int64 {
	return r.ClubID
}

// Submit builds a new pending request stamped with now.
func Submit(clubID int64, payload json.RawMessage, now time.Time) ContentRequest {
	return ContentRequest{
		ClubID:      clubID,
		Payload:     payload,
		Status:      StatusPending,
		SubmittedAt: now.UTC(),
	}
}

// Approve returns the request moved to approved by reviewerID.
func (r ContentRequest) Approve(reviewerID int64, now time.Time) (ContentRequest, error) {
	return r.review(StatusApproved, reviewerID, now)
}

// Reject returns the request moved to rejected by reviewerID.
func (r ContentRequest) Reject(reviewerID int64, now time.Time) (ContentRequest, error) {
	return r.review(StatusRejected, reviewerID, now)
}

func (r ContentRequest) review(target Status, reviewerID int64, now time.Time) (ContentRequest, error) {
	if !r.Status.CanReview() {
		return r, fmt.Errorf("%w: request %d is %s", ErrInvalidTransition, r.ID, r.Status)
	}
	at := now.UTC()
	reviewer := reviewerID
	r.Status = target
	r.ReviewedAt = &at
	r.ReviewerID = &reviewer
	return r, nil
}
