package http

import "encoding/json"

// SubmitRequest is the body of a content request submission.
type SubmitRequest struct {
	ClubID    int64           `json:"club_id" validate:"required,gt=0"`
	EventData json.RawMessage `json:"event_data" validate:"required"`
}
