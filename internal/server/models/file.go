package models

import "time"

// ImageUpload instructs the client to upload an image with a presigned URL.
type ImageUpload struct {
	// Key is the object-storage key to reference from an issue afterwards.
	Key string
	// URL is a temporary presigned HTTP URL for the client to PUT the image.
	URL string
	// ExpiresAt is when URL stops being accepted.
	ExpiresAt time.Time
}

// StatusEvent is published after a status change commits.
type StatusEvent struct {
	IssueID    string    `json:"issue_id"`
	OldStatus  Status    `json:"old_status"`
	NewStatus  Status    `json:"new_status"`
	ActorID    string    `json:"actor_id"`
	Comment    *string   `json:"comment,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
