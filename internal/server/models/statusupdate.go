package models

import "time"

// StatusUpdate is one audit record of an issue status change. OldStatus is
// nil only for the record written at creation.
type StatusUpdate struct {
	ID        string
	IssueID   string
	OldStatus *Status
	NewStatus Status
	Comment   *string
	CreatedAt time.Time
}
