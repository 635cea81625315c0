package models

import "time"

type Location struct {
	Latitude  float64
	Longitude float64
}

// Issue is a citizen report. Status changes only through the issue service;
// ReporterName and ReporterEmail are filled on reads joined with users.
type Issue struct {
	ID                 string
	OwnerID            string
	Title              string
	Description        string
	Category           Category
	Status             Status
	Location           Location
	ImageRef           *string
	ResolutionComment  *string
	ResolutionImageRef *string
	CreatedAt          time.Time
	UpdatedAt          time.Time

	ReporterName  string
	ReporterEmail string
}

// IssueFilter narrows ListIssues. Nil fields do not filter.
type IssueFilter struct {
	Status   *Status
	Category *Category
	Search   *string
}

// StatusCounts is the dashboard summary.
type StatusCounts struct {
	Total      int64
	Pending    int64
	Processing int64
	Completed  int64
}
