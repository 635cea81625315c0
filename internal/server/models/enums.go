package models

import (
	"fmt"
	"strings"

	"github.com/gosimple/slug"
)

type Role string

const (
	RoleCitizen   Role = "citizen"
	RoleAuthority Role = "authority"
)

func (r Role) IsValid() bool {
	return r == RoleCitizen || r == RoleAuthority
}

// ParseRole accepts a role name in any case.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Status is the lifecycle state of an issue.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusCompleted  Status = "Completed"
)

var statusOrder = map[Status]int{
	StatusPending:    0,
	StatusProcessing: 1,
	StatusCompleted:  2,
}

func (s Status) IsValid() bool {
	_, ok := statusOrder[s]
	return ok
}

// Precedes reports whether s comes strictly before other in the
// Pending -> Processing -> Completed order.
func (s Status) Precedes(other Status) bool {
	return statusOrder[s] < statusOrder[other]
}

func ParseStatus(s string) (Status, error) {
	for st := range statusOrder {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Statuses lists all statuses in lifecycle order.
func Statuses() []Status {
	return []Status{StatusPending, StatusProcessing, StatusCompleted}
}

type Category string

const (
	CategoryRoad        Category = "Road & Infrastructure"
	CategoryWater       Category = "Water & Drainage"
	CategorySanitation  Category = "Sanitation"
	CategoryElectricity Category = "Electricity"
	CategorySafety      Category = "Public Safety"
	CategoryOther       Category = "Other"
)

var categories = []Category{
	CategoryRoad,
	CategoryWater,
	CategorySanitation,
	CategoryElectricity,
	CategorySafety,
	CategoryOther,
}

// Categories returns the supported categories in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// ParseCategory accepts either the display name ("Water & Drainage") or its
// URL slug ("water-and-drainage"), case-insensitively.
func ParseCategory(s string) (Category, error) {
	want := slug.Make(s)
	if want == "" {
		return "", fmt.Errorf("unknown category %q", s)
	}
	for _, c := range categories {
		if slug.Make(string(c)) == want {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Slug returns the URL form of the category.
func (c Category) Slug() string {
	return slug.Make(string(c))
}
