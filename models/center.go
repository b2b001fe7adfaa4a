package models

import "time"

// RecyclingCenter is a directory entry for a drop-off facility. Directory
// management lives outside this service; the core only reads centers to decide
// assignment eligibility.
type RecyclingCenter struct {
	ID                 string    `bson:"id" json:"id"`
	Name               string    `bson:"name" json:"name"`
	Location           string    `bson:"location,omitempty" json:"location,omitempty"`
	AcceptedCategories []string  `bson:"accepted_categories" json:"accepted_categories"`
	Active             bool      `bson:"active" json:"active"`
	CreatedAt          time.Time `bson:"created_at" json:"created_at"`
}

// AcceptsAny reports whether the center accepts at least one of the given
// item categories.
func (c *RecyclingCenter) AcceptsAny(categories []string) bool {
	accepted := make(map[string]bool, len(c.AcceptedCategories))
	for _, cat := range c.AcceptedCategories {
		accepted[cat] = true
	}
	for _, cat := range categories {
		if accepted[cat] {
			return true
		}
	}
	return false
}
