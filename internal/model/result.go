// Package model defines the records produced by a repository extraction.
package model

import "time"

// ExtractionResult is the root aggregate returned by an extraction. Stargazers
// and forkers are kept in API order. A user who both starred and forked the
// repository appears once in each list; the lists are not deduplicated against
// each other.
type ExtractionResult struct {
	Repository      Repository `json:"repository" yaml:"repository"`
	Stargazers      []User     `json:"stargazers,omitempty" yaml:"stargazers,omitempty"`
	Forkers         []User     `json:"forkers,omitempty" yaml:"forkers,omitempty"`
	TotalStargazers int        `json:"total_stargazers" yaml:"total_stargazers"`
	TotalForkers    int        `json:"total_forkers" yaml:"total_forkers"`
	ExtractedAt     time.Time  `json:"extracted_at" yaml:"extracted_at"`
}
