package model

import "time"

// Repository holds the metadata of the repository being extracted.
// It is fetched once per extraction and read-only afterwards.
type Repository struct {
	Name            string     `json:"name" yaml:"name"`
	FullName        string     `json:"full_name" yaml:"full_name"`
	Owner           string     `json:"owner" yaml:"owner"`
	Description     string     `json:"description,omitempty" yaml:"description,omitempty"`
	HTMLURL         string     `json:"html_url" yaml:"html_url"`
	StargazersCount int        `json:"stargazers_count" yaml:"stargazers_count"`
	ForksCount      int        `json:"forks_count" yaml:"forks_count"`
	Language        string     `json:"language,omitempty" yaml:"language,omitempty"`
	CreatedAt       *time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}
