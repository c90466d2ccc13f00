package model

import "time"

// User is one GitHub account discovered during an extraction. List endpoints
// only return the identity fields (login, avatar, profile URL); the remaining
// fields are filled in by a profile-detail fetch and email resolution.
type User struct {
	Login           string     `json:"login" yaml:"login"`
	Name            string     `json:"name,omitempty" yaml:"name,omitempty"`
	Email           string     `json:"email,omitempty" yaml:"email,omitempty"`
	Location        string     `json:"location,omitempty" yaml:"location,omitempty"`
	Company         string     `json:"company,omitempty" yaml:"company,omitempty"`
	Bio             string     `json:"bio,omitempty" yaml:"bio,omitempty"`
	Blog            string     `json:"blog,omitempty" yaml:"blog,omitempty"`
	TwitterUsername string     `json:"twitter_username,omitempty" yaml:"twitter_username,omitempty"`
	PublicRepos     int        `json:"public_repos,omitempty" yaml:"public_repos,omitempty"`
	Followers       int        `json:"followers,omitempty" yaml:"followers,omitempty"`
	Following       int        `json:"following,omitempty" yaml:"following,omitempty"`
	CreatedAt       *time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	AvatarURL       string     `json:"avatar_url,omitempty" yaml:"avatar_url,omitempty"`
	HTMLURL         string     `json:"html_url,omitempty" yaml:"html_url,omitempty"`
}

// Merge copies profile fields from detail onto u, keeping u's email if one was
// already resolved. Detail fetches never clear a previously discovered email.
func (u *User) Merge(detail *User) {
	if detail == nil {
		return
	}
	email := u.Email
	*u = *detail
	if email != "" {
		u.Email = email
	}
}
