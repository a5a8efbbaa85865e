// Package models defines the data exchanged between the CashbackHub client
// and the platform API: accounts, credentials and registration payloads.
package models

import (
	"strings"
	"time"
)

// User is the account record of whoever is signed in.
type User struct {
	ID               string    `json:"id"`
	FirstName        string    `json:"firstName"`
	LastName         string    `json:"lastName"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone,omitempty"`
	Role             Role      `json:"role"`
	IsVerified       bool      `json:"isVerified"`
	TwoFactorEnabled bool      `json:"twoFactorEnabled"`
	CreatedAt        time.Time `json:"createdAt,omitempty"`

	// publisher profile
	CompanyName string `json:"companyName,omitempty"`
	Website     string `json:"website,omitempty"`

	// promoter profile
	Channels     []string `json:"channels,omitempty"`
	AudienceSize int      `json:"audienceSize,omitempty"`
}

// FullName joins first and last name, falling back to the email.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// Clone returns a deep copy so callers cannot mutate shared state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Channels != nil {
		c.Channels = append([]string(nil), u.Channels...)
	}
	return &c
}

// ProfilePatch carries the editable profile fields. Nil fields are left as is.
type ProfilePatch struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Phone     *string `json:"phone,omitempty"`
}

// Apply writes the non-nil fields of p onto u.
func (p ProfilePatch) Apply(u *User) {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
}

// DashboardSummary is the role-scoped overview shown on a dashboard page.
type DashboardSummary struct {
	Role    Role               `json:"role"`
	Metrics map[string]float64 `json:"metrics"`
	Notices []string           `json:"notices,omitempty"`
}
