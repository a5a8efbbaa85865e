// Package models defines the records the dev backend keeps.
package models

import "time"

// Account roles.
const (
	RoleUser      = "user"
	RolePublisher = "publisher"
	RolePromoter  = "promoter"
	RoleAdmin     = "admin"
)

// User is a stored account. PasswordHash is a bcrypt hash.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	Role         string
	PasswordHash string
	IsVerified   bool
	CreatedAt    time.Time

	TwoFactorEnabled bool
	TwoFactorSecret  string

	CompanyName string
	Website     string
	TaxID       string

	Channels     []string
	AudienceSize int

	ReferralCode string
}

// Clone returns a deep copy.
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
