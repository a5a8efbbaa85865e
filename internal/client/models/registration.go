package models

import "encoding/json"

// RegistrationProfile is one of UserRegistration, PublisherRegistration or
// PromoterRegistration. Each variant knows its role and serializes with it.
type RegistrationProfile interface {
	Role() Role
	Base() BaseRegistration
	isRegistration()
}

// BaseRegistration holds the fields common to every account type.
type BaseRegistration struct {
	FirstName string `json:"firstName" validate:"required,max=64"`
	LastName  string `json:"lastName" validate:"required,max=64"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Phone     string `json:"phone" validate:"omitempty,e164"`
}

// UserRegistration signs up a shopper earning cashback.
type UserRegistration struct {
	BaseRegistration
	ReferralCode string `json:"referralCode,omitempty" validate:"omitempty,alphanum,max=32"`
}

// PublisherRegistration signs up a merchant publishing offers.
type PublisherRegistration struct {
	BaseRegistration
	CompanyName string `json:"companyName" validate:"required,max=128"`
	Website     string `json:"website" validate:"required,url"`
	TaxID       string `json:"taxId,omitempty" validate:"omitempty,max=32"`
}

// PromoterRegistration signs up an affiliate promoting offers.
type PromoterRegistration struct {
	BaseRegistration
	Channels     []string `json:"channels" validate:"required,min=1,dive,required"`
	AudienceSize int      `json:"audienceSize" validate:"gte=0"`
}

func (UserRegistration) Role() Role      { return RoleUser }
func (PublisherRegistration) Role() Role { return RolePublisher }
func (PromoterRegistration) Role() Role  { return RolePromoter }

func (r UserRegistration) Base() BaseRegistration      { return r.BaseRegistration }
func (r PublisherRegistration) Base() BaseRegistration { return r.BaseRegistration }
func (r PromoterRegistration) Base() BaseRegistration  { return r.BaseRegistration }

func (UserRegistration) isRegistration()      {}
func (PublisherRegistration) isRegistration() {}
func (PromoterRegistration) isRegistration()  {}

func (r UserRegistration) MarshalJSON() ([]byte, error) {
	type plain UserRegistration
	return json.Marshal(struct {
		plain
		Role Role `json:"role"`
	}{plain(r), r.Role()})
}

func (r PublisherRegistration) MarshalJSON() ([]byte, error) {
	type plain PublisherRegistration
	return json.Marshal(struct {
		plain
		Role Role `json:"role"`
	}{plain(r), r.Role()})
}

func (r PromoterRegistration) MarshalJSON() ([]byte, error) {
	type plain PromoterRegistration
	return json.Marshal(struct {
		plain
		Role Role `json:"role"`
	}{plain(r), r.Role()})
}
