package models

import "time"

type Company struct {
	Base
	Name              string  `db:"name" json:"name"`
	Domain            *string `db:"domain" json:"domain"`
	Industry          *string `db:"industry" json:"industry"`
	CompanySize       *string `db:"company_size" json:"company_size"`
	AddressStreet     *string `db:"address_street" json:"address_street"`
	AddressCity       *string `db:"address_city" json:"address_city"`
	AddressState      *string `db:"address_state" json:"address_state"`
	AddressCountry    *string `db:"address_country" json:"address_country"`
	AddressPostalCode *string `db:"address_postal_code" json:"address_postal_code"`
	Phone             *string `db:"phone" json:"phone"`
	Email             *string `db:"email" json:"email"`
	Website           *string `db:"website" json:"website"`
	LinkedIn          *string `db:"linkedin" json:"linkedin"`
	Description       *string `db:"description" json:"description"`
	LogoURL           *string `db:"logo_url" json:"logo_url"`
	CreatedBy         *string `db:"created_by" json:"created_by"`
}

// CompanyFields are the writable company fields. Create requires name; update
// applies only the fields present.
type CompanyFields struct {
	Domain            *string `json:"domain" yaml:"domain"`
	Industry          *string `json:"industry" yaml:"industry"`
	CompanySize       *string `json:"company_size" yaml:"company_size" validate:"omitempty,oneof=1-10 11-50 51-200 201-500 500+"`
	AddressStreet     *string `json:"address_street" yaml:"address_street"`
	AddressCity       *string `json:"address_city" yaml:"address_city"`
	AddressState      *string `json:"address_state" yaml:"address_state"`
	AddressCountry    *string `json:"address_country" yaml:"address_country"`
	AddressPostalCode *string `json:"address_postal_code" yaml:"address_postal_code"`
	Phone             *string `json:"phone" yaml:"phone"`
	Email             *string `json:"email" yaml:"email" validate:"omitempty,email"`
	Website           *string `json:"website" yaml:"website"`
	LinkedIn          *string `json:"linkedin" yaml:"linkedin"`
	Description       *string `json:"description" yaml:"description"`
	LogoURL           *string `json:"logo_url" yaml:"logo_url"`
}

type CreateCompanyRequest struct {
	Name          string `json:"name" yaml:"name" validate:"required"`
	CompanyFields `yaml:",inline"`
}

type UpdateCompanyRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1"`
	CompanyFields
}

type ListCompaniesRequest struct {
	ListRequest
	Industry string `query:"industry"`
}

// Apply copies the present fields onto c.
func (f CompanyFields) Apply(c *Company) {
	set(&c.Domain, f.Domain)
	set(&c.Industry, f.Industry)
	set(&c.CompanySize, f.CompanySize)
	set(&c.AddressStreet, f.AddressStreet)
	set(&c.AddressCity, f.AddressCity)
	set(&c.AddressState, f.AddressState)
	set(&c.AddressCountry, f.AddressCountry)
	set(&c.AddressPostalCode, f.AddressPostalCode)
	set(&c.Phone, f.Phone)
	set(&c.Email, f.Email)
	set(&c.Website, f.Website)
	set(&c.LinkedIn, f.LinkedIn)
	set(&c.Description, f.Description)
	set(&c.LogoURL, f.LogoURL)
}

func set[T any](dst **T, src *T) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

func setValue[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setTime(dst **time.Time, src *time.Time) {
	if src != nil {
		v := src.UTC()
		*dst = &v
	}
}
