package models

import "github.com/Ramsey-B/fern/pkg/reference"

type Person struct {
	Base
	FirstName        string                 `db:"first_name" json:"first_name"`
	LastName         string                 `db:"last_name" json:"last_name"`
	Email            string                 `db:"email" json:"email"`
	Phone            *string                `db:"phone" json:"phone"`
	Mobile           *string                `db:"mobile" json:"mobile"`
	JobTitle         *string                `db:"job_title" json:"job_title"`
	Department       *string                `db:"department" json:"department"`
	LinkedIn         *string                `db:"linkedin" json:"linkedin"`
	AvatarURL        *string                `db:"avatar_url" json:"avatar_url"`
	IsPrimaryContact bool                   `db:"is_primary_contact" json:"is_primary_contact"`
	Notes            *string                `db:"notes" json:"notes"`
	CreatedBy        *string                `db:"created_by" json:"created_by"`
	Company          reference.Ref[Company] `db:"company_id" json:"-"`
}

type PersonFields struct {
	Phone            *string `json:"phone" yaml:"phone"`
	Mobile           *string `json:"mobile" yaml:"mobile"`
	JobTitle         *string `json:"job_title" yaml:"job_title"`
	Department       *string `json:"department" yaml:"department"`
	LinkedIn         *string `json:"linkedin" yaml:"linkedin"`
	AvatarURL        *string `json:"avatar_url" yaml:"avatar_url"`
	IsPrimaryContact *bool   `json:"is_primary_contact" yaml:"is_primary_contact"`
	Notes            *string `json:"notes" yaml:"notes"`
}

type CreatePersonRequest struct {
	FirstName    string             `json:"first_name" yaml:"first_name" validate:"required"`
	LastName     string             `json:"last_name" yaml:"last_name" validate:"required"`
	Email        string             `json:"email" yaml:"email" validate:"required,email"`
	CompanyID    reference.Optional `json:"company_id" yaml:"-"`
	PersonFields `yaml:",inline"`
}

type UpdatePersonRequest struct {
	FirstName *string            `json:"first_name" validate:"omitempty,min=1"`
	LastName  *string            `json:"last_name" validate:"omitempty,min=1"`
	Email     *string            `json:"email" validate:"omitempty,email"`
	CompanyID reference.Optional `json:"company_id"`
	PersonFields
}

type ListPeopleRequest struct {
	ListRequest
	CompanyID string `query:"company_id"`
}

func (f PersonFields) Apply(p *Person) {
	set(&p.Phone, f.Phone)
	set(&p.Mobile, f.Mobile)
	set(&p.JobTitle, f.JobTitle)
	set(&p.Department, f.Department)
	set(&p.LinkedIn, f.LinkedIn)
	set(&p.AvatarURL, f.AvatarURL)
	setValue(&p.IsPrimaryContact, f.IsPrimaryContact)
	set(&p.Notes, f.Notes)
}
