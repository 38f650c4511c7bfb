package models

import (
	"time"

	"github.com/Ramsey-B/fern/pkg/reference"
)

const (
	DefaultDealCurrency    = "INR"
	DefaultDealStage       = "Qualification"
	DefaultDealProbability = 20
)

type Deal struct {
	Base
	Title             string                 `db:"title" json:"title"`
	Value             float64                `db:"value" json:"value"`
	Currency          string                 `db:"currency" json:"currency"`
	Stage             string                 `db:"stage" json:"stage"`
	Probability       int                    `db:"probability" json:"probability"`
	ExpectedCloseDate *time.Time             `db:"expected_close_date" json:"expected_close_date"`
	Description       *string                `db:"description" json:"description"`
	OwnerID           *string                `db:"owner_id" json:"owner_id"`
	Company           reference.Ref[Company] `db:"company_id" json:"-"`
	Contact           reference.Ref[Person]  `db:"contact_id" json:"-"`
}

type DealFields struct {
	Value             *float64   `json:"value" yaml:"value" validate:"omitempty,min=0"`
	Currency          *string    `json:"currency" yaml:"currency" validate:"omitempty,len=3"`
	Stage             *string    `json:"stage" yaml:"stage"`
	Probability       *int       `json:"probability" yaml:"probability" validate:"omitempty,min=0,max=100"`
	ExpectedCloseDate *time.Time `json:"expected_close_date" yaml:"expected_close_date"`
	Description       *string    `json:"description" yaml:"description"`
	OwnerID           *string    `json:"owner_id" yaml:"owner_id"`
}

type CreateDealRequest struct {
	Title      string             `json:"title" yaml:"title" validate:"required"`
	CompanyID  reference.Optional `json:"company_id" yaml:"-"`
	ContactID  reference.Optional `json:"contact_id" yaml:"-"`
	DealFields `yaml:",inline"`
}

type UpdateDealRequest struct {
	Title     *string            `json:"title" validate:"omitempty,min=1"`
	CompanyID reference.Optional `json:"company_id"`
	ContactID reference.Optional `json:"contact_id"`
	DealFields
}

type ListDealsRequest struct {
	ListRequest
	CompanyID string `query:"company_id"`
	ContactID string `query:"contact_id"`
}

func (f DealFields) Apply(d *Deal) {
	setValue(&d.Value, f.Value)
	setValue(&d.Currency, f.Currency)
	setValue(&d.Stage, f.Stage)
	setValue(&d.Probability, f.Probability)
	setTime(&d.ExpectedCloseDate, f.ExpectedCloseDate)
	set(&d.Description, f.Description)
	set(&d.OwnerID, f.OwnerID)
}

// NewDeal returns a deal with the defaults applied.
func NewDeal(title string) *Deal {
	return &Deal{
		Title:       title,
		Currency:    DefaultDealCurrency,
		Stage:       DefaultDealStage,
		Probability: DefaultDealProbability,
	}
}
