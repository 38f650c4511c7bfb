package models

import (
	"time"

	"github.com/Ramsey-B/fern/pkg/reference"
)

const (
	DefaultLeadSource   = "Website"
	DefaultLeadStatus   = "New"
	DefaultThreadStatus = "Unread"
)

type Lead struct {
	Base
	FirstName string  `db:"first_name" json:"first_name"`
	LastName  string  `db:"last_name" json:"last_name"`
	Email     string  `db:"email" json:"email"`
	Phone     *string `db:"phone" json:"phone"`
	Company   *string `db:"company" json:"company"`
	Source    *string `db:"source" json:"source"`
	Status    string  `db:"status" json:"status"`
	Notes     *string `db:"notes" json:"notes"`
	OwnerID   *string `db:"owner_id" json:"owner_id"`
}

type LeadFields struct {
	Phone   *string `json:"phone"`
	Company *string `json:"company"`
	Source  *string `json:"source"`
	Status  *string `json:"status"`
	Notes   *string `json:"notes"`
	OwnerID *string `json:"owner_id"`
}

type CreateLeadRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	LeadFields
}

type UpdateLeadRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,min=1"`
	LastName  *string `json:"last_name" validate:"omitempty,min=1"`
	Email     *string `json:"email" validate:"omitempty,email"`
	LeadFields
}

type ListLeadsRequest struct {
	ListRequest
	Status string `query:"status"`
}

func (f LeadFields) Apply(l *Lead) {
	set(&l.Phone, f.Phone)
	set(&l.Company, f.Company)
	set(&l.Source, f.Source)
	setValue(&l.Status, f.Status)
	set(&l.Notes, f.Notes)
	set(&l.OwnerID, f.OwnerID)
}

func NewLead(firstName, lastName, email string) *Lead {
	source := DefaultLeadSource
	return &Lead{FirstName: firstName, LastName: lastName, Email: email, Source: &source, Status: DefaultLeadStatus}
}

// LeadThread is a mail conversation attached to a lead.
type LeadThread struct {
	Base
	Subject       string              `db:"subject" json:"subject"`
	LastMessage   string              `db:"last_message" json:"last_message"`
	Status        string              `db:"status" json:"status"`
	LastMessageAt time.Time           `db:"last_message_at" json:"last_message_at"`
	Snippet       *string             `db:"snippet" json:"snippet"`
	Lead          reference.Ref[Lead] `db:"lead_id" json:"-"`
}

type SyncMailResponse struct {
	ThreadsSynced int    `json:"threads_synced"`
	Message       string `json:"message"`
}
