package models

import (
	"time"

	"github.com/Ramsey-B/fern/pkg/reference"
)

// Base holds the columns every record has.
type Base struct {
	ID        string    `db:"id" json:"id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (b *Base) GetID() string {
	return b.ID
}

func (b *Base) SetID(id string) {
	b.ID = id
}

// Touch stamps updated_at, and created_at when the record is new.
func (b *Base) Touch(now time.Time, created bool) {
	now = now.UTC()
	if created {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

// ListRequest holds the pagination query parameters shared by list routes.
type ListRequest struct {
	Skip  int `query:"skip" validate:"min=0"`
	Limit int `query:"limit" validate:"min=0,max=1000"`
}

// DefaultLimit is used when a list request omits limit.
const DefaultLimit = 100

func (r ListRequest) Window() (int, int) {
	if r.Limit == 0 {
		return r.Skip, DefaultLimit
	}
	return r.Skip, r.Limit
}

// MessageResponse is returned by deletes and actions without a record body.
type MessageResponse struct {
	Message string `json:"message"`
}

func polymorphic(entityType, entityID *string) reference.Polymorphic {
	if entityType == nil || entityID == nil {
		return reference.Polymorphic{}
	}
	return reference.Polymorphic{Type: reference.EntityType(*entityType), ID: *entityID}
}
