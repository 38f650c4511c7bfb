package models

import "github.com/Ramsey-B/fern/pkg/reference"

type Note struct {
	Base
	Title         *string `db:"title" json:"title"`
	Content       string  `db:"content" json:"content"`
	IsPinned      bool    `db:"is_pinned" json:"is_pinned"`
	RelatedToType string  `db:"related_to_type" json:"related_to_type"`
	RelatedToID   string  `db:"related_to_id" json:"related_to_id"`
	CreatedBy     *string `db:"created_by" json:"created_by"`
}

func (n *Note) Related() reference.Polymorphic {
	return reference.Polymorphic{Type: reference.EntityType(n.RelatedToType), ID: n.RelatedToID}
}

func (n *Note) SetRelated(p reference.Polymorphic) {
	n.RelatedToType = string(p.Type)
	n.RelatedToID = p.ID
}

type CreateNoteRequest struct {
	Title         *string            `json:"title"`
	Content       string             `json:"content" validate:"required"`
	IsPinned      bool               `json:"is_pinned"`
	RelatedToType reference.Optional `json:"related_to_type"`
	RelatedToID   reference.Optional `json:"related_to_id"`
}

type UpdateNoteRequest struct {
	Title         *string            `json:"title"`
	Content       *string            `json:"content" validate:"omitempty,min=1"`
	IsPinned      *bool              `json:"is_pinned"`
	RelatedToType reference.Optional `json:"related_to_type"`
	RelatedToID   reference.Optional `json:"related_to_id"`
}

type ListNotesRequest struct {
	ListRequest
	RelatedToType string `query:"related_to_type"`
	RelatedToID   string `query:"related_to_id"`
}
