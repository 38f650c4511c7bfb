package models

import (
	"time"

	"github.com/Ramsey-B/fern/pkg/reference"
)

const (
	DefaultTaskPriority = "Medium"
	DefaultTaskStatus   = "Todo"
)

type Task struct {
	Base
	Title          string                 `db:"title" json:"title"`
	Description    *string                `db:"description" json:"description"`
	DueDate        *time.Time             `db:"due_date" json:"due_date"`
	Priority       string                 `db:"priority" json:"priority"`
	Status         string                 `db:"status" json:"status"`
	OwnerID        *string                `db:"owner_id" json:"owner_id"`
	RelatedToType  *string                `db:"related_to_type" json:"related_to_type"`
	RelatedToID    *string                `db:"related_to_id" json:"related_to_id"`
	RelatedCompany reference.Ref[Company] `db:"related_company_id" json:"-"`
	RelatedPerson  reference.Ref[Person]  `db:"related_person_id" json:"-"`
}

func (t *Task) Related() reference.Polymorphic {
	return polymorphic(t.RelatedToType, t.RelatedToID)
}

func (t *Task) SetRelated(p reference.Polymorphic) {
	t.RelatedToType = p.TypePtr()
	t.RelatedToID = p.IDPtr()
}

type TaskFields struct {
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Priority    *string    `json:"priority" validate:"omitempty,oneof=Low Medium High Urgent"`
	Status      *string    `json:"status"`
	OwnerID     *string    `json:"owner_id"`
}

type CreateTaskRequest struct {
	Title            string             `json:"title" validate:"required"`
	RelatedCompanyID reference.Optional `json:"related_company_id"`
	RelatedPersonID  reference.Optional `json:"related_person_id"`
	RelatedToType    reference.Optional `json:"related_to_type"`
	RelatedToID      reference.Optional `json:"related_to_id"`
	TaskFields
}

type UpdateTaskRequest struct {
	Title            *string            `json:"title" validate:"omitempty,min=1"`
	RelatedCompanyID reference.Optional `json:"related_company_id"`
	RelatedPersonID  reference.Optional `json:"related_person_id"`
	RelatedToType    reference.Optional `json:"related_to_type"`
	RelatedToID      reference.Optional `json:"related_to_id"`
	TaskFields
}

type ListTasksRequest struct {
	ListRequest
	RelatedToType string `query:"related_to_type"`
	RelatedToID   string `query:"related_to_id"`
	Status        string `query:"status"`
}

func (f TaskFields) Apply(t *Task) {
	set(&t.Description, f.Description)
	setTime(&t.DueDate, f.DueDate)
	setValue(&t.Priority, f.Priority)
	setValue(&t.Status, f.Status)
	set(&t.OwnerID, f.OwnerID)
}

func NewTask(title string) *Task {
	return &Task{Title: title, Priority: DefaultTaskPriority, Status: DefaultTaskStatus}
}
