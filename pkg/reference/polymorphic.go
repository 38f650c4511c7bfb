package reference

import (
	"strings"

	"github.com/Gobusters/ectolinq"
)

// EntityType is the closed set of kinds a polymorphic reference may name.
type EntityType string

const (
	EntityCompany EntityType = "company"
	EntityDeal    EntityType = "deal"
	EntityLead    EntityType = "lead"
	EntityPerson  EntityType = "person"
	EntityTask    EntityType = "task"
	EntityProduct EntityType = "product"
)

var EntityTypes = []EntityType{EntityCompany, EntityDeal, EntityLead, EntityPerson, EntityTask, EntityProduct}

const (
	RelatedToTypeField = "related_to_type"
	RelatedToIDField   = "related_to_id"
)

// ParseEntityType checks value against EntityTypes.
func ParseEntityType(value string) (EntityType, error) {
	t := EntityType(value)
	if !ectolinq.Contains(EntityTypes, t) {
		return "", &UnknownEntityTypeError{Field: RelatedToTypeField, EntityType: value}
	}
	return t, nil
}

// Polymorphic is a soft (type, id) reference. The id is opaque and its target
// is never looked up.
type Polymorphic struct {
	Type EntityType
	ID   string
}

func (p Polymorphic) IsZero() bool {
	return p.Type == "" && p.ID == ""
}

// TypePtr and IDPtr return nil for the zero reference.
func (p Polymorphic) TypePtr() *string {
	if p.IsZero() {
		return nil
	}
	s := string(p.Type)
	return &s
}

func (p Polymorphic) IDPtr() *string {
	if p.IsZero() {
		return nil
	}
	s := p.ID
	return &s
}

// ValidatePolymorphic checks a (type, id) pair. Both or neither must be given;
// when required, neither is also rejected. No existence check is made.
func ValidatePolymorphic(entityType, entityID string, required bool) (Polymorphic, error) {
	entityType = strings.TrimSpace(entityType)
	entityID = strings.TrimSpace(entityID)

	if entityType == "" && entityID == "" {
		if required {
			return Polymorphic{}, &IncompletePolymorphicReferenceError{TypeField: RelatedToTypeField, IDField: RelatedToIDField, Required: true}
		}
		return Polymorphic{}, nil
	}
	if entityType == "" || entityID == "" {
		return Polymorphic{}, &IncompletePolymorphicReferenceError{TypeField: RelatedToTypeField, IDField: RelatedToIDField}
	}

	t, err := ParseEntityType(entityType)
	if err != nil {
		return Polymorphic{}, err
	}
	return Polymorphic{Type: t, ID: entityID}, nil
}

// MergePolymorphic applies tri-state updates for each half to current and
// validates the resulting pair.
func MergePolymorphic(current Polymorphic, entityType, entityID Optional, required bool) (Polymorphic, error) {
	if !entityType.IsSet() && !entityID.IsSet() {
		return current, nil
	}

	nextType := string(current.Type)
	if entityType.IsSet() {
		nextType = entityType.Value()
	}
	nextID := current.ID
	if entityID.IsSet() {
		nextID = entityID.Value()
	}
	return ValidatePolymorphic(nextType, nextID, required)
}
