package entitiescmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	toggleMessageType    = "cms.entities.toggle"
	deleteMessageType    = "cms.entities.delete"
	bulkMessageType      = "cms.entities.bulk"
	reorderMessageType   = "cms.entities.reorder"
	checkSlugMessageType = "cms.entities.check_slug"
)

// Bulk actions accepted by BulkEntityCommand.
const (
	BulkActionToggle     = "toggle"
	BulkActionActivate   = "activate"
	BulkActionDeactivate = "deactivate"
	BulkActionDelete     = "delete"
)

// ToggleEntityCommand flips the active flag of one record.
type ToggleEntityCommand struct {
	EntityType string `json:"entity_type"`
	ID         string `json:"id"`
}

// Type implements command.Message.
func (ToggleEntityCommand) Type() string { return toggleMessageType }

func (m ToggleEntityCommand) Validate() error {
	errs := validation.Errors{}
	requireText(errs, "entity_type", m.EntityType, toggleMessageType)
	requireText(errs, "id", m.ID, toggleMessageType)
	return errs.Filter()
}

// DeleteEntityCommand removes one record and reclaims its assets.
type DeleteEntityCommand struct {
	EntityType string `json:"entity_type"`
	ID         string `json:"id"`
}

func (DeleteEntityCommand) Type() string { return deleteMessageType }

func (m DeleteEntityCommand) Validate() error {
	errs := validation.Errors{}
	requireText(errs, "entity_type", m.EntityType, deleteMessageType)
	requireText(errs, "id", m.ID, deleteMessageType)
	return errs.Filter()
}

// BulkEntityCommand applies Action to every id in IDs.
type BulkEntityCommand struct {
	EntityType string   `json:"entity_type"`
	Action     string   `json:"action"`
	IDs        []string `json:"ids"`
}

func (BulkEntityCommand) Type() string { return bulkMessageType }

// Validate checks the envelope only. Blank or malformed ids are dropped by
// the dispatcher, which rejects an empty selection.
func (m BulkEntityCommand) Validate() error {
	errs := validation.Errors{}
	requireText(errs, "entity_type", m.EntityType, bulkMessageType)
	err := validation.Validate(strings.ToLower(strings.TrimSpace(m.Action)),
		validation.Required,
		validation.In(BulkActionToggle, BulkActionActivate, BulkActionDeactivate, BulkActionDelete),
	)
	if err != nil {
		errs["action"] = validation.NewError(bulkMessageType+".action_invalid", "action must be toggle, activate, deactivate or delete")
	}
	return errs.Filter()
}

// ReorderEntityCommand persists a new display order.
type ReorderEntityCommand struct {
	EntityType string   `json:"entity_type"`
	Order      []string `json:"order"`
}

func (ReorderEntityCommand) Type() string { return reorderMessageType }

func (m ReorderEntityCommand) Validate() error {
	errs := validation.Errors{}
	requireText(errs, "entity_type", m.EntityType, reorderMessageType)
	return errs.Filter()
}

// CheckSlugCommand asks whether a slug is free for a type.
type CheckSlugCommand struct {
	EntityType string `json:"entity_type"`
	Value      string `json:"value"`
	Exclude    string `json:"exclude,omitempty"`
}

func (CheckSlugCommand) Type() string { return checkSlugMessageType }

func (m CheckSlugCommand) Validate() error {
	errs := validation.Errors{}
	requireText(errs, "entity_type", m.EntityType, checkSlugMessageType)
	requireText(errs, "value", m.Value, checkSlugMessageType)
	return errs.Filter()
}

func requireText(errs validation.Errors, field, value, messageType string) {
	if strings.TrimSpace(value) == "" {
		errs[field] = validation.NewError(messageType+"."+field+"_required", field+" is required")
	}
}
