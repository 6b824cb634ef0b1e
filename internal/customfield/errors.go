package customfield

import "errors"

var (
	// ErrUnknownKind is returned for an entity kind outside card/deck/pack.
	ErrUnknownKind = errors.New("customfield: unknown entity kind")
	// ErrUnknownSlot is returned for a value type or index outside the slot universe.
	ErrUnknownSlot = errors.New("customfield: unknown slot")
	// ErrInvalidValue is returned when a value does not match the slot's value type.
	ErrInvalidValue = errors.New("customfield: invalid value for slot type")
	// ErrGuardRejected is returned when deleting the value of an enabled slot.
	ErrGuardRejected = errors.New("customfield: enabled field values can only be cleared by editing them")
	// ErrValidationRejected is returned for a missing or duplicate extra field key.
	ErrValidationRejected = errors.New("customfield: extra field key rejected")
)
