package domain

import "errors"

var (
	// ErrNotFound indicates the requested record was not found.
	ErrNotFound = errors.New("not found")
	// ErrDuplicatePlate indicates a registration conflict on the plate key.
	ErrDuplicatePlate = errors.New("plate already registered")
	// ErrStoreUnavailable indicates the backing store could not be reached.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrEntitlementExhausted indicates the chosen slot has no allowance left.
	ErrEntitlementExhausted = errors.New("entitlement exhausted")
	// ErrNoEntitlement indicates the record carries no entitlement slot at all.
	ErrNoEntitlement = errors.New("no entitlement")
	// ErrSlotChoiceRequired indicates both slots are active and the caller
	// must say which one the visit consumes.
	ErrSlotChoiceRequired = errors.New("slot choice required")
	// ErrSlotOccupied indicates the record already carries a slot of that kind.
	ErrSlotOccupied = errors.New("slot already present")
	// ErrAlreadyLoggedToday indicates a visit for the slot was already logged
	// on the same calendar day.
	ErrAlreadyLoggedToday = errors.New("visit already logged today")
)
