package hwif

import "errors"

// Normalized hardware interface errors.
var (
	// ErrUnknownInterface indicates a requested slot name is not in the inventory.
	ErrUnknownInterface = errors.New("UNKNOWN_INTERFACE")

	// ErrDuplicateInterface indicates a slot name was registered twice.
	ErrDuplicateInterface = errors.New("DUPLICATE_INTERFACE")

	// ErrInterfaceClaimed indicates a slot is already claimed by another controller.
	ErrInterfaceClaimed = errors.New("INTERFACE_CLAIMED")
)
