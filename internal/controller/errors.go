package controller

import "errors"

// Normalized controller errors.
var (
	// ErrEmptyJoint indicates the 'joint' parameter was empty at configure time.
	ErrEmptyJoint = errors.New("EMPTY_JOINT")

	// ErrEmptyInterfaceNames indicates no interface suffixes were provided.
	ErrEmptyInterfaceNames = errors.New("EMPTY_INTERFACE_NAMES")

	// ErrRedeclaredParameter indicates a parameter was declared twice.
	ErrRedeclaredParameter = errors.New("REDECLARED_PARAMETER")

	// ErrUndeclaredParameter indicates a set/get on an undeclared parameter.
	ErrUndeclaredParameter = errors.New("UNDECLARED_PARAMETER")

	// ErrUnknownType indicates no factory is registered for a controller type.
	ErrUnknownType = errors.New("UNKNOWN_CONTROLLER_TYPE")
)
