package unit

import "errors"

// Errors
var (
	ErrUnitNotFound           = errors.New("unit not found")
	ErrRoleAssignmentExists   = errors.New("role already assigned to unit")
	ErrRoleAssignmentNotFound = errors.New("role assignment not found")
	ErrUserAssignmentNotFound = errors.New("user assignment not found")
)
