package model

import "fmt"

// MappingError reports an inconsistency between the timestamp map and the
// timepoint metadata.
type MappingError struct {
	Table  string
	ID     string
	Reason string
}

func (e *MappingError) Error() string {
	return formatError("mapping error", e.Table, e.ID, e.Reason)
}

// ProfileAlignmentError reports profile data that is missing or out of range for
// the timepoints it must be aggregated onto.
type ProfileAlignmentError struct {
	Table  string
	ID     string
	Reason string
}

func (e *ProfileAlignmentError) Error() string {
	return formatError("profile alignment error", e.Table, e.ID, e.Reason)
}

// TopologyError reports a dangling or duplicated grid entity reference.
type TopologyError struct {
	Table  string
	ID     string
	Reason string
}

func (e *TopologyError) Error() string {
	return formatError("topology error", e.Table, e.ID, e.Reason)
}

// InterpretationError reports optimizer output that does not match the inputs
// it was supposedly solved from.
type InterpretationError struct {
	Table  string
	ID     string
	Reason string
}

func (e *InterpretationError) Error() string {
	return formatError("interpretation error", e.Table, e.ID, e.Reason)
}

func formatError(kind, table, id, reason string) string {
	switch {
	case id == "":
		return fmt.Sprintf("%s: %s: %s", kind, table, reason)
	default:
		return fmt.Sprintf("%s: %s: %s: %s", kind, table, id, reason)
	}
}
