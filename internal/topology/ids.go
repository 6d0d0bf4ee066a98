package topology

import (
	"fmt"
	"strconv"
	"strings"
)

// Identifiers written to the optimizer are derived from grid IDs so every row can
// be traced back to the entity it came from:
//
//	load zone           <bus>
//	existing plant      g<plant>
//	expansion candidate g<plant>i
//	storage candidate   s<bus>i
//	AC line             <branch>ac
//	DC line             <dcline>dc

func ZoneID(busID int) string { return strconv.Itoa(busID) }
func PlantID(plantID int) string { return fmt.Sprintf("g%d", plantID) }
func ExpansionID(plantID int) string { return fmt.Sprintf("g%di", plantID) }
func StorageID(busID int) string { return fmt.Sprintf("s%di", busID) }
func ACLineID(branchID int) string { return fmt.Sprintf("%dac", branchID) }
func DCLineID(dclineID int) string { return fmt.Sprintf("%ddc", dclineID) }

// ProjectKind distinguishes the three kinds of generation project.
type ProjectKind int

const (
	ProjectExisting ProjectKind = iota
	ProjectExpansion
	ProjectStorage
)

func (k ProjectKind) String() string {
	switch k {
	case ProjectExisting:
		return "existing"
	case ProjectExpansion:
		return "expansion"
	case ProjectStorage:
		return "storage"
	}
	return "unknown"
}

// ProjectRef is a parsed generation project identifier. ID is the plant ID for
// existing and expansion projects and the bus ID for storage.
type ProjectRef struct {
	Kind ProjectKind
	ID   int
}

// ParseProjectID inverts PlantID, ExpansionID and StorageID.
func ParseProjectID(s string) (ProjectRef, error) {
	var kind ProjectKind
	body := s
	switch {
	case strings.HasPrefix(s, "g") && strings.HasSuffix(s, "i"):
		kind, body = ProjectExpansion, s[1:len(s)-1]
	case strings.HasPrefix(s, "g"):
		kind, body = ProjectExisting, s[1:]
	case strings.HasPrefix(s, "s") && strings.HasSuffix(s, "i"):
		kind, body = ProjectStorage, s[1:len(s)-1]
	default:
		return ProjectRef{}, fmt.Errorf("unrecognized generation project %q", s)
	}
	id, err := strconv.Atoi(body)
	if err != nil {
		return ProjectRef{}, fmt.Errorf("unrecognized generation project %q", s)
	}
	return ProjectRef{Kind: kind, ID: id}, nil
}

type LineKind int

const (
	LineAC LineKind = iota
	LineDC
)

// LineRef is a parsed transmission line identifier.
type LineRef struct {
	Kind LineKind
	ID   int
}

// ParseLineID inverts ACLineID and DCLineID.
func ParseLineID(s string) (LineRef, error) {
	var kind LineKind
	switch {
	case strings.HasSuffix(s, "ac"):
		kind = LineAC
	case strings.HasSuffix(s, "dc"):
		kind = LineDC
	default:
		return LineRef{}, fmt.Errorf("unrecognized transmission line %q", s)
	}
	id, err := strconv.Atoi(s[:len(s)-2])
	if err != nil {
		return LineRef{}, fmt.Errorf("unrecognized transmission line %q", s)
	}
	return LineRef{Kind: kind, ID: id}, nil
}
