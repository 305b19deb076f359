package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	ProfileSetID   ID
	CalibrationRun ID
)

func (id ProfileSetID) String() string   { return ID(id).String() }
func (id CalibrationRun) String() string { return ID(id).String() }

// NewProfileSetID returns a fresh, time-ordered profile set identifier.
func NewProfileSetID() ProfileSetID { return ProfileSetID(NewID()) }

// ParseProfileSetID parses a string into ProfileSetID
func ParseProfileSetID(s string) (ProfileSetID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("profile set ID cannot be empty")
	}
	return ProfileSetID(s), nil
}

// NewCalibrationRun returns a fresh calibration run identifier.
func NewCalibrationRun() CalibrationRun { return CalibrationRun(NewID()) }
