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

// ExperimentID identifies a stored A/B experiment.
type ExperimentID ID

// NewExperimentID returns a fresh time-ordered experiment ID.
func NewExperimentID() ExperimentID { return ExperimentID(NewID()) }

func (id ExperimentID) String() string { return ID(id).String() }
func (id ExperimentID) IsEmpty() bool  { return ID(id).IsEmpty() }

// ParseExperimentID parses a string into ExperimentID
func ParseExperimentID(s string) (ExperimentID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("experiment ID cannot be empty")
	}
	return ExperimentID(strings.TrimSpace(s)), nil
}
