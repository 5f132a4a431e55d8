package entities

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Sentinel errors. Typed errors below match them through errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("person not found")
)

// Invariant identifies a relational rule that every committed person obeys.
type Invariant int

const (
	// InvariantField marks a field-level patch problem rather than a
	// relational invariant.
	InvariantField Invariant = iota
	InvariantNoSelfParent
	InvariantDistinctParents
	InvariantNoSelfMarriage
	InvariantSpouseSymmetry
	InvariantParentNotSpouse
	InvariantReferentialIntegrity
)

var invariantNames = map[Invariant]string{
	InvariantField:                "field validation",
	InvariantNoSelfParent:         "no self-parenting",
	InvariantDistinctParents:      "distinct parents",
	InvariantNoSelfMarriage:       "no self-marriage",
	InvariantSpouseSymmetry:       "spouse symmetry",
	InvariantParentNotSpouse:      "parent is not spouse",
	InvariantReferentialIntegrity: "referential integrity",
}

func (i Invariant) String() string {
	if name, ok := invariantNames[i]; ok {
		return name
	}
	return fmt.Sprintf("invariant(%d)", int(i))
}

// ValidationError reports a rejected mutation.
type ValidationError struct {
	Invariant  Invariant `json:"invariant"`
	PersonID   string    `json:"person_id,omitempty"`
	RelatedIDs []string  `json:"related_ids,omitempty"`
	Field      string    `json:"field,omitempty"`
	Message    string    `json:"message"`
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	if e.Invariant == InvariantField {
		fmt.Fprintf(&b, "invalid field %q", e.Field)
	} else {
		fmt.Fprintf(&b, "invariant %d (%s) violated", int(e.Invariant), e.Invariant)
	}
	if e.PersonID != "" {
		fmt.Fprintf(&b, " by %s", e.PersonID)
	}
	if len(e.RelatedIDs) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.RelatedIDs, ", "))
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is makes errors.Is(err, ErrValidation) succeed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func violation(inv Invariant, personID, msg string, related ...string) *ValidationError {
	return &ValidationError{
		Invariant:  inv,
		PersonID:   personID,
		RelatedIDs: related,
		Message:    msg,
	}
}

// FieldError reports a bad field value on personID (which may be empty).
func FieldError(personID, field, msg string) *ValidationError {
	return &ValidationError{
		Invariant: InvariantField,
		PersonID:  personID,
		Field:     field,
		Message:   msg,
	}
}

// NotFoundError reports a person id that does not exist.
type NotFoundError struct {
	ID string `json:"id"`
}

func (e *NotFoundError) Error() string {
	return "person not found: " + e.ID
}

// Is makes errors.Is(err, ErrNotFound) succeed.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// IsValidation reports whether err carries a *ValidationError.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound reports whether err carries a *NotFoundError.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
