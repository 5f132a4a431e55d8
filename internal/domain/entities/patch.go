package entities

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Nullable distinguishes an absent field (Set == false) from an explicit
// null (Set == true, Value == nil) when decoding a patch.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// Some returns a Nullable holding v.
func Some[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

// Null returns a Nullable that clears the field.
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

// UnmarshalJSON is only invoked for keys present in the input.
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// MarshalJSON encodes an unset or cleared value as null.
func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Value)
}

// PersonPatch lists the fields a caller may change on a person.
// Fields left nil or unset keep their stored value.
type PersonPatch struct {
	Name      *string          `json:"name,omitempty" validate:"omitempty,max=200"`
	Gender    *Gender          `json:"gender,omitempty" validate:"omitempty,oneof=male female unknown"`
	BirthYear Nullable[int]    `json:"birth_year"`
	DeathYear Nullable[int]    `json:"death_year"`
	FatherID  Nullable[string] `json:"father_id"`
	MotherID  Nullable[string] `json:"mother_id"`
	SpouseIDs *[]string        `json:"spouse_ids,omitempty" validate:"omitempty,max=64"`
	Contact   *string          `json:"contact,omitempty" validate:"omitempty,max=320"`
	Image     *string          `json:"image,omitempty" validate:"omitempty,max=2048"`
}

const (
	minYear = -9999
	maxYear = 9999
)

// Validate checks each field on its own, before any merge.
func (p *PersonPatch) Validate() error {
	if p.Name != nil {
		trimmed := strings.TrimSpace(*p.Name)
		if trimmed == "" {
			return &ValidationError{
				Invariant: InvariantField,
				Field:     "name",
				Message:   "name must not be blank",
			}
		}
		p.Name = &trimmed
	}
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &ValidationError{
				Invariant: InvariantField,
				Field:     jsonFieldName(fe.Field()),
				Message:   "failed '" + fe.Tag() + "' check",
			}
		}
		return errors.Wrap(err, "validating patch")
	}
	years := []struct {
		field string
		value *int
	}{
		{"birth_year", p.BirthYear.Value},
		{"death_year", p.DeathYear.Value},
	}
	for _, y := range years {
		if y.value != nil && (*y.value < minYear || *y.value > maxYear) {
			return &ValidationError{
				Invariant: InvariantField,
				Field:     y.field,
				Message:   "year out of range",
			}
		}
	}
	return nil
}

// ApplyTo merges the patch onto p. The caller validates the result.
func (p *PersonPatch) ApplyTo(person *Person) {
	if p.Name != nil {
		person.Name = *p.Name
	}
	if p.Gender != nil {
		person.Gender = *p.Gender
	}
	if p.BirthYear.Set {
		person.BirthYear = cloneInt(p.BirthYear.Value)
	}
	if p.DeathYear.Set {
		person.DeathYear = cloneInt(p.DeathYear.Value)
	}
	if p.FatherID.Set {
		person.FatherID = derefID(p.FatherID.Value)
	}
	if p.MotherID.Set {
		person.MotherID = derefID(p.MotherID.Value)
	}
	if p.SpouseIDs != nil {
		person.SpouseIDs = NormalizeIDs(*p.SpouseIDs)
	}
	if p.Contact != nil {
		person.Contact = *p.Contact
	}
	if p.Image != nil {
		person.Image = *p.Image
	}
	person.Normalize()
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// derefID maps a missing or blank id to the empty "no parent" value.
func derefID(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}

func jsonFieldName(structField string) string {
	switch structField {
	case "SpouseIDs":
		return "spouse_ids"
	case "BirthYear":
		return "birth_year"
	case "DeathYear":
		return "death_year"
	default:
		return strings.ToLower(structField)
	}
}
