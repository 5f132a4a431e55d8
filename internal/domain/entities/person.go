// Package entities contains core domain data structures.
package entities

import (
	"slices"
	"strings"
	"time"
)

// Gender is the recorded gender of a person.
type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnknown Gender = "unknown"
)

// IsValid reports whether g is one of the known genders.
func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderUnknown:
		return true
	default:
		return false
	}
}

// Person is one individual in the family graph.
// An empty FatherID or MotherID means the parent is unknown.
type Person struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Gender    Gender    `json:"gender"`
	BirthYear *int      `json:"birth_year,omitempty"`
	DeathYear *int      `json:"death_year,omitempty"`
	FatherID  string    `json:"father_id,omitempty"`
	MotherID  string    `json:"mother_id,omitempty"`
	SpouseIDs []string  `json:"spouse_ids"`
	Contact   string    `json:"contact,omitempty"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the person.
func (p *Person) Clone() *Person {
	c := *p
	if p.BirthYear != nil {
		y := *p.BirthYear
		c.BirthYear = &y
	}
	if p.DeathYear != nil {
		y := *p.DeathYear
		c.DeathYear = &y
	}
	c.SpouseIDs = slices.Clone(p.SpouseIDs)
	if c.SpouseIDs == nil {
		c.SpouseIDs = []string{}
	}
	return &c
}

// Normalize trims identifiers, defaults the gender and turns SpouseIDs into
// a sorted set without empty entries.
func (p *Person) Normalize() {
	p.FatherID = strings.TrimSpace(p.FatherID)
	p.MotherID = strings.TrimSpace(p.MotherID)
	if p.Gender == "" {
		p.Gender = GenderUnknown
	}
	p.SpouseIDs = NormalizeIDs(p.SpouseIDs)
}

// HasSpouse reports whether id is in the spouse set.
func (p *Person) HasSpouse(id string) bool {
	return slices.Contains(p.SpouseIDs, id)
}

// AddSpouse inserts id into the spouse set, keeping it sorted.
func (p *Person) AddSpouse(id string) {
	if p.HasSpouse(id) {
		return
	}
	p.SpouseIDs = NormalizeIDs(append(p.SpouseIDs, id))
}

// RemoveSpouse drops id from the spouse set.
func (p *Person) RemoveSpouse(id string) {
	p.SpouseIDs = slices.DeleteFunc(p.SpouseIDs, func(s string) bool { return s == id })
}

// IsChildOf reports whether id is the father or mother of p.
func (p *Person) IsChildOf(id string) bool {
	return id != "" && (p.FatherID == id || p.MotherID == id)
}

// Unlink removes every reference to id from p's relationship fields.
// It reports whether anything changed.
func (p *Person) Unlink(id string) bool {
	changed := false
	if p.FatherID == id {
		p.FatherID = ""
		changed = true
	}
	if p.MotherID == id {
		p.MotherID = ""
		changed = true
	}
	if p.HasSpouse(id) {
		p.RemoveSpouse(id)
		changed = true
	}
	return changed
}

// References reports whether p points at id through any relationship field.
func (p *Person) References(id string) bool {
	return p.IsChildOf(id) || p.HasSpouse(id)
}

// SameState compares every field except the timestamps.
func (p *Person) SameState(o *Person) bool {
	return p.ID == o.ID &&
		p.Name == o.Name &&
		p.Gender == o.Gender &&
		equalYear(p.BirthYear, o.BirthYear) &&
		equalYear(p.DeathYear, o.DeathYear) &&
		p.FatherID == o.FatherID &&
		p.MotherID == o.MotherID &&
		slices.Equal(p.SpouseIDs, o.SpouseIDs) &&
		p.Contact == o.Contact &&
		p.Image == o.Image
}

func equalYear(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// NormalizeIDs trims, drops empty ids, de-duplicates and sorts.
func NormalizeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
