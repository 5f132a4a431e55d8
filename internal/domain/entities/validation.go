package entities

// Lookup resolves a person id inside the state being validated.
// It returns nil for unknown ids.
type Lookup func(id string) *Person

// ValidateLocal checks the rules that only need the person itself:
// invariants 1, 2, 3 and 5, plus birth/death ordering.
func ValidateLocal(p *Person) error {
	if p.FatherID == p.ID {
		return violation(InvariantNoSelfParent, p.ID, "person cannot be their own father", p.FatherID)
	}
	if p.MotherID == p.ID {
		return violation(InvariantNoSelfParent, p.ID, "person cannot be their own mother", p.MotherID)
	}
	if p.FatherID != "" && p.FatherID == p.MotherID {
		return violation(InvariantDistinctParents, p.ID, "father and mother must be different people", p.FatherID)
	}
	if p.HasSpouse(p.ID) {
		return violation(InvariantNoSelfMarriage, p.ID, "person cannot be their own spouse", p.ID)
	}
	for _, s := range p.SpouseIDs {
		if p.IsChildOf(s) {
			return violation(InvariantParentNotSpouse, p.ID, "a parent cannot also be a spouse", s)
		}
	}
	if p.BirthYear != nil && p.DeathYear != nil && *p.DeathYear < *p.BirthYear {
		return &ValidationError{
			Invariant: InvariantField,
			PersonID:  p.ID,
			Field:     "death_year",
			Message:   "death year precedes birth year",
		}
	}
	return nil
}

// ValidateRelations checks the rules that span people: invariants 4 and 6.
func ValidateRelations(p *Person, lookup Lookup) error {
	for _, parent := range []string{p.FatherID, p.MotherID} {
		if parent != "" && lookup(parent) == nil {
			return violation(InvariantReferentialIntegrity, p.ID, "parent does not exist", parent)
		}
	}
	for _, s := range p.SpouseIDs {
		spouse := lookup(s)
		if spouse == nil {
			return violation(InvariantReferentialIntegrity, p.ID, "spouse does not exist", s)
		}
		if !spouse.HasSpouse(p.ID) {
			return violation(InvariantSpouseSymmetry, p.ID, "spouse link is not reciprocated", s)
		}
	}
	return nil
}

// Validate runs every invariant against p.
func Validate(p *Person, lookup Lookup) error {
	if err := ValidateLocal(p); err != nil {
		return err
	}
	return ValidateRelations(p, lookup)
}
