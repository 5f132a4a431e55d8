package entities

// RelationType names how a newly added relative attaches to an existing person.
type RelationType string

const (
	RelationFather RelationType = "father"
	RelationMother RelationType = "mother"
	RelationSpouse RelationType = "spouse"
	RelationChild  RelationType = "child"
)

// EdgeKind is the kind of link between two people in the family graph.
type EdgeKind string

const (
	EdgeParent EdgeKind = "parent"
	EdgeSpouse EdgeKind = "spouse"
)

// Scope selects how much of the family graph a view returns.
type Scope string

const (
	// ScopeFull returns every stored person.
	ScopeFull Scope = "full"
	// ScopePersonal returns the root, their parents, spouses and children.
	ScopePersonal Scope = "personal"
)
