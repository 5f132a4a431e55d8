package graph

import (
	"github.com/cockroachdb/errors"

	"github.com/ersonp/kinship/internal/domain/entities"
)

// WeightFunc picks the weight for an edge between a and b.
type WeightFunc func(kind entities.EdgeKind, a, b *entities.Person) float64

// WeightOverride pins the weight of a single edge.
type WeightOverride struct {
	Source string  `json:"source" validate:"required"`
	Target string  `json:"target" validate:"required"`
	Weight float64 `json:"weight"`
}

type buildOptions struct {
	weight    WeightFunc
	overrides []WeightOverride
}

// Option configures Build.
type Option func(*buildOptions)

// WithWeightFunc replaces the default unit weight.
func WithWeightFunc(fn WeightFunc) Option {
	return func(o *buildOptions) {
		if fn != nil {
			o.weight = fn
		}
	}
}

// WithOverrides sets explicit weights on specific edges after the build.
func WithOverrides(overrides []WeightOverride) Option {
	return func(o *buildOptions) {
		o.overrides = append(o.overrides, overrides...)
	}
}

func unitWeight(entities.EdgeKind, *entities.Person, *entities.Person) float64 {
	return DefaultWeight
}

// Build turns people into a graph: one node per person, one edge per
// parent/child pair and one edge per spouse pair. Relationship ids that point
// outside people produce no edge. Edge order follows the input order, which
// keeps algorithm output reproducible.
func Build(people []entities.Person, opts ...Option) (*Graph, error) {
	o := buildOptions{weight: unitWeight}
	for _, opt := range opts {
		opt(&o)
	}

	g := New()
	byID := make(map[string]*entities.Person, len(people))
	for i := range people {
		p := &people[i]
		if _, err := g.AddNode(p.ID, p.Name); err != nil {
			return nil, err
		}
		byID[p.ID] = p
	}

	link := func(kind entities.EdgeKind, a, b *entities.Person) error {
		_, err := g.AddEdge(a.ID, b.ID, o.weight(kind, a, b), kind)
		return err
	}

	for i := range people {
		child := &people[i]
		for _, parentID := range []string{child.FatherID, child.MotherID} {
			parent, ok := byID[parentID]
			if !ok || parentID == child.ID {
				continue
			}
			if err := link(entities.EdgeParent, parent, child); err != nil {
				return nil, errors.Wrap(err, "linking parent")
			}
		}
		for _, spouseID := range child.SpouseIDs {
			spouse, ok := byID[spouseID]
			if !ok || spouseID == child.ID {
				continue
			}
			if err := link(entities.EdgeSpouse, child, spouse); err != nil {
				return nil, errors.Wrap(err, "linking spouse")
			}
		}
	}

	for _, ov := range o.overrides {
		if err := g.SetWeight(ov.Source, ov.Target, ov.Weight); err != nil {
			return nil, errors.Wrap(err, "applying weight override")
		}
	}

	return g, nil
}
