// Package analyzers provides all custom static analyzers for kinship.
package analyzers

import (
	"golang.org/x/tools/go/analysis"

	"github.com/ersonp/kinship/tools/kinship-lint/analyzers/errorf"
	"github.com/ersonp/kinship/tools/kinship-lint/analyzers/loopscan"
	"github.com/ersonp/kinship/tools/kinship-lint/analyzers/storewrite"
)

// All returns all analyzers to run.
func All() []*analysis.Analyzer {
	return []*analysis.Analyzer{
		errorf.Analyzer,
		loopscan.Analyzer,
		storewrite.Analyzer,
	}
}
