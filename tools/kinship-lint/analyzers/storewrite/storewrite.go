// Package storewrite reports writes to a person transaction made outside the
// packages allowed to write.
package storewrite

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer reports PersonTx.Put and PersonTx.Delete calls outside the
// consistency engine and the store implementations.
var Analyzer = &analysis.Analyzer{
	Name:     "storewrite",
	Doc:      "reports person store writes that bypass the consistency engine",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

const txTypeName = "PersonTx"

var writeMethods = map[string]bool{
	"Put":    true,
	"Delete": true,
}

// allowedSuffixes are package path suffixes that may write directly.
var allowedSuffixes = []string{
	"/domain/services",
	"/domain/mocks",
	"/persondb/sqlite",
	"/persondb/badger",
}

func allowed(path string) bool {
	for _, suffix := range allowedSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

func run(pass *analysis.Pass) (interface{}, error) {
	if allowed(pass.Pkg.Path()) {
		return nil, nil
	}
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	inspect.Preorder([]ast.Node{(*ast.CallExpr)(nil)}, func(n ast.Node) {
		call := n.(*ast.CallExpr)
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok || !writeMethods[sel.Sel.Name] {
			return
		}
		if !isPersonTx(pass.TypesInfo.TypeOf(sel.X)) {
			return
		}
		pass.Reportf(call.Pos(),
			"%s.%s outside the consistency engine skips invariant checks",
			txTypeName, sel.Sel.Name)
	})

	return nil, nil
}

func isPersonTx(t types.Type) bool {
	if t == nil {
		return false
	}
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}
	named, ok := t.(*types.Named)
	return ok && named.Obj().Name() == txTypeName
}
