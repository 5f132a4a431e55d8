// Package loopscan detects full person scans inside loops.
package loopscan

import (
	"go/ast"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer detects List and ScopedView calls inside loops. Each call reads
// every stored person, so a loop around one is quadratic.
var Analyzer = &analysis.Analyzer{
	Name:     "loopscan",
	Doc:      "detects full person scans inside loops that should be hoisted",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

// scanMethods are method names that read every person.
var scanMethods = map[string]bool{
	// PersonReader
	"List": true,
	// ConsistencyEngine
	"ScopedView": true,
	// Graph builder
	"Build": true,
}

func run(pass *analysis.Pass) (interface{}, error) {
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.RangeStmt)(nil),
		(*ast.ForStmt)(nil),
	}

	inspect.Preorder(nodeFilter, func(n ast.Node) {
		var body *ast.BlockStmt
		switch stmt := n.(type) {
		case *ast.RangeStmt:
			body = stmt.Body
		case *ast.ForStmt:
			body = stmt.Body
		}
		if body == nil {
			return
		}

		ast.Inspect(body, func(n ast.Node) bool {
			// Nested loops are visited on their own.
			switch n.(type) {
			case *ast.RangeStmt, *ast.ForStmt, *ast.FuncLit:
				return false
			}

			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			sel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			if scanMethods[sel.Sel.Name] {
				pass.Reportf(call.Pos(),
					"%s called inside loop reads every person - load once before the loop",
					sel.Sel.Name)
			}
			return true
		})
	})

	return nil, nil
}
