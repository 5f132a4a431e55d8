// Package errorf reports fmt.Errorf in internal packages, which wrap errors
// with github.com/cockroachdb/errors instead.
package errorf

import (
	"go/ast"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
	"golang.org/x/tools/go/types/typeutil"
)

// Analyzer reports fmt.Errorf and errors.New from the standard library in
// packages under internal/.
var Analyzer = &analysis.Analyzer{
	Name:     "errorf",
	Doc:      "reports standard library error constructors in internal packages",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

var replacements = map[string]string{
	"fmt.Errorf": "errors.Wrapf or errors.Newf",
	"errors.New": "errors.New",
}

func run(pass *analysis.Pass) (interface{}, error) {
	path := pass.Pkg.Path()
	if !strings.Contains(path, "/internal/") && !strings.HasPrefix(path, "internal/") {
		return nil, nil
	}
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	inspect.Preorder([]ast.Node{(*ast.CallExpr)(nil)}, func(n ast.Node) {
		call := n.(*ast.CallExpr)
		fn := typeutil.StaticCallee(pass.TypesInfo, call)
		if fn == nil || fn.Pkg() == nil {
			return
		}
		name := fn.Pkg().Path() + "." + fn.Name()
		if want, ok := replacements[name]; ok {
			pass.Reportf(call.Pos(),
				"use %s from github.com/cockroachdb/errors instead of %s", want, name)
		}
	})

	return nil, nil
}
