// kinship-lint checks the rules the kinship packages rely on but the
// compiler cannot enforce.
package main

import (
	"golang.org/x/tools/go/analysis/multichecker"

	"github.com/ersonp/kinship/tools/kinship-lint/analyzers"
)

func main() {
	multichecker.Main(analyzers.All()...)
}
