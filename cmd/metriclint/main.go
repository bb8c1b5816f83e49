// Command metriclint checks the meter names passed to a registry.
package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/idudko/promreg/cmd/metriclint/analyzer"
)

func main() {
	singlechecker.Main(analyzer.Analyzer)
}
