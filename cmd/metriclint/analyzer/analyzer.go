// Package analyzer reports constant meter names that the registry would
// render badly: empty names, names that are not lower-case and
// dot-separated, and names already carrying a suffix the Prometheus naming
// convention adds by itself.
package analyzer

import (
	"go/ast"
	"go/constant"
	"go/types"
	"regexp"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

const registryPath = "github.com/idudko/promreg/pkg/registry"

var Analyzer = &analysis.Analyzer{
	Name:     "meternames",
	Doc:      "check constant meter names passed to registry.Registry",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

var (
	dotted = regexp.MustCompile(`^[a-z][a-z0-9]*(\.[a-z0-9]+)*$`)

	// methods taking the meter name as their first argument
	methods = map[string]bool{
		"Counter":         true,
		"FunctionCounter": true,
		"Gauge":           true,
		"Timer":           true,
		"Summary":         true,
		"LongTaskTimer":   true,
		"Custom":          true,
		"Get":             true,
	}

	addedSuffixes = []string{"total", "seconds"}
)

func run(pass *analysis.Pass) (any, error) {
	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	insp.Preorder([]ast.Node{(*ast.CallExpr)(nil)}, func(n ast.Node) {
		call := n.(*ast.CallExpr)
		if len(call.Args) == 0 || !isRegistryMethod(pass, call) {
			return
		}

		tv, ok := pass.TypesInfo.Types[call.Args[0]]
		if !ok || tv.Value == nil || tv.Value.Kind() != constant.String {
			return
		}
		name := constant.StringVal(tv.Value)

		switch {
		case name == "":
			pass.Reportf(call.Args[0].Pos(), "meter name must not be empty")
		case !dotted.MatchString(name):
			pass.Reportf(call.Args[0].Pos(), "meter name %q should be lower-case and dot-separated", name)
		default:
			last := name[strings.LastIndexByte(name, '.')+1:]
			for _, s := range addedSuffixes {
				if last == s && last != name {
					pass.Reportf(call.Args[0].Pos(), "meter name %q ends with %q, which the naming convention adds", name, s)
				}
			}
		}
	})

	return nil, nil
}

// isRegistryMethod reports whether call invokes one of the named methods of
// *registry.Registry.
func isRegistryMethod(pass *analysis.Pass, call *ast.CallExpr) bool {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok || !methods[sel.Sel.Name] {
		return false
	}
	fn, ok := pass.TypesInfo.ObjectOf(sel.Sel).(*types.Func)
	if !ok || fn.Pkg() == nil || fn.Pkg().Path() != registryPath {
		return false
	}
	recv := fn.Type().(*types.Signature).Recv()
	if recv == nil {
		return false
	}
	t := recv.Type()
	if p, ok := t.(*types.Pointer); ok {
		t = p.Elem()
	}
	named, ok := t.(*types.Named)
	return ok && named.Obj().Name() == "Registry"
}
