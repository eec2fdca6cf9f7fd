package fragment

import (
	"embed"
	"errors"
	"path"
	"strings"

	"github.com/zurustar/fragment/pkg/compiler/ast"
	"github.com/zurustar/fragment/pkg/diagnostic"
	"github.com/zurustar/fragment/pkg/fileutil"
	"github.com/zurustar/fragment/pkg/script"
	"github.com/zurustar/fragment/pkg/vm"
)

// SystemSource is the reserved use source of the bootstrap fragment. Its
// bindings are already in every frame, so importing it is a no-op.
const SystemSource = "system"

// SystemFile is the name of the embedded bootstrap fragment.
const SystemFile = "system.fr"

// Extension is appended to a use source that names no existing file.
const Extension = ".fr"

//go:embed system/*.fr
var systemFiles embed.FS

// resolver implements vm.Importer for the fragment named from.
type resolver struct {
	runtime *Runtime
	from    string
}

// Import runs the dependency named by use and merges the requested
// bindings into frame.
func (res *resolver) Import(use *ast.UseStatement, frame *vm.Frame) error {
	if use.Source == SystemSource {
		return nil
	}
	r := res.runtime

	target := res.locate(use.Source)
	if chain, cyclic := r.cycle(target); cyclic {
		return diagnostic.New(diagnostic.CyclicDependency, use.Pos(),
			"Fragments cannot depend on themselves: %s", strings.Join(chain, " -> "))
	}

	dep, err := r.Run(target)
	if err != nil {
		if errors.Is(err, script.ErrNotFound) || errors.Is(err, script.ErrUnreadable) {
			return diagnostic.New(diagnostic.UnresolvablePath, use.Pos(),
				"Unable to resolve path '%s'", use.Source).WithHint(err.Error())
		}
		return err
	}

	names := make([]string, 0, len(use.Names))
	for _, n := range use.Names {
		names = append(names, n.Name)
	}
	if use.All {
		names = nil
	}

	if missing, ok := frame.Merge(dep.Frame, names...); !ok {
		pos := use.Pos()
		for _, n := range use.Names {
			if n.Name == missing {
				pos = n.Pos()
				break
			}
		}
		return diagnostic.New(diagnostic.UndeclaredVariable, pos,
			"Variable '%s' is not declared in '%s'", missing, dep.Name).
			WithHint(diagnostic.DidYouMean(missing, dep.Frame.Keys()))
	}

	r.log.Debug("imported", "from", res.from, "fragment", dep.Name, "all", use.All, "names", names)
	return nil
}

// locate resolves source against the directory of the importing fragment.
// A source without an existing file falls back to source + Extension.
func (res *resolver) locate(source string) string {
	target := fileutil.CleanName(path.Join(path.Dir(res.from), source))
	if path.Ext(target) != "" {
		return target
	}
	if _, cached := res.runtime.cache[target]; cached {
		return target
	}
	if res.runtime.loader.FileSystem().Exists(target) {
		return target
	}
	return target + Extension
}

// cycle reports the import chain when target is still being evaluated.
func (r *Runtime) cycle(target string) ([]string, bool) {
	for i, name := range r.active {
		if name == target {
			chain := append([]string{}, r.active[i:]...)
			return append(chain, target), true
		}
	}
	return nil, false
}
