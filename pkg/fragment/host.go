package fragment

import (
	"errors"
	"fmt"
	"path"

	"github.com/zurustar/fragment/pkg/diagnostic"
	"github.com/zurustar/fragment/pkg/script"
	"github.com/zurustar/fragment/pkg/sorts"
	"github.com/zurustar/fragment/pkg/vm"
)

// ReadFile returns the ReadFile host port. It reads a path relative to the
// directory of the fragment performing the call, decoded with the
// runtime's encoding.
func ReadFile(r *Runtime) *vm.Function {
	return vm.NewNative("ReadFile", sorts.Of(sorts.String), func(v *vm.VM, args []vm.Value) (vm.Value, error) {
		if err := vm.Arity("ReadFile", args, "path"); err != nil {
			return nil, err
		}
		p, ok := args[0].(vm.String)
		if !ok {
			return nil, vm.ArgumentError("ReadFile", "path", args[0], "String")
		}

		name := path.Join(path.Dir(v.Origin()), string(p))
		s, err := r.loader.Load(name)
		if err != nil {
			if errors.Is(err, script.ErrNotFound) {
				return nil, diagnostic.New(diagnostic.UnresolvablePath, diagnostic.Position{},
					"Unable to resolve path '%s'", string(p))
			}
			return nil, fmt.Errorf("read %s: %w", name, err)
		}

		v.Logger().Debug("file read", "name", s.FileName, "size", s.Size)
		return vm.String(s.Content), nil
	})
}
