// Package fragment runs fragment programs as a unit of source files.
//
// A Runtime owns the loader, the bootstrap frame and the fragment cache.
// Running a fragment parses it, resolves its use declarations (each
// dependency fully evaluated before the next one is started) and then
// evaluates its statements against a frame seeded with the bootstrap
// bindings.
package fragment

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/zurustar/fragment/pkg/compiler"
	"github.com/zurustar/fragment/pkg/compiler/ast"
	"github.com/zurustar/fragment/pkg/diagnostic"
	"github.com/zurustar/fragment/pkg/fileutil"
	"github.com/zurustar/fragment/pkg/logger"
	"github.com/zurustar/fragment/pkg/script"
	"github.com/zurustar/fragment/pkg/vm"
)

// Fragment is one source file of a program.
type Fragment struct {
	// Name is the slash-separated path of the file relative to the
	// runtime's file system.
	Name    string
	Source  string
	Program *ast.Program

	// Frame and Result are set once the fragment has been run.
	Frame  *vm.Frame
	Result vm.Value
}

// Runtime resolves and evaluates fragments.
type Runtime struct {
	loader   *script.Loader
	natives  []*vm.Function
	out      io.Writer
	maxDepth int
	log      *slog.Logger

	system *vm.Frame
	cache  map[string]*Fragment
	active []string
}

// Option is a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithLogger sets a custom logger for the runtime and its VMs.
func WithLogger(log *slog.Logger) Option {
	return func(r *Runtime) {
		r.log = log
	}
}

// WithOutput sets where Print writes. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(r *Runtime) {
		r.out = w
	}
}

// WithNatives adds host capabilities to the bridge of every fragment.
func WithNatives(natives ...*vm.Function) Option {
	return func(r *Runtime) {
		r.natives = append(r.natives, natives...)
	}
}

// WithMaxCallDepth overrides vm.MaxCallDepth for every fragment.
func WithMaxCallDepth(depth int) Option {
	return func(r *Runtime) {
		r.maxDepth = depth
	}
}

// New creates a runtime reading fragments through loader.
//
// Parameters:
//   - loader: Loader for fragment sources
//   - opts: Optional configuration options
//
// Returns:
//   - *Runtime: The new runtime; the bootstrap runs on first use
func New(loader *script.Loader, opts ...Option) *Runtime {
	r := &Runtime{
		loader:   loader,
		out:      os.Stdout,
		maxDepth: vm.MaxCallDepth,
		log:      logger.GetLogger(),
		cache:    make(map[string]*Fragment),
	}
	r.natives = append(r.natives, ReadFile(r))

	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Loader returns the loader fragments are read through.
func (r *Runtime) Loader() *script.Loader {
	return r.loader
}

// Load reads and parses a fragment without running it.
//
// Parameters:
//   - name: Slash-separated path relative to the loader's file system
//
// Returns:
//   - *Fragment: The parsed fragment
//   - error: A wrapped script.ErrNotFound/ErrUnreadable, or a *diagnostic.Diagnostic
func (r *Runtime) Load(name string) (*Fragment, error) {
	program, s, err := compiler.ParseFile(r.loader, name)
	if err != nil {
		return nil, err
	}
	return &Fragment{Name: s.FileName, Source: s.Content, Program: program}, nil
}

// Parse parses source text as a fragment named name. Relative use
// declarations resolve against the directory of name.
func (r *Runtime) Parse(name, source string) (*Fragment, error) {
	name = fileutil.CleanName(name)
	program, err := compiler.Parse(source, name)
	if err != nil {
		return nil, err
	}
	return &Fragment{Name: name, Source: source, Program: program}, nil
}

// Run loads the named fragment and evaluates it together with its
// dependencies. A fragment already run by this runtime is returned from
// the cache.
func (r *Runtime) Run(name string) (*Fragment, error) {
	name = fileutil.CleanName(name)
	if f, ok := r.cache[name]; ok {
		return f, nil
	}

	f, err := r.Load(name)
	if err != nil {
		return nil, err
	}
	if err := r.Execute(f); err != nil {
		return nil, err
	}
	return f, nil
}

// Execute evaluates a parsed fragment against a fresh frame seeded with the
// bootstrap bindings and records the fragment in the cache.
func (r *Runtime) Execute(f *Fragment) error {
	frame, err := r.NewFrame()
	if err != nil {
		return err
	}
	if err := r.ExecuteIn(f, frame); err != nil {
		return err
	}
	r.cache[f.Name] = f
	return nil
}

// ExecuteIn evaluates a parsed fragment against an existing frame, which
// receives every binding the fragment defines or imports. The fragment is
// not cached.
//
// Parameters:
//   - f: The parsed fragment
//   - frame: The frame to evaluate against
//
// Returns:
//   - error: A *diagnostic.Diagnostic attached to the fragment that raised it
func (r *Runtime) ExecuteIn(f *Fragment, frame *vm.Frame) error {
	r.active = append(r.active, f.Name)
	defer func() { r.active = r.active[:len(r.active)-1] }()

	r.log.Info("running fragment", "name", f.Name)

	result, err := r.VM(f).Run(f.Program, frame)
	if err != nil {
		if d, ok := diagnostic.As(err); ok {
			return d.Attach(f.Name, f.Source)
		}
		return fmt.Errorf("failed to run %s: %w", f.Name, err)
	}

	f.Frame = frame
	f.Result = result
	r.log.Info("fragment finished", "name", f.Name, "bindings", frame.Len())
	return nil
}

// VM returns an evaluator bound to f: functions it defines report errors
// against f's source, and its use declarations resolve relative to f.
func (r *Runtime) VM(f *Fragment) *vm.VM {
	return vm.New(
		vm.WithLogger(r.log),
		vm.WithOutput(r.out),
		vm.WithSource(f.Name, f.Source),
		vm.WithImporter(&resolver{runtime: r, from: f.Name}),
		vm.WithNatives(r.natives...),
		vm.WithMaxCallDepth(r.maxDepth),
	)
}

// NewFrame returns a frame holding the native bridge, the Port record and
// the bindings of the bootstrap fragment.
func (r *Runtime) NewFrame() (*vm.Frame, error) {
	if r.system == nil {
		system, err := r.bootstrap()
		if err != nil {
			return nil, err
		}
		r.system = system
	}
	return r.system.Clone(), nil
}

// Reset drops every cached fragment. The bootstrap is kept.
func (r *Runtime) Reset() {
	r.cache = make(map[string]*Fragment)
}

// bootstrap runs the embedded system fragment once.
func (r *Runtime) bootstrap() (*vm.Frame, error) {
	loader, err := script.NewLoader(fileutil.NewEmbedFS(systemFiles, "system"), script.DefaultEncoding)
	if err != nil {
		return nil, err
	}
	program, s, err := compiler.ParseFile(loader, SystemFile)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	f := &Fragment{Name: SystemFile, Source: s.Content, Program: program}
	machine := r.VM(f)

	frame := vm.NewFrame()
	machine.InstallNatives(frame)
	if _, err := machine.Run(program, frame); err != nil {
		if d, ok := diagnostic.As(err); ok {
			d.Attach(f.Name, f.Source)
		}
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	r.log.Debug("bootstrap ready", "bindings", frame.Len())
	return frame, nil
}

// IsNotFound reports whether err means a fragment file does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, script.ErrNotFound)
}
