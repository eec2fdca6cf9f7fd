// Package vm provides the tree-walking evaluator for fragment programs.
// It implements:
//   - The runtime value model (a closed set of Value implementations)
//   - Frames with copy-on-call semantics
//   - Statement, expression and primitive evaluation with Sort checks at
//     every definition, argument and provide boundary
//   - The native capability bridge
//   - Literal and display formatting of values
package vm

import (
	"io"
	"log/slog"
	"os"

	"github.com/zurustar/fragment/pkg/compiler/ast"
	"github.com/zurustar/fragment/pkg/diagnostic"
	"github.com/zurustar/fragment/pkg/logger"
)

// MaxCallDepth is the maximum nesting of function calls and embodiments
// before evaluation fails with a StackOverflow diagnostic.
const MaxCallDepth = 1000

// Importer resolves a use declaration by merging the requested bindings
// into frame. The fragment layer implements it; the VM calls it for the
// use declarations of programs it runs, including embodied Arks.
type Importer interface {
	Import(use *ast.UseStatement, frame *Frame) error
}

// VM evaluates programs against frames.
//
// A VM is bound to one source (usually a fragment); natives can ask for it
// through Origin to resolve paths relative to the calling fragment.
type VM struct {
	source   *Source
	importer Importer
	natives  []*Function
	out      io.Writer

	depth    int
	maxDepth int

	log *slog.Logger
}

// Option is a functional option for configuring the VM.
type Option func(*VM)

// WithLogger sets a custom logger for the VM.
func WithLogger(log *slog.Logger) Option {
	return func(vm *VM) {
		vm.log = log
	}
}

// WithOutput sets where Print writes. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(vm *VM) {
		vm.out = w
	}
}

// WithSource names the text the VM's programs were parsed from.
// Diagnostics raised inside functions defined by that text are attached to it.
func WithSource(name, text string) Option {
	return func(vm *VM) {
		vm.source = &Source{Name: name, Text: text}
	}
}

// WithImporter sets the resolver for use declarations.
func WithImporter(imp Importer) Option {
	return func(vm *VM) {
		vm.importer = imp
	}
}

// WithNatives adds host capabilities after the built-in bridge.
// A native with the name of a built-in replaces it.
func WithNatives(natives ...*Function) Option {
	return func(vm *VM) {
		for _, n := range natives {
			vm.addNative(n)
		}
	}
}

// WithMaxCallDepth overrides MaxCallDepth.
func WithMaxCallDepth(depth int) Option {
	return func(vm *VM) {
		vm.maxDepth = depth
	}
}

// New creates a new VM with the built-in native bridge.
//
// Parameters:
//   - opts: Optional configuration options
//
// Returns:
//   - *VM: The new VM instance
func New(opts ...Option) *VM {
	vm := &VM{
		out:      os.Stdout,
		maxDepth: MaxCallDepth,
		log:      logger.GetLogger(),
	}

	for _, n := range Builtins() {
		vm.addNative(n)
	}

	for _, opt := range opts {
		opt(vm)
	}

	return vm
}

func (vm *VM) addNative(n *Function) {
	for i, existing := range vm.natives {
		if existing.Name == n.Name {
			vm.natives[i] = n
			return
		}
	}
	vm.natives = append(vm.natives, n)
}

// Origin returns the name of the source the VM runs, or "".
func (vm *VM) Origin() string {
	if vm.source == nil {
		return ""
	}
	return vm.source.Name
}

// Output returns the writer Print uses.
func (vm *VM) Output() io.Writer {
	return vm.out
}

// Logger returns the VM's logger.
func (vm *VM) Logger() *slog.Logger {
	return vm.log
}

// Natives returns the native bridge in registration order.
func (vm *VM) Natives() []*Function {
	out := make([]*Function, len(vm.natives))
	copy(out, vm.natives)
	return out
}

// PortName is the binding that holds the native bridge as a record.
const PortName = "Port"

// InstallNatives binds every native by name and the Port record
// (Record.Occult, native name to function) into frame.
func (vm *VM) InstallNatives(frame *Frame) {
	entries := make([]Entry, 0, len(vm.natives))
	for _, n := range vm.natives {
		frame.Set(n.Name, n)
		entries = append(entries, Entry{Key: n.Name, Value: n})
	}
	frame.Set(PortName, NewRecordOf(occultSort, entries))
}

// Run evaluates a program against frame: its use declarations through the
// importer, then its statements in order, then its provide expression.
//
// Parameters:
//   - program: The parsed program
//   - frame: The frame to evaluate against; it receives every binding
//
// Returns:
//   - Value: The provided value; without a provide expression, the value
//     of the last statement (Occult when there is none)
//   - error: The first *diagnostic.Diagnostic raised
func (vm *VM) Run(program *ast.Program, frame *Frame) (Value, error) {
	return vm.run(program, frame, vm.importer)
}

func (vm *VM) run(program *ast.Program, frame *Frame, imp Importer) (Value, error) {
	for _, use := range program.Uses {
		if imp == nil {
			return nil, diagnostic.New(diagnostic.UnresolvablePath, use.Pos(),
				"Cannot resolve %q without a module resolver", use.Source)
		}
		if err := imp.Import(use, frame); err != nil {
			return nil, err
		}
	}

	last := Occult
	for _, stmt := range program.Statements {
		v, err := vm.EvalStatement(stmt, frame)
		if err != nil {
			return nil, err
		}
		last = v
	}

	if program.Provides != nil {
		return vm.EvalExpression(program.Provides, frame)
	}
	return last, nil
}
