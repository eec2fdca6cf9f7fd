// Package repl provides the interactive session: input is read until it
// parses, evaluated against one persistent frame, and its value printed.
package repl

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/peterh/liner"
	"github.com/zurustar/fragment/pkg/compiler"
	"github.com/zurustar/fragment/pkg/diagnostic"
	"github.com/zurustar/fragment/pkg/fragment"
	"github.com/zurustar/fragment/pkg/logger"
	"github.com/zurustar/fragment/pkg/vm"
)

const (
	promptMain = "fragment> "
	promptCont = "........> "

	// InputName names the pseudo fragment every input is evaluated as.
	InputName = "<input>"
)

const helpText = `Enter statements to run them; a trailing expression or provide is printed.
Input continues on the next line until it parses.

Commands:
  :help           show this help
  :frame          list the bindings defined in this session with their sorts
  :load <file>    run a fragment and merge its bindings
  :reset          drop every binding and cached fragment
  :quit, :exit    leave the session
`

// LineReader reads one line of input. *liner.State implements it.
type LineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// Session is an interactive evaluation session.
type Session struct {
	runtime *fragment.Runtime
	frame   *vm.Frame
	base    map[string]bool
	frames  func() (*vm.Frame, error)

	out    io.Writer
	errOut io.Writer
	log    *slog.Logger
}

// Option is a functional option for configuring the Session.
type Option func(*Session)

// WithLogger sets a custom logger for the session.
func WithLogger(log *slog.Logger) Option {
	return func(s *Session) {
		s.log = log
	}
}

// WithOutput sets where values and diagnostics are written.
func WithOutput(out, errOut io.Writer) Option {
	return func(s *Session) {
		s.out = out
		s.errOut = errOut
	}
}

// New creates a session evaluating against rt.
func New(rt *fragment.Runtime, opts ...Option) (*Session, error) {
	s := &Session{
		runtime: rt,
		out:     os.Stdout,
		errOut:  os.Stderr,
		log:     logger.GetLogger(),
	}
	s.frames = rt.NewFrame
	for _, opt := range opts {
		opt(s)
	}

	if err := s.reset(); err != nil {
		return nil, err
	}
	return s, nil
}

// Frame returns the session's persistent frame.
func (s *Session) Frame() *vm.Frame {
	return s.frame
}

func (s *Session) reset() error {
	frame, err := s.frames()
	if err != nil {
		return err
	}
	s.frame = frame
	s.base = make(map[string]bool, frame.Len())
	for _, k := range frame.Keys() {
		s.base[k] = true
	}
	return nil
}

// Start runs an interactive session on the terminal with line editing.
// History is read from and written to historyPath when it is not empty.
func Start(s *Session, historyPath string) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if f, err := os.Create(historyPath); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()
	}

	fmt.Fprintln(s.out, "fragment interactive session. Type :help for commands.")
	return s.Run(ln)
}

// Run reads and evaluates input until end of input or :quit.
func (s *Session) Run(in LineReader) error {
	for {
		src, ok, err := s.read(in)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(s.out)
			return nil
		}

		trimmed := strings.TrimSpace(src)
		if trimmed == "" {
			continue
		}
		in.AppendHistory(strings.ReplaceAll(src, "\n", " "))

		if strings.HasPrefix(trimmed, ":") {
			if quit := s.Command(trimmed); quit {
				return nil
			}
			continue
		}

		v, err := s.Eval(src)
		if err != nil {
			s.report(err)
			continue
		}
		if _, occult := v.(vm.Nothing); !occult {
			fmt.Fprintln(s.out, vm.Literal(v))
		}
	}
}

// read collects lines until they form a complete program, a command, or a
// syntax error that more input cannot fix. ok is false at end of input.
func (s *Session) read(in LineReader) (string, bool, error) {
	var b strings.Builder

	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}

		line, err := in.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false, nil
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			// Ctrl-C で入力を破棄
			b.Reset()
			continue
		}
		if err != nil {
			return "", false, fmt.Errorf("failed to read input: %w", err)
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if b.Len() == len(line) && strings.HasPrefix(strings.TrimSpace(line), ":") {
			return src, true, nil
		}
		if _, incomplete, perr := compiler.Probe(src); perr != nil && incomplete {
			continue
		}
		return src, true, nil
	}
}

// Eval evaluates src against the session frame and returns its value: the
// provided value, or the value of the last statement.
func (s *Session) Eval(src string) (vm.Value, error) {
	program, err := compiler.Parse(src, InputName)
	if err != nil {
		return nil, err
	}

	f := &fragment.Fragment{Name: InputName, Source: src, Program: program}
	if err := s.runtime.ExecuteIn(f, s.frame); err != nil {
		return nil, err
	}
	return f.Result, nil
}

// Command runs a ':' command. It returns true when the session should end.
func (s *Session) Command(line string) bool {
	name, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case ":quit", ":exit":
		return true
	case ":help":
		fmt.Fprint(s.out, helpText)
	case ":frame":
		s.listFrame()
	case ":load":
		if arg == "" {
			fmt.Fprintln(s.errOut, "usage: :load <file>")
			return false
		}
		s.load(arg)
	case ":reset":
		s.runtime.Reset()
		if err := s.reset(); err != nil {
			s.report(err)
			return false
		}
		fmt.Fprintln(s.out, "session reset")
	default:
		fmt.Fprintf(s.errOut, "unknown command %s. Type :help for commands.\n", name)
	}
	return false
}

func (s *Session) listFrame() {
	var names []string
	for _, k := range s.frame.Keys() {
		if !s.base[k] {
			names = append(names, k)
		}
	}
	if len(names) == 0 {
		fmt.Fprintln(s.out, "no bindings")
		return
	}
	sort.Strings(names)
	for _, k := range names {
		v, _ := s.frame.Get(k)
		fmt.Fprintf(s.out, "%s: %s\n", k, v.Sort())
	}
}

func (s *Session) load(name string) {
	f, err := s.runtime.Run(name)
	if err != nil {
		s.report(err)
		return
	}
	s.frame.Merge(f.Frame)
	s.log.Debug("fragment loaded into session", "name", f.Name, "bindings", f.Frame.Len())
	fmt.Fprintf(s.out, "loaded %s\n", f.Name)
}

func (s *Session) report(err error) {
	if d, ok := diagnostic.As(err); ok {
		fmt.Fprint(s.errOut, d.Render())
		return
	}
	fmt.Fprintln(s.errOut, err)
}
