// Package compiler provides the front-end pipeline for fragment source text.
// It chains the two front-end phases:
// 1. Lexer: Tokenization
// 2. Parser: AST generation
//
// This package provides a unified API on top of them:
// - Parse: Parses a source string into a Program
// - ParseExpression: Parses a single expression (used for literal round-trips)
// - ParseFile: Loads a fragment through a script.Loader and parses it
// - Probe: Parses and reports whether a failure could be fixed by more input
package compiler

import (
	"fmt"

	"github.com/zurustar/fragment/pkg/compiler/ast"
	"github.com/zurustar/fragment/pkg/compiler/lexer"
	"github.com/zurustar/fragment/pkg/compiler/parser"
	"github.com/zurustar/fragment/pkg/script"
)

// Parse parses source code into a Program.
//
// Parameters:
//   - source: UTF-8 encoded source code string
//   - file: Name reported in the diagnostic; may be empty
//
// Returns:
//   - *ast.Program: The parse tree, nil on failure
//   - error: A *diagnostic.Diagnostic carrying the offending source line
func Parse(source, file string) (*ast.Program, error) {
	program, _, err := probe(source, file)
	return program, err
}

// Probe parses source like Parse and additionally reports whether the
// failure happened at the end of input. Interactive sessions use it to
// decide between asking for more lines and reporting the error.
//
// Parameters:
//   - source: UTF-8 encoded source code string
//
// Returns:
//   - *ast.Program: The parse tree, nil on failure
//   - bool: true if the source is an unfinished prefix of a valid program
//   - error: A *diagnostic.Diagnostic, nil on success
func Probe(source string) (*ast.Program, bool, error) {
	return probe(source, "")
}

func probe(source, file string) (*ast.Program, bool, error) {
	p := parser.New(lexer.New(source))
	program := p.ParseProgram()

	if errs := p.Errors(); len(errs) > 0 {
		return nil, p.Incomplete(), errs[0].Attach(file, source)
	}
	return program, false, nil
}

// ParseExpression parses a single expression such as a literal.
//
// Parameters:
//   - source: UTF-8 encoded expression text
//
// Returns:
//   - ast.Expression: The parsed expression, nil on failure
//   - error: A *diagnostic.Diagnostic, nil on success
func ParseExpression(source string) (ast.Expression, error) {
	p := parser.New(lexer.New(source))
	expr := p.ParseExpression()

	if errs := p.Errors(); len(errs) > 0 {
		return nil, errs[0].Attach("", source)
	}
	return expr, nil
}

// ParseFile loads a fragment through the loader and parses it.
//
// Parameters:
//   - loader: Loader resolving the name and decoding the file's encoding
//   - name: Slash-separated path relative to the loader's file system
//
// Returns:
//   - *ast.Program: The parse tree
//   - *script.Script: The decoded source, returned even when parsing fails
//   - error: A wrapped script.ErrNotFound/ErrUnreadable, or a *diagnostic.Diagnostic
func ParseFile(loader *script.Loader, name string) (*ast.Program, *script.Script, error) {
	s, err := loader.Load(name)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load %s: %w", name, err)
	}

	program, err := Parse(s.Content, s.FileName)
	if err != nil {
		return nil, s, err
	}
	return program, s, nil
}
