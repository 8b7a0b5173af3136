// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/ast"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/encoding/json"
)

type (
	// ParseResult contains the result of a successful CUE parse operation.
	ParseResult[T any] struct {
		// Value is the decoded Go value.
		Value *T

		// Unified is the unified CUE value, available for advanced use cases
		// such as extracting additional metadata or performing custom validation.
		Unified cue.Value
	}

	// Option configures ParseAndDecode.
	Option func(*options)

	options struct {
		filename    string
		concrete    bool
		maxFileSize int64
	}
)

func defaultOptions() options {
	return options{maxFileSize: DefaultMaxFileSize}
}

// WithFilename sets the file name used in error messages.
func WithFilename(name string) Option {
	return func(o *options) { o.filename = name }
}

// WithConcrete requires every value to be concrete after unification.
func WithConcrete(concrete bool) Option {
	return func(o *options) { o.concrete = concrete }
}

// ParseAndDecode performs the 3-step CUE parsing flow:
//
//  1. Compile the embedded schema
//  2. Compile user data and unify with schema
//  3. Validate and decode to T
//
// schemaPath names the root definition (e.g., "#Config"). Errors carry the
// file name and the JSON path of the offending value.
func ParseAndDecode[T any](schema, data []byte, schemaPath string, opts ...Option) (*ParseResult[T], error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	filename := o.filename
	if filename == "" {
		filename = "<input>"
	}

	// Early file size check to prevent OOM from large files
	if err := CheckFileSize(data, o.maxFileSize, filename); err != nil {
		return nil, err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileBytes(schema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(filename))
	if userValue.Err() != nil {
		return nil, FormatError(userValue.Err(), filename)
	}

	schemaRoot := schemaValue.LookupPath(cue.ParsePath(schemaPath))
	if schemaRoot.Err() != nil {
		return nil, fmt.Errorf("internal error: schema definition %s not found: %w", schemaPath, schemaRoot.Err())
	}

	unified := schemaRoot.Unify(userValue)
	if err := unified.Validate(cue.Concrete(o.concrete)); err != nil {
		return nil, FormatError(err, filename)
	}

	var result T
	if err := unified.Decode(&result); err != nil {
		return nil, FormatError(err, filename)
	}

	return &ParseResult[T]{
		Value:   &result,
		Unified: unified,
	}, nil
}

// ExtractJSON builds a CUE value from a JSON document. Struct fields of the
// result iterate in document order. A key repeated within an object keeps
// its first position and takes its last value.
func ExtractJSON(data []byte, filename string) (cue.Value, error) {
	if err := CheckFileSize(data, DefaultMaxFileSize, filename); err != nil {
		return cue.Value{}, err
	}

	expr, err := json.Extract(filename, data)
	if err != nil {
		return cue.Value{}, FormatError(err, filename)
	}
	lastValueWins(expr)

	v := cuecontext.New().BuildExpr(expr)
	if v.Err() != nil {
		return cue.Value{}, FormatError(v.Err(), filename)
	}
	return v, nil
}

// lastValueWins folds repeated keys of every object in expr into their first
// occurrence. CUE would otherwise unify them and reject differing values.
func lastValueWins(expr ast.Expr) {
	switch x := expr.(type) {
	case *ast.StructLit:
		seen := make(map[string]*ast.Field, len(x.Elts))
		elts := x.Elts[:0]
		for _, d := range x.Elts {
			f, ok := d.(*ast.Field)
			if !ok {
				elts = append(elts, d)
				continue
			}
			lastValueWins(f.Value)
			name, _, err := ast.LabelName(f.Label)
			if err != nil {
				elts = append(elts, d)
				continue
			}
			if first, ok := seen[name]; ok {
				first.Value = f.Value
				continue
			}
			seen[name] = f
			elts = append(elts, f)
		}
		x.Elts = elts
	case *ast.ListLit:
		for _, e := range x.Elts {
			lastValueWins(e)
		}
	}
}
