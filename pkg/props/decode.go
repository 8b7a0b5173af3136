// SPDX-License-Identifier: MPL-2.0

package props

import (
	"errors"
	"fmt"
	"strconv"

	"cuelang.org/go/cue"

	"github.com/uscompile/uscompile/pkg/cueutil"
)

// ErrInvalidProps is the sentinel error wrapped by InvalidPropsError.
var ErrInvalidProps = errors.New("invalid props file")

// InvalidPropsError is returned when a props document is not an object of
// scalars and scalar lists. It wraps ErrInvalidProps for errors.Is().
type InvalidPropsError struct {
	File   string
	Key    string
	Reason string
}

// Error implements the error interface.
func (e *InvalidPropsError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %s", e.File, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", e.File, e.Key, e.Reason)
}

// Unwrap returns ErrInvalidProps for errors.Is() compatibility.
func (e *InvalidPropsError) Unwrap() error { return ErrInvalidProps }

// DecodeJSON decodes a props JSON object into a Set, keeping the order in
// which keys appear in the document. Values may be strings, numbers, booleans
// or arrays of those; null values are ignored.
//
// The document goes through CUE rather than encoding/json because CUE keeps
// field order, which header and manifest output depend on.
func DecodeJSON(data []byte, filename string) (*Set, error) {
	v, err := cueutil.ExtractJSON(data, filename)
	if err != nil {
		return nil, err
	}
	if v.Kind() != cue.StructKind {
		return nil, &InvalidPropsError{File: filename, Reason: "expected a JSON object"}
	}

	iter, err := v.Fields()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	s := New()
	for iter.Next() {
		key := iter.Selector().Unquoted()
		fv := iter.Value()

		switch fv.Kind() {
		case cue.NullKind:
			continue
		case cue.ListKind:
			items, err := listItems(fv)
			if err != nil {
				return nil, &InvalidPropsError{File: filename, Key: key, Reason: err.Error()}
			}
			s.Put(key, List(items...))
		default:
			str, err := scalarString(fv)
			if err != nil {
				return nil, &InvalidPropsError{File: filename, Key: key, Reason: err.Error()}
			}
			s.Add(key, str)
		}
	}

	return s, nil
}

func listItems(v cue.Value) ([]string, error) {
	it, err := v.List()
	if err != nil {
		return nil, err
	}
	var items []string
	for it.Next() {
		str, err := scalarString(it.Value())
		if err != nil {
			return nil, fmt.Errorf("list item %d: %w", len(items), err)
		}
		items = append(items, str)
	}
	return items, nil
}

func scalarString(v cue.Value) (string, error) {
	switch v.Kind() {
	case cue.StringKind:
		return v.String()
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(b), nil
	case cue.IntKind:
		i, err := v.Int64()
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(i, 10), nil
	case cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return "", err
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported value of kind %s", v.Kind())
	}
}
