// SPDX-License-Identifier: MPL-2.0

package compiler

import (
	"github.com/uscompile/uscompile/pkg/props"
)

const (
	// KindScript tags userscript artifacts.
	KindScript Kind = "script"
	// KindStyle tags userstyle artifacts.
	KindStyle Kind = "style"

	// ScriptExt is the file suffix of script bodies and compiled scripts.
	ScriptExt = ".user.js"
	// StyleExt is the file suffix of style bodies and compiled styles.
	StyleExt = ".user.css"
	// PropsExt is the file suffix of per-artifact property files.
	PropsExt = ".props.json"
	// CommonPropsFile holds properties shared by a directory and its
	// descendants.
	CommonPropsFile = "common.props.json"
)

type (
	// Kind identifies the dialect of an artifact.
	Kind string

	// Descriptor is a discovered artifact. It is either a *ScriptDescriptor
	// or a *StyleDescriptor; the variant is fixed when the directory is
	// scanned.
	Descriptor interface {
		Kind() Kind
		files() *Source
	}

	// Source holds what a directory scan collected for one base name.
	Source struct {
		// Base is the file name without its dialect suffix.
		Base string
		// Content is the body file text, valid when HasBody is set.
		Content string
		// HasBody reports whether a body file was found.
		HasBody bool
		// BodyPath is the body file path, empty without a body.
		BodyPath string
		// Props holds the <base>.props.json properties, or nil.
		Props *props.Set
		// Paths lists every file that contributed, for version lookups.
		Paths []string
	}

	// ScriptDescriptor describes a userscript.
	ScriptDescriptor struct {
		Source
	}

	// StyleDescriptor describes a userstyle.
	StyleDescriptor struct {
		Source
	}
)

// Kind returns KindScript.
func (*ScriptDescriptor) Kind() Kind { return KindScript }

func (d *ScriptDescriptor) files() *Source { return &d.Source }

// Kind returns KindStyle.
func (*StyleDescriptor) Kind() Kind { return KindStyle }

func (d *StyleDescriptor) files() *Source { return &d.Source }

// OutputName returns the artifact file name, e.g. "foo.user.js".
func OutputName(d Descriptor) string {
	return d.files().Base + d.Kind().Ext()
}

// Ext returns the file suffix of artifacts of kind k.
func (k Kind) Ext() string {
	if k == KindStyle {
		return StyleExt
	}
	return ScriptExt
}

func (s *Source) setBody(path, content string) {
	s.Content = content
	s.HasBody = true
	s.BodyPath = path
	s.Paths = append(s.Paths, path)
}

func (s *Source) setProps(path string, p *props.Set) {
	s.Props = p
	s.Paths = append(s.Paths, path)
}
