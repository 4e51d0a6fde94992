package project

import "strings"

// Builtin fallbacks, applied when neither the project nor the document
// defaults section sets a field.
var builtinDefaults = struct {
	Root      string
	OutDir    string
	Target    string
	Entry     []string
	LibFormat string
}{
	Root:      ".",
	OutDir:    "dist",
	Target:    TargetWeb,
	Entry:     []string{"src/index.js"},
	LibFormat: "umd",
}

// ApplyDefaults fills unset fields on p from the document defaults
// section first and the builtin table second. A field the user set is
// never overwritten, and an explicitly empty list (present but empty)
// counts as set: only nil slices are treated as unset.
func ApplyDefaults(p *Project, doc *Defaults, kind Kind) {
	if p.Root == "" {
		p.Root = builtinDefaults.Root
	}
	if p.OutDir == "" {
		if doc != nil && doc.OutDir != "" {
			p.OutDir = doc.OutDir
		} else {
			p.OutDir = builtinDefaults.OutDir
		}
	}
	if p.Target == "" {
		if doc != nil && doc.Target != "" {
			p.Target = doc.Target
		} else {
			p.Target = builtinDefaults.Target
		}
	}
	if p.Entry == nil {
		p.Entry = StringList(builtinDefaults.Entry)
	}

	if p.Bundle == nil {
		p.Bundle = &BundleOptions{}
	}
	if doc != nil && doc.Bundle != nil {
		fillBundle(p.Bundle, doc.Bundle)
	}

	if kind == KindLib {
		if p.Lib == nil {
			p.Lib = &LibOptions{}
		}
		if p.Lib.Name == "" {
			p.Lib.Name = libraryName(p.Name)
		}
		if p.Lib.Format == "" {
			p.Lib.Format = builtinDefaults.LibFormat
		}
	}
}

// fillBundle copies fields from src that dst has not set. This is the
// inverse precedence of an override merge: existing values win.
func fillBundle(dst, src *BundleOptions) {
	if dst.Minify == nil {
		dst.Minify = src.Minify
	}
	if dst.SourceMaps == nil {
		dst.SourceMaps = src.SourceMaps
	}
	if dst.Hashing == nil {
		dst.Hashing = src.Hashing
	}
	if dst.PublicPath == nil {
		dst.PublicPath = src.PublicPath
	}
}

// libraryName derives a library export name from a project name:
// separator characters become camelCase boundaries, so "ui-kit" exports
// as "uiKit".
func libraryName(project string) string {
	var b strings.Builder
	upper := false
	for _, r := range project {
		switch r {
		case '-', '_', '.':
			upper = true
		default:
			if upper {
				b.WriteString(strings.ToUpper(string(r)))
				upper = false
			} else {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}
