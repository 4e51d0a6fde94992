// Package entry canonicalizes the heterogeneous asset and style entry
// declarations of a project into bundler-neutral copy patterns.
package entry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"

	"github.com/bundlerig/bundlerig/internal/project"
	"github.com/bundlerig/bundlerig/lru"
	"github.com/bundlerig/bundlerig/pkg/bundler"
	"github.com/bundlerig/bundlerig/pkg/rigerr"
)

// recursiveSuffix is appended to directory-shaped entries so they select
// every file beneath the directory.
const recursiveSuffix = "/**/*"

// globMarkers are the wildcard characters that make a string a glob.
const globMarkers = "*?[{"

// DefaultCacheSize is the stat cache capacity used when none is given.
const DefaultCacheSize = 512

type statInfo struct {
	exists bool
	dir    bool
}

// Parser turns entry lists into canonical copy patterns. Parsing is pure
// apart from read-only stat probes, which go through an LRU cache so
// repeated paths within a run (and across watch rebuilds) hit memory.
type Parser struct {
	stats  *lru.Cache[string, statInfo]
	logger zerolog.Logger
}

// NewParser creates a parser with the given stat cache capacity.
func NewParser(cacheSize int, logger zerolog.Logger) *Parser {
	if cacheSize < 1 {
		cacheSize = DefaultCacheSize
	}
	return &Parser{
		stats:  lru.New[string, statInfo](cacheSize),
		logger: logger.With().Str("component", "entry_parser").Logger(),
	}
}

// Parse canonicalizes one entry list against the given base directory.
// An empty or absent list yields an empty result, not an error. The same
// input against an unchanged filesystem always yields identical output.
func (p *Parser) Parse(baseDir string, entries project.EntryList) ([]bundler.CopyPattern, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	out := make([]bundler.CopyPattern, 0, len(entries))
	for i, spec := range entries {
		pattern, err := p.parseOne(baseDir, spec)
		if err != nil {
			return nil, &rigerr.ConfigError{
				Message: fmt.Sprintf("entry %d is invalid", i),
				Err:     err,
			}
		}
		out = append(out, pattern)
	}
	return out, nil
}

// parseOne applies the normalization rule to a single entry:
//
//  1. a wildcard-free string that stats as an existing directory is
//     rewritten to the directory (one trailing separator stripped) plus
//     the recursive all-files suffix;
//  2. a string the rewrite left untouched that is absolute and
//     wildcard-free becomes a literal path;
//  3. everything else becomes a glob descriptor with hidden files
//     included.
func (p *Parser) parseOne(baseDir string, spec project.EntrySpec) (bundler.CopyPattern, error) {
	if spec.From == "" {
		return bundler.CopyPattern{}, rigerr.NewConfig(`entry needs a source: use a string or an object with "from"`)
	}

	ctx := baseDir
	if spec.Context != "" {
		if filepath.IsAbs(spec.Context) {
			ctx = spec.Context
		} else {
			ctx = filepath.Join(baseDir, spec.Context)
		}
	}

	for _, ex := range spec.Exclude {
		if !doublestar.ValidatePattern(ex) {
			return bundler.CopyPattern{}, rigerr.NewConfig("invalid exclude pattern %q", ex)
		}
	}

	from := spec.From
	rewritten := from
	if !strings.ContainsAny(from, globMarkers) {
		probe := from
		if !filepath.IsAbs(probe) {
			probe = filepath.Join(ctx, probe)
		}
		if st := p.stat(probe); st.exists && st.dir {
			rewritten = strings.TrimSuffix(from, "/") + recursiveSuffix
			p.logger.Debug().
				Str("from", from).
				Str("glob", rewritten).
				Msg("rewrote directory entry to recursive glob")
		}
	}

	if rewritten == from && filepath.IsAbs(from) && !strings.ContainsAny(from, globMarkers) {
		return bundler.CopyPattern{
			Kind:    bundler.PatternLiteral,
			Path:    from,
			Context: ctx,
			To:      spec.To,
			Exclude: spec.Exclude,
		}, nil
	}

	if !doublestar.ValidatePattern(rewritten) {
		return bundler.CopyPattern{}, rigerr.NewConfig("invalid glob pattern %q", rewritten)
	}

	return bundler.CopyPattern{
		Kind:          bundler.PatternGlob,
		Glob:          rewritten,
		IncludeHidden: true,
		Context:       ctx,
		To:            spec.To,
		Exclude:       spec.Exclude,
	}, nil
}

// ClearStatCache drops all cached stat probes. Watch rebuilds call this
// so directory changes between rebuilds are observed.
func (p *Parser) ClearStatCache() {
	p.stats.Clear()
}

func (p *Parser) stat(path string) statInfo {
	return p.stats.GetOrCompute(path, func() statInfo {
		fi, err := os.Stat(path)
		if err != nil {
			return statInfo{}
		}
		return statInfo{exists: true, dir: fi.IsDir()}
	})
}
