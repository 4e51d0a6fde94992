package project

import "slices"

// Filter selects the projects from one kind's resolved list that
// participate in this invocation.
//
// Skip-flagged projects are always excluded, regardless of the filter.
// An empty request keeps everything else in original order. The reserved
// group names "apps" and "libs" select a whole kind; a request that
// consists exclusively of the opposite kind's group name empties this
// list entirely. Everything else matches project names exactly and
// case-sensitively.
func Filter(list []*Resolved, kind Kind, requested []string) []*Resolved {
	survivors := make([]*Resolved, 0, len(list))
	for _, p := range list {
		if !p.Skip {
			survivors = append(survivors, p)
		}
	}
	if len(requested) == 0 {
		return survivors
	}

	own := kind.ListName()
	opposite := GroupLibs
	if kind == KindLib {
		opposite = GroupApps
	}

	if exclusively(requested, opposite) {
		return nil
	}
	if slices.Contains(requested, own) {
		return survivors
	}

	out := make([]*Resolved, 0, len(survivors))
	for _, p := range survivors {
		if slices.Contains(requested, p.Name) {
			out = append(out, p)
		}
	}
	return out
}

// exclusively reports whether names is non-empty and contains only want.
func exclusively(names []string, want string) bool {
	if len(names) == 0 {
		return false
	}
	for _, n := range names {
		if n != want {
			return false
		}
	}
	return true
}
