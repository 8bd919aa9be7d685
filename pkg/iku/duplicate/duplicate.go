// Package duplicate exposes the Indexer's duplicate-grouping operation as a
// CLI-facing helper, for an "iku duplicates" subcommand. The underlying
// grouping logic lives in index.Indexer.FindDuplicates; this package only
// adds presentation-friendly shaping (sorted groups, sorted members) since
// map iteration order is otherwise unspecified.
package duplicate

import (
	"sort"

	"github.com/terraytm/iku/pkg/iku/index"
)

// Group is one set of relative paths sharing a duplicate key.
type Group struct {
	Paths []string
}

// Find groups the files managed by ix according to mode, returning groups
// of two or more members sorted for stable, reproducible output.
func Find(ix *index.Indexer, mode index.DuplicateMode) []Group {
	raw := ix.FindDuplicates(mode)

	groups := make([]Group, 0, len(raw))
	for _, members := range raw {
		sorted := append([]string(nil), members...)
		sort.Strings(sorted)
		groups = append(groups, Group{Paths: sorted})
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Paths[0] < groups[j].Paths[0]
	})

	return groups
}
