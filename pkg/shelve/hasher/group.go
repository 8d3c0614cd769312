package hasher

import (
	"cmp"
	"slices"

	"github.com/jamesainslie/shelve/pkg/shelve/types"
)

// Group is a set of files sharing one content digest. Members are scan
// candidates; References are files already sorted on a previous run that
// share the digest. References are never moved.
type Group struct {
	Digest     string
	Members    []types.Candidate
	References []types.Candidate
}

// Size returns the total number of files in the group.
func (g Group) Size() int {
	return len(g.Members) + len(g.References)
}

// Result is the outcome of grouping.
type Result struct {
	// Groups holds every group with at least two files and at least one
	// member, ordered by the scan position of its first member.
	Groups []Group

	// Errors lists files that could not be hashed. They are treated as unique.
	Errors []types.ItemError
}

// Duplicates returns the set of member paths that belong to a group.
func (r *Result) Duplicates() map[string]string {
	out := make(map[string]string)
	for _, g := range r.Groups {
		for _, m := range g.Members {
			out[m.Path] = g.Digest
		}
	}
	return out
}

// GroupDuplicates groups candidates by content. See GroupWithReferences.
func (h *Hasher) GroupDuplicates(candidates []types.Candidate) *Result {
	return h.GroupWithReferences(candidates, nil)
}

// GroupWithReferences groups candidates by size, hashes only size buckets
// holding more than one file, then groups by digest. References take part in
// the size and digest buckets so a candidate matching a previously sorted
// file is reported even when it is the only candidate with that content.
func (h *Hasher) GroupWithReferences(candidates, references []types.Candidate) *Result {
	type entry struct {
		c   types.Candidate
		ref bool
		pos int
	}

	bySize := make(map[int64][]entry)
	sizes := make([]int64, 0)
	add := func(e entry) {
		if _, ok := bySize[e.c.Size]; !ok {
			sizes = append(sizes, e.c.Size)
		}
		bySize[e.c.Size] = append(bySize[e.c.Size], e)
	}
	for i, c := range candidates {
		add(entry{c: c, pos: i})
	}
	for _, r := range references {
		add(entry{c: r, ref: true, pos: -1})
	}

	result := &Result{}
	type bucket struct {
		group Group
		first int
	}
	byDigest := make(map[string]*bucket)
	order := make([]string, 0)

	for _, size := range sizes {
		entries := bySize[size]
		if len(entries) < 2 || !slices.ContainsFunc(entries, func(e entry) bool { return !e.ref }) {
			continue
		}

		for _, e := range entries {
			d, err := h.Digest(e.c)
			if err != nil {
				if !e.ref {
					result.Errors = append(result.Errors, types.NewItemError("hash", e.c.Path, err))
				}
				h.logger.Debug("excluding unreadable file from duplicate grouping", "path", e.c.Path, "error", err)
				continue
			}

			b, ok := byDigest[d]
			if !ok {
				b = &bucket{group: Group{Digest: d}, first: -1}
				byDigest[d] = b
				order = append(order, d)
			}
			if e.ref {
				b.group.References = append(b.group.References, e.c)
				continue
			}
			b.group.Members = append(b.group.Members, e.c)
			if b.first < 0 || e.pos < b.first {
				b.first = e.pos
			}
		}
	}

	buckets := make([]*bucket, 0, len(order))
	for _, d := range order {
		b := byDigest[d]
		if len(b.group.Members) == 0 || b.group.Size() < 2 {
			continue
		}
		buckets = append(buckets, b)
	}

	// Members are already in scan order; order groups by their first member.
	slices.SortStableFunc(buckets, func(a, b *bucket) int {
		return cmp.Compare(a.first, b.first)
	})
	for _, b := range buckets {
		result.Groups = append(result.Groups, b.group)
	}

	return result
}
