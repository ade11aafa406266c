package valueobjects

import "sort"

// KeywordSet is a set of tags compared exactly as given: "Budget" and
// "budget" are different tags.
type KeywordSet map[string]struct{}

// NewKeywordSet builds a set from tags, collapsing repeats
func NewKeywordSet(words ...string) KeywordSet {
	set := make(KeywordSet, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Len returns the number of distinct tags
func (s KeywordSet) Len() int {
	return len(s)
}

// Contains reports membership
func (s KeywordSet) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

// IntersectionSize counts tags present in both sets
func (s KeywordSet) IntersectionSize(other KeywordSet) int {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	n := 0
	for w := range small {
		if large.Contains(w) {
			n++
		}
	}
	return n
}

// UnionSize counts tags present in either set
func (s KeywordSet) UnionSize(other KeywordSet) int {
	return len(s) + len(other) - s.IntersectionSize(other)
}

// Slice returns the tags in sorted order
func (s KeywordSet) Slice() []string {
	out := make([]string, 0, len(s))
	for w := range s {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}
