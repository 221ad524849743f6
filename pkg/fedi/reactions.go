// Copyright 2024-2026 Aiku AI

package fedi

import (
	"slices"
	"strings"
)

// SortReactions orders a reaction list count descending, name ascending on
// equal counts. Both mappers run it before attaching reactions to a Status.
func SortReactions(reactions []Reaction) {
	slices.SortStableFunc(reactions, func(a, b Reaction) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Name, b.Name)
	})
}
