// Copyright 2024-2026 Aiku AI

package misskey

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// FuzzSplitReactionName — arbitrary reaction map keys through the name
// splitter. No input should cause a panic. Verifies the decoration
// invariants: surrounding colons are gone, the base never keeps a host
// suffix, the host never keeps the trailing dot marker.
// ---------------------------------------------------------------------------

func FuzzSplitReactionName(f *testing.F) {
	f.Add("👍")
	f.Add(":wave:")
	f.Add(":wave@.:")
	f.Add(":wave@remote.example:")
	f.Add("wave@remote.")
	f.Add("")
	f.Add(":::")
	f.Add("@@")
	f.Add(string([]byte{0x00}))

	f.Fuzz(func(t *testing.T, name string) {
		stripped, base, host := splitReactionName(name)

		s2, b2, h2 := splitReactionName(name)
		if stripped != s2 || base != b2 || host != h2 {
			t.Errorf("non-deterministic split of %q", name)
		}

		if strings.HasPrefix(stripped, ":") || strings.HasSuffix(stripped, ":") {
			t.Errorf("stripped %q keeps surrounding colons (from %q)", stripped, name)
		}
		if strings.Contains(base, "@") {
			t.Errorf("base %q keeps a host suffix (from %q)", base, name)
		}
		if strings.HasSuffix(host, ".") {
			t.Errorf("host %q keeps the local marker dot (from %q)", host, name)
		}
		if !strings.HasPrefix(stripped, base) {
			t.Errorf("base %q is not a prefix of stripped %q (from %q)", base, stripped, name)
		}
	})
}

// ---------------------------------------------------------------------------
// FuzzMapReactions — arbitrary reaction names and counts through the full
// aggregation path. No input should cause a panic. Verifies the output
// invariants: ordering, positive counts, colon-free names, at most one
// own-reaction flag, and a glyph URL on every custom entry.
// ---------------------------------------------------------------------------

func FuzzMapReactions(f *testing.F) {
	f.Add("👍", 3, ":wave@remote.example:", 1, ":wave:")
	f.Add(":party@far.example:", 1, "⭐", 4, "⭐")
	f.Add("", 0, ":wave@.:", -2, "")
	f.Add("a", 1, "a", 1, "a")

	acct := testAccount()
	f.Fuzz(func(t *testing.T, name1 string, count1 int, name2 string, count2 int, mine string) {
		raw := map[string]int{name1: count1, name2: count2}
		table := map[string]string{"wave": "https://h/e/wave.png"}
		reactions := mapReactions(raw, table, mine, acct)

		meFlagged := 0
		for i, r := range reactions {
			if r.Count <= 0 {
				t.Errorf("non-positive count survived: %+v", r)
			}
			if r.Name == "" || strings.HasPrefix(r.Name, ":") || strings.Contains(r.Name, "@") {
				t.Errorf("undecorated name invariant broken: %q", r.Name)
			}
			if r.IsCustom && r.URL == "" {
				t.Errorf("custom reaction without glyph URL: %+v", r)
			}
			if r.Me {
				meFlagged++
			}
			if i > 0 {
				prev := reactions[i-1]
				if prev.Count < r.Count || (prev.Count == r.Count && prev.Name > r.Name) {
					t.Errorf("ordering broken at %d: %+v before %+v", i, prev, r)
				}
			}
		}
		if meFlagged > 1 {
			t.Errorf("own reaction flagged %d times", meFlagged)
		}
	})
}
