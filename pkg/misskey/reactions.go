// Copyright 2024-2026 Aiku AI

package misskey

import (
	"regexp"
	"strings"

	"github.com/aiku/fedikit/pkg/fedi"
)

// Reaction names arrive as map keys shaped like "👍", ":wave:",
// ":wave@.:" (local custom) or ":wave@remote.example:". Aggregation
// strips the decoration down to a base shortcode, resolves a glyph URL
// through the merged emoji tables, derives the origin host, and
// synthesizes a deterministic URL for custom glyphs the payload never
// spelled out.

var shortcodeNameRe = regexp.MustCompile(`^[a-zA-Z0-9_+\-]+$`)

// splitReactionName strips surrounding colons and the trailing host
// suffix. host is "" for plain local names; a bare trailing "@." marker
// also means local.
func splitReactionName(name string) (stripped, base, host string) {
	stripped = strings.Trim(name, ":")
	base = stripped
	if i := strings.Index(stripped, "@"); i >= 0 {
		base = stripped[:i]
		host = strings.Trim(stripped[i+1:], ".")
	}
	return stripped, base, host
}

// resolveReactionURL looks a reaction's glyph up in the merged emoji
// table: exact name first, then the name with trailing decoration
// trimmed, then the bare shortcode.
func resolveReactionURL(table map[string]string, stripped, base string) string {
	if url, ok := table[stripped]; ok {
		return url
	}
	if trimmed := strings.TrimRight(stripped, "@."); trimmed != stripped {
		if url, ok := table[trimmed]; ok {
			return url
		}
	}
	if url, ok := table[base]; ok {
		return url
	}
	return ""
}

// emojiTable merges a note's own emoji list with the separate
// reaction-emoji dictionary into one name→url lookup.
func emojiTable(lists ...emojiList) map[string]string {
	table := make(map[string]string)
	for _, list := range lists {
		for _, e := range list {
			if e.Name != "" && e.URL != "" {
				table[e.Name] = e.URL
			}
		}
	}
	return table
}

// staticEmojiURL is the dialect's static emoji path convention.
func staticEmojiURL(host, shortcode string) string {
	return "https://" + host + "/emoji/" + shortcode + ".webp"
}

func domainOfURL(raw string) string {
	rest, ok := strings.CutPrefix(raw, "https://")
	if !ok {
		rest, ok = strings.CutPrefix(raw, "http://")
	}
	if !ok {
		return ""
	}
	host, _, _ := strings.Cut(rest, "/")
	return host
}

// mapReactions aggregates the raw name→count map into the ordered
// canonical list. myReaction is the viewer's own reaction name, already
// stripped, used to flag at most one entry.
func mapReactions(raw map[string]int, table map[string]string, myReaction string, acct *fedi.Account) []fedi.Reaction {
	if len(raw) == 0 {
		return nil
	}
	myStripped, _, _ := splitReactionName(myReaction)

	out := make([]fedi.Reaction, 0, len(raw))
	meFlagged := false
	for name, count := range raw {
		if count <= 0 {
			continue
		}
		stripped, base, nameHost := splitReactionName(name)
		if base == "" {
			continue
		}
		url := resolveReactionURL(table, stripped, base)

		// Host priority: an explicit suffix in the name, the resolved URL's
		// domain, then the viewer's own instance.
		host := nameHost
		if host == "" {
			host = domainOfURL(url)
		}
		if host == "" {
			host = acct.Host()
		}

		isCustom := url != "" || strings.Contains(name, ":") || strings.Contains(stripped, "@")
		if isCustom && url == "" {
			url = staticEmojiURL(host, base)
		}

		reaction := fedi.Reaction{
			Name:     base,
			Count:    count,
			URL:      url,
			IsCustom: isCustom,
		}
		if isCustom {
			reaction.Host = host
		}
		if !meFlagged && myStripped != "" && stripped == myStripped {
			reaction.Me = true
			meFlagged = true
		}
		out = append(out, reaction)
	}
	fedi.SortReactions(out)
	return out
}

// fallbackEmojis synthesizes catalog entries for local :shortcode: tokens
// when a note ships an empty emoji list, so renderers still resolve them.
// Remote-marked tokens (any "@" inside) are skipped: their origin cannot
// be guessed.
func fallbackEmojis(text string, acct *fedi.Account) []fedi.CustomEmoji {
	if text == "" || !strings.Contains(text, ":") {
		return nil
	}
	var out []fedi.CustomEmoji
	seen := make(map[string]bool)
	for _, m := range fallbackTokenRe.FindAllStringSubmatch(text, -1) {
		code := m[1]
		if seen[code] || !shortcodeNameRe.MatchString(code) {
			continue
		}
		seen[code] = true
		out = append(out, fedi.CustomEmoji{
			Shortcode: code,
			URL:       staticEmojiURL(acct.Host(), code),
		})
	}
	return out
}

var fallbackTokenRe = regexp.MustCompile(`:([a-zA-Z0-9_+\-]+):`)
