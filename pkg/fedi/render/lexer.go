// Copyright 2024-2026 Aiku AI

// Package render turns raw post bodies into safe, enriched markup: a
// single-pass lexer producing a flat token stream, a renderer consuming
// it, and a whitelist sanitizer for dialects that ship server-rendered
// HTML.
package render

import (
	"regexp"
	"strings"

	"github.com/aiku/fedikit/pkg/fedi"
)

// TokenKind discriminates lexer output.
type TokenKind int

const (
	TokenText TokenKind = iota
	TokenEmoji
	TokenMention
	TokenURL
)

// Token is one lexed fragment of a post body. Exactly one of the
// kind-specific fields is meaningful besides Text, which always holds the
// raw source slice.
type Token struct {
	Kind TokenKind
	Text string

	Shortcode string        // TokenEmoji
	EmojiURL  string        // TokenEmoji
	Mention   *fedi.Mention // TokenMention
	Href      string        // TokenURL
}

var (
	// One alternation so the scan happens exactly once per body. Group 1:
	// emoji shortcode, group 2: mention, group 3: url.
	tokenRe = regexp.MustCompile(`:([a-zA-Z0-9_+\-]+):|(@[a-zA-Z0-9_.\-]+(?:@[a-zA-Z0-9.\-]+)?)|(https?://[^\s<>"']+)`)
)

// Lex splits a plain-text body into text, emoji, mention and url tokens.
// Emoji shortcodes only tokenize when the catalog resolves them; mentions
// only when the handle appears in the post's mention list. Everything
// unresolved stays plain text, so rendering never invents links.
func Lex(text string, emojis []fedi.CustomEmoji, mentions []fedi.Mention) []Token {
	if text == "" {
		return nil
	}

	emojiIndex := make(map[string]string, len(emojis))
	for _, e := range emojis {
		emojiIndex[e.Shortcode] = e.URL
	}

	var tokens []Token
	pos := 0
	for _, m := range tokenRe.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[0], m[1]
		if start > pos {
			tokens = append(tokens, Token{Kind: TokenText, Text: text[pos:start]})
		}
		raw := text[start:end]
		switch {
		case m[2] >= 0: // :shortcode:
			code := text[m[2]:m[3]]
			if url, ok := emojiIndex[code]; ok {
				tokens = append(tokens, Token{Kind: TokenEmoji, Text: raw, Shortcode: code, EmojiURL: url})
			} else {
				tokens = append(tokens, Token{Kind: TokenText, Text: raw})
			}
		case m[4] >= 0: // @handle or @handle@host
			if mention := resolveMention(raw, mentions); mention != nil {
				tokens = append(tokens, Token{Kind: TokenMention, Text: raw, Mention: mention})
			} else {
				tokens = append(tokens, Token{Kind: TokenText, Text: raw})
			}
		case m[6] >= 0: // url
			tokens = append(tokens, Token{Kind: TokenURL, Text: raw, Href: raw})
		}
		pos = end
	}
	if pos < len(text) {
		tokens = append(tokens, Token{Kind: TokenText, Text: text[pos:]})
	}
	return tokens
}

// resolveMention matches a lexed @handle against the post's mention list.
// The remote-host suffix is optional on either side.
func resolveMention(raw string, mentions []fedi.Mention) *fedi.Mention {
	handle := strings.TrimPrefix(raw, "@")
	local, _, _ := strings.Cut(handle, "@")
	for i := range mentions {
		candidate := strings.TrimPrefix(mentions[i].Handle, "@")
		candidateLocal, _, _ := strings.Cut(candidate, "@")
		if strings.EqualFold(candidate, handle) || strings.EqualFold(candidateLocal, local) {
			return &mentions[i]
		}
	}
	return nil
}
