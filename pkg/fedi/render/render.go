// Copyright 2024-2026 Aiku AI

package render

import (
	"html"
	"regexp"
	"strings"

	"github.com/aiku/fedikit/pkg/fedi"
)

var shortcodeRe = regexp.MustCompile(`:([a-zA-Z0-9_+\-]+):`)

// safeHref reports whether a link target uses a scheme that is allowed
// into rendered output. Everything else (javascript:, data:, ...) renders
// as plain text.
func safeHref(href string) bool {
	lower := strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "mailto:")
}

// HTML renders one status body as safe markup. Rich statuses go through
// the sanitizer and then an emoji pass over the surviving markup; plain
// bodies are lexed and rendered token by token. Rendering is pure and runs
// lazily per displayed post.
func HTML(st *fedi.Status) string {
	if st == nil {
		return ""
	}
	if st.Rich && st.RawContent != "" {
		return substituteEmojis(Sanitize(st.RawContent), st.Emojis)
	}
	return Tokens(Lex(st.Content, st.Emojis, st.Mentions))
}

// AuthorName renders a display name with its own emoji catalog applied.
// The name catalog is independent of the body catalog.
func AuthorName(st *fedi.Status) string {
	if st == nil {
		return ""
	}
	return substituteEmojis(html.EscapeString(st.Author.DisplayName), st.AuthorEmojis)
}

// Tokens renders a lexed token stream to markup. Text is escaped, emoji
// become inline images, mentions and urls become anchors when their target
// survives the scheme check.
func Tokens(tokens []Token) string {
	var b strings.Builder
	for _, tok := range tokens {
		switch tok.Kind {
		case TokenEmoji:
			writeEmoji(&b, tok.Shortcode, tok.EmojiURL)
		case TokenMention:
			if tok.Mention.ProfileURL != "" && safeHref(tok.Mention.ProfileURL) {
				b.WriteString(`<a href="` + html.EscapeString(tok.Mention.ProfileURL) + `" class="mention">`)
				b.WriteString(html.EscapeString(tok.Text))
				b.WriteString("</a>")
			} else {
				b.WriteString(html.EscapeString(tok.Text))
			}
		case TokenURL:
			if safeHref(tok.Href) {
				b.WriteString(`<a href="` + html.EscapeString(tok.Href) + `">`)
				b.WriteString(html.EscapeString(tok.Text))
				b.WriteString("</a>")
			} else {
				b.WriteString(html.EscapeString(tok.Text))
			}
		default:
			b.WriteString(strings.ReplaceAll(html.EscapeString(tok.Text), "\n", "<br/>"))
		}
	}
	return b.String()
}

func writeEmoji(b *strings.Builder, shortcode, url string) {
	if !safeHref(url) {
		b.WriteString(html.EscapeString(":" + shortcode + ":"))
		return
	}
	b.WriteString(`<img class="emoji" src="` + html.EscapeString(url) +
		`" alt=":` + html.EscapeString(shortcode) + `:" title=":` + html.EscapeString(shortcode) + `:"/>`)
}

// substituteEmojis replaces resolvable :shortcode: occurrences in already
// safe markup with inline images. Unknown shortcodes are left alone.
func substituteEmojis(markup string, emojis []fedi.CustomEmoji) string {
	if len(emojis) == 0 || !strings.Contains(markup, ":") {
		return markup
	}
	index := make(map[string]string, len(emojis))
	for _, e := range emojis {
		index[e.Shortcode] = e.URL
	}
	return shortcodeRe.ReplaceAllStringFunc(markup, func(match string) string {
		code := strings.Trim(match, ":")
		url, ok := index[code]
		if !ok || !safeHref(url) {
			return match
		}
		var b strings.Builder
		writeEmoji(&b, code, url)
		return b.String()
	})
}
