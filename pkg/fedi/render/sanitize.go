// Copyright 2024-2026 Aiku AI

package render

import (
	"html"
	"strings"

	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// allowedTags is the markup whitelist for server-rendered content. Anything
// else is unwrapped: its children survive, the tag itself does not.
var allowedTags = map[string]bool{
	"p":          true,
	"br":         true,
	"a":          true,
	"span":       true,
	"em":         true,
	"strong":     true,
	"del":        true,
	"code":       true,
	"pre":        true,
	"blockquote": true,
}

// droppedTags are removed together with their content.
var droppedTags = map[string]bool{
	"script": true,
	"style":  true,
	"iframe": true,
	"object": true,
	"embed":  true,
}

// Sanitize filters untrusted server-rendered markup down to the tag
// whitelist. On anchors only scheme-checked href survives; spans keep
// class (needed for the invisible/ellipsis url trimming convention).
// Unparseable input degrades to escaped text, never to an error.
func Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	nodes, err := xhtml.ParseFragment(strings.NewReader(raw), &xhtml.Node{
		Type:     xhtml.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		return html.EscapeString(raw)
	}
	var b strings.Builder
	for _, n := range nodes {
		writeSanitized(&b, n)
	}
	return b.String()
}

func writeSanitized(b *strings.Builder, n *xhtml.Node) {
	switch n.Type {
	case xhtml.TextNode:
		b.WriteString(html.EscapeString(n.Data))
		return
	case xhtml.ElementNode:
		// handled below
	default:
		return
	}

	tag := n.Data
	if droppedTags[tag] {
		return
	}
	if !allowedTags[tag] {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeSanitized(b, c)
		}
		return
	}

	b.WriteString("<" + tag)
	for _, attr := range n.Attr {
		switch {
		case tag == "a" && attr.Key == "href" && safeHref(attr.Val):
			b.WriteString(` href="` + html.EscapeString(attr.Val) + `"`)
		case tag == "span" && attr.Key == "class":
			b.WriteString(` class="` + html.EscapeString(attr.Val) + `"`)
		}
	}
	if tag == "br" {
		b.WriteString("/>")
		return
	}
	b.WriteString(">")
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeSanitized(b, c)
	}
	b.WriteString("</" + tag + ">")
}

// Text strips markup down to readable plain text: anchors keep their
// label, paragraph and break tags become newlines. The dialect-A mapper
// uses it to derive the canonical plain Content from rich bodies.
func Text(raw string) string {
	if raw == "" {
		return ""
	}
	nodes, err := xhtml.ParseFragment(strings.NewReader(raw), &xhtml.Node{
		Type:     xhtml.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		return raw
	}
	var b strings.Builder
	for _, n := range nodes {
		writeText(&b, n)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeText(b *strings.Builder, n *xhtml.Node) {
	switch n.Type {
	case xhtml.TextNode:
		b.WriteString(n.Data)
		return
	case xhtml.ElementNode:
		if droppedTags[n.Data] {
			return
		}
		if n.Data == "br" {
			b.WriteString("\n")
			return
		}
	default:
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
	if n.Data == "p" {
		b.WriteString("\n")
	}
}
