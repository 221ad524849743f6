// Copyright 2024-2026 Aiku AI

package mastodon

import (
	"net/url"
	"strings"
	"time"

	"github.com/aiku/fedikit/pkg/fedi"
	"github.com/aiku/fedikit/pkg/fedi/render"
)

// visibilityTable maps the dialect vocabulary onto the canonical values.
// This dialect happens to share the canonical names; the table still
// exists so unknown values degrade to public instead of leaking through.
var visibilityTable = map[string]fedi.Visibility{
	"public":   fedi.VisibilityPublic,
	"unlisted": fedi.VisibilityUnlisted,
	"private":  fedi.VisibilityPrivate,
	"direct":   fedi.VisibilityDirect,
}

var visibilityNames = map[fedi.Visibility]string{
	fedi.VisibilityPublic:   "public",
	fedi.VisibilityUnlisted: "unlisted",
	fedi.VisibilityPrivate:  "private",
	fedi.VisibilityDirect:   "direct",
}

// ToVisibility maps a raw visibility string, defaulting to public.
func ToVisibility(raw string) fedi.Visibility {
	if v, ok := visibilityTable[raw]; ok {
		return v
	}
	return fedi.VisibilityPublic
}

// FromVisibility maps a canonical visibility to the wire value.
func FromVisibility(v fedi.Visibility) string {
	if name, ok := visibilityNames[v]; ok {
		return name
	}
	return "public"
}

// parseTime decodes the dialect's RFC3339 timestamps, degrading to the
// zero time on malformed input.
func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func mapEmojis(raw []Emoji) []fedi.CustomEmoji {
	if len(raw) == 0 {
		return nil
	}
	out := make([]fedi.CustomEmoji, 0, len(raw))
	for _, e := range raw {
		if e.Shortcode == "" {
			continue
		}
		url := e.URL
		if url == "" {
			url = e.StaticURL
		}
		out = append(out, fedi.CustomEmoji{Shortcode: e.Shortcode, URL: url, Category: e.Category})
	}
	return out
}

func mapIdentity(a Account) fedi.Identity {
	name := a.DisplayName
	if name == "" {
		name = a.Username
	}
	return fedi.Identity{
		ID:          a.ID,
		Handle:      a.Acct,
		DisplayName: name,
		AvatarURL:   a.Avatar,
		ProfileURL:  a.URL,
	}
}

// mapCard keeps a link preview only when it is materially non-empty: the
// title must differ from the bare URL, or a description or image exists.
func mapCard(raw *Card) *fedi.LinkCard {
	if raw == nil || raw.URL == "" {
		return nil
	}
	if raw.Title == raw.URL && raw.Description == "" && raw.Image == "" {
		return nil
	}
	if raw.Title == "" && raw.Description == "" && raw.Image == "" {
		return nil
	}
	return &fedi.LinkCard{
		URL:         raw.URL,
		Title:       raw.Title,
		Description: raw.Description,
		Image:       raw.Image,
	}
}

func domainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// mapReactions normalizes the structured reaction list: colons stripped
// from names, hosts derived from the explicit domain, the glyph URL's
// domain, or the viewer's own instance, ordered count desc / name asc.
func mapReactions(raw []Reaction, acct *fedi.Account) ([]fedi.Reaction, string) {
	if len(raw) == 0 {
		return nil, ""
	}
	out := make([]fedi.Reaction, 0, len(raw))
	myReaction := ""
	for _, r := range raw {
		name := strings.Trim(r.Name, ":")
		if name == "" || r.Count <= 0 {
			continue
		}
		url := r.URL
		if url == "" {
			url = r.StaticURL
		}
		host := r.Domain
		if host == "" {
			host = domainOf(url)
		}
		if host == "" {
			host = acct.Host()
		}
		isCustom := url != "" || strings.Contains(r.Name, ":") || strings.Contains(name, "@")
		reaction := fedi.Reaction{
			Name:     name,
			Count:    r.Count,
			URL:      url,
			IsCustom: isCustom,
			Me:       r.Me && myReaction == "",
		}
		if isCustom {
			reaction.Host = host
		}
		if reaction.Me {
			myReaction = name
		}
		out = append(out, reaction)
	}
	fedi.SortReactions(out)
	return out, myReaction
}

func mapMentions(raw []Mention) []fedi.Mention {
	if len(raw) == 0 {
		return nil
	}
	out := make([]fedi.Mention, 0, len(raw))
	for _, m := range raw {
		out = append(out, fedi.Mention{
			ID:          m.ID,
			DisplayName: m.Username,
			Handle:      m.Acct,
			ProfileURL:  m.URL,
		})
	}
	return out
}

func mapAttachments(raw []Attachment) []fedi.MediaAttachment {
	if len(raw) == 0 {
		return nil
	}
	out := make([]fedi.MediaAttachment, 0, len(raw))
	for _, a := range raw {
		url := a.URL
		if url == "" {
			url = a.RemoteURL
		}
		out = append(out, fedi.MediaAttachment{ID: a.ID, URL: url, Description: a.Description})
	}
	return out
}

// MapStatus converts one raw post into the canonical Status. A record
// without an id maps to nil and batch mappers filter it out; every other
// missing field degrades to a neutral value. Boost embedding recurses
// exactly one level: the inner post can never carry its own boost.
func MapStatus(raw *Status, acct *fedi.Account) *fedi.Status {
	return mapStatus(raw, acct, false)
}

func mapStatus(raw *Status, acct *fedi.Account, inner bool) *fedi.Status {
	if raw == nil || raw.ID == "" {
		return nil
	}

	st := &fedi.Status{
		ID:              raw.ID,
		CreatedAt:       parseTime(raw.CreatedAt),
		Author:          mapIdentity(raw.Account),
		Content:         render.Text(raw.Content),
		RawContent:      raw.Content,
		Rich:            raw.Content != "",
		URL:             firstOf(raw.URL, raw.URI),
		Visibility:      ToVisibility(raw.Visibility),
		SpoilerText:     raw.SpoilerText,
		Sensitive:       raw.Sensitive,
		Card:            mapCard(raw.Card),
		RepliesCount:    raw.RepliesCount,
		ReblogsCount:    raw.ReblogsCount,
		FavouritesCount: raw.FavouritesCount,
		Favourited:      raw.Favourited,
		Reblogged:       raw.Reblogged,
		InReplyToID:     raw.InReplyToID,
		Mentions:        mapMentions(raw.Mentions),
		Media:           mapAttachments(raw.MediaAttachments),
		Emojis:          mapEmojis(raw.Emojis),
		AuthorEmojis:    mapEmojis(raw.Account.Emojis),
	}
	st.Reactions, st.MyReaction = mapReactions(raw.EmojiReactions, acct)

	if !inner && raw.Reblog != nil {
		if rebloggedSt := mapStatus(raw.Reblog, acct, true); rebloggedSt != nil {
			st.Reblog = rebloggedSt
			booster := mapIdentity(raw.Account)
			st.Booster = &booster
		}
	}

	synthesizeReplyMention(st, raw.InReplyToAccountID)
	return st
}

// synthesizeReplyMention appends the reply target's author when the
// dialect surfaces it outside the explicit mention list.
func synthesizeReplyMention(st *fedi.Status, replyAccountID string) {
	if st.InReplyToID == "" || replyAccountID == "" {
		return
	}
	for _, m := range st.Mentions {
		if m.ID == replyAccountID {
			return
		}
	}
	st.Mentions = append(st.Mentions, fedi.Mention{ID: replyAccountID})
}

// MapStatuses maps a batch, dropping unmappable records.
func MapStatuses(raw []*Status, acct *fedi.Account) []*fedi.Status {
	out := make([]*fedi.Status, 0, len(raw))
	for _, r := range raw {
		if st := MapStatus(r, acct); st != nil {
			out = append(out, st)
		}
	}
	return out
}

// MapNotification coerces a raw notification into the synthetic wrapper
// Status. Records without an id map to nil.
func MapNotification(raw *Notification, acct *fedi.Account) *fedi.Status {
	if raw == nil || raw.ID == "" {
		return nil
	}
	kind := fedi.NormalizeKind(raw.Type)
	target := MapStatus(raw.Status, acct)
	return fedi.WrapNotification(raw.ID, parseTime(raw.CreatedAt), kind, mapIdentity(raw.Account), target, raw.Raw)
}

// MapNotifications maps a batch, dropping unmappable records.
func MapNotifications(raw []*Notification, acct *fedi.Account) []*fedi.Status {
	out := make([]*fedi.Status, 0, len(raw))
	for _, r := range raw {
		if st := MapNotification(r, acct); st != nil {
			out = append(out, st)
		}
	}
	return out
}

// MapProfile converts a full account view.
func MapProfile(raw *Account) *fedi.Profile {
	if raw == nil || raw.ID == "" {
		return nil
	}
	return &fedi.Profile{
		Identity:       mapIdentity(*raw),
		Note:           render.Text(raw.Note),
		HeaderURL:      raw.Header,
		FollowersCount: raw.Followers,
		FollowingCount: raw.Following,
		StatusesCount:  raw.Statuses,
		Emojis:         mapEmojis(raw.Emojis),
	}
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
