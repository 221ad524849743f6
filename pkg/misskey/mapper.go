// Copyright 2024-2026 Aiku AI

package misskey

import (
	"time"

	"go.mau.fi/util/ptr"

	"github.com/aiku/fedikit/pkg/fedi"
)

// visibilityTable maps the dialect vocabulary onto the canonical values;
// unknown values degrade to public.
var visibilityTable = map[string]fedi.Visibility{
	"public":    fedi.VisibilityPublic,
	"home":      fedi.VisibilityUnlisted,
	"followers": fedi.VisibilityPrivate,
	"specified": fedi.VisibilityDirect,
}

var visibilityNames = map[fedi.Visibility]string{
	fedi.VisibilityPublic:   "public",
	fedi.VisibilityUnlisted: "home",
	fedi.VisibilityPrivate:  "followers",
	fedi.VisibilityDirect:   "specified",
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

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func mapEmojis(raw emojiList) []fedi.CustomEmoji {
	if len(raw) == 0 {
		return nil
	}
	out := make([]fedi.CustomEmoji, 0, len(raw))
	for _, e := range raw {
		if e.Name == "" {
			continue
		}
		out = append(out, fedi.CustomEmoji{Shortcode: e.Name, URL: e.URL, Category: e.Category})
	}
	return out
}

// handleOf builds the canonical handle, appending the remote host when the
// user lives elsewhere.
func handleOf(u User) string {
	if u.Host != "" {
		return u.Username + "@" + u.Host
	}
	return u.Username
}

func mapIdentity(u User, acct *fedi.Account) fedi.Identity {
	name := u.Name
	if name == "" {
		name = u.Username
	}
	profileURL := ""
	if u.Username != "" {
		host := u.Host
		if host == "" {
			host = acct.Host()
		}
		profileURL = "https://" + host + "/@" + u.Username
	}
	return fedi.Identity{
		ID:          u.ID,
		Handle:      handleOf(u),
		DisplayName: name,
		AvatarURL:   u.AvatarURL,
		ProfileURL:  profileURL,
	}
}

func mapFiles(raw []File) ([]fedi.MediaAttachment, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	sensitive := false
	out := make([]fedi.MediaAttachment, 0, len(raw))
	for _, f := range raw {
		if f.IsSensitive {
			sensitive = true
		}
		out = append(out, fedi.MediaAttachment{ID: f.ID, URL: f.URL, Description: f.Comment})
	}
	return out, sensitive
}

// MapNote converts one raw note into the canonical Status. A record
// without an id maps to nil; batches filter those out. Renote embedding
// recurses exactly one level.
func MapNote(raw *Note, acct *fedi.Account) *fedi.Status {
	return mapNote(raw, acct, false)
}

func mapNote(raw *Note, acct *fedi.Account, inner bool) *fedi.Status {
	if raw == nil || raw.ID == "" {
		return nil
	}

	text := ptr.Val(raw.Text)
	cw := ptr.Val(raw.CW)
	media, sensitiveFiles := mapFiles(raw.Files)

	noteURL := raw.URL
	if noteURL == "" {
		noteURL = raw.URI
	}
	if noteURL == "" {
		noteURL = acct.Endpoint + "/notes/" + raw.ID
	}

	st := &fedi.Status{
		ID:           raw.ID,
		CreatedAt:    parseTime(raw.CreatedAt),
		Author:       mapIdentity(raw.User, acct),
		Content:      text,
		URL:          noteURL,
		Visibility:   ToVisibility(raw.Visibility),
		SpoilerText:  cw,
		Sensitive:    sensitiveFiles || cw != "",
		RepliesCount: raw.RepliesCount,
		ReblogsCount: raw.RenoteCount,
		InReplyToID:  raw.ReplyID,
		Media:        media,
		Emojis:       mapEmojis(raw.Emojis),
		AuthorEmojis: mapEmojis(raw.User.Emojis),
	}

	// Posts ship no plain favourite counter in this dialect; the star
	// reaction stands in for it.
	table := emojiTable(raw.Emojis, raw.ReactionEmojis)
	myReaction := ptr.Val(raw.MyReaction)
	st.Reactions = mapReactions(raw.Reactions, table, myReaction, acct)
	if stripped, _, _ := splitReactionName(myReaction); stripped != "" {
		st.MyReaction = stripped
		st.Favourited = true
	}
	for _, r := range st.Reactions {
		if r.Name == "⭐" || r.Name == "star" {
			st.FavouritesCount += r.Count
		}
	}

	if len(st.Emojis) == 0 {
		st.Emojis = fallbackEmojis(text, acct)
	}

	for _, userID := range raw.Mentions {
		if userID != "" {
			st.Mentions = append(st.Mentions, fedi.Mention{ID: userID})
		}
	}
	if raw.Reply != nil && raw.Reply.UserID != "" {
		synthesizeReplyMention(st, raw.Reply.User, raw.Reply.UserID, acct)
	}

	if !inner && raw.Renote != nil {
		if renoted := mapNote(raw.Renote, acct, true); renoted != nil {
			st.Reblog = renoted
			booster := mapIdentity(raw.User, acct)
			st.Booster = &booster
			if text == "" && len(media) == 0 {
				// A pure boost carries the viewer-state flag.
				st.Reblogged = raw.UserID == acct.UserID
			}
		}
	}

	return st
}

// synthesizeReplyMention appends the reply target's author when the
// explicit mention list does not already carry it.
func synthesizeReplyMention(st *fedi.Status, user User, userID string, acct *fedi.Account) {
	for _, m := range st.Mentions {
		if m.ID == userID {
			return
		}
	}
	if user.ID != "" {
		identity := mapIdentity(user, acct)
		st.Mentions = append(st.Mentions, fedi.Mention{
			ID:          identity.ID,
			DisplayName: identity.DisplayName,
			Handle:      identity.Handle,
			ProfileURL:  identity.ProfileURL,
		})
		return
	}
	st.Mentions = append(st.Mentions, fedi.Mention{ID: userID})
}

// MapNotes maps a batch, dropping unmappable records.
func MapNotes(raw []*Note, acct *fedi.Account) []*fedi.Status {
	out := make([]*fedi.Status, 0, len(raw))
	for _, r := range raw {
		if st := MapNote(r, acct); st != nil {
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
	target := MapNote(raw.Note, acct)
	return fedi.WrapNotification(raw.ID, parseTime(raw.CreatedAt), kind, mapIdentity(raw.User, acct), target, raw.Raw)
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

// MapProfile converts a full user view.
func MapProfile(raw *User, acct *fedi.Account) *fedi.Profile {
	if raw == nil || raw.ID == "" {
		return nil
	}
	return &fedi.Profile{
		Identity:       mapIdentity(*raw, acct),
		Note:           raw.Description,
		HeaderURL:      raw.BannerURL,
		FollowersCount: raw.FollowersCount,
		FollowingCount: raw.FollowingCount,
		StatusesCount:  raw.NotesCount,
		Emojis:         mapEmojis(raw.Emojis),
	}
}
