// Copyright 2024-2026 Aiku AI

package fedi

import "time"

// Visibility is the canonical audience of a post. Both dialects map their
// own vocabulary onto these four values; anything unrecognized degrades to
// VisibilityPublic.
type Visibility string

const (
	VisibilityPublic   Visibility = "public"
	VisibilityUnlisted Visibility = "unlisted"
	VisibilityPrivate  Visibility = "private"
	VisibilityDirect   Visibility = "direct"
)

// TimelineKind selects which server-side timeline a fetch or subscription
// targets.
type TimelineKind string

const (
	TimelineHome          TimelineKind = "home"
	TimelineLocal         TimelineKind = "local"
	TimelineFederated     TimelineKind = "federated"
	TimelineNotifications TimelineKind = "notifications"
)

// CustomEmoji is one shortcode→URL entry of an emoji catalog. Shortcodes
// are unique within one catalog only, never globally.
type CustomEmoji struct {
	Shortcode string `json:"shortcode"`
	URL       string `json:"url"`
	Category  string `json:"category,omitempty"`
}

// Mention identifies one participant referenced by a post. ID and ProfileURL
// may be empty when the dialect only surfaces the handle.
type Mention struct {
	ID          string `json:"id,omitempty"`
	DisplayName string `json:"display_name"`
	Handle      string `json:"handle"`
	ProfileURL  string `json:"profile_url,omitempty"`
}

// MediaAttachment is one uploaded file attached to a post.
type MediaAttachment struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// LinkCard is a link preview. Mappers only attach one when it is materially
// non-empty: the title differs from the bare URL, or a description or image
// exists.
type LinkCard struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

// Reaction is one aggregated emoji reaction on a post. Name carries no
// surrounding colons. Host is the instance the custom glyph lives on, when
// it could be derived.
type Reaction struct {
	Name     string `json:"name"`
	Count    int    `json:"count"`
	URL      string `json:"url,omitempty"`
	IsCustom bool   `json:"is_custom"`
	Host     string `json:"host,omitempty"`
	Me       bool   `json:"me"`
}

// Identity is the author summary carried on every Status.
type Identity struct {
	ID          string `json:"id"`
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	ProfileURL  string `json:"profile_url,omitempty"`
}

// Status is the canonical post every adapter maps into and everything else
// operates on.
//
// When Notification is set the Status is a synthetic wrapper: the counters
// are zero, Reblog is nil and the real payload (if any) lives in
// Notification.Target.
type Status struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Author    Identity  `json:"author"`

	// Content is always plain text. RawContent holds the server-rendered
	// markup when the dialect provides one; Rich reports whether RawContent
	// is meaningful.
	Content    string `json:"content"`
	RawContent string `json:"raw_content,omitempty"`
	Rich       bool   `json:"rich"`

	URL         string     `json:"url,omitempty"`
	Visibility  Visibility `json:"visibility"`
	SpoilerText string     `json:"spoiler_text,omitempty"`
	Sensitive   bool       `json:"sensitive"`

	Card *LinkCard `json:"card,omitempty"`

	RepliesCount    int `json:"replies_count"`
	ReblogsCount    int `json:"reblogs_count"`
	FavouritesCount int `json:"favourites_count"`

	// Reactions is ordered: count descending, name ascending on ties.
	Reactions  []Reaction `json:"reactions,omitempty"`
	MyReaction string     `json:"my_reaction,omitempty"`

	Reblogged  bool `json:"reblogged"`
	Favourited bool `json:"favourited"`

	InReplyToID string            `json:"in_reply_to_id,omitempty"`
	Mentions    []Mention         `json:"mentions,omitempty"`
	Media       []MediaAttachment `json:"media,omitempty"`

	// Reblog is the embedded boosted post, owned exclusively by this Status.
	// It is at most one level deep: a Reblog never carries its own Reblog.
	Reblog  *Status   `json:"reblog,omitempty"`
	Booster *Identity `json:"booster,omitempty"`

	Notification *NotificationMeta `json:"notification,omitempty"`

	// Emojis resolves shortcodes in Content; AuthorEmojis resolves
	// shortcodes in the author's display name. The two catalogs are
	// independent.
	Emojis       []CustomEmoji `json:"emojis,omitempty"`
	AuthorEmojis []CustomEmoji `json:"author_emojis,omitempty"`
}

// ThreadContext is the conversation around one post.
type ThreadContext struct {
	Ancestors   []*Status `json:"ancestors"`
	Descendants []*Status `json:"descendants"`
}

// Profile is a full account view as returned by the profile endpoints.
type Profile struct {
	Identity
	Note           string        `json:"note,omitempty"`
	HeaderURL      string        `json:"header_url,omitempty"`
	FollowersCount int           `json:"followers_count"`
	FollowingCount int           `json:"following_count"`
	StatusesCount  int           `json:"statuses_count"`
	Emojis         []CustomEmoji `json:"emojis,omitempty"`
}

// Relationship is the viewer's relation to another account.
type Relationship struct {
	ID         string `json:"id"`
	Following  bool   `json:"following"`
	FollowedBy bool   `json:"followed_by"`
	Blocking   bool   `json:"blocking"`
	Muting     bool   `json:"muting"`
}

// InstanceInfo is the server metadata surface. Dialect A fills it from the
// versioned instance endpoint (v2 with v1 fallback); dialect B from its
// meta endpoint.
type InstanceInfo struct {
	Name           string `json:"name"`
	Version        string `json:"version"`
	Description    string `json:"description,omitempty"`
	MaxPostChars   int    `json:"max_post_chars,omitempty"`
	MaxMediaAttach int    `json:"max_media_attachments,omitempty"`
	IconURL        string `json:"icon_url,omitempty"`
}

// StatusDraft is the input of CreateStatus.
type StatusDraft struct {
	Text        string
	Visibility  Visibility
	SpoilerText string
	Sensitive   bool
	InReplyToID string
	MediaIDs    []string
}
