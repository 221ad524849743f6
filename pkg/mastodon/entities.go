// Copyright 2024-2026 Aiku AI

package mastodon

import "encoding/json"

// Raw wire entities, snake_case JSON. Fragile fields (timestamps, nested
// objects) stay loosely typed so one malformed value never sinks a whole
// record; the mapper degrades them instead.

// Emoji is a server custom emoji entry.
type Emoji struct {
	Shortcode string `json:"shortcode"`
	URL       string `json:"url"`
	StaticURL string `json:"static_url"`
	Category  string `json:"category"`
}

// Account is the author object embedded in statuses and notifications.
type Account struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	Acct        string  `json:"acct"`
	DisplayName string  `json:"display_name"`
	URL         string  `json:"url"`
	Avatar      string  `json:"avatar"`
	Header      string  `json:"header"`
	Note        string  `json:"note"`
	Followers   int     `json:"followers_count"`
	Following   int     `json:"following_count"`
	Statuses    int     `json:"statuses_count"`
	Emojis      []Emoji `json:"emojis"`
}

// Mention is one entry of a status' mention list.
type Mention struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Acct     string `json:"acct"`
	URL      string `json:"url"`
}

// Attachment is one media attachment.
type Attachment struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	RemoteURL   string `json:"remote_url"`
	PreviewURL  string `json:"preview_url"`
	Description string `json:"description"`
}

// Card is the link preview object.
type Card struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// Reaction is one aggregated emoji reaction as served by reaction-capable
// servers under emoji_reactions.
type Reaction struct {
	Name      string `json:"name"`
	Count     int    `json:"count"`
	Me        bool   `json:"me"`
	URL       string `json:"url"`
	StaticURL string `json:"static_url"`
	Domain    string `json:"domain"`
}

// Status is the raw post payload.
type Status struct {
	ID                 string       `json:"id"`
	CreatedAt          string       `json:"created_at"`
	Account            Account      `json:"account"`
	Content            string       `json:"content"`
	Visibility         string       `json:"visibility"`
	SpoilerText        string       `json:"spoiler_text"`
	Sensitive          bool         `json:"sensitive"`
	URL                string       `json:"url"`
	URI                string       `json:"uri"`
	RepliesCount       int          `json:"replies_count"`
	ReblogsCount       int          `json:"reblogs_count"`
	FavouritesCount    int          `json:"favourites_count"`
	Favourited         bool         `json:"favourited"`
	Reblogged          bool         `json:"reblogged"`
	InReplyToID        string       `json:"in_reply_to_id"`
	InReplyToAccountID string       `json:"in_reply_to_account_id"`
	Reblog             *Status      `json:"reblog"`
	Mentions           []Mention    `json:"mentions"`
	MediaAttachments   []Attachment `json:"media_attachments"`
	Emojis             []Emoji      `json:"emojis"`
	Card               *Card        `json:"card"`
	EmojiReactions     []Reaction   `json:"emoji_reactions"`
}

// Notification is the raw notification payload. Raw keeps the undecoded
// object for kind-specific detail extraction.
type Notification struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	CreatedAt string  `json:"created_at"`
	Account   Account `json:"account"`
	Status    *Status `json:"status"`

	Raw map[string]any `json:"-"`
}

// UnmarshalJSON decodes the typed fields and retains the loose object.
func (n *Notification) UnmarshalJSON(data []byte) error {
	type plain Notification
	if err := json.Unmarshal(data, (*plain)(n)); err != nil {
		return err
	}
	// Detail extraction is best-effort; a failed loose decode is fine.
	_ = json.Unmarshal(data, &n.Raw)
	return nil
}

// Context is the thread context payload.
type Context struct {
	Ancestors   []*Status `json:"ancestors"`
	Descendants []*Status `json:"descendants"`
}

// Relationship is the viewer's relation to one account.
type Relationship struct {
	ID         string `json:"id"`
	Following  bool   `json:"following"`
	FollowedBy bool   `json:"followed_by"`
	Blocking   bool   `json:"blocking"`
	Muting     bool   `json:"muting"`
}

// InstanceV2 is the newer instance-info schema.
type InstanceV2 struct {
	Title       string `json:"title"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Thumbnail   struct {
		URL string `json:"url"`
	} `json:"thumbnail"`
	Configuration struct {
		Statuses struct {
			MaxCharacters       int `json:"max_characters"`
			MaxMediaAttachments int `json:"max_media_attachments"`
		} `json:"statuses"`
	} `json:"configuration"`
}

// InstanceV1 is the legacy schema served by older servers.
type InstanceV1 struct {
	Title            string `json:"title"`
	Version          string `json:"version"`
	ShortDescription string `json:"short_description"`
	Description      string `json:"description"`
	Thumbnail        string `json:"thumbnail"`
	MaxTootChars     int    `json:"max_toot_chars"`
}

// uploadedMedia is the upload endpoint's response.
type uploadedMedia struct {
	ID string `json:"id"`
}

// apiError is the server's error body shape.
type apiError struct {
	Error string `json:"error"`
}
