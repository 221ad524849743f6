// Copyright 2024-2026 Aiku AI

package misskey

import (
	"encoding/json"
	"slices"
	"strings"
)

// Raw wire entities, camelCase JSON. Nullable text fields are pointers so
// the mapper can distinguish null from empty.

// Emoji is one custom emoji entry.
type Emoji struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Category string `json:"category"`
}

// emojiList tolerates the two shapes servers ship emoji tables in: a list
// of objects, or a plain name→url map.
type emojiList []Emoji

func (e *emojiList) UnmarshalJSON(data []byte) error {
	var list []Emoji
	if err := json.Unmarshal(data, &list); err == nil {
		*e = list
		return nil
	}
	var table map[string]string
	if err := json.Unmarshal(data, &table); err == nil {
		out := make([]Emoji, 0, len(table))
		for name, url := range table {
			out = append(out, Emoji{Name: name, URL: url})
		}
		slices.SortFunc(out, func(a, b Emoji) int {
			return strings.Compare(a.Name, b.Name)
		})
		*e = out
		return nil
	}
	// Unknown shape degrades to an empty table rather than failing the
	// whole record.
	*e = nil
	return nil
}

// User is the author object embedded in notes and notifications.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Host      string    `json:"host"`
	AvatarURL string    `json:"avatarUrl"`
	Emojis    emojiList `json:"emojis"`

	Description    string `json:"description"`
	BannerURL      string `json:"bannerUrl"`
	FollowersCount int    `json:"followersCount"`
	FollowingCount int    `json:"followingCount"`
	NotesCount     int    `json:"notesCount"`
}

// File is one drive file attached to a note.
type File struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Comment     string `json:"comment"`
	IsSensitive bool   `json:"isSensitive"`
}

// Note is the raw post payload.
type Note struct {
	ID         string  `json:"id"`
	CreatedAt  string  `json:"createdAt"`
	Text       *string `json:"text"`
	CW         *string `json:"cw"`
	UserID     string  `json:"userId"`
	User       User    `json:"user"`
	Visibility string  `json:"visibility"`

	RenoteCount  int `json:"renoteCount"`
	RepliesCount int `json:"repliesCount"`

	Reactions      map[string]int `json:"reactions"`
	ReactionEmojis emojiList      `json:"reactionEmojis"`
	MyReaction     *string        `json:"myReaction"`

	Emojis   emojiList `json:"emojis"`
	Files    []File    `json:"files"`
	Mentions []string  `json:"mentions"`

	ReplyID  string `json:"replyId"`
	Reply    *Note  `json:"reply"`
	RenoteID string `json:"renoteId"`
	Renote   *Note  `json:"renote"`

	URI string `json:"uri"`
	URL string `json:"url"`
}

// Notification is the raw notification payload. Raw keeps the undecoded
// object for kind-specific detail extraction.
type Notification struct {
	ID        string `json:"id"`
	CreatedAt string `json:"createdAt"`
	Type      string `json:"type"`
	UserID    string `json:"userId"`
	User      User   `json:"user"`
	Note      *Note  `json:"note"`

	Raw map[string]any `json:"-"`
}

func (n *Notification) UnmarshalJSON(data []byte) error {
	type plain Notification
	if err := json.Unmarshal(data, (*plain)(n)); err != nil {
		return err
	}
	_ = json.Unmarshal(data, &n.Raw)
	return nil
}

// Meta is the server metadata payload.
type Meta struct {
	Name              string `json:"name"`
	Version           string `json:"version"`
	Description       string `json:"description"`
	IconURL           string `json:"iconUrl"`
	MaxNoteTextLength int    `json:"maxNoteTextLength"`
}

// createdNoteEnvelope wraps notes/create responses.
type createdNoteEnvelope struct {
	CreatedNote *Note `json:"createdNote"`
}

// driveFile is the upload response.
type driveFile struct {
	ID string `json:"id"`
}

// Relation is the users/relation response for a single id.
type Relation struct {
	ID         string `json:"id"`
	Following  bool   `json:"isFollowing"`
	FollowedBy bool   `json:"isFollowed"`
	Blocking   bool   `json:"isBlocking"`
	Muting     bool   `json:"isMuted"`
}

// apiError is the server's nested error body shape.
type apiError struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}
