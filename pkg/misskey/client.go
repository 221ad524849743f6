// Copyright 2024-2026 Aiku AI

// Package misskey is the protocol adapter for the Misskey API family:
// POST-only REST calls carrying the credential in the request body, the
// note/notification mapper with its reaction aggregation, and the
// channel-multiplexed streaming subscriber.
package misskey

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aiku/fedikit/pkg/fedi"
)

const limitRespBodyLen = 1_048_576

// Client issues dialect-B REST calls. Every endpoint is a POST with the
// token embedded as the body field "i"; there is no auth header.
type Client struct {
	http *http.Client
	log  zerolog.Logger
}

var _ fedi.API = (*Client)(nil)

// New builds the adapter.
func New(httpClient *http.Client, log zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		http: httpClient,
		log:  log.With().Str("component", "misskey").Logger(),
	}
}

// call runs one endpoint with the credential merged into the body and
// decodes the response into out (nil discards it).
func (c *Client) call(ctx context.Context, acct *fedi.Account, endpoint string, params map[string]any, out any) error {
	body := make(map[string]any, len(params)+1)
	for k, v := range params {
		body[k] = v
	}
	body["i"] = acct.AccessToken

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request for %s: %w", endpoint, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, acct.Endpoint+"/api/"+endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.finish(req, endpoint, out)
}

func (c *Client) finish(req *http.Request, endpoint string, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(io.LimitReader(resp.Body, limitRespBodyLen))
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		typed := &fedi.APIError{StatusCode: resp.StatusCode, Endpoint: endpoint}
		var serverErr apiError
		if json.Unmarshal(respData, &serverErr) == nil {
			typed.Message = serverErr.Error.Message
		}
		return typed
	}

	if out == nil || len(respData) == 0 {
		return nil
	}
	if err := json.Unmarshal(respData, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
	}
	return nil
}

func (c *Client) VerifyCredentials(ctx context.Context, acct *fedi.Account) error {
	var me User
	if err := c.call(ctx, acct, "i", nil, &me); err != nil {
		return err
	}
	acct.UserID = me.ID
	acct.Handle = handleOf(me)
	acct.DisplayName = me.Name
	if acct.DisplayName == "" {
		acct.DisplayName = me.Username
	}
	acct.AvatarURL = me.AvatarURL
	return nil
}

// timelineEndpoint resolves a timeline kind to its endpoint.
func timelineEndpoint(kind fedi.TimelineKind) string {
	switch kind {
	case fedi.TimelineLocal:
		return "notes/local-timeline"
	case fedi.TimelineFederated:
		return "notes/global-timeline"
	case fedi.TimelineNotifications:
		return "i/notifications"
	default:
		return "notes/timeline"
	}
}

func pageParams(limit int, cursor string) map[string]any {
	params := map[string]any{}
	if limit > 0 {
		params["limit"] = limit
	}
	if cursor != "" {
		params["untilId"] = cursor
	}
	return params
}

func (c *Client) Timeline(ctx context.Context, acct *fedi.Account, kind fedi.TimelineKind, limit int, cursor string) ([]*fedi.Status, error) {
	endpoint := timelineEndpoint(kind)
	params := pageParams(limit, cursor)

	if kind == fedi.TimelineNotifications {
		var raw []*Notification
		if err := c.call(ctx, acct, endpoint, params, &raw); err != nil {
			return nil, err
		}
		return MapNotifications(raw, acct), nil
	}

	var raw []*Note
	if err := c.call(ctx, acct, endpoint, params, &raw); err != nil {
		return nil, err
	}
	return MapNotes(raw, acct), nil
}

func (c *Client) AccountStatuses(ctx context.Context, acct *fedi.Account, userID string, limit int, cursor string) ([]*fedi.Status, error) {
	params := pageParams(limit, cursor)
	params["userId"] = userID
	var raw []*Note
	if err := c.call(ctx, acct, "users/notes", params, &raw); err != nil {
		return nil, err
	}
	return MapNotes(raw, acct), nil
}

func (c *Client) ThreadContext(ctx context.Context, acct *fedi.Account, statusID string) (*fedi.ThreadContext, error) {
	var ancestors []*Note
	if err := c.call(ctx, acct, "notes/conversation", map[string]any{"noteId": statusID}, &ancestors); err != nil {
		return nil, err
	}
	var descendants []*Note
	if err := c.call(ctx, acct, "notes/children", map[string]any{"noteId": statusID}, &descendants); err != nil {
		return nil, err
	}
	// The conversation endpoint returns newest-first; ancestors read
	// oldest-first.
	for i, j := 0, len(ancestors)-1; i < j; i, j = i+1, j-1 {
		ancestors[i], ancestors[j] = ancestors[j], ancestors[i]
	}
	return &fedi.ThreadContext{
		Ancestors:   MapNotes(ancestors, acct),
		Descendants: MapNotes(descendants, acct),
	}, nil
}

func (c *Client) CustomEmojis(ctx context.Context, acct *fedi.Account) ([]fedi.CustomEmoji, error) {
	var raw struct {
		Emojis emojiList `json:"emojis"`
	}
	if err := c.call(ctx, acct, "emojis", nil, &raw); err != nil {
		return nil, err
	}
	return mapEmojis(raw.Emojis), nil
}

func (c *Client) InstanceInfo(ctx context.Context, acct *fedi.Account) (*fedi.InstanceInfo, error) {
	var meta Meta
	if err := c.call(ctx, acct, "meta", map[string]any{"detail": false}, &meta); err != nil {
		return nil, err
	}
	return &fedi.InstanceInfo{
		Name:         meta.Name,
		Version:      meta.Version,
		Description:  meta.Description,
		MaxPostChars: meta.MaxNoteTextLength,
		IconURL:      meta.IconURL,
	}, nil
}

func (c *Client) Profile(ctx context.Context, acct *fedi.Account, userID string) (*fedi.Profile, error) {
	var raw User
	if err := c.call(ctx, acct, "users/show", map[string]any{"userId": userID}, &raw); err != nil {
		return nil, err
	}
	return MapProfile(&raw, acct), nil
}

func (c *Client) Relationship(ctx context.Context, acct *fedi.Account, userID string) (*fedi.Relationship, error) {
	var raw Relation
	if err := c.call(ctx, acct, "users/relation", map[string]any{"userId": userID}, &raw); err != nil {
		return nil, err
	}
	return &fedi.Relationship{
		ID:         raw.ID,
		Following:  raw.Following,
		FollowedBy: raw.FollowedBy,
		Blocking:   raw.Blocking,
		Muting:     raw.Muting,
	}, nil
}

// UploadMedia posts a drive file. The credential rides in the multipart
// body like everywhere else in this dialect.
func (c *Client) UploadMedia(ctx context.Context, acct *fedi.Account, filename string, data []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("i", acct.AccessToken); err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to write upload body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to finish upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, acct.Endpoint+"/api/drive/files/create", &buf)
	if err != nil {
		return "", fmt.Errorf("failed to build request for drive/files/create: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var file driveFile
	if err := c.finish(req, "drive/files/create", &file); err != nil {
		return "", err
	}
	return file.ID, nil
}

func (c *Client) CreateStatus(ctx context.Context, acct *fedi.Account, draft fedi.StatusDraft) (*fedi.Status, error) {
	params := map[string]any{
		"text":       draft.Text,
		"visibility": FromVisibility(draft.Visibility),
	}
	if draft.SpoilerText != "" {
		params["cw"] = draft.SpoilerText
	}
	if draft.InReplyToID != "" {
		params["replyId"] = draft.InReplyToID
	}
	if len(draft.MediaIDs) > 0 {
		params["fileIds"] = draft.MediaIDs
	}
	var envelope createdNoteEnvelope
	if err := c.call(ctx, acct, "notes/create", params, &envelope); err != nil {
		return nil, err
	}
	return MapNote(envelope.CreatedNote, acct), nil
}

func (c *Client) DeleteStatus(ctx context.Context, acct *fedi.Account, statusID string) error {
	return c.call(ctx, acct, "notes/delete", map[string]any{"noteId": statusID}, nil)
}

// show refetches one note in canonical form.
func (c *Client) show(ctx context.Context, acct *fedi.Account, statusID string) (*fedi.Status, error) {
	var raw Note
	if err := c.call(ctx, acct, "notes/show", map[string]any{"noteId": statusID}, &raw); err != nil {
		return nil, err
	}
	return MapNote(&raw, acct), nil
}

// defaultFavouriteReaction is the star this dialect treats as a plain
// favourite.
const defaultFavouriteReaction = "⭐"

func (c *Client) Favourite(ctx context.Context, acct *fedi.Account, statusID string) (*fedi.Status, error) {
	params := map[string]any{"noteId": statusID, "reaction": defaultFavouriteReaction}
	if err := c.call(ctx, acct, "notes/reactions/create", params, nil); err != nil {
		return nil, err
	}
	return c.show(ctx, acct, statusID)
}

// Unfavourite has no single endpoint in this dialect: deleting the own
// reaction covers reaction-style favourites, deleting the classic
// favourite covers the rest. When the fallback fails too, the original
// failure propagates.
func (c *Client) Unfavourite(ctx context.Context, acct *fedi.Account, statusID string) (*fedi.Status, error) {
	reactionErr := c.call(ctx, acct, "notes/reactions/delete", map[string]any{"noteId": statusID}, nil)
	if reactionErr != nil {
		if err := c.call(ctx, acct, "notes/favorites/delete", map[string]any{"noteId": statusID}, nil); err != nil {
			return nil, reactionErr
		}
	}
	return c.show(ctx, acct, statusID)
}

func (c *Client) Reblog(ctx context.Context, acct *fedi.Account, statusID string) (*fedi.Status, error) {
	var envelope createdNoteEnvelope
	if err := c.call(ctx, acct, "notes/create", map[string]any{"renoteId": statusID}, &envelope); err != nil {
		return nil, err
	}
	return MapNote(envelope.CreatedNote, acct), nil
}

// Unreblog is emulated in three steps: list the post's renotes to find
// the viewer's own boost, delete that boost, then refetch the canonical
// post.
func (c *Client) Unreblog(ctx context.Context, acct *fedi.Account, statusID string) (*fedi.Status, error) {
	var renotes []*Note
	params := map[string]any{"noteId": statusID, "userId": acct.UserID, "limit": 100}
	if err := c.call(ctx, acct, "notes/renotes", params, &renotes); err != nil {
		return nil, err
	}
	for _, renote := range renotes {
		if renote == nil || renote.UserID != acct.UserID {
			continue
		}
		if err := c.call(ctx, acct, "notes/delete", map[string]any{"noteId": renote.ID}, nil); err != nil {
			return nil, err
		}
		break
	}
	return c.show(ctx, acct, statusID)
}

var plainShortcodeRe = regexp.MustCompile(`^[a-zA-Z0-9_+\-]+(@[a-zA-Z0-9.\-]+)?$`)

// reactionParam formats a reaction name for the wire: custom shortcodes
// travel colon-wrapped, unicode glyphs as-is.
func reactionParam(name string) string {
	if strings.HasPrefix(name, ":") {
		return name
	}
	if plainShortcodeRe.MatchString(name) {
		return ":" + name + ":"
	}
	return name
}

func (c *Client) React(ctx context.Context, acct *fedi.Account, statusID, name string) error {
	params := map[string]any{"noteId": statusID, "reaction": reactionParam(name)}
	return c.call(ctx, acct, "notes/reactions/create", params, nil)
}

func (c *Client) Unreact(ctx context.Context, acct *fedi.Account, statusID, _ string) error {
	return c.call(ctx, acct, "notes/reactions/delete", map[string]any{"noteId": statusID}, nil)
}
