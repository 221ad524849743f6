// Copyright 2024-2026 Aiku AI

// Package mastodon is the protocol adapter for the Mastodon API family:
// bearer-token REST calls, the status/notification mapper into the
// canonical model, and the streaming subscriber.
package mastodon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/aiku/fedikit/pkg/fedi"
)

const limitRespBodyLen = 1_048_576

// Client issues dialect-A REST calls. It is stateless between calls; the
// acting account travels with every request.
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
		log:  log.With().Str("component", "mastodon").Logger(),
	}
}

// do runs one authenticated request and decodes the JSON response into
// out (nil out discards the body). Non-2xx responses become *fedi.APIError
// carrying the server's error text when it was parseable.
func (c *Client) do(ctx context.Context, acct *fedi.Account, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	reqURL := acct.Endpoint + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+acct.AccessToken)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, limitRespBodyLen))
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &fedi.APIError{StatusCode: resp.StatusCode, Endpoint: path}
		var serverErr apiError
		if json.Unmarshal(data, &serverErr) == nil {
			apiErr.Message = serverErr.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, acct *fedi.Account, path string, query url.Values, out any) error {
	return c.do(ctx, acct, http.MethodGet, path, query, nil, "", out)
}

func (c *Client) postJSON(ctx context.Context, acct *fedi.Account, path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request for %s: %w", path, err)
	}
	return c.do(ctx, acct, http.MethodPost, path, nil, bytes.NewReader(data), "application/json", out)
}

func (c *Client) VerifyCredentials(ctx context.Context, acct *fedi.Account) error {
	var me Account
	if err := c.get(ctx, acct, "/api/v1/accounts/verify_credentials", nil, &me); err != nil {
		return err
	}
	acct.UserID = me.ID
	acct.Handle = me.Acct
	acct.DisplayName = me.DisplayName
	acct.AvatarURL = me.Avatar
	return nil
}

// timelinePath resolves a timeline kind to its endpoint and fixed query.
func timelinePath(kind fedi.TimelineKind) (path string, query url.Values) {
	switch kind {
	case fedi.TimelineLocal:
		return "/api/v1/timelines/public", url.Values{"local": {"true"}}
	case fedi.TimelineFederated:
		return "/api/v1/timelines/public", url.Values{}
	case fedi.TimelineNotifications:
		return "/api/v1/notifications", url.Values{}
	default:
		return "/api/v1/timelines/home", url.Values{}
	}
}

func (c *Client) Timeline(ctx context.Context, acct *fedi.Account, kind fedi.TimelineKind, limit int, cursor string) ([]*fedi.Status, error) {
	path, query := timelinePath(kind)
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		query.Set("max_id", cursor)
	}

	if kind == fedi.TimelineNotifications {
		var raw []*Notification
		if err := c.get(ctx, acct, path, query, &raw); err != nil {
			return nil, err
		}
		return MapNotifications(raw, acct), nil
	}

	var raw []*Status
	if err := c.get(ctx, acct, path, query, &raw); err != nil {
		return nil, err
	}
	return MapStatuses(raw, acct), nil
}

func (c *Client) AccountStatuses(ctx context.Context, acct *fedi.Account, userID string, limit int, cursor string) ([]*fedi.Status, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		query.Set("max_id", cursor)
	}
	var raw []*Status
	if err := c.get(ctx, acct, "/api/v1/accounts/"+userID+"/statuses", query, &raw); err != nil {
		return nil, err
	}
	return MapStatuses(raw, acct), nil
}

func (c *Client) ThreadContext(ctx context.Context, acct *fedi.Account, statusID string) (*fedi.ThreadContext, error) {
	var raw Context
	if err := c.get(ctx, acct, "/api/v1/statuses/"+statusID+"/context", nil, &raw); err != nil {
		return nil, err
	}
	return &fedi.ThreadContext{
		Ancestors:   MapStatuses(raw.Ancestors, acct),
		Descendants: MapStatuses(raw.Descendants, acct),
	}, nil
}

func (c *Client) CustomEmojis(ctx context.Context, acct *fedi.Account) ([]fedi.CustomEmoji, error) {
	var raw []Emoji
	if err := c.get(ctx, acct, "/api/v1/custom_emojis", nil, &raw); err != nil {
		return nil, err
	}
	return mapEmojis(raw), nil
}

// InstanceInfo fetches the versioned instance endpoint, falling back from
// the newer schema to the older one when the server rejects it.
func (c *Client) InstanceInfo(ctx context.Context, acct *fedi.Account) (*fedi.InstanceInfo, error) {
	var v2 InstanceV2
	err := c.get(ctx, acct, "/api/v2/instance", nil, &v2)
	if err == nil {
		return &fedi.InstanceInfo{
			Name:           v2.Title,
			Version:        v2.Version,
			Description:    v2.Description,
			MaxPostChars:   v2.Configuration.Statuses.MaxCharacters,
			MaxMediaAttach: v2.Configuration.Statuses.MaxMediaAttachments,
			IconURL:        v2.Thumbnail.URL,
		}, nil
	}
	c.log.Debug().Err(err).Msg("Instance v2 endpoint failed, trying v1")

	var v1 InstanceV1
	if err := c.get(ctx, acct, "/api/v1/instance", nil, &v1); err != nil {
		return nil, err
	}
	description := v1.ShortDescription
	if description == "" {
		description = v1.Description
	}
	return &fedi.InstanceInfo{
		Name:         v1.Title,
		Version:      v1.Version,
		Description:  description,
		MaxPostChars: v1.MaxTootChars,
		IconURL:      v1.Thumbnail,
	}, nil
}

func (c *Client) Profile(ctx context.Context, acct *fedi.Account, userID string) (*fedi.Profile, error) {
	var raw Account
	if err := c.get(ctx, acct, "/api/v1/accounts/"+userID, nil, &raw); err != nil {
		return nil, err
	}
	return MapProfile(&raw), nil
}

func (c *Client) Relationship(ctx context.Context, acct *fedi.Account, userID string) (*fedi.Relationship, error) {
	var raw []Relationship
	query := url.Values{"id[]": {userID}}
	if err := c.get(ctx, acct, "/api/v1/accounts/relationships", query, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return &fedi.Relationship{ID: userID}, nil
	}
	r := raw[0]
	return &fedi.Relationship{
		ID:         r.ID,
		Following:  r.Following,
		FollowedBy: r.FollowedBy,
		Blocking:   r.Blocking,
		Muting:     r.Muting,
	}, nil
}

func (c *Client) UploadMedia(ctx context.Context, acct *fedi.Account, filename string, data []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
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

	var media uploadedMedia
	if err := c.do(ctx, acct, http.MethodPost, "/api/v2/media", nil, &buf, mw.FormDataContentType(), &media); err != nil {
		return "", err
	}
	return media.ID, nil
}

func (c *Client) CreateStatus(ctx context.Context, acct *fedi.Account, draft fedi.StatusDraft) (*fedi.Status, error) {
	payload := map[string]any{
		"status":     draft.Text,
		"visibility": FromVisibility(draft.Visibility),
	}
	if draft.SpoilerText != "" {
		payload["spoiler_text"] = draft.SpoilerText
	}
	if draft.Sensitive {
		payload["sensitive"] = true
	}
	if draft.InReplyToID != "" {
		payload["in_reply_to_id"] = draft.InReplyToID
	}
	if len(draft.MediaIDs) > 0 {
		payload["media_ids"] = draft.MediaIDs
	}
	var raw Status
	if err := c.postJSON(ctx, acct, "/api/v1/statuses", payload, &raw); err != nil {
		return nil, err
	}
	return MapStatus(&raw, acct), nil
}

func (c *Client) DeleteStatus(ctx context.Context, acct *fedi.Account, statusID string) error {
	return c.do(ctx, acct, http.MethodDelete, "/api/v1/statuses/"+statusID, nil, nil, "", nil)
}

// statusAction posts one of the status sub-endpoints and maps the updated
// post the server echoes back.
func (c *Client) statusAction(ctx context.Context, acct *fedi.Account, statusID, action string) (*fedi.Status, error) {
	var raw Status
	if err := c.do(ctx, acct, http.MethodPost, "/api/v1/statuses/"+statusID+"/"+action, nil, nil, "", &raw); err != nil {
		return nil, err
	}
	return MapStatus(&raw, acct), nil
}

func (c *Client) Favourite(ctx context.Context, acct *fedi.Account, statusID string) (*fedi.Status, error) {
	return c.statusAction(ctx, acct, statusID, "favourite")
}

func (c *Client) Unfavourite(ctx context.Context, acct *fedi.Account, statusID string) (*fedi.Status, error) {
	return c.statusAction(ctx, acct, statusID, "unfavourite")
}

func (c *Client) Reblog(ctx context.Context, acct *fedi.Account, statusID string) (*fedi.Status, error) {
	return c.statusAction(ctx, acct, statusID, "reblog")
}

func (c *Client) Unreblog(ctx context.Context, acct *fedi.Account, statusID string) (*fedi.Status, error) {
	return c.statusAction(ctx, acct, statusID, "unreblog")
}

func (c *Client) React(ctx context.Context, acct *fedi.Account, statusID, name string) error {
	return c.do(ctx, acct, http.MethodPut, "/api/v1/statuses/"+statusID+"/emoji_reactions/"+url.PathEscape(name), nil, nil, "", nil)
}

func (c *Client) Unreact(ctx context.Context, acct *fedi.Account, statusID, name string) error {
	return c.do(ctx, acct, http.MethodDelete, "/api/v1/statuses/"+statusID+"/emoji_reactions/"+url.PathEscape(name), nil, nil, "", nil)
}
