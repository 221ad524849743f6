// Copyright 2024-2026 Aiku AI

package fedi

import "context"

// API is the capability surface every protocol adapter implements. All
// methods take the account they act for, return canonical entities, and
// surface failures as-is (wrapped transport errors or *APIError); nothing
// at this layer retries or reinterprets.
type API interface {
	// VerifyCredentials checks the token and refreshes the account's cached
	// display identity in place.
	VerifyCredentials(ctx context.Context, acct *Account) error

	Timeline(ctx context.Context, acct *Account, kind TimelineKind, limit int, cursor string) ([]*Status, error)
	AccountStatuses(ctx context.Context, acct *Account, userID string, limit int, cursor string) ([]*Status, error)
	ThreadContext(ctx context.Context, acct *Account, statusID string) (*ThreadContext, error)

	CustomEmojis(ctx context.Context, acct *Account) ([]CustomEmoji, error)
	InstanceInfo(ctx context.Context, acct *Account) (*InstanceInfo, error)
	Profile(ctx context.Context, acct *Account, userID string) (*Profile, error)
	Relationship(ctx context.Context, acct *Account, userID string) (*Relationship, error)

	UploadMedia(ctx context.Context, acct *Account, filename string, data []byte) (string, error)
	CreateStatus(ctx context.Context, acct *Account, draft StatusDraft) (*Status, error)
	DeleteStatus(ctx context.Context, acct *Account, statusID string) error

	Favourite(ctx context.Context, acct *Account, statusID string) (*Status, error)
	Unfavourite(ctx context.Context, acct *Account, statusID string) (*Status, error)
	Reblog(ctx context.Context, acct *Account, statusID string) (*Status, error)
	Unreblog(ctx context.Context, acct *Account, statusID string) (*Status, error)
	React(ctx context.Context, acct *Account, statusID, name string) error
	Unreact(ctx context.Context, acct *Account, statusID, name string) error

	// Subscriber builds the realtime wire protocol for one live timeline.
	// The returned value is consumed by the streaming state machine.
	Subscriber(acct *Account, kind TimelineKind) Subscriber
}

// Client routes every capability call to the adapter matching the
// account's dialect. It holds no state and performs no I/O of its own.
// The dialect set is closed: exactly the two adapters given at
// construction.
type Client struct {
	mastodon API
	misskey  API
}

// NewClient builds the unified client from the two dialect adapters.
func NewClient(mastodon, misskey API) *Client {
	return &Client{mastodon: mastodon, misskey: misskey}
}

// For returns the adapter serving the account's dialect. Unknown dialects
// fall back to the mastodon adapter so a zero-valued Account still fails
// with an ordinary transport error instead of a panic.
func (c *Client) For(acct *Account) API {
	switch acct.Dialect {
	case DialectMisskey:
		return c.misskey
	default:
		return c.mastodon
	}
}

func (c *Client) VerifyCredentials(ctx context.Context, acct *Account) error {
	return c.For(acct).VerifyCredentials(ctx, acct)
}

func (c *Client) Timeline(ctx context.Context, acct *Account, kind TimelineKind, limit int, cursor string) ([]*Status, error) {
	return c.For(acct).Timeline(ctx, acct, kind, limit, cursor)
}

func (c *Client) AccountStatuses(ctx context.Context, acct *Account, userID string, limit int, cursor string) ([]*Status, error) {
	return c.For(acct).AccountStatuses(ctx, acct, userID, limit, cursor)
}

func (c *Client) ThreadContext(ctx context.Context, acct *Account, statusID string) (*ThreadContext, error) {
	return c.For(acct).ThreadContext(ctx, acct, statusID)
}

func (c *Client) CustomEmojis(ctx context.Context, acct *Account) ([]CustomEmoji, error) {
	return c.For(acct).CustomEmojis(ctx, acct)
}

func (c *Client) InstanceInfo(ctx context.Context, acct *Account) (*InstanceInfo, error) {
	return c.For(acct).InstanceInfo(ctx, acct)
}

func (c *Client) Profile(ctx context.Context, acct *Account, userID string) (*Profile, error) {
	return c.For(acct).Profile(ctx, acct, userID)
}

func (c *Client) Relationship(ctx context.Context, acct *Account, userID string) (*Relationship, error) {
	return c.For(acct).Relationship(ctx, acct, userID)
}

func (c *Client) UploadMedia(ctx context.Context, acct *Account, filename string, data []byte) (string, error) {
	return c.For(acct).UploadMedia(ctx, acct, filename, data)
}

func (c *Client) CreateStatus(ctx context.Context, acct *Account, draft StatusDraft) (*Status, error) {
	return c.For(acct).CreateStatus(ctx, acct, draft)
}

func (c *Client) DeleteStatus(ctx context.Context, acct *Account, statusID string) error {
	return c.For(acct).DeleteStatus(ctx, acct, statusID)
}

func (c *Client) Favourite(ctx context.Context, acct *Account, statusID string) (*Status, error) {
	return c.For(acct).Favourite(ctx, acct, statusID)
}

func (c *Client) Unfavourite(ctx context.Context, acct *Account, statusID string) (*Status, error) {
	return c.For(acct).Unfavourite(ctx, acct, statusID)
}

func (c *Client) Reblog(ctx context.Context, acct *Account, statusID string) (*Status, error) {
	return c.For(acct).Reblog(ctx, acct, statusID)
}

func (c *Client) Unreblog(ctx context.Context, acct *Account, statusID string) (*Status, error) {
	return c.For(acct).Unreblog(ctx, acct, statusID)
}

func (c *Client) React(ctx context.Context, acct *Account, statusID, name string) error {
	return c.For(acct).React(ctx, acct, statusID, name)
}

func (c *Client) Unreact(ctx context.Context, acct *Account, statusID, name string) error {
	return c.For(acct).Unreact(ctx, acct, statusID, name)
}

func (c *Client) Subscriber(acct *Account, kind TimelineKind) Subscriber {
	return c.For(acct).Subscriber(acct, kind)
}
