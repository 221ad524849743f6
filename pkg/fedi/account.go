// Copyright 2024-2026 Aiku AI

package fedi

// Dialect tags the API family an account's server speaks. It is fixed at
// account creation and never changes.
type Dialect string

const (
	DialectMastodon Dialect = "mastodon"
	DialectMisskey  Dialect = "misskey"
)

// Account is one authorized identity on one server. It is value-like and
// freely copyable; nothing holds a back-reference to it.
type Account struct {
	// Endpoint is the base URL of the server, e.g. "https://inst.example",
	// without a trailing slash. It doubles as the emoji cache key.
	Endpoint string `json:"endpoint"`

	// AccessToken authorizes every call. Dialect A sends it as a bearer
	// header, dialect B embeds it in each request body.
	AccessToken string `json:"access_token"`

	Dialect Dialect `json:"dialect"`

	// Cached display identity, refreshed by VerifyCredentials.
	UserID      string `json:"user_id,omitempty"`
	Handle      string `json:"handle,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`

	// Emojis is the server's custom emoji catalog as last fetched.
	Emojis []CustomEmoji `json:"emojis,omitempty"`
}

// Host returns the endpoint's host without scheme, used when deriving the
// origin of local custom emojis.
func (a *Account) Host() string {
	host := a.Endpoint
	for _, prefix := range []string{"https://", "http://"} {
		if len(host) > len(prefix) && host[:len(prefix)] == prefix {
			return host[len(prefix):]
		}
	}
	return host
}
