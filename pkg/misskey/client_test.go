// Copyright 2024-2026 Aiku AI

package misskey

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/aiku/fedikit/pkg/fedi"
)

// fakeServer records each call's endpoint and decoded body and replies
// from a canned handler table.
type fakeServer struct {
	mu      sync.Mutex
	calls   []string
	bodies  []map[string]any
	handler map[string]func(body map[string]any) (int, string)
}

func newFakeServer() *fakeServer {
	return &fakeServer{handler: map[string]func(map[string]any) (int, string){}}
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	endpoint := r.URL.Path[len("/api/"):]

	f.mu.Lock()
	f.calls = append(f.calls, endpoint)
	f.bodies = append(f.bodies, body)
	h := f.handler[endpoint]
	f.mu.Unlock()

	if h == nil {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"message":"no such endpoint","code":"NO_SUCH_ENDPOINT"}}`))
		return
	}
	status, resp := h(body)
	w.WriteHeader(status)
	w.Write([]byte(resp))
}

func (f *fakeServer) bodyFor(t *testing.T, endpoint string) map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, call := range f.calls {
		if call == endpoint {
			return f.bodies[i]
		}
	}
	t.Fatalf("endpoint %s never called; calls: %v", endpoint, f.calls)
	return nil
}

func (f *fakeServer) callSeq() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func newTestClient(t *testing.T, fake *fakeServer) (*Client, *fedi.Account) {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	acct := &fedi.Account{
		Endpoint:    srv.URL,
		AccessToken: "sekrit",
		Dialect:     fedi.DialectMisskey,
		UserID:      "me",
	}
	return New(srv.Client(), zerolog.Nop()), acct
}

func TestCallEmbedsCredentialInBody(t *testing.T) {
	t.Parallel()
	fake := newFakeServer()
	fake.handler["notes/timeline"] = func(map[string]any) (int, string) {
		return http.StatusOK, `[]`
	}
	c, acct := newTestClient(t, fake)

	if _, err := c.Timeline(context.Background(), acct, fedi.TimelineHome, 20, "until9"); err != nil {
		t.Fatalf("timeline: %v", err)
	}
	body := fake.bodyFor(t, "notes/timeline")
	if body["i"] != "sekrit" {
		t.Errorf("credential field: got %v, want sekrit", body["i"])
	}
	if body["untilId"] != "until9" {
		t.Errorf("cursor field: got %v, want until9", body["untilId"])
	}
	if body["limit"] != float64(20) {
		t.Errorf("limit field: got %v, want 20", body["limit"])
	}
}

func TestTimelineEndpoints(t *testing.T) {
	t.Parallel()
	wants := map[fedi.TimelineKind]string{
		fedi.TimelineHome:          "notes/timeline",
		fedi.TimelineLocal:         "notes/local-timeline",
		fedi.TimelineFederated:     "notes/global-timeline",
		fedi.TimelineNotifications: "i/notifications",
	}
	for kind, want := range wants {
		if got := timelineEndpoint(kind); got != want {
			t.Errorf("endpoint for %s: got %s, want %s", kind, got, want)
		}
	}
}

func TestErrorBodyParsing(t *testing.T) {
	t.Parallel()
	fake := newFakeServer()
	fake.handler["notes/show"] = func(map[string]any) (int, string) {
		return http.StatusBadRequest, `{"error":{"message":"no such note","code":"NO_SUCH_NOTE"}}`
	}
	c, acct := newTestClient(t, fake)

	_, err := c.show(context.Background(), acct, "gone")
	var apiErr *fedi.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type: got %T (%v), want *fedi.APIError", err, err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Message != "no such note" {
		t.Errorf("api error: got %+v", apiErr)
	}
}

func TestUnfavouriteFallsBackToClassicFavourite(t *testing.T) {
	t.Parallel()
	fake := newFakeServer()
	fake.handler["notes/reactions/delete"] = func(map[string]any) (int, string) {
		return http.StatusBadRequest, `{"error":{"message":"not reacted","code":"NOT_REACTED"}}`
	}
	fake.handler["notes/favorites/delete"] = func(map[string]any) (int, string) {
		return http.StatusNoContent, ``
	}
	fake.handler["notes/show"] = func(map[string]any) (int, string) {
		return http.StatusOK, `{"id":"7","text":"x","user":{"id":"u1","username":"a"}}`
	}
	c, acct := newTestClient(t, fake)

	st, err := c.Unfavourite(context.Background(), acct, "7")
	if err != nil {
		t.Fatalf("unfavourite: %v", err)
	}
	if st == nil || st.ID != "7" {
		t.Errorf("refetched status: got %+v, want id 7", st)
	}
	want := []string{"notes/reactions/delete", "notes/favorites/delete", "notes/show"}
	got := fake.callSeq()
	if len(got) != len(want) {
		t.Fatalf("call sequence: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("call sequence: got %v, want %v", got, want)
		}
	}
}

func TestUnfavouritePropagatesOriginalError(t *testing.T) {
	t.Parallel()
	fake := newFakeServer()
	fake.handler["notes/reactions/delete"] = func(map[string]any) (int, string) {
		return http.StatusBadRequest, `{"error":{"message":"not reacted","code":"NOT_REACTED"}}`
	}
	fake.handler["notes/favorites/delete"] = func(map[string]any) (int, string) {
		return http.StatusBadRequest, `{"error":{"message":"not favorited","code":"NOT_FAVORITED"}}`
	}
	c, acct := newTestClient(t, fake)

	_, err := c.Unfavourite(context.Background(), acct, "7")
	var apiErr *fedi.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type: got %T, want *fedi.APIError", err)
	}
	if apiErr.Message != "not reacted" {
		t.Errorf("propagated error: got %q, want the first failure", apiErr.Message)
	}
}

func TestUnreblogDeletesOwnRenote(t *testing.T) {
	t.Parallel()
	fake := newFakeServer()
	fake.handler["notes/renotes"] = func(map[string]any) (int, string) {
		return http.StatusOK, `[
			{"id":"r1","userId":"other","user":{"id":"other","username":"x"}},
			{"id":"r2","userId":"me","user":{"id":"me","username":"viewer"}}
		]`
	}
	fake.handler["notes/delete"] = func(map[string]any) (int, string) {
		return http.StatusNoContent, ``
	}
	fake.handler["notes/show"] = func(map[string]any) (int, string) {
		return http.StatusOK, `{"id":"orig","text":"x","user":{"id":"u1","username":"a"}}`
	}
	c, acct := newTestClient(t, fake)

	st, err := c.Unreblog(context.Background(), acct, "orig")
	if err != nil {
		t.Fatalf("unreblog: %v", err)
	}
	if st == nil || st.ID != "orig" {
		t.Errorf("refetched status: got %+v, want orig", st)
	}
	if deleted := fake.bodyFor(t, "notes/delete"); deleted["noteId"] != "r2" {
		t.Errorf("deleted note: got %v, want the own renote r2", deleted["noteId"])
	}
}

func TestFavouriteStarsAndRefetches(t *testing.T) {
	t.Parallel()
	fake := newFakeServer()
	fake.handler["notes/reactions/create"] = func(map[string]any) (int, string) {
		return http.StatusNoContent, ``
	}
	fake.handler["notes/show"] = func(map[string]any) (int, string) {
		return http.StatusOK, `{"id":"7","text":"x","user":{"id":"u1","username":"a"},"reactions":{"⭐":1},"myReaction":"⭐"}`
	}
	c, acct := newTestClient(t, fake)

	st, err := c.Favourite(context.Background(), acct, "7")
	if err != nil {
		t.Fatalf("favourite: %v", err)
	}
	if body := fake.bodyFor(t, "notes/reactions/create"); body["reaction"] != "⭐" {
		t.Errorf("reaction param: got %v, want the star", body["reaction"])
	}
	if !st.Favourited {
		t.Error("refetched status not favourited")
	}
}

func TestReactWrapsShortcodes(t *testing.T) {
	t.Parallel()
	cases := []struct{ in, want string }{
		{"wave", ":wave:"},
		{":wave:", ":wave:"},
		{"wave@remote", ":wave@remote:"},
		{"👍", "👍"},
	}
	for _, tc := range cases {
		if got := reactionParam(tc.in); got != tc.want {
			t.Errorf("reactionParam(%q): got %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestVerifyCredentialsUpdatesAccount(t *testing.T) {
	t.Parallel()
	fake := newFakeServer()
	fake.handler["i"] = func(map[string]any) (int, string) {
		return http.StatusOK, `{"id":"u7","username":"viewer","name":"Viewer","avatarUrl":"https://a/v.png"}`
	}
	c, acct := newTestClient(t, fake)

	if err := c.VerifyCredentials(context.Background(), acct); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if acct.UserID != "u7" || acct.Handle != "viewer" || acct.DisplayName != "Viewer" {
		t.Errorf("account identity: got %+v", acct)
	}
}

func TestThreadContextReversesAncestors(t *testing.T) {
	t.Parallel()
	fake := newFakeServer()
	fake.handler["notes/conversation"] = func(map[string]any) (int, string) {
		return http.StatusOK, `[
			{"id":"parent","user":{"id":"u1","username":"a"}},
			{"id":"root","user":{"id":"u1","username":"a"}}
		]`
	}
	fake.handler["notes/children"] = func(map[string]any) (int, string) {
		return http.StatusOK, `[{"id":"reply","user":{"id":"u2","username":"b"}}]`
	}
	c, acct := newTestClient(t, fake)

	thread, err := c.ThreadContext(context.Background(), acct, "mid")
	if err != nil {
		t.Fatalf("thread: %v", err)
	}
	if len(thread.Ancestors) != 2 || thread.Ancestors[0].ID != "root" || thread.Ancestors[1].ID != "parent" {
		t.Errorf("ancestors: got %v, want oldest first", thread.Ancestors)
	}
	if len(thread.Descendants) != 1 || thread.Descendants[0].ID != "reply" {
		t.Errorf("descendants: got %v", thread.Descendants)
	}
}
