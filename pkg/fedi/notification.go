// Copyright 2024-2026 Aiku AI

package fedi

import (
	"fmt"
	"strings"
	"time"
)

// NotificationKind is the normalized notification taxonomy. Both dialects'
// kind strings collapse onto these values; anything unrecognized becomes
// KindUnknown and renders as a generic sentence.
type NotificationKind string

const (
	KindFollow         NotificationKind = "follow"
	KindFollowRequest  NotificationKind = "follow_request"
	KindFollowAccepted NotificationKind = "follow_accepted"
	KindMention        NotificationKind = "mention"
	KindReply          NotificationKind = "reply"
	KindBoost          NotificationKind = "boost"
	KindQuote          NotificationKind = "quote"
	KindReaction       NotificationKind = "reaction"
	KindFavourite      NotificationKind = "favourite"
	KindStatus         NotificationKind = "status"
	KindPollEnded      NotificationKind = "poll_ended"
	KindEdit           NotificationKind = "edit"
	KindScheduled      NotificationKind = "scheduled"
	KindAchievement    NotificationKind = "achievement"
	KindRoleAssigned   NotificationKind = "role"
	KindLogin          NotificationKind = "login"
	KindAnnouncement   NotificationKind = "announcement"
	KindApp            NotificationKind = "app"
	KindTest           NotificationKind = "test"
	KindAdminSignup    NotificationKind = "admin_signup"
	KindAdminReport    NotificationKind = "admin_report"
	KindUnknown        NotificationKind = "unknown"
)

// NotificationMeta rides on a synthetic wrapper Status and describes why it
// exists. Target is the wrapped real payload for status-like kinds.
type NotificationMeta struct {
	Kind   NotificationKind `json:"kind"`
	Label  string           `json:"label"`
	Actor  Identity         `json:"actor"`
	Target *Status          `json:"target,omitempty"`
}

type kindInfo struct {
	label    string
	fallback string
	// statusLike kinds render their Target; system-like kinds render only
	// the fallback sentence.
	statusLike bool
}

var kindTable = map[NotificationKind]kindInfo{
	KindFollow:         {"New follower", "followed you", false},
	KindFollowRequest:  {"Follow request", "requested to follow you", false},
	KindFollowAccepted: {"Request accepted", "accepted your follow request", false},
	KindMention:        {"Mention", "mentioned you", true},
	KindReply:          {"Reply", "replied to your post", true},
	KindBoost:          {"Boost", "boosted your post", true},
	KindQuote:          {"Quote", "quoted your post", true},
	KindReaction:       {"Reaction", "reacted to your post", true},
	KindFavourite:      {"Favourite", "favourited your post", true},
	KindStatus:         {"New post", "posted", true},
	KindPollEnded:      {"Poll ended", "a poll you voted in has ended", true},
	KindEdit:           {"Edited", "edited a post", true},
	KindScheduled:      {"Scheduled post", "your scheduled post was published", true},
	KindAchievement:    {"Achievement", "unlocked an achievement", false},
	KindRoleAssigned:   {"Role", "you were assigned a role", false},
	KindLogin:          {"New login", "a new login to your account was detected", false},
	KindAnnouncement:   {"Announcement", "the server posted an announcement", false},
	KindApp:            {"App notification", "an application sent a notification", false},
	KindTest:           {"Test", "test notification", false},
	KindAdminSignup:    {"New sign-up", "a new account signed up", false},
	KindAdminReport:    {"New report", "a new report was filed", false},
	KindUnknown:        {"Notification", "sent you a notification", false},
}

// normalizedKinds folds both dialects' raw kind strings onto the taxonomy.
var normalizedKinds = map[string]NotificationKind{
	"follow":                KindFollow,
	"follow_request":        KindFollowRequest,
	"receiveFollowRequest":  KindFollowRequest,
	"followRequestAccepted": KindFollowAccepted,
	"mention":               KindMention,
	"reply":                 KindReply,
	"reblog":                KindBoost,
	"renote":                KindBoost,
	"renote:grouped":        KindBoost,
	"quote":                 KindQuote,
	"reaction":              KindReaction,
	"reaction:grouped":      KindReaction,
	"emoji_reaction":        KindReaction,
	"favourite":             KindFavourite,
	"status":                KindStatus,
	"note":                  KindStatus,
	"poll":                  KindPollEnded,
	"pollEnded":             KindPollEnded,
	"update":                KindEdit,
	"scheduled_status":      KindScheduled,
	"scheduledNotePosted":   KindScheduled,
	"achievementEarned":     KindAchievement,
	"roleAssigned":          KindRoleAssigned,
	"login":                 KindLogin,
	"announcement":          KindAnnouncement,
	"app":                   KindApp,
	"test":                  KindTest,
	"admin.sign_up":         KindAdminSignup,
	"admin.report":          KindAdminReport,
}

// NormalizeKind maps a raw dialect kind string onto the taxonomy.
func NormalizeKind(raw string) NotificationKind {
	if k, ok := normalizedKinds[raw]; ok {
		return k
	}
	return KindUnknown
}

// KindLabel returns the human label for a kind.
func KindLabel(k NotificationKind) string {
	return kindTable[k].label
}

// StatusLike reports whether a kind's content is the wrapped target itself
// rather than a synthesized sentence.
func StatusLike(k NotificationKind) bool {
	return kindTable[k].statusLike
}

// detailCandidates lists, per kind, the nested raw-payload keys probed for
// extra sentence detail, first non-empty wins per slot.
var detailCandidates = map[NotificationKind][][]string{
	KindAchievement: {
		{"achievement.name", "achievement.title", "achievement"},
		{"achievement.description"},
	},
	KindRoleAssigned: {
		{"role.name", "role.displayName"},
	},
	KindLogin: {
		{"ip", "loginIp"},
		{"place", "location"},
		{"userAgent", "headers.user-agent"},
	},
	KindAnnouncement: {
		{"announcement.title"},
		{"announcement.text", "announcement.body"},
	},
	KindApp: {
		{"header", "appName", "app.name"},
		{"body"},
	},
}

// FallbackSentence builds the rendered content for system-like kinds: the
// fixed fallback sentence, extended with any kind-specific detail found in
// the raw payload.
func FallbackSentence(k NotificationKind, raw map[string]any) string {
	info, ok := kindTable[k]
	if !ok {
		info = kindTable[KindUnknown]
	}
	var details []string
	for _, candidates := range detailCandidates[k] {
		if v := firstNonEmpty(raw, candidates); v != "" {
			details = append(details, v)
		}
	}
	if len(details) == 0 {
		return info.fallback
	}
	return fmt.Sprintf("%s: %s", info.fallback, strings.Join(details, ", "))
}

// firstNonEmpty probes dotted paths into a decoded JSON object and returns
// the first non-empty string value.
func firstNonEmpty(raw map[string]any, paths []string) string {
	for _, path := range paths {
		cur := any(raw)
		found := true
		for _, seg := range strings.Split(path, ".") {
			m, ok := cur.(map[string]any)
			if !ok {
				found = false
				break
			}
			cur, ok = m[seg]
			if !ok {
				found = false
				break
			}
		}
		if !found {
			continue
		}
		if s, ok := cur.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// WrapNotification builds the synthetic wrapper Status for a notification.
// The wrapper's counters are zero and it carries no Reblog; the real
// payload, when the kind has one, lives in the meta's Target. For
// status-like kinds the wrapper content stays empty (the target renders
// itself); otherwise it is the synthesized fallback sentence.
func WrapNotification(id string, createdAt time.Time, kind NotificationKind, actor Identity, target *Status, raw map[string]any) *Status {
	content := ""
	if !StatusLike(kind) || target == nil {
		content = FallbackSentence(kind, raw)
	}
	return &Status{
		ID:         id,
		CreatedAt:  createdAt,
		Author:     actor,
		Content:    content,
		Visibility: VisibilityPublic,
		Notification: &NotificationMeta{
			Kind:   kind,
			Label:  KindLabel(kind),
			Actor:  actor,
			Target: target,
		},
	}
}
