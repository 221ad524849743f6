// Copyright 2024-2026 Aiku AI

// Package fedi defines the canonical post model shared by every federated
// dialect this client speaks, plus the capability surface that dispatches
// each operation to the right protocol adapter.
//
// # Core Types
//
// [Status] is the unified post. Both adapters' mappers produce it and the
// timeline, rendering and streaming layers consume nothing else. A Status
// may own one embedded boosted Status, strictly one level deep.
//
// [Account] is one authorized identity on one server. Its [Dialect] tag is
// fixed at creation and selects the adapter for every call.
//
// [API] is the capability interface; [Client] is the closed two-variant
// dispatcher over it. The dispatcher holds no state, does no I/O and never
// reinterprets errors.
//
// # Notifications
//
// Notifications are coerced into synthetic wrapper Statuses: counters are
// zero, the boost slot is empty, and the real payload lives in
// [NotificationMeta].Target. Status-like kinds render their target;
// system-like kinds render a synthesized fallback sentence.
package fedi
