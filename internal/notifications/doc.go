// Package notifications publishes ntfy push notifications when a processing
// run finishes.
//
// NewService returns a no-op publisher unless notifications.ntfy_topic is
// set. Per-event toggles in the config suppress individual events; Publish
// returns nil for suppressed events so callers never branch on config.
package notifications
