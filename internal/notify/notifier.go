// Package notify pushes real-time "website updated" events to subscribers
// after each persisted check outcome.
package notify

import (
	"context"

	"github.com/sitewatch/sitewatch/internal/website"
)

// Notifier delivers website update events. Delivery is fire-and-forget:
// implementations must never let a slow or dead subscriber fail or stall a
// check, and callers only log delivery errors.
type Notifier interface {
	// WebsiteUpdated publishes the dashboard snapshot of a website that just
	// received a new outcome.
	WebsiteUpdated(ctx context.Context, snapshot website.Snapshot) error

	// Close releases any underlying resources.
	Close() error
}

// Nop is a Notifier that discards all events. Used in tests and when no
// push broker is configured.
type Nop struct{}

// WebsiteUpdated discards the event.
func (Nop) WebsiteUpdated(context.Context, website.Snapshot) error { return nil }

// Close is a no-op.
func (Nop) Close() error { return nil }
