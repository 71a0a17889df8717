// Package session holds the authoritative ordered collection of
// embedded-window sessions. Order is tab order and user-meaningful; it
// persists across switches. The registry owns no OS resources, only
// records; all native mutation happens in the embed controller.
package session
