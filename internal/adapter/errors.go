package adapter

import "errors"

var (
	// ErrUnauthorized marks a rejected or expired credential. The sync
	// engine aborts the cycle and surfaces the error to the session
	// layer instead of retrying.
	ErrUnauthorized = errors.New("client unauthorized")

	// ErrUnavailable marks a server that cannot be reached right now:
	// network failure, timeout, or a 5xx response. Work is kept queued
	// and retried on the next cycle.
	ErrUnavailable = errors.New("server unavailable")

	// ErrRemoteWrite marks a write the server refused on its merits
	// (validation, unknown table). The offending change stays at the
	// head of the pending queue.
	ErrRemoteWrite = errors.New("remote write rejected")
)
