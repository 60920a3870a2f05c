// Package sync implements the multi-device synchronization engine: the
// push/pull cycle orchestrator, last-writer-wins conflict resolution,
// the realtime change-feed listener, and the connectivity monitor.
package sync

import (
	"github.com/questlog-app/questlog/models"
)

// Resolution is the outcome of reconciling a local and a remote version
// of the same record.
type Resolution struct {
	// Winner is the version to keep.
	Winner models.Record

	// Conflicted is true when both sides were edited in the same
	// instant with differing content. The winner is still decided
	// (remote), but the loss of the local edit must be surfaced.
	Conflicted bool
}

// Resolve decides which of two versions of one record survives.
//
// The strictly newer UpdatedAt wins outright. Equal timestamps with
// identical content are two devices writing the same value; the remote
// copy is kept and nothing is flagged. Equal timestamps with differing
// content are the only truly ambiguous case: remote wins, because
// remote is the convergence point every device pulls from, and the
// discarded local edit is reported as a conflict.
//
// Resolve is a pure function; it never touches storage.
func Resolve(local, remote models.Record) Resolution {
	switch {
	case remote.UpdatedAt.After(local.UpdatedAt):
		return Resolution{Winner: remote}
	case local.UpdatedAt.After(remote.UpdatedAt):
		return Resolution{Winner: local}
	case local.SamePayload(remote):
		return Resolution{Winner: remote}
	default:
		return Resolution{Winner: remote, Conflicted: true}
	}
}
