package kv

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	icommon "github.com/tidekv/tidekv/internal/common"
)

const (
	// maxCommitAttempts bounds the automatic retry loop so that a
	// pathological workload surfaces its conflicts instead of spinning.
	maxCommitAttempts = 100

	initialBackoff = time.Millisecond
	maxBackoff     = 100 * time.Millisecond
)

// ReadWrite invokes fn with a fresh transaction and commits it,
// retrying automatically on transient conflicts with capped
// exponential backoff. fn may be invoked multiple times and must be
// idempotent up to its transaction's writes.
func ReadWrite(ctx context.Context, db Database, fn func(tr Transaction) error) error {
	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		tr, err := db.BeginTransaction(ctx)
		if err != nil {
			return err
		}

		err = fn(tr)
		if err == nil {
			err = tr.Commit(ctx)
		}
		if err == nil {
			return nil
		}
		tr.Cancel()

		if !IsConflict(err) || attempt >= maxCommitAttempts {
			return err
		}
		log.WithFields(log.Fields{"attempt": attempt}).Debug("kv::retry::ReadWrite; transient conflict, retrying")

		select {
		case <-ctx.Done():
			return icommon.NewCancelledError("kv: retry loop cancelled")
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// Write is ReadWrite under its conventional name for write-only work.
func Write(ctx context.Context, db Database, fn func(tr Transaction) error) error {
	return ReadWrite(ctx, db, fn)
}

// Read invokes fn with a fresh transaction that is discarded rather
// than committed, retrying on transient conflicts.
func Read(ctx context.Context, db Database, fn func(tr ReadTransaction) error) error {
	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		tr, err := db.BeginTransaction(ctx)
		if err != nil {
			return err
		}

		err = fn(tr)
		tr.Cancel()
		if err == nil {
			return nil
		}

		if !IsConflict(err) || attempt >= maxCommitAttempts {
			return err
		}
		log.WithFields(log.Fields{"attempt": attempt}).Debug("kv::retry::Read; transient conflict, retrying")

		select {
		case <-ctx.Done():
			return icommon.NewCancelledError("kv: retry loop cancelled")
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}
