package cache

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/cratedocs/cratedocs/internal/logging"
	"github.com/cratedocs/cratedocs/internal/storage"
)

var (
	// ErrTxnState reports a commit or rollback on an already-resolved transaction.
	ErrTxnState = errors.New("transaction already resolved")
	// ErrCleanup reports a committed update whose backup could not be removed.
	ErrCleanup = errors.New("update succeeded but cleanup failed")
)

// TxnState tracks the lifecycle of one update transaction.
type TxnState int

const (
	// TxnPending is the initial state after a successful begin.
	TxnPending TxnState = iota
	// TxnCommitted means the new entry is live and the backup discarded.
	TxnCommitted
	// TxnRolledBack means the prior entry was restored.
	TxnRolledBack
)

func (s TxnState) String() string {
	switch s {
	case TxnPending:
		return "pending"
	case TxnCommitted:
		return "committed"
	case TxnRolledBack:
		return "rolled back"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Txn holds the backup of one cache entry while an update rewrites it.
// A transaction resolves exactly once, to Committed or RolledBack; the
// Abandon guard restores the backup on any path that never commits.
type Txn struct {
	store     *storage.Store
	key       storage.Key
	id        string
	backupDir string
	state     TxnState
}

// BeginUpdate moves key's live entry aside into a backup and returns the
// pending transaction. When the backup cannot be taken the live entry is
// left untouched and no transaction exists.
func BeginUpdate(ctx context.Context, store *storage.Store, key storage.Key) (*Txn, error) {
	id := ulid.MustNew(ulid.Now(), crand.Reader).String()
	backupDir, err := store.BackupEntry(key, id)
	if err != nil {
		return nil, fmt.Errorf("backing up %s: %w", key, err)
	}

	log := logging.FromContext(ctx)
	log.Debug().
		Str("component", "cache").
		Str("operation", "txn_begin").
		Str("key", key.String()).
		Str("backup", backupDir).
		Msg("update transaction started")

	return &Txn{store: store, key: key, id: id, backupDir: backupDir, state: TxnPending}, nil
}

// State reports the transaction's current lifecycle state.
func (t *Txn) State() TxnState {
	return t.state
}

// BackupDir reports where the prior entry is held while the transaction
// is pending.
func (t *Txn) BackupDir() string {
	return t.backupDir
}

// Commit discards the backup, leaving the newly written entry live. A
// backup that cannot be removed is reported as ErrCleanup, but the
// transaction still resolves to Committed and the new entry stays valid.
func (t *Txn) Commit() error {
	if t.state != TxnPending {
		return fmt.Errorf("%w: cannot commit a %s transaction", ErrTxnState, t.state)
	}
	t.state = TxnCommitted
	if err := t.store.RemoveBackup(t.backupDir); err != nil {
		return fmt.Errorf("%w: %v", ErrCleanup, err)
	}
	return nil
}

// Rollback restores the backup over whatever partial state occupies the
// live path, so the entry is observably unchanged from before BeginUpdate.
func (t *Txn) Rollback() error {
	if t.state != TxnPending {
		return fmt.Errorf("%w: cannot roll back a %s transaction", ErrTxnState, t.state)
	}
	if err := t.store.RestoreEntry(t.key, t.backupDir); err != nil {
		return fmt.Errorf("restoring %s from backup: %w", t.key, err)
	}
	t.state = TxnRolledBack
	return nil
}

// Abandon rolls back a still-pending transaction and is a no-op
// otherwise. Deferred right after BeginUpdate, it guarantees restoration
// on every exit path that does not commit.
func (t *Txn) Abandon(ctx context.Context) {
	if t.state != TxnPending {
		return
	}
	if err := t.Rollback(); err != nil {
		log := logging.FromContext(ctx)
		log.Error().
			Err(err).
			Str("component", "cache").
			Str("operation", "txn_abandon").
			Str("key", t.key.String()).
			Str("backup", t.backupDir).
			Msg("abandoned update could not restore the previous entry")
	}
}
