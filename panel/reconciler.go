// Package panel keeps the control-panel message alive in the command channel.
package panel

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrNotFound is returned by Store.Fetch when the message was deleted.
var ErrNotFound = errors.New("panel message not found")

// Store is the message layer the Reconciler works against.
type Store interface {
	// Post sends a fresh panel and returns its message ID.
	Post(ctx context.Context) (string, error)
	// Fetch returns ErrNotFound (possibly wrapped) when the message is gone.
	Fetch(ctx context.Context, messageID string) error
	Delete(ctx context.Context, messageID string) error
	// PurgeOwn removes up to limit of the bot's own recent messages.
	PurgeOwn(ctx context.Context, limit int) error
}

// Reconciler owns the ID of the currently posted panel. On every tick it
// makes sure that message still exists and reposts it if it does not.
type Reconciler struct {
	store      Store
	log        *zap.Logger
	interval   time.Duration
	purgeLimit int

	mu        sync.Mutex
	messageID string
}

func NewReconciler(store Store, log *zap.Logger, interval time.Duration, purgeLimit int) *Reconciler {
	return &Reconciler{
		store:      store,
		log:        log,
		interval:   interval,
		purgeLimit: purgeLimit,
	}
}

// MessageID returns the tracked panel message, or "" when none is tracked.
func (r *Reconciler) MessageID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.messageID
}

// Run ticks once right away and then on every interval until ctx is done.
func (r *Reconciler) Run(ctx context.Context) {
	r.Tick(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// Tick performs one reconciliation step. Transient lookup errors keep the
// current handle so the next tick can retry.
func (r *Reconciler) Tick(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.messageID == "" {
		r.post(ctx)
		return
	}

	err := r.store.Fetch(ctx, r.messageID)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		r.log.Info("Menu missing. Reposting...", zap.String("message_id", r.messageID))
		r.messageID = ""
		r.post(ctx)
	default:
		r.log.Warn("Error checking menu status", zap.String("message_id", r.messageID), zap.Error(err))
	}
}

// Close deletes the tracked panel. Used on shutdown.
func (r *Reconciler) Close(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.messageID == "" {
		return
	}
	err := r.store.Delete(ctx, r.messageID)
	switch {
	case err == nil:
		r.log.Info("Control panel deleted.")
	case errors.Is(err, ErrNotFound):
		r.log.Info("Control panel was already deleted.")
	default:
		r.log.Warn("Error deleting control panel", zap.Error(err))
	}
	r.messageID = ""
}

// post must be called with r.mu held.
func (r *Reconciler) post(ctx context.Context) {
	if r.messageID != "" {
		if err := r.store.Delete(ctx, r.messageID); err != nil {
			r.log.Debug("Old panel delete failed", zap.Error(err))
		}
		r.messageID = ""
	}
	if r.purgeLimit > 0 {
		if err := r.store.PurgeOwn(ctx, r.purgeLimit); err != nil {
			r.log.Debug("Purge of old bot messages failed", zap.Error(err))
		}
	}

	id, err := r.store.Post(ctx)
	if err != nil {
		r.log.Error("Error posting control panel", zap.Error(err))
		return
	}
	r.messageID = id
	r.log.Info("Control panel posted", zap.String("message_id", id))
}
