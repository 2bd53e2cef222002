package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bradenaw/juniper/xslices"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vipul43/label-mirror/internal/models"
)

const (
	DefaultPageSize    = 100 // Message ids listed per pass
	DefaultConcurrency = 10  // Concurrent fetch-and-upsert operations per pass
)

// SyncStats summarizes one reconciliation pass
type SyncStats struct {
	NewCount     int // remote ids absent from the mirror before the pass
	DeletedCount int
	FetchedCount int
}

// Reconciler mirrors the provider's message set for a label into the local store
type Reconciler struct {
	remote      RemoteLister
	store       MessageStore
	pageSize    int
	concurrency int
	log         logrus.FieldLogger
	now         func() time.Time
}

func NewReconciler(remote RemoteLister, store MessageStore, pageSize, concurrency int, log logrus.FieldLogger) *Reconciler {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Reconciler{
		remote:      remote,
		store:       store,
		pageSize:    pageSize,
		concurrency: concurrency,
		log:         log.WithField("component", "reconciler"),
		now:         time.Now,
	}
}

// Synchronize runs one pass for labelID and returns how many of the remote
// messages were not in the mirror before the pass.
func (r *Reconciler) Synchronize(ctx context.Context, labelID string) (int, error) {
	stats, err := r.Reconcile(ctx, labelID)
	if err != nil {
		return 0, err
	}
	return stats.NewCount, nil
}

// Reconcile runs one pass for labelID: deletes mirrored messages that are no
// longer listed remotely, then fetches and upserts every listed message.
// Deletes applied before a failure are not rolled back; the returned stats
// reflect what was applied.
func (r *Reconciler) Reconcile(ctx context.Context, labelID string) (SyncStats, error) {
	var stats SyncStats
	if labelID == "" {
		return stats, ErrEmptyLabel
	}
	log := r.log.WithField("label", labelID)

	local, err := r.store.FindByLabel(ctx, labelID)
	if err != nil {
		return stats, storeError("list mirrored messages", err)
	}
	known := make(map[string]struct{}, len(local))
	for _, msg := range local {
		known[msg.ID] = struct{}{}
	}

	listed, err := r.remote.ListMessageIDs(ctx, labelID, r.pageSize)
	if err != nil {
		return stats, remoteError("list message ids", err)
	}
	remoteIDs := uniqueIDs(listed)
	remote := make(map[string]struct{}, len(remoteIDs))
	for _, id := range remoteIDs {
		remote[id] = struct{}{}
	}

	log.WithFields(logrus.Fields{"local": len(known), "remote": len(remoteIDs)}).Debug("Reconciling label")

	toDelete := xslices.Filter(xslices.Map(local, func(m models.Message) string { return m.ID }), func(id string) bool {
		_, ok := remote[id]
		return !ok
	})
	if len(toDelete) > 0 {
		if err := r.store.DeleteByIDs(ctx, toDelete); err != nil {
			return stats, storeError("delete vanished messages", err)
		}
		stats.DeletedCount = len(toDelete)
		log.WithField("count", len(toDelete)).Info("Deleted outdated message(s) from mirror")
	}

	for _, id := range remoteIDs {
		if _, ok := known[id]; !ok {
			stats.NewCount++
		}
	}

	var fetched atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for _, id := range remoteIDs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := r.mirror(gctx, id); err != nil {
				return err
			}
			fetched.Add(1)
			return nil
		})
	}
	err = g.Wait()
	stats.FetchedCount = int(fetched.Load())
	if err != nil {
		return stats, err
	}
	if ctx.Err() != nil {
		return stats, remoteError("fetch messages", ctx.Err())
	}

	log.WithFields(logrus.Fields{
		"new":     stats.NewCount,
		"deleted": stats.DeletedCount,
		"fetched": stats.FetchedCount,
	}).Info("Label synchronized")
	return stats, nil
}

// mirror fetches one message and overwrites its mirrored record
func (r *Reconciler) mirror(ctx context.Context, messageID string) error {
	remote, err := r.remote.FetchMessage(ctx, messageID)
	if err != nil {
		return remoteError(fmt.Sprintf("fetch message %s", messageID), err)
	}

	msg, err := ExtractMessage(remote)
	if err != nil {
		return err
	}
	if msg.ID != messageID {
		return fmt.Errorf("%w: fetched message %s for id %s", ErrMalformedRecord, msg.ID, messageID)
	}
	msg.SyncedAt = r.now()

	if err := r.store.Upsert(ctx, msg); err != nil {
		return storeError(fmt.Sprintf("upsert message %s", messageID), err)
	}
	return nil
}

// uniqueIDs drops empty and repeated ids, keeping first-seen order
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
