package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/vipul43/label-mirror/internal/models"
)

// staleRunError is recorded on runs a previous process left in processing
const staleRunError = "interrupted before completion"

// LabelReconciler runs one reconciliation pass for a label
type LabelReconciler interface {
	Reconcile(ctx context.Context, labelID string) (SyncStats, error)
}

// SyncRunStore persists the history of synchronization passes
type SyncRunStore interface {
	Create(ctx context.Context, run models.SyncRun) error
	Complete(ctx context.Context, runID string, newCount, deletedCount, fetchedCount int) error
	Fail(ctx context.Context, runID string, deletedCount, fetchedCount int, lastError string) error
	FailStale(ctx context.Context, lastError string) (int64, error)
	ListRecent(ctx context.Context, limit int) ([]models.SyncRun, error)
}

type SyncResult struct {
	RunID        string `json:"runId"`
	LabelID      string `json:"labelId"`
	NewCount     int    `json:"newCount"`
	DeletedCount int    `json:"deletedCount"`
	FetchedCount int    `json:"fetchedCount"`
}

// SyncRunner serializes passes per label and records each one. Callers that
// trigger a label while its pass is in flight share that pass's result. A pass
// runs to completion even when the caller that started it goes away.
type SyncRunner struct {
	reconciler LabelReconciler
	runs       SyncRunStore
	group      singleflight.Group
	log        logrus.FieldLogger
}

func NewSyncRunner(reconciler LabelReconciler, runs SyncRunStore, log logrus.FieldLogger) *SyncRunner {
	return &SyncRunner{
		reconciler: reconciler,
		runs:       runs,
		log:        log.WithField("component", "sync-runner"),
	}
}

// Run synchronizes labelID, joining a pass already in flight for it
func (s *SyncRunner) Run(ctx context.Context, labelID string, trigger models.SyncTrigger) (*SyncResult, error) {
	if labelID == "" {
		return nil, ErrEmptyLabel
	}

	// The pass belongs to every caller sharing it, not only the one that started it
	passCtx := context.WithoutCancel(ctx)
	v, err, shared := s.group.Do(labelID, func() (interface{}, error) {
		return s.run(passCtx, labelID, trigger)
	})
	if shared {
		s.log.WithFields(logrus.Fields{"label": labelID, "trigger": trigger}).Debug("Joined in-flight sync pass")
	}

	result, _ := v.(*SyncResult)
	return result, err
}

func (s *SyncRunner) run(ctx context.Context, labelID string, trigger models.SyncTrigger) (*SyncResult, error) {
	now := time.Now()
	run := models.SyncRun{
		ID:        uuid.New().String(),
		LabelID:   labelID,
		Trigger:   trigger,
		Status:    models.SyncStatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, storeError("create sync run", err)
	}

	log := s.log.WithFields(logrus.Fields{"run_id": run.ID, "label": labelID, "trigger": trigger})
	log.Info("Starting sync pass")

	stats, err := s.reconciler.Reconcile(ctx, labelID)
	result := &SyncResult{
		RunID:        run.ID,
		LabelID:      labelID,
		NewCount:     stats.NewCount,
		DeletedCount: stats.DeletedCount,
		FetchedCount: stats.FetchedCount,
	}

	if err != nil {
		log.WithError(err).Error("Sync pass failed")
		if failErr := s.runs.Fail(ctx, run.ID, stats.DeletedCount, stats.FetchedCount, err.Error()); failErr != nil {
			log.WithError(failErr).Warn("Failed to record sync failure")
		}
		return result, err
	}

	if err := s.runs.Complete(ctx, run.ID, stats.NewCount, stats.DeletedCount, stats.FetchedCount); err != nil {
		log.WithError(err).Warn("Failed to record sync completion")
	}
	log.WithField("count", stats.NewCount).Info("New messages added")
	return result, nil
}

// RecoverStale fails runs a crashed process left in processing
func (s *SyncRunner) RecoverStale(ctx context.Context) (int64, error) {
	n, err := s.runs.FailStale(ctx, staleRunError)
	if err != nil {
		return 0, storeError("recover stale sync runs", err)
	}
	if n > 0 {
		s.log.WithField("count", n).Warn("Marked stale sync runs as failed")
	}
	return n, nil
}

// Recent returns the latest recorded passes, newest first
func (s *SyncRunner) Recent(ctx context.Context, limit int) ([]models.SyncRun, error) {
	runs, err := s.runs.ListRecent(ctx, limit)
	if err != nil {
		return nil, storeError("list sync runs", err)
	}
	return runs, nil
}
