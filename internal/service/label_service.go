package service

import (
	"context"

	"github.com/bradenaw/juniper/xslices"
	"github.com/sirupsen/logrus"

	"github.com/vipul43/label-mirror/internal/models"
)

// LabelService keeps the stored label set in step with the provider
type LabelService struct {
	remote LabelLister
	store  LabelStore
	log    logrus.FieldLogger
}

func NewLabelService(remote LabelLister, store LabelStore, log logrus.FieldLogger) *LabelService {
	return &LabelService{
		remote: remote,
		store:  store,
		log:    log.WithField("component", "labels"),
	}
}

// Refresh replaces the stored labels with the provider's current list
func (s *LabelService) Refresh(ctx context.Context) (int, error) {
	remote, err := s.ListRemote(ctx)
	if err != nil {
		return 0, err
	}

	labels := xslices.Map(remote, func(l RemoteLabel) models.Label {
		return models.Label{ID: l.ID, Name: l.Name}
	})
	if err := s.store.ReplaceAll(ctx, labels); err != nil {
		return 0, storeError("replace labels", err)
	}

	s.log.WithField("count", len(labels)).Info("Stored labels")
	return len(labels), nil
}

// ListRemote lists the provider's labels without storing them
func (s *LabelService) ListRemote(ctx context.Context) ([]RemoteLabel, error) {
	labels, err := s.remote.ListLabels(ctx)
	if err != nil {
		return nil, remoteError("list labels", err)
	}
	return labels, nil
}
