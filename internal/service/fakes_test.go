package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vipul43/label-mirror/internal/models"
)

// memoryStore is an in-memory MessageStore
type memoryStore struct {
	mu       sync.Mutex
	messages map[string]models.Message
	deleted  [][]string
	upserts  int

	findErr   error
	deleteErr error
	upsertErr error
}

func newMemoryStore(msgs ...models.Message) *memoryStore {
	s := &memoryStore{messages: map[string]models.Message{}}
	for _, m := range msgs {
		s.messages[m.ID] = m
	}
	return s
}

func (s *memoryStore) FindByLabel(ctx context.Context, labelID string) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	var out []models.Message
	for _, m := range s.messages {
		if m.HasLabel(labelID) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memoryStore) Upsert(ctx context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserts++
	s.messages[msg.ID] = *msg
	return nil
}

func (s *memoryStore) DeleteByIDs(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, append([]string(nil), ids...))
	for _, id := range ids {
		delete(s.messages, id)
	}
	return nil
}

func (s *memoryStore) idsWithLabel(labelID string) []string {
	msgs, _ := s.FindByLabel(context.Background(), labelID)
	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.ID)
	}
	return ids
}

// fakeRemote serves messages from a map; ids lists what the label query returns
type fakeRemote struct {
	mu       sync.Mutex
	ids      []string
	messages map[string]*RemoteMessage
	fetched  []string
	inFlight int
	maxSeen  int
	hold     time.Duration // how long each fetch stays in flight

	listErr  error
	fetchErr map[string]error
	labels   []RemoteLabel
	labelErr error
}

func (f *fakeRemote) ListMessageIDs(ctx context.Context, labelID string, pageSize int) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if len(f.ids) > pageSize {
		return append([]string(nil), f.ids[:pageSize]...), nil
	}
	return append([]string(nil), f.ids...), nil
}

func (f *fakeRemote) FetchMessage(ctx context.Context, messageID string) (*RemoteMessage, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, messageID)
	f.inFlight++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.hold > 0 {
		select {
		case <-time.After(f.hold):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err := f.fetchErr[messageID]; err != nil {
		return nil, err
	}
	msg, ok := f.messages[messageID]
	if !ok {
		return nil, errors.New("404 not found")
	}
	return msg, nil
}

func (f *fakeRemote) ListLabels(ctx context.Context) ([]RemoteLabel, error) {
	if f.labelErr != nil {
		return nil, f.labelErr
	}
	return f.labels, nil
}

func remoteMessage(id, subject, from string, labels ...string) *RemoteMessage {
	var headers []Header
	if subject != "" {
		headers = append(headers, Header{Name: "Subject", Value: subject})
	}
	if from != "" {
		headers = append(headers, Header{Name: "From", Value: from})
	}
	return &RemoteMessage{
		ID:             id,
		Snippet:        "snippet " + id,
		InternalDateMs: 1700000000000,
		LabelIDs:       labels,
		Payload:        &MessagePayload{Headers: headers},
	}
}

func storedMessage(id, subject string, labels ...string) models.Message {
	msg := models.Message{ID: id, Subject: subject}
	for _, l := range labels {
		msg.Labels = append(msg.Labels, models.MessageLabel{MessageID: id, LabelID: l})
	}
	return msg
}

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
