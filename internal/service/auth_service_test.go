package service

import (
	"context"
	"errors"
	"testing"

	"github.com/vipul43/label-mirror/internal/models"
)

type mockAuthenticator struct {
	exchangeFunc func(ctx context.Context, code string) error
}

func (m *mockAuthenticator) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (m *mockAuthenticator) Exchange(ctx context.Context, code string) error {
	if m.exchangeFunc != nil {
		return m.exchangeFunc(ctx, code)
	}
	return nil
}

type mockLabels struct {
	refreshFunc func(ctx context.Context) (int, error)
}

func (m *mockLabels) Refresh(ctx context.Context) (int, error) {
	if m.refreshFunc != nil {
		return m.refreshFunc(ctx)
	}
	return 0, nil
}

type mockRunner struct {
	runFunc func(ctx context.Context, labelID string, trigger models.SyncTrigger) (*SyncResult, error)
}

func (m *mockRunner) Run(ctx context.Context, labelID string, trigger models.SyncTrigger) (*SyncResult, error) {
	return m.runFunc(ctx, labelID, trigger)
}

func TestAuthService_HandleCallback_Success(t *testing.T) {
	var steps []string
	auth := &mockAuthenticator{exchangeFunc: func(ctx context.Context, code string) error {
		steps = append(steps, "exchange:"+code)
		return nil
	}}
	labels := &mockLabels{refreshFunc: func(ctx context.Context) (int, error) {
		steps = append(steps, "labels")
		return 3, nil
	}}
	runner := &mockRunner{runFunc: func(ctx context.Context, labelID string, trigger models.SyncTrigger) (*SyncResult, error) {
		steps = append(steps, "sync:"+labelID+":"+string(trigger))
		return &SyncResult{LabelID: labelID, NewCount: 4}, nil
	}}

	svc := NewAuthService(auth, labels, runner, testLabel, discardLogger())
	result, err := svc.HandleCallback(context.Background(), "code-123")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.NewCount != 4 {
		t.Errorf("expected 4 new messages, got %d", result.NewCount)
	}

	expected := []string{"exchange:code-123", "labels", "sync:" + testLabel + ":callback"}
	if len(steps) != len(expected) {
		t.Fatalf("expected steps %v, got %v", expected, steps)
	}
	for i := range expected {
		if steps[i] != expected[i] {
			t.Errorf("step %d: expected %s, got %s", i, expected[i], steps[i])
		}
	}
}

func TestAuthService_HandleCallback_MissingCode(t *testing.T) {
	svc := NewAuthService(&mockAuthenticator{}, &mockLabels{}, &mockRunner{}, testLabel, discardLogger())
	_, err := svc.HandleCallback(context.Background(), "")
	if !errors.Is(err, ErrMissingCode) {
		t.Fatalf("expected ErrMissingCode, got %v", err)
	}
}

func TestAuthService_HandleCallback_ExchangeFailure(t *testing.T) {
	auth := &mockAuthenticator{exchangeFunc: func(ctx context.Context, code string) error {
		return errors.New("invalid_grant")
	}}
	svc := NewAuthService(auth, &mockLabels{}, &mockRunner{}, testLabel, discardLogger())

	_, err := svc.HandleCallback(context.Background(), "bad")
	if !errors.Is(err, ErrRemoteUnavailable) {
		t.Fatalf("expected ErrRemoteUnavailable, got %v", err)
	}
}

func TestAuthService_AuthURL(t *testing.T) {
	svc := NewAuthService(&mockAuthenticator{}, &mockLabels{}, &mockRunner{}, testLabel, discardLogger())
	if got := svc.AuthURL("xyz"); got != "https://accounts.example.com/auth?state=xyz" {
		t.Errorf("unexpected auth URL %s", got)
	}
}
