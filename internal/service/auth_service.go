package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/vipul43/label-mirror/internal/models"
)

// Authenticator runs the provider's OAuth2 authorization-code flow and keeps
// the resulting credentials
type Authenticator interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) error
}

// Labels refreshes the stored label set
type Labels interface {
	Refresh(ctx context.Context) (int, error)
}

// Runner runs a recorded synchronization pass
type Runner interface {
	Run(ctx context.Context, labelID string, trigger models.SyncTrigger) (*SyncResult, error)
}

// AuthService handles the OAuth callback: store credentials, refresh labels,
// then synchronize the configured label
type AuthService struct {
	auth    Authenticator
	labels  Labels
	runner  Runner
	labelID string
	log     logrus.FieldLogger
}

func NewAuthService(auth Authenticator, labels Labels, runner Runner, labelID string, log logrus.FieldLogger) *AuthService {
	return &AuthService{
		auth:    auth,
		labels:  labels,
		runner:  runner,
		labelID: labelID,
		log:     log.WithField("component", "auth"),
	}
}

// AuthURL returns the consent page URL
func (s *AuthService) AuthURL(state string) string {
	return s.auth.AuthCodeURL(state)
}

// HandleCallback completes authentication with code and runs the first pass
func (s *AuthService) HandleCallback(ctx context.Context, code string) (*SyncResult, error) {
	if code == "" {
		return nil, ErrMissingCode
	}

	if err := s.auth.Exchange(ctx, code); err != nil {
		return nil, remoteError("exchange authorization code", err)
	}
	s.log.Info("Tokens acquired")

	if _, err := s.labels.Refresh(ctx); err != nil {
		return nil, err
	}

	return s.runner.Run(ctx, s.labelID, models.TriggerCallback)
}
