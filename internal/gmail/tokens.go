package gmail

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/vipul43/label-mirror/internal/models"
)

const accountKey = models.AccountID

// AccountStore persists the OAuth tokens of the mirrored account
type AccountStore interface {
	GetByID(ctx context.Context, accountID string) (*models.Account, error)
	SaveTokens(ctx context.Context, account models.Account) error
}

// tokenSource refreshes through the OAuth config and writes rotated tokens
// back to the account store
type tokenSource struct {
	base     oauth2.TokenSource
	accounts AccountStore
	ctx      context.Context
	log      logrus.FieldLogger

	mu   sync.Mutex
	last string
}

func (c *Client) tokenSource(ctx context.Context, token *oauth2.Token) oauth2.TokenSource {
	return &tokenSource{
		base:     c.config.TokenSource(ctx, token),
		accounts: c.accounts,
		ctx:      context.WithoutCancel(ctx),
		log:      c.log,
		last:     token.AccessToken,
	}
}

func (s *tokenSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token.AccessToken == s.last {
		return token, nil
	}
	s.last = token.AccessToken

	if err := s.accounts.SaveTokens(s.ctx, accountFromToken(token)); err != nil {
		s.log.WithError(err).Warn("Failed to store refreshed token")
	} else {
		s.log.WithField("expires_at", token.Expiry).Info("Token refreshed successfully")
	}
	return token, nil
}

func tokenFromAccount(account *models.Account) *oauth2.Token {
	token := &oauth2.Token{
		AccessToken: account.AccessToken,
		TokenType:   account.TokenType,
	}
	if account.RefreshToken != nil {
		token.RefreshToken = *account.RefreshToken
	}
	if account.Expiry != nil {
		token.Expiry = *account.Expiry
	}
	return token
}

func accountFromToken(token *oauth2.Token) models.Account {
	account := models.Account{
		ID:          accountKey,
		AccessToken: token.AccessToken,
		TokenType:   token.Type(),
	}
	// Keep the stored refresh token unless it was rotated
	if token.RefreshToken != "" {
		refresh := token.RefreshToken
		account.RefreshToken = &refresh
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		account.Expiry = &expiry
	}
	if scope, ok := token.Extra("scope").(string); ok && scope != "" {
		account.Scope = &scope
	}
	return account
}
