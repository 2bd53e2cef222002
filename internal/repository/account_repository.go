package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vipul43/label-mirror/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrAccountNotFound = errors.New("account not found")

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// GetByID retrieves account by ID
func (r *AccountRepository) GetByID(ctx context.Context, accountID string) (*models.Account, error) {
	var account models.Account
	result := r.db.WithContext(ctx).First(&account, "id = ?", accountID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", result.Error)
	}
	return &account, nil
}

// SaveTokens inserts or updates the account's tokens. A nil RefreshToken keeps
// the stored one, since providers only return it on first consent.
func (r *AccountRepository) SaveTokens(ctx context.Context, account models.Account) error {
	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	columns := []string{"access_token", "token_type", "expiry", "scope", "updated_at"}
	if account.RefreshToken != nil {
		columns = append(columns, "refresh_token")
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(&account)
	if result.Error != nil {
		return fmt.Errorf("failed to save tokens: %w", result.Error)
	}
	return nil
}
