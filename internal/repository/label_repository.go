package repository

import (
	"context"
	"fmt"

	"github.com/vipul43/label-mirror/internal/models"
	"gorm.io/gorm"
)

type LabelRepository struct {
	db *gorm.DB
}

func NewLabelRepository(db *gorm.DB) *LabelRepository {
	return &LabelRepository{db: db}
}

// ReplaceAll deletes every stored label and inserts labels, atomically
func (r *LabelRepository) ReplaceAll(ctx context.Context, labels []models.Label) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Label{}).Error; err != nil {
			return err
		}
		if len(labels) == 0 {
			return nil
		}
		return tx.Create(&labels).Error
	})
	if err != nil {
		return fmt.Errorf("failed to replace labels: %w", err)
	}
	return nil
}

// List retrieves all stored labels
func (r *LabelRepository) List(ctx context.Context) ([]models.Label, error) {
	var labels []models.Label
	result := r.db.WithContext(ctx).Order("name ASC").Find(&labels)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list labels: %w", result.Error)
	}
	return labels, nil
}
