package repository

import (
	"context"
	"fmt"

	"github.com/vipul43/label-mirror/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// FindByLabel retrieves all messages carrying labelID, newest first
func (r *MessageRepository) FindByLabel(ctx context.Context, labelID string) ([]models.Message, error) {
	var msgs []models.Message
	withLabel := r.db.Model(&models.MessageLabel{}).Select("message_id").Where("label_id = ?", labelID)
	result := r.db.WithContext(ctx).
		Preload("Labels").
		Where("id IN (?)", withLabel).
		Order("internal_date DESC").
		Order("id ASC").
		Find(&msgs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to query messages by label: %w", result.Error)
	}
	return msgs, nil
}

// Upsert inserts the message or overwrites every field of the stored one,
// replacing its label set
func (r *MessageRepository) Upsert(ctx context.Context, msg *models.Message) error {
	row := *msg
	row.Labels = nil

	labels := make([]models.MessageLabel, 0, len(msg.Labels))
	for _, l := range msg.Labels {
		labels = append(labels, models.MessageLabel{MessageID: msg.ID, LabelID: l.LabelID})
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Omit(clause.Associations).Create(&row).Error; err != nil {
			return err
		}
		if err := tx.Where("message_id = ?", msg.ID).Delete(&models.MessageLabel{}).Error; err != nil {
			return err
		}
		if len(labels) == 0 {
			return nil
		}
		return tx.Create(&labels).Error
	})
	if err != nil {
		return fmt.Errorf("failed to upsert message %s: %w", msg.ID, err)
	}
	return nil
}

// DeleteByIDs removes the messages and their label rows in one transaction
func (r *MessageRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id IN ?", ids).Delete(&models.MessageLabel{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.Message{}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	return nil
}
