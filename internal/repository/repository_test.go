package repository

import (
	"testing"
	"time"

	"github.com/vipul43/label-mirror/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory SQLite database with the mirror schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(&models.Account{}, &models.Label{}, &models.Message{}, &models.MessageLabel{}, &models.SyncRun{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func testMessage(id, subject string, labels ...string) *models.Message {
	msg := &models.Message{
		ID:             id,
		Subject:        subject,
		Sender:         "Jane Doe",
		Snippet:        "hello " + id,
		InternalDateMs: 1700000000000,
		InternalDate:   time.UnixMilli(1700000000000).UTC(),
		SyncedAt:       time.Now().UTC(),
	}
	for _, l := range labels {
		msg.Labels = append(msg.Labels, models.MessageLabel{MessageID: id, LabelID: l})
	}
	return msg
}

func messageIDs(msgs []models.Message) []string {
	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.ID)
	}
	return ids
}
