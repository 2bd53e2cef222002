package models

import "time"

// Placeholders stored when the upstream message lacks the header.
const (
	NoSubject     = "(No Subject)"
	UnknownSender = "(Unknown Sender)"
)

// Message is one mirrored mail message. Labels are kept in message_labels so
// that listing by label membership is a plain join.
type Message struct {
	ID             string         `gorm:"column:id;primaryKey"`
	Subject        string         `gorm:"column:subject"`
	Sender         string         `gorm:"column:sender"`
	Snippet        string         `gorm:"column:snippet"`
	InternalDateMs int64          `gorm:"column:internal_date_ms"`
	InternalDate   time.Time      `gorm:"column:internal_date;index"`
	SyncedAt       time.Time      `gorm:"column:synced_at"`
	Labels         []MessageLabel `gorm:"foreignKey:MessageID;references:ID"`
}

// TableName specifies the table name for GORM
func (Message) TableName() string {
	return "messages"
}

// LabelIDs returns the label ids attached to the message.
func (m Message) LabelIDs() []string {
	ids := make([]string, 0, len(m.Labels))
	for _, l := range m.Labels {
		ids = append(ids, l.LabelID)
	}
	return ids
}

// HasLabel reports whether labelID is attached to the message.
func (m Message) HasLabel(labelID string) bool {
	for _, l := range m.Labels {
		if l.LabelID == labelID {
			return true
		}
	}
	return false
}

// MessageLabel is one membership row of a message in a label.
type MessageLabel struct {
	MessageID string `gorm:"column:message_id;primaryKey"`
	LabelID   string `gorm:"column:label_id;primaryKey;index"`
}

// TableName specifies the table name for GORM
func (MessageLabel) TableName() string {
	return "message_labels"
}
