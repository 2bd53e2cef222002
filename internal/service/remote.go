package service

import (
	"context"

	"github.com/vipul43/label-mirror/internal/models"
)

// RemoteLister is the mail provider surface used by a synchronization pass
type RemoteLister interface {
	ListMessageIDs(ctx context.Context, labelID string, pageSize int) ([]string, error)
	FetchMessage(ctx context.Context, messageID string) (*RemoteMessage, error)
}

// LabelLister lists the provider's labels
type LabelLister interface {
	ListLabels(ctx context.Context) ([]RemoteLabel, error)
}

// MessageStore is the local mirror of messages
type MessageStore interface {
	FindByLabel(ctx context.Context, labelID string) ([]models.Message, error)
	Upsert(ctx context.Context, msg *models.Message) error
	DeleteByIDs(ctx context.Context, ids []string) error
}

// LabelStore holds the label set listed after authentication
type LabelStore interface {
	ReplaceAll(ctx context.Context, labels []models.Label) error
}

// RemoteMessage is a message as returned by the provider. Payload is nil when
// the provider omitted it.
type RemoteMessage struct {
	ID             string
	Snippet        string
	InternalDateMs int64
	LabelIDs       []string
	Payload        *MessagePayload
}

type MessagePayload struct {
	Headers []Header
}

type Header struct {
	Name  string
	Value string
}

type RemoteLabel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}
