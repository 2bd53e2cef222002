package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/vipul43/label-mirror/internal/models"
)

// ExtractMessage maps a provider message onto the mirrored record.
//
// Subject and From are matched by exact header name, first match wins. A
// missing or empty header falls back to models.NoSubject / models.UnknownSender.
func ExtractMessage(remote *RemoteMessage) (*models.Message, error) {
	if remote == nil {
		return nil, fmt.Errorf("%w: nil message", ErrMalformedRecord)
	}
	if remote.ID == "" {
		return nil, fmt.Errorf("%w: message has no id", ErrMalformedRecord)
	}
	if remote.Payload == nil {
		return nil, fmt.Errorf("%w: message %s has no payload", ErrMalformedRecord, remote.ID)
	}

	subject := headerValue(remote.Payload.Headers, "Subject")
	if subject == "" {
		subject = models.NoSubject
	}
	from := headerValue(remote.Payload.Headers, "From")
	if from == "" {
		from = models.UnknownSender
	}

	msg := &models.Message{
		ID:             remote.ID,
		Subject:        subject,
		Sender:         SenderName(from),
		Snippet:        remote.Snippet,
		InternalDateMs: remote.InternalDateMs,
		InternalDate:   time.UnixMilli(remote.InternalDateMs).UTC(),
		Labels:         make([]models.MessageLabel, 0, len(remote.LabelIDs)),
	}

	seen := make(map[string]struct{}, len(remote.LabelIDs))
	for _, labelID := range remote.LabelIDs {
		if _, ok := seen[labelID]; ok {
			continue
		}
		seen[labelID] = struct{}{}
		msg.Labels = append(msg.Labels, models.MessageLabel{MessageID: remote.ID, LabelID: labelID})
	}

	return msg, nil
}

// SenderName returns the display name of a "Name <address>" header, or the raw
// value when there is no non-empty text before the first '<'. Quoted names and
// multiple bracket pairs are not handled.
func SenderName(from string) string {
	idx := strings.Index(from, "<")
	if idx < 0 {
		return from
	}
	if name := strings.TrimSpace(from[:idx]); name != "" {
		return name
	}
	return from
}

func headerValue(headers []Header, name string) string {
	for _, h := range headers {
		if h.Name == name {
			return h.Value
		}
	}
	return ""
}
