package gmail

import (
	"errors"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// isUnknownLabel reports whether a list call failed only because the label
// does not exist in the mailbox
func isUnknownLabel(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case http.StatusNotFound:
		return true
	case http.StatusBadRequest:
		return strings.Contains(strings.ToLower(apiErr.Message), "invalid label")
	}
	return false
}
