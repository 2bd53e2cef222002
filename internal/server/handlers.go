package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vipul43/label-mirror/internal/models"
	"github.com/vipul43/label-mirror/internal/service"
	"github.com/vipul43/label-mirror/internal/view"
)

const (
	notAuthenticatedMessage = "OAuth2 client is not authenticated. Please authenticate first."
	noLabelCallbackMessage  = "Authenticated, but no label is configured for sync. Set SYNC_LABEL_ID."
)

type syncResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	NewCount int    `json:"newCount"`
}

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{"AuthURL": s.deps.Auth.AuthURL(oauthState)})
}

func (s *Server) handleCallback(c *gin.Context) {
	if state := c.Query("state"); state != "" && state != oauthState {
		c.String(http.StatusBadRequest, "Invalid OAuth state.")
		return
	}

	result, err := s.deps.Auth.HandleCallback(c.Request.Context(), c.Query("code"))
	if err != nil {
		if errors.Is(err, service.ErrMissingCode) {
			c.String(http.StatusBadRequest, "Missing authorization code.")
			return
		}
		if errors.Is(err, service.ErrEmptyLabel) {
			c.String(http.StatusBadRequest, noLabelCallbackMessage)
			return
		}
		s.log.WithError(err).Error("Error during Google callback")
		c.String(http.StatusInternalServerError, "An error occurred during Google callback. Please try again.")
		return
	}

	c.HTML(http.StatusOK, "callback.html", gin.H{"NewCount": result.NewCount})
}

func (s *Server) handleEmails(c *gin.Context) {
	ctx := c.Request.Context()

	messages, err := s.deps.Messages.FindByLabel(ctx, s.settings.LabelID)
	if err != nil {
		s.log.WithError(err).Error("Error loading mirrored emails")
		c.String(http.StatusInternalServerError, "An error occurred.")
		return
	}

	labels, err := s.deps.Labels.List(ctx)
	if err != nil {
		s.log.WithError(err).Error("Error loading labels")
		c.String(http.StatusInternalServerError, "An error occurred.")
		return
	}

	c.HTML(http.StatusOK, "emails.html", gin.H{
		"LabelName":  labelName(labels, s.settings.LabelID),
		"Categories": view.Categorize(messages, labels, s.settings.AllowedCategories),
	})
}

func (s *Server) handleFetchLabels(c *gin.Context) {
	labels, err := s.deps.RemoteLabels.ListRemote(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrNotAuthenticated) {
			c.String(http.StatusBadRequest, notAuthenticatedMessage)
			return
		}
		s.log.WithError(err).Error("Error fetching labels")
		c.String(http.StatusInternalServerError, "Error fetching labels")
		return
	}

	c.JSON(http.StatusOK, labels)
}

func (s *Server) handleSyncEmails(c *gin.Context) {
	result, err := s.deps.Syncer.Run(c.Request.Context(), s.settings.LabelID, models.TriggerManual)
	if err != nil {
		if errors.Is(err, service.ErrNotAuthenticated) {
			c.JSON(http.StatusBadRequest, syncResponse{Message: notAuthenticatedMessage})
			return
		}
		if errors.Is(err, service.ErrEmptyLabel) {
			c.JSON(http.StatusBadRequest, syncResponse{Message: "No label configured for sync."})
			return
		}
		s.log.WithError(err).Error("Error during manual sync")
		c.JSON(http.StatusInternalServerError, syncResponse{Message: "An error occurred during sync."})
		return
	}

	c.JSON(http.StatusOK, syncResponse{
		Success:  true,
		Message:  fmt.Sprintf("%d new emails synced.", result.NewCount),
		NewCount: result.NewCount,
	})
}

func (s *Server) handleSyncRuns(c *gin.Context) {
	limit := defaultRunLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = min(n, maxRunLimit)
	}

	runs, err := s.deps.Syncer.Recent(c.Request.Context(), limit)
	if err != nil {
		s.log.WithError(err).Error("Error listing sync runs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list sync runs"})
		return
	}

	c.JSON(http.StatusOK, runs)
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.deps.DB != nil {
		if err := s.deps.DB.PingContext(c.Request.Context()); err != nil {
			s.log.WithError(err).Warn("Health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// labelName returns the stored name of labelID, or the id itself
func labelName(labels []models.Label, labelID string) string {
	for _, l := range labels {
		if l.ID == labelID {
			return l.Name
		}
	}
	return labelID
}
