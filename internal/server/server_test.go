package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nalgeon/be"
	"github.com/sirupsen/logrus"

	"github.com/vipul43/label-mirror/internal/models"
	"github.com/vipul43/label-mirror/internal/service"
)

const testLabel = "Label_1682749667683246852"

type mockAuth struct {
	handleCallbackFunc func(ctx context.Context, code string) (*service.SyncResult, error)
}

func (m *mockAuth) AuthURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (m *mockAuth) HandleCallback(ctx context.Context, code string) (*service.SyncResult, error) {
	return m.handleCallbackFunc(ctx, code)
}

type mockSyncer struct {
	runFunc    func(ctx context.Context, labelID string, trigger models.SyncTrigger) (*service.SyncResult, error)
	recentFunc func(ctx context.Context, limit int) ([]models.SyncRun, error)
}

func (m *mockSyncer) Run(ctx context.Context, labelID string, trigger models.SyncTrigger) (*service.SyncResult, error) {
	return m.runFunc(ctx, labelID, trigger)
}

func (m *mockSyncer) Recent(ctx context.Context, limit int) ([]models.SyncRun, error) {
	return m.recentFunc(ctx, limit)
}

type mockRemoteLabels struct {
	listRemoteFunc func(ctx context.Context) ([]service.RemoteLabel, error)
}

func (m *mockRemoteLabels) ListRemote(ctx context.Context) ([]service.RemoteLabel, error) {
	return m.listRemoteFunc(ctx)
}

type mockMessages struct {
	findByLabelFunc func(ctx context.Context, labelID string) ([]models.Message, error)
}

func (m *mockMessages) FindByLabel(ctx context.Context, labelID string) ([]models.Message, error) {
	return m.findByLabelFunc(ctx, labelID)
}

type mockLabels struct {
	listFunc func(ctx context.Context) ([]models.Label, error)
}

func (m *mockLabels) List(ctx context.Context) ([]models.Label, error) {
	return m.listFunc(ctx)
}

type mockPinger struct {
	err error
}

func (m *mockPinger) PingContext(ctx context.Context) error {
	return m.err
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, deps Deps) http.Handler {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	s, err := New(deps, Settings{
		Port:              3000,
		LabelID:           testLabel,
		AllowedCategories: []string{"SENT", "INBOX", "IMPORTANT", "STARRED", "CATEGORY_PERSONAL", "UNREAD"},
		Location:          time.UTC,
	}, log)
	be.Err(t, err, nil)
	return s.Handler()
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestServer_Index(t *testing.T) {
	h := newTestServer(t, Deps{Auth: &mockAuth{}})

	rec := get(t, h, "/")

	be.Equal(t, rec.Code, http.StatusOK)
	be.True(t, strings.Contains(rec.Body.String(), "Auth with Google"))
	be.True(t, strings.Contains(rec.Body.String(), "state="+oauthState))
}

func TestServer_Callback_Success(t *testing.T) {
	var gotCode string
	h := newTestServer(t, Deps{Auth: &mockAuth{
		handleCallbackFunc: func(ctx context.Context, code string) (*service.SyncResult, error) {
			gotCode = code
			return &service.SyncResult{LabelID: testLabel, NewCount: 3}, nil
		},
	}})

	rec := get(t, h, "/google-callback?code=abc&state="+oauthState)

	be.Equal(t, rec.Code, http.StatusOK)
	be.Equal(t, gotCode, "abc")
	be.True(t, strings.Contains(rec.Body.String(), "3 new email(s) added to the database."))
}

func TestServer_Callback_MissingCode(t *testing.T) {
	h := newTestServer(t, Deps{Auth: &mockAuth{
		handleCallbackFunc: func(ctx context.Context, code string) (*service.SyncResult, error) {
			return nil, service.ErrMissingCode
		},
	}})

	rec := get(t, h, "/google-callback")
	be.Equal(t, rec.Code, http.StatusBadRequest)
}

func TestServer_Callback_NoLabelConfigured(t *testing.T) {
	h := newTestServer(t, Deps{Auth: &mockAuth{
		handleCallbackFunc: func(ctx context.Context, code string) (*service.SyncResult, error) {
			return nil, service.ErrEmptyLabel
		},
	}})

	rec := get(t, h, "/google-callback?code=abc")

	be.Equal(t, rec.Code, http.StatusBadRequest)
	be.Equal(t, rec.Body.String(), noLabelCallbackMessage)
}

func TestServer_Callback_InvalidState(t *testing.T) {
	called := false
	h := newTestServer(t, Deps{Auth: &mockAuth{
		handleCallbackFunc: func(ctx context.Context, code string) (*service.SyncResult, error) {
			called = true
			return &service.SyncResult{}, nil
		},
	}})

	rec := get(t, h, "/google-callback?code=abc&state=forged")

	be.Equal(t, rec.Code, http.StatusBadRequest)
	be.True(t, !called)
}

func TestServer_Callback_Failure(t *testing.T) {
	h := newTestServer(t, Deps{Auth: &mockAuth{
		handleCallbackFunc: func(ctx context.Context, code string) (*service.SyncResult, error) {
			return nil, fmt.Errorf("%w: boom", service.ErrRemoteUnavailable)
		},
	}})

	rec := get(t, h, "/google-callback?code=abc")

	be.Equal(t, rec.Code, http.StatusInternalServerError)
	be.True(t, !strings.Contains(rec.Body.String(), "boom"))
}

func TestServer_Emails(t *testing.T) {
	var gotLabel string
	h := newTestServer(t, Deps{
		Messages: &mockMessages{findByLabelFunc: func(ctx context.Context, labelID string) ([]models.Message, error) {
			gotLabel = labelID
			return []models.Message{{
				ID:           "m1",
				Subject:      "Quarterly <report>",
				Sender:       "Jane Doe",
				InternalDate: time.UnixMilli(1700000000000).UTC(),
				Labels: []models.MessageLabel{
					{MessageID: "m1", LabelID: testLabel},
					{MessageID: "m1", LabelID: "CATEGORY_PERSONAL"},
				},
			}}, nil
		}},
		Labels: &mockLabels{listFunc: func(ctx context.Context) ([]models.Label, error) {
			return []models.Label{
				{ID: testLabel, Name: "Bamboobox"},
				{ID: "CATEGORY_PERSONAL", Name: "CATEGORY_PERSONAL"},
				{ID: "INBOX", Name: "INBOX"},
			}, nil
		}},
	})

	rec := get(t, h, "/emails")
	body := rec.Body.String()

	be.Equal(t, rec.Code, http.StatusOK)
	be.Equal(t, gotLabel, testLabel)
	be.True(t, strings.Contains(body, "<h1>Bamboobox Emails</h1>"))
	be.True(t, strings.Contains(body, "<h2>PERSONAL</h2>"))
	be.True(t, strings.Contains(body, "<h2>INBOX</h2>"))
	be.True(t, strings.Contains(body, "No emails in this category."))
	be.True(t, strings.Contains(body, "Jane Doe"))
	be.True(t, strings.Contains(body, "Quarterly &lt;report&gt;"))
	be.True(t, strings.Contains(body, "11/14/2023, 10:13:20 PM"))
	be.True(t, strings.Contains(body, "Sync Now"))
}

func TestServer_Emails_Empty(t *testing.T) {
	h := newTestServer(t, Deps{
		Messages: &mockMessages{findByLabelFunc: func(ctx context.Context, labelID string) ([]models.Message, error) {
			return nil, nil
		}},
		Labels: &mockLabels{listFunc: func(ctx context.Context) ([]models.Label, error) {
			return nil, nil
		}},
	})

	rec := get(t, h, "/emails")

	be.Equal(t, rec.Code, http.StatusOK)
	be.True(t, strings.Contains(rec.Body.String(), "No emails found under the"))
}

func TestServer_Emails_StoreFailure(t *testing.T) {
	h := newTestServer(t, Deps{
		Messages: &mockMessages{findByLabelFunc: func(ctx context.Context, labelID string) ([]models.Message, error) {
			return nil, errors.New("connection refused")
		}},
	})

	rec := get(t, h, "/emails")
	be.Equal(t, rec.Code, http.StatusInternalServerError)
}

func TestServer_FetchLabels(t *testing.T) {
	h := newTestServer(t, Deps{RemoteLabels: &mockRemoteLabels{
		listRemoteFunc: func(ctx context.Context) ([]service.RemoteLabel, error) {
			return []service.RemoteLabel{{ID: "INBOX", Name: "INBOX", Type: "system"}}, nil
		},
	}})

	rec := get(t, h, "/fetch-labels")

	be.Equal(t, rec.Code, http.StatusOK)
	var labels []service.RemoteLabel
	be.Err(t, json.Unmarshal(rec.Body.Bytes(), &labels), nil)
	be.Equal(t, labels, []service.RemoteLabel{{ID: "INBOX", Name: "INBOX", Type: "system"}})
}

func TestServer_FetchLabels_NotAuthenticated(t *testing.T) {
	h := newTestServer(t, Deps{RemoteLabels: &mockRemoteLabels{
		listRemoteFunc: func(ctx context.Context) ([]service.RemoteLabel, error) {
			return nil, fmt.Errorf("%w: failed to list labels: %w", service.ErrRemoteUnavailable, service.ErrNotAuthenticated)
		},
	}})

	rec := get(t, h, "/fetch-labels")

	be.Equal(t, rec.Code, http.StatusBadRequest)
	be.Equal(t, rec.Body.String(), notAuthenticatedMessage)
}

func TestServer_FetchLabels_Failure(t *testing.T) {
	h := newTestServer(t, Deps{RemoteLabels: &mockRemoteLabels{
		listRemoteFunc: func(ctx context.Context) ([]service.RemoteLabel, error) {
			return nil, service.ErrRemoteUnavailable
		},
	}})

	rec := get(t, h, "/fetch-labels")
	be.Equal(t, rec.Code, http.StatusInternalServerError)
}

func TestServer_SyncEmails(t *testing.T) {
	var gotLabel string
	var gotTrigger models.SyncTrigger
	h := newTestServer(t, Deps{Syncer: &mockSyncer{
		runFunc: func(ctx context.Context, labelID string, trigger models.SyncTrigger) (*service.SyncResult, error) {
			gotLabel, gotTrigger = labelID, trigger
			return &service.SyncResult{LabelID: labelID, NewCount: 2}, nil
		},
	}})

	rec := get(t, h, "/sync-emails")

	be.Equal(t, rec.Code, http.StatusOK)
	be.Equal(t, gotLabel, testLabel)
	be.Equal(t, gotTrigger, models.TriggerManual)

	var resp syncResponse
	be.Err(t, json.Unmarshal(rec.Body.Bytes(), &resp), nil)
	be.Equal(t, resp, syncResponse{Success: true, Message: "2 new emails synced.", NewCount: 2})
}

func TestServer_SyncEmails_Failure(t *testing.T) {
	h := newTestServer(t, Deps{Syncer: &mockSyncer{
		runFunc: func(ctx context.Context, labelID string, trigger models.SyncTrigger) (*service.SyncResult, error) {
			return nil, service.ErrStoreUnavailable
		},
	}})

	rec := get(t, h, "/sync-emails")

	be.Equal(t, rec.Code, http.StatusInternalServerError)
	var resp syncResponse
	be.Err(t, json.Unmarshal(rec.Body.Bytes(), &resp), nil)
	be.Equal(t, resp.Success, false)
	be.Equal(t, resp.Message, "An error occurred during sync.")
}

func TestServer_SyncEmails_NotAuthenticated(t *testing.T) {
	h := newTestServer(t, Deps{Syncer: &mockSyncer{
		runFunc: func(ctx context.Context, labelID string, trigger models.SyncTrigger) (*service.SyncResult, error) {
			return nil, fmt.Errorf("%w: failed to list message ids: %w", service.ErrRemoteUnavailable, service.ErrNotAuthenticated)
		},
	}})

	rec := get(t, h, "/sync-emails")
	be.Equal(t, rec.Code, http.StatusBadRequest)
}

func TestServer_SyncRuns(t *testing.T) {
	var gotLimit int
	h := newTestServer(t, Deps{Syncer: &mockSyncer{
		recentFunc: func(ctx context.Context, limit int) ([]models.SyncRun, error) {
			gotLimit = limit
			return []models.SyncRun{{ID: "run-1", LabelID: testLabel, Status: models.SyncStatusCompleted, NewCount: 1}}, nil
		},
	}})

	rec := get(t, h, "/sync-runs")

	be.Equal(t, rec.Code, http.StatusOK)
	be.Equal(t, gotLimit, defaultRunLimit)
	var runs []models.SyncRun
	be.Err(t, json.Unmarshal(rec.Body.Bytes(), &runs), nil)
	be.Equal(t, len(runs), 1)
	be.Equal(t, runs[0].ID, "run-1")
	be.Equal(t, runs[0].Status, models.SyncStatusCompleted)

	get(t, h, "/sync-runs?limit=500")
	be.Equal(t, gotLimit, maxRunLimit)

	rec = get(t, h, "/sync-runs?limit=abc")
	be.Equal(t, rec.Code, http.StatusBadRequest)
}

func TestServer_Health(t *testing.T) {
	h := newTestServer(t, Deps{DB: &mockPinger{}})
	be.Equal(t, get(t, h, "/healthz").Code, http.StatusOK)

	h = newTestServer(t, Deps{DB: &mockPinger{err: errors.New("down")}})
	be.Equal(t, get(t, h, "/healthz").Code, http.StatusServiceUnavailable)
}
