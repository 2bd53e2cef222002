package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/vipul43/label-mirror/internal/models"
	"github.com/vipul43/label-mirror/internal/service"
	"github.com/vipul43/label-mirror/internal/view"
)

//go:embed templates/*.html
var templateFS embed.FS

// oauthState is sent with the consent URL and expected back on the callback
const oauthState = "label-mirror"

const (
	defaultRunLimit = 20
	maxRunLimit     = 100
)

// Authenticator drives the OAuth consent flow
type Authenticator interface {
	AuthURL(state string) string
	HandleCallback(ctx context.Context, code string) (*service.SyncResult, error)
}

// Syncer runs and lists synchronization passes
type Syncer interface {
	Run(ctx context.Context, labelID string, trigger models.SyncTrigger) (*service.SyncResult, error)
	Recent(ctx context.Context, limit int) ([]models.SyncRun, error)
}

// RemoteLabels lists the provider's labels
type RemoteLabels interface {
	ListRemote(ctx context.Context) ([]service.RemoteLabel, error)
}

// MessageReader reads the local mirror
type MessageReader interface {
	FindByLabel(ctx context.Context, labelID string) ([]models.Message, error)
}

// LabelReader reads the stored labels
type LabelReader interface {
	List(ctx context.Context) ([]models.Label, error)
}

// Pinger reports whether the store is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Auth         Authenticator
	Syncer       Syncer
	RemoteLabels RemoteLabels
	Messages     MessageReader
	Labels       LabelReader
	DB           Pinger // Optional: health checks skip the store when nil
}

type Settings struct {
	Port              int
	LabelID           string
	AllowedCategories []string
	Location          *time.Location
}

type Server struct {
	deps      Deps
	settings  Settings
	formatter *view.Formatter
	engine    *gin.Engine
	http      *http.Server
	log       logrus.FieldLogger
}

func New(deps Deps, settings Settings, log logrus.FieldLogger) (*Server, error) {
	s := &Server{
		deps:      deps,
		settings:  settings,
		formatter: view.NewFormatter(settings.Location),
		log:       log.WithField("component", "http"),
	}

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"formatTime": s.formatter.Format,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(s.log))
	engine.SetHTMLTemplate(tmpl)
	s.routes(engine)

	s.engine = engine
	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", settings.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(r *gin.Engine) {
	r.GET("/", s.handleIndex)
	r.GET("/google-callback", s.handleCallback)
	r.GET("/emails", s.handleEmails)
	r.GET("/fetch-labels", s.handleFetchLabels)
	r.GET("/sync-emails", s.handleSyncEmails)
	r.GET("/sync-runs", s.handleSyncRuns)
	r.GET("/healthz", s.handleHealth)
}

// Handler exposes the routes, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.log.WithField("addr", s.http.Addr).Info("Server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}).Debug("Request handled")
	}
}
