package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/moyoez/shareintent-go/api/controllers"
	"github.com/moyoez/shareintent-go/api/middlewares"
	"github.com/moyoez/shareintent-go/api/models"
	"github.com/moyoez/shareintent-go/lifecycle"
	"github.com/moyoez/shareintent-go/tool"
)

// DefaultRefreshRate is the number of refresh-triggering requests allowed
// per second when none is configured.
const DefaultRefreshRate = 5

// Server is the local HTTP surface over a lifecycle controller.
type Server struct {
	port        int
	ctrl        *lifecycle.Controller
	refreshRate float64
	origins     []string
	engine      *gin.Engine
	server      *http.Server
	mu          sync.RWMutex
}

// NewServer creates an API server for ctrl. refreshRate <= 0 selects
// DefaultRefreshRate. Browser requests are accepted only from origins.
func NewServer(port int, ctrl *lifecycle.Controller, refreshRate float64, origins []string) *Server {
	if refreshRate <= 0 {
		refreshRate = DefaultRefreshRate
	}
	return &Server{
		port:        port,
		ctrl:        ctrl,
		refreshRate: refreshRate,
		origins:     origins,
	}
}

func (s *Server) setupRoutes() *gin.Engine {
	if tool.DefaultLogger.GetLevel() == log.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middlewares.AllowOrigins(s.origins))

	ctl := controllers.NewShareIntentController(s.ctrl)
	// app-state, url and refresh may all end in a bridge fetch
	limiter := rate.NewLimiter(rate.Limit(s.refreshRate), int(s.refreshRate)+1)
	limited := middlewares.RateLimit(limiter)

	v1 := engine.Group("/api/shareintent/v1", middlewares.OnlyAllowLocal)
	{
		v1.GET("/intent", ctl.HandleGetIntent)
		v1.GET("/status", ctl.HandleStatus)
		v1.POST("/refresh", limited, ctl.HandleRefresh)
		v1.POST("/reset", ctl.HandleReset)
		v1.POST("/app-state", limited, ctl.HandleAppState)
		v1.POST("/url", limited, ctl.HandleURL)
		v1.POST("/donate", ctl.HandleDonate)
		v1.POST("/direct-share-targets", ctl.HandlePublishDirectShareTargets)
		v1.POST("/shortcuts/:id/used", ctl.HandleShortcutUsed)
		v1.DELETE("/shortcuts/:id", ctl.HandleRemoveShortcut)
		v1.DELETE("/shortcuts", ctl.HandleRemoveAllShortcuts)
		v1.GET("/qrcode", ctl.HandleQRCode)
		if hub := models.GetNotifyHub(); hub != nil {
			v1.GET("/notify-ws", ctl.HandleNotifyWS(hub, s.origins))
		}
	}
	return engine
}

// Start starts the HTTP server and blocks until it stops. It returns nil
// after Shutdown.
func (s *Server) Start() error {
	engine := s.setupRoutes()

	s.mu.Lock()
	s.engine = engine
	s.server = &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler: engine,
	}
	srv := s.server
	s.mu.Unlock()

	tool.DefaultLogger.Infof("Starting API server on http://127.0.0.1:%d", s.port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops a started server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv := s.server
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
