package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/moyoez/shareintent-go/api"
	"github.com/moyoez/shareintent-go/api/models"
	"github.com/moyoez/shareintent-go/api/notifyhub"
	"github.com/moyoez/shareintent-go/bridge"
	"github.com/moyoez/shareintent-go/lifecycle"
	"github.com/moyoez/shareintent-go/notify"
	"github.com/moyoez/shareintent-go/tool"
	"github.com/moyoez/shareintent-go/types"
)

func main() {
	cfg := tool.SetFlags()
	appCfg, err := tool.LoadConfig(cfg.UseConfigPath)
	if err != nil {
		tool.DefaultLogger.Fatalf("%v", err)
	}
	tool.ApplyFlagOverrides(&appCfg, cfg)
	if err := tool.ValidateConfig(appCfg); err != nil {
		tool.DefaultLogger.Fatalf("%v", err)
	}

	// initialize logger
	tool.InitLogger()
	tool.SetLogMode(cfg.Log)

	if cfg.SkipNotify {
		notify.SetUseNotify(false)
	}
	if appCfg.NotifySocket != "" {
		notify.DefaultUnixSocketPath = appCfg.NotifySocket
	}

	var store bridge.Store
	if appCfg.AppGroupDir != "" {
		dirStore, err := bridge.NewDirStore(appCfg.AppGroupDir)
		if err != nil {
			tool.DefaultLogger.Fatalf("App group setup failed: %v", err)
		}
		store = dirStore
		tool.DefaultLogger.Infof("Watching app group %s", appCfg.AppGroupDir)
	} else {
		store = bridge.NewMemoryStore(tool.PayloadTTL(appCfg))
	}

	opts := tool.ToShareIntentOptions(appCfg)
	local, err := bridge.NewLocal(opts.ResolvedPlatform(), store)
	if err != nil {
		tool.DefaultLogger.Fatalf("Native bridge setup failed: %v", err)
	}
	ctrl := lifecycle.New(local, opts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var hub types.NotifyHub
	if appCfg.NotifyWS {
		h := notifyhub.New()
		models.SetNotifyHub(h)
		hub = h
	}
	// watch before starting so the first fetch is seen as a transition
	watcher := ctrl.Watch()
	if err := ctrl.Start(); err != nil {
		tool.DefaultLogger.Warnf("Share intent controller not started: %v", err)
	}

	apiServer := api.NewServer(appCfg.Port, ctrl, float64(appCfg.RefreshRate), appCfg.AllowedOrigins)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		notify.Forward(gctx, watcher.C(), hub, appCfg.NotifySocket)
		return nil
	})
	g.Go(func() error {
		if err := apiServer.Start(); err != nil {
			return fmt.Errorf("API server startup failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		tool.DefaultLogger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			tool.DefaultLogger.Errorf("API server shutdown failed: %v", err)
		}
		ctrl.Close()
		return nil
	})
	if err := g.Wait(); err != nil {
		tool.DefaultLogger.Errorf("%v", err)
	}
	if err := local.Close(); err != nil {
		tool.DefaultLogger.Errorf("Native bridge close failed: %v", err)
	}
}
