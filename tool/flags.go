package tool

import (
	"flag"
	"slices"

	"github.com/moyoez/shareintent-go/types"
)

// SetFlags parses CLI flags and returns the override config.
func SetFlags() types.Config {
	var cfg types.Config
	flag.StringVar(&cfg.Log, "log", "", "log mode: dev|prod|none")
	flag.StringVar(&cfg.UseConfigPath, "useConfigPath", "", "override config file path")
	flag.StringVar(&cfg.UseScheme, "useScheme", "", "override app scheme used for share extension links")
	flag.StringVar(&cfg.UsePlatform, "usePlatform", "", "emulated platform: android|ios|web")
	flag.IntVar(&cfg.UsePort, "usePort", 0, "override API port")
	flag.StringVar(&cfg.UseAppGroupDir, "useAppGroupDir", "", "app group directory watched for share extension payloads")
	flag.StringVar(&cfg.UseNotifySocket, "useNotifySocket", "", "unix socket receiving share notifications")
	flag.StringVar(&cfg.UseOrigin, "useOrigin", "", "additional browser origin allowed to call the API")
	flag.BoolVar(&cfg.SkipNotify, "skipNotify", false, "if true, do not send unix socket notifications")
	flag.BoolVar(&cfg.KeepOnBackground, "keepOnBackground", false, "if true, keep the share intent when the app goes to background")
	flag.BoolVar(&cfg.UseDebug, "debug", false, "verbose share intent traces")
	flag.Parse()
	return cfg
}

// ApplyFlagOverrides merges non-zero flag values into cfg.
func ApplyFlagOverrides(cfg *types.AppConfig, flags types.Config) {
	if flags.UseScheme != "" {
		cfg.Scheme = flags.UseScheme
	}
	if flags.UsePlatform != "" {
		cfg.Platform = flags.UsePlatform
	}
	if flags.UsePort > 0 {
		cfg.Port = flags.UsePort
	}
	if flags.UseAppGroupDir != "" {
		cfg.AppGroupDir = flags.UseAppGroupDir
	}
	if flags.UseNotifySocket != "" {
		cfg.NotifySocket = flags.UseNotifySocket
	}
	if flags.UseOrigin != "" && !slices.Contains(cfg.AllowedOrigins, flags.UseOrigin) {
		cfg.AllowedOrigins = append(cfg.AllowedOrigins, flags.UseOrigin)
	}
	if flags.KeepOnBackground {
		cfg.ResetOnBackground = false
	}
	if flags.UseDebug {
		cfg.Debug = true
	}
}
