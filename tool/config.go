package tool

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/moyoez/shareintent-go/types"
)

// ConfigPath is the config file used when LoadConfig gets an empty path.
var ConfigPath = "config.yaml"

// DefaultScheme is used when neither scheme nor schemes is configured.
const DefaultScheme = "shareintent"

func defaultConfig() types.AppConfig {
	return types.AppConfig{
		Platform:          string(types.PlatformAndroid),
		Debug:             false,
		ResetOnBackground: true,
		Disabled:          false,
		Port:              53318,
		PayloadTTL:        600,
		RefreshRate:       5,
		NotifyWS:          true,
		AllowedOrigins:    []string{"http://localhost:8081", "http://127.0.0.1:8081"},
	}
}

// LoadConfig reads path (or ConfigPath), writing a default config first when
// the file does not exist.
func LoadConfig(path string) (types.AppConfig, error) {
	if path == "" {
		path = ConfigPath
	}
	ConfigPath = path

	cfg := defaultConfig()

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			if writeErr := writeDefaultConfig(path, cfg); writeErr != nil {
				return cfg, fmt.Errorf("config file not found, and failed to generate default config: %v", writeErr)
			}
			DefaultLogger.Infof("Created new config file at %s", path)
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %v", err)
	}
	if info.IsDir() {
		return cfg, fmt.Errorf("config file path is a directory: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %v", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %v", err)
	}
	if err := ValidateConfig(cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// ValidateConfig rejects values the controller cannot work with.
func ValidateConfig(cfg types.AppConfig) error {
	switch types.Platform(strings.ToLower(cfg.Platform)) {
	case "", types.PlatformAndroid, types.PlatformIOS, types.PlatformWeb:
	default:
		return fmt.Errorf("unknown platform %q", cfg.Platform)
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port %d", cfg.Port)
	}
	if strings.Contains(cfg.Scheme, "://") {
		return fmt.Errorf("scheme must not contain \"://\": %q", cfg.Scheme)
	}
	for _, origin := range cfg.AllowedOrigins {
		if origin != "*" && !strings.Contains(origin, "://") {
			return fmt.Errorf("allowed origin must be \"*\" or scheme://host[:port]: %q", origin)
		}
	}
	return nil
}

func writeDefaultConfig(path string, cfg types.AppConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ToShareIntentOptions converts the file config into controller options.
func ToShareIntentOptions(cfg types.AppConfig) types.ShareIntentOptions {
	resetOnBackground := cfg.ResetOnBackground
	opts := types.ShareIntentOptions{
		Debug:             cfg.Debug,
		ResetOnBackground: &resetOnBackground,
		Scheme:            cfg.Scheme,
		Schemes:           cfg.Schemes,
		Platform:          types.Platform(strings.ToLower(cfg.Platform)),
	}
	if opts.Scheme == "" && len(opts.Schemes) == 0 {
		opts.Scheme = DefaultScheme
	}
	// left nil otherwise so the web platform stays disabled by default
	if cfg.Disabled {
		opts.Disabled = &cfg.Disabled
	}
	return opts
}

// PayloadTTL returns the app group payload lifetime.
func PayloadTTL(cfg types.AppConfig) time.Duration {
	if cfg.PayloadTTL <= 0 {
		return 0
	}
	return time.Duration(cfg.PayloadTTL) * time.Second
}
