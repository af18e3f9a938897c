package types

// AppConfig represents the application configuration loaded from config file
type AppConfig struct {
	Scheme            string   `yaml:"scheme,omitempty"`
	Schemes           []string `yaml:"schemes,omitempty"`
	Platform          string   `yaml:"platform"`
	Debug             bool     `yaml:"debug"`
	ResetOnBackground bool     `yaml:"resetOnBackground"`
	Disabled          bool     `yaml:"disabled"`
	Port              int      `yaml:"port"`
	AppGroupDir       string   `yaml:"appGroupDir,omitempty"` // empty: in-memory app group
	PayloadTTL        int      `yaml:"payloadTTL"`            // seconds a staged payload stays readable
	RefreshRate       int      `yaml:"refreshRate"`           // refresh requests per second on the API, 0 = default
	NotifySocket      string   `yaml:"notifySocket,omitempty"`
	NotifyWS          bool     `yaml:"notifyWS"`
	AllowedOrigins    []string `yaml:"allowedOrigins"` // browser origins allowed on the API, "*" allows any
}

// Config holds runtime overrides from CLI flags
type Config struct {
	Log              string
	UseConfigPath    string
	UseScheme        string
	UsePlatform      string
	UsePort          int
	UseAppGroupDir   string
	UseNotifySocket  string
	UseOrigin        string // extra allowed browser origin
	SkipNotify       bool   // if true, skip unix socket notifications.
	KeepOnBackground bool   // if true, do not reset the intent when the app goes to background.
	UseDebug         bool
}
