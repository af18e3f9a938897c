package types

// Platform names the host OS the native bridge runs on.
type Platform string

const (
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
	PlatformWeb     Platform = "web"
)

// AppState mirrors the host application's lifecycle state.
type AppState string

const (
	AppStateActive     AppState = "active"
	AppStateInactive   AppState = "inactive"
	AppStateBackground AppState = "background"
)

// ShareIntentOptions configures the lifecycle controller. Every field is
// optional; nil pointers fall back to their defaults.
type ShareIntentOptions struct {
	Debug             bool     // verbose traces of refresh / reset / parse
	ResetOnBackground *bool    // default true
	Disabled          *bool    // default true only on PlatformWeb
	Scheme            string   // forced app scheme, wins over Schemes
	Schemes           []string // configured schemes, the first one is used
	Platform          Platform // default PlatformAndroid

	// OnResetShareIntent is called after a non-empty intent was cleared.
	OnResetShareIntent func()
}

// ResetsOnBackground resolves the ResetOnBackground default.
func (o ShareIntentOptions) ResetsOnBackground() bool {
	if o.ResetOnBackground == nil {
		return true
	}
	return *o.ResetOnBackground
}

// IsDisabled resolves the Disabled default.
func (o ShareIntentOptions) IsDisabled() bool {
	if o.Disabled == nil {
		return o.Platform == PlatformWeb
	}
	return *o.Disabled
}

// ResolvedPlatform returns Platform or its default.
func (o ShareIntentOptions) ResolvedPlatform() Platform {
	if o.Platform == "" {
		return PlatformAndroid
	}
	return o.Platform
}
