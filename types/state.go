package types

// ControllerState is the lifecycle controller's fetch state.
type ControllerState string

const (
	StateIdle     ControllerState = "idle"     // nothing fetched yet
	StateFetching ControllerState = "fetching" // a fetch request is outstanding
	StateReady    ControllerState = "ready"    // an up-to-date intent is held, possibly empty
	StateError    ControllerState = "error"    // last fetch or parse failed, previous intent retained
)

// Snapshot is a read-only view of the controller handed to consumers.
type Snapshot struct {
	State          ControllerState  `json:"state"`
	IsReady        bool             `json:"isReady"`
	HasShareIntent bool             `json:"hasShareIntent"`
	ShareIntent    ShareIntent      `json:"shareIntent"`
	Error          *string          `json:"error"`
	Pending        bool             `json:"pending"`
	LastDonation   *DonateEventData `json:"lastDonation,omitempty"`
	Generation     uint64           `json:"generation"`
}
