package inspect

import "time"

type SdkInspectResponse struct {
	Errors  []string       `json:"errors"`
	Success bool           `json:"success"`
	Values  map[string]any `json:"values"`
}

type BridgeInspectResult struct {
	Initialized   bool                  `json:"initialized"`
	CrossPlatform *CrossPlatformTag     `json:"crossPlatform"`
	Session       *SessionInspectDetail `json:"session,omitempty"`
	Events        *EventInspectDetail   `json:"events"`
}

type CrossPlatformTag struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type SessionInspectDetail struct {
	SessionId  string     `json:"sessionId"`
	Host       string     `json:"host,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	Ready      bool       `json:"ready"`
	ReadyAt    *time.Time `json:"readyAt,omitempty"`
	PendingOps int        `json:"pendingOps"`
	HasResult  bool       `json:"hasResult"`
	LastError  string     `json:"lastError,omitempty"`
}

type EventInspectDetail struct {
	Emitted        int64    `json:"emitted"`
	Suppressed     int64    `json:"suppressed"`
	Dropped        int64    `json:"dropped"`
	AttributesSent int64    `json:"attributesSent"`
	Subscribers    int      `json:"subscribers"`
	Listeners      []string `json:"listeners,omitempty"`
}
