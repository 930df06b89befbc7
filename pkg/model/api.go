// Package model holds the management entities persisted by the repositories.
package model

import "time"

// Visibility controls who can see an API on the portal.
type Visibility string

const (
	VisibilityPublic  Visibility = "PUBLIC"
	VisibilityPrivate Visibility = "PRIVATE"
)

// Visibilities lists every known Visibility value.
var Visibilities = []Visibility{VisibilityPublic, VisibilityPrivate}

// LifecycleState is the runtime state of an API on the gateways.
type LifecycleState string

const (
	LifecycleStarted LifecycleState = "STARTED"
	LifecycleStopped LifecycleState = "STOPPED"
)

// LifecycleStates lists every known LifecycleState value.
var LifecycleStates = []LifecycleState{LifecycleStarted, LifecycleStopped}

// Api is a managed API.
//
// Labels keep their insertion order. Groups and Views behave as sets: the
// repositories never return duplicates but make no ordering promise.
type Api struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	Version        string         `json:"version,omitempty"`
	Definition     string         `json:"definition,omitempty"`
	DeployedAt     time.Time      `json:"deployed_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at,omitempty"`
	UpdatedAt      time.Time      `json:"updated_at,omitempty"`
	Visibility     Visibility     `json:"visibility,omitempty"`
	LifecycleState LifecycleState `json:"lifecycle_state,omitempty"`
	Picture        string         `json:"picture,omitempty"`
	Labels         []string       `json:"labels,omitempty"`
	Groups         []string       `json:"groups,omitempty"`
	Views          []string       `json:"views,omitempty"`
}

// AddView adds view to the API unless it is already present.
func (a *Api) AddView(view string) {
	for _, v := range a.Views {
		if v == view {
			return
		}
	}
	a.Views = append(a.Views, view)
}
