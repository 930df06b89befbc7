package model

import "time"

// IdentityProviderType identifies the protocol spoken by an identity provider.
type IdentityProviderType string

const (
	IdentityProviderGraviteeAM IdentityProviderType = "GRAVITEEIO_AM"
	IdentityProviderGoogle     IdentityProviderType = "GOOGLE"
	IdentityProviderGitHub     IdentityProviderType = "GITHUB"
	IdentityProviderOIDC       IdentityProviderType = "OIDC"
)

// IdentityProviderTypes lists every known IdentityProviderType value.
var IdentityProviderTypes = []IdentityProviderType{
	IdentityProviderGraviteeAM,
	IdentityProviderGoogle,
	IdentityProviderGitHub,
	IdentityProviderOIDC,
}

// IdentityProvider is an external authentication source for portal users.
//
// Configuration and the mapping fields are opaque to the repository and
// stored as JSON objects. A nil map means the column is absent.
type IdentityProvider struct {
	ID                 string               `json:"id"`
	Name               string               `json:"name"`
	Description        string               `json:"description,omitempty"`
	Type               IdentityProviderType `json:"type"`
	Enabled            bool                 `json:"enabled"`
	CreatedAt          time.Time            `json:"created_at,omitempty"`
	UpdatedAt          time.Time            `json:"updated_at,omitempty"`
	Configuration      map[string]any       `json:"configuration,omitempty"`
	GroupMappings      map[string][]string  `json:"group_mappings,omitempty"`
	RoleMappings       map[string][]string  `json:"role_mappings,omitempty"`
	UserProfileMapping map[string]string    `json:"user_profile_mapping,omitempty"`
}
