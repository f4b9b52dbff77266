// Package compliance maps upstream directory API payloads into the gateway's
// security compliance models.
package compliance

import "time"

// MFASettings describes the tenant's multi-factor authentication posture.
type MFASettings struct {
	Enabled        bool     `json:"enabled"`
	Enforced       bool     `json:"enforced"`
	ExcludedUsers  []string `json:"excluded_users"`
	MethodsAllowed []string `json:"methods_allowed"`
}

// ConditionalAccessPolicy is a single conditional access policy.
type ConditionalAccessPolicy struct {
	ID               string         `json:"id"`
	DisplayName      string         `json:"display_name"`
	State            string         `json:"state"`
	Conditions       map[string]any `json:"conditions"`
	GrantControls    map[string]any `json:"grant_controls"`
	CreatedDateTime  time.Time      `json:"created_datetime"`
	ModifiedDateTime time.Time      `json:"modified_datetime"`
}

// ExternalSharingSettings describes tenant-wide external sharing policy.
type ExternalSharingSettings struct {
	SharingCapability                string   `json:"sharing_capability"`
	AnonymousLinkEnabled             bool     `json:"anonymous_link_enabled"`
	RequireExternalSharingExpiration bool     `json:"require_external_sharing_expiration"`
	ExpirationDays                   *int     `json:"expiration_days"`
	DomainsAllowed                   []string `json:"domains_allowed"`
}

// AdminRoleAssignment is one (role, principal) pair flattened from the
// upstream role collection.
type AdminRoleAssignment struct {
	RoleID               string     `json:"role_id"`
	RoleName             string     `json:"role_name"`
	PrincipalID          string     `json:"principal_id"`
	PrincipalDisplayName string     `json:"principal_display_name"`
	AssignedDateTime     *time.Time `json:"assigned_datetime"`
}

// Report aggregates all security checks. Checks that failed upstream are
// reported by name in Errors; the rest carry data (partial results rather
// than all-or-nothing).
type Report struct {
	GeneratedAt       time.Time                 `json:"generated_at"`
	MFA               *MFASettings              `json:"mfa_settings,omitempty"`
	ConditionalAccess []ConditionalAccessPolicy `json:"conditional_access,omitempty"`
	ExternalSharing   *ExternalSharingSettings  `json:"external_sharing,omitempty"`
	AdminRoles        []AdminRoleAssignment     `json:"admin_roles,omitempty"`
	Errors            map[string]string         `json:"errors,omitempty"`
}

// Upstream wire shapes. The gateway decodes the upstream's camelCase fields
// and re-exposes them under its own stable names above.

type upstreamAuthMethodsPolicy struct {
	RegistrationEnforcement struct {
		AuthenticationMethodsRegistrationCampaign struct {
			State          string `json:"state"`
			ExcludeTargets []struct {
				ID string `json:"id"`
			} `json:"excludeTargets"`
		} `json:"authenticationMethodsRegistrationCampaign"`
	} `json:"registrationEnforcement"`
	AuthenticationMethodConfigurations []struct {
		ID    string `json:"id"`
		State string `json:"state"`
	} `json:"authenticationMethodConfigurations"`
}

type upstreamConditionalAccessPolicy struct {
	ID               string         `json:"id"`
	DisplayName      string         `json:"displayName"`
	State            string         `json:"state"`
	Conditions       map[string]any `json:"conditions"`
	GrantControls    map[string]any `json:"grantControls"`
	CreatedDateTime  time.Time      `json:"createdDateTime"`
	ModifiedDateTime time.Time      `json:"modifiedDateTime"`
}

type upstreamSharingSettings struct {
	SharingCapability                 string   `json:"sharingCapability"`
	RequireAnonymousLinksExpireInDays *int     `json:"requireAnonymousLinksExpireInDays"`
	SharingAllowedDomainList          []string `json:"sharingAllowedDomainList"`
}

type upstreamDirectoryRole struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Members     []struct {
		ID               string     `json:"id"`
		DisplayName      string     `json:"displayName"`
		AssignedDateTime *time.Time `json:"assignedDateTime"`
	} `json:"members"`
}

type upstreamCollection[T any] struct {
	Value []T `json:"value"`
}
