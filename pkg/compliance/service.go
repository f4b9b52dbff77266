package compliance

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/autoaudit/compliance-gateway/pkg/graph"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Service fetches compliance data from the upstream directory API and maps
// it into gateway models.
type Service struct {
	graph  *graph.Client
	logger zerolog.Logger
}

// NewService creates a compliance service over the given upstream client.
func NewService(graphClient *graph.Client) *Service {
	if graphClient == nil {
		panic("graph client cannot be nil")
	}
	return &Service{
		graph:  graphClient,
		logger: log.With().Str("component", "compliance").Logger(),
	}
}

// MFASettings fetches the tenant authentication methods policy.
func (s *Service) MFASettings(ctx context.Context, token string) (*MFASettings, error) {
	var policy upstreamAuthMethodsPolicy
	if err := s.graph.GetJSON(ctx, token, "/policies/authenticationMethodsPolicy", nil, &policy); err != nil {
		s.logger.Error().Err(err).Msg("Failed to fetch MFA settings")
		return nil, err
	}

	settings := &MFASettings{
		ExcludedUsers:  []string{},
		MethodsAllowed: []string{},
	}
	for _, method := range policy.AuthenticationMethodConfigurations {
		if method.State == "enabled" {
			settings.MethodsAllowed = append(settings.MethodsAllowed, method.ID)
		}
	}
	settings.Enabled = len(settings.MethodsAllowed) > 0

	campaign := policy.RegistrationEnforcement.AuthenticationMethodsRegistrationCampaign
	settings.Enforced = campaign.State == "enabled"
	for _, target := range campaign.ExcludeTargets {
		settings.ExcludedUsers = append(settings.ExcludedUsers, target.ID)
	}

	return settings, nil
}

// ConditionalAccessPolicies fetches all conditional access policies.
func (s *Service) ConditionalAccessPolicies(ctx context.Context, token string) ([]ConditionalAccessPolicy, error) {
	var collection upstreamCollection[upstreamConditionalAccessPolicy]
	if err := s.graph.GetJSON(ctx, token, "/identity/conditionalAccess/policies", nil, &collection); err != nil {
		s.logger.Error().Err(err).Msg("Failed to fetch conditional access policies")
		return nil, err
	}

	policies := make([]ConditionalAccessPolicy, 0, len(collection.Value))
	for _, p := range collection.Value {
		policies = append(policies, ConditionalAccessPolicy{
			ID:               p.ID,
			DisplayName:      p.DisplayName,
			State:            p.State,
			Conditions:       p.Conditions,
			GrantControls:    p.GrantControls,
			CreatedDateTime:  p.CreatedDateTime,
			ModifiedDateTime: p.ModifiedDateTime,
		})
	}
	return policies, nil
}

// ExternalSharingSettings fetches the tenant sharing configuration.
func (s *Service) ExternalSharingSettings(ctx context.Context, token string) (*ExternalSharingSettings, error) {
	var settings upstreamSharingSettings
	if err := s.graph.GetJSON(ctx, token, "/admin/sharepoint/settings", nil, &settings); err != nil {
		s.logger.Error().Err(err).Msg("Failed to fetch external sharing settings")
		return nil, err
	}

	expiration := settings.RequireAnonymousLinksExpireInDays
	domains := settings.SharingAllowedDomainList
	if domains == nil {
		domains = []string{}
	}

	return &ExternalSharingSettings{
		SharingCapability:                settings.SharingCapability,
		AnonymousLinkEnabled:             settings.SharingCapability == "externalUserAndGuestSharing",
		RequireExternalSharingExpiration: expiration != nil && *expiration > 0,
		ExpirationDays:                   expiration,
		DomainsAllowed:                   domains,
	}, nil
}

// AdminRoleAssignments fetches directory roles with members expanded and
// flattens them to one assignment per (role, member) pair.
func (s *Service) AdminRoleAssignments(ctx context.Context, token string) ([]AdminRoleAssignment, error) {
	query := url.Values{"$expand": []string{"members"}}
	var collection upstreamCollection[upstreamDirectoryRole]
	if err := s.graph.GetJSON(ctx, token, "/directoryRoles", query, &collection); err != nil {
		s.logger.Error().Err(err).Msg("Failed to fetch admin role assignments")
		return nil, err
	}

	assignments := []AdminRoleAssignment{}
	for _, role := range collection.Value {
		for _, member := range role.Members {
			assignments = append(assignments, AdminRoleAssignment{
				RoleID:               role.ID,
				RoleName:             role.DisplayName,
				PrincipalID:          member.ID,
				PrincipalDisplayName: member.DisplayName,
				AssignedDateTime:     member.AssignedDateTime,
			})
		}
	}
	return assignments, nil
}

// Report runs all security checks concurrently and aggregates the results.
// A failing check is recorded by name in Report.Errors instead of failing
// the whole report.
func (s *Service) Report(ctx context.Context, token string) *Report {
	start := time.Now()
	report := &Report{
		GeneratedAt: start,
		Errors:      map[string]string{},
	}

	var mu sync.Mutex
	fail := func(check string, err error) {
		mu.Lock()
		report.Errors[check] = err.Error()
		mu.Unlock()
	}

	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		if mfa, err := s.MFASettings(ctx, token); err != nil {
			fail("mfa_settings", err)
		} else {
			report.MFA = mfa
		}
	}()

	go func() {
		defer wg.Done()
		if policies, err := s.ConditionalAccessPolicies(ctx, token); err != nil {
			fail("conditional_access", err)
		} else {
			report.ConditionalAccess = policies
		}
	}()

	go func() {
		defer wg.Done()
		if sharing, err := s.ExternalSharingSettings(ctx, token); err != nil {
			fail("external_sharing", err)
		} else {
			report.ExternalSharing = sharing
		}
	}()

	go func() {
		defer wg.Done()
		if roles, err := s.AdminRoleAssignments(ctx, token); err != nil {
			fail("admin_roles", err)
		} else {
			report.AdminRoles = roles
		}
	}()

	wg.Wait()

	if len(report.Errors) == 0 {
		report.Errors = nil
	}

	s.logger.Info().
		Int("failed_checks", len(report.Errors)).
		Dur("duration", time.Since(start)).
		Msg("Compliance report generated")
	return report
}
