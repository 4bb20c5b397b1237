package openstack

import (
	"context"
	"net/http"

	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack"
	"github.com/pkg/errors"
)

// Session is an authenticated connection to OpenStack that hands out one
// cached client per service.  It is owned by a single plugin instance and is
// not safe for concurrent use.
type Session struct {
	settings   Settings
	httpClient *http.Client

	provider *gophercloud.ProviderClient
	identity *gophercloud.ServiceClient
	compute  *gophercloud.ServiceClient
}

// NewSession creates a session that isn't connected yet.  httpClient may be
// nil to use the default client.
func NewSession(settings Settings, httpClient *http.Client) *Session {
	return &Session{
		settings:   settings,
		httpClient: httpClient,
	}
}

// Connect authenticates against the identity service with the configured
// password credentials.  The legacy version gets a tenant scoped v2.0 token
// and the current version gets a project scoped v3 token.  Expired tokens are
// renewed automatically afterwards.  Requests made through the session use
// ctx, so cancelling it aborts them.
func (s *Session) Connect(ctx context.Context) error {
	if _, err := s.availability(); err != nil {
		return err
	}

	provider, err := openstack.NewClient(s.settings.AuthURL)
	if err != nil {
		return errors.Wrapf(err, "invalid auth URL %s", s.settings.AuthURL)
	}
	if s.httpClient != nil {
		provider.HTTPClient = *s.httpClient
	}
	provider.Context = ctx

	if s.settings.Legacy() {
		err = openstack.AuthenticateV2(provider, gophercloud.AuthOptions{
			IdentityEndpoint: s.settings.AuthURL,
			Username:         s.settings.Username,
			Password:         s.settings.Password,
			TenantName:       s.settings.TenantName,
			AllowReauth:      true,
		}, gophercloud.EndpointOpts{})
	} else {
		err = openstack.AuthenticateV3(provider, &gophercloud.AuthOptions{
			IdentityEndpoint: s.settings.AuthURL,
			Username:         s.settings.Username,
			Password:         s.settings.Password,
			DomainID:         s.settings.UserDomain,
			AllowReauth:      true,
			Scope: &gophercloud.AuthScope{
				ProjectName: s.settings.ProjectName,
				DomainID:    s.settings.ProjectDomain,
			},
		}, gophercloud.EndpointOpts{})
	}
	if err != nil {
		return errors.Wrapf(err, "could not authenticate as %s against %s", s.settings.Username, s.settings.AuthURL)
	}

	s.provider = provider
	return nil
}

// Identity returns the identity client, v2.0 or v3 depending on the
// configured version.  Without a region or endpoint type it talks to the
// auth URL directly instead of looking it up in the catalog.
func (s *Session) Identity() (*gophercloud.ServiceClient, error) {
	if s.identity != nil {
		return s.identity, nil
	}
	if s.provider == nil {
		return nil, errors.New("session is not connected")
	}

	var eo gophercloud.EndpointOpts
	if s.settings.Region != "" || s.settings.EndpointType != "" {
		eo = s.endpointOpts()
	}

	var err error
	if s.settings.Legacy() {
		s.identity, err = openstack.NewIdentityV2(s.provider, eo)
	} else {
		s.identity, err = openstack.NewIdentityV3(s.provider, eo)
	}
	return s.identity, errors.Wrap(err, "could not create identity client")
}

// Compute returns the compute v2 client
func (s *Session) Compute() (*gophercloud.ServiceClient, error) {
	if s.compute != nil {
		return s.compute, nil
	}
	if s.provider == nil {
		return nil, errors.New("session is not connected")
	}

	var err error
	s.compute, err = openstack.NewComputeV2(s.provider, s.endpointOpts())
	return s.compute, errors.Wrap(err, "could not create compute client")
}

func (s *Session) endpointOpts() gophercloud.EndpointOpts {
	availability, _ := s.availability()
	return gophercloud.EndpointOpts{
		Region:       s.settings.Region,
		Availability: availability,
	}
}

func (s *Session) availability() (gophercloud.Availability, error) {
	switch s.settings.EndpointType {
	case "", "public", "publicURL":
		return gophercloud.AvailabilityPublic, nil
	case "internal", "internalURL":
		return gophercloud.AvailabilityInternal, nil
	case "admin", "adminURL":
		return gophercloud.AvailabilityAdmin, nil
	default:
		return "", errors.Errorf("unknown endpoint type %q", s.settings.EndpointType)
	}
}
