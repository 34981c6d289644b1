package ldap

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeResolver answers SRV lookups from a fixed table keyed by service name.
type fakeResolver struct {
	records map[string][]*net.SRV
	lookups []string
}

func (f *fakeResolver) LookupSRV(_ context.Context, _, _, name string) (string, []*net.SRV, error) {
	f.lookups = append(f.lookups, name)
	records, ok := f.records[name]
	if !ok {
		return "", nil, errors.New("no such host")
	}
	return name, records, nil
}

func TestSRVDiscovery_DiscoverServers(t *testing.T) {
	t.Run("ldaps records end the lookup", func(t *testing.T) {
		resolver := &fakeResolver{records: map[string][]*net.SRV{
			"_ldaps._tcp.example.com": {
				{Target: "dc2.example.com.", Port: 636, Priority: 10, Weight: 50},
				{Target: "dc1.example.com.", Port: 636, Priority: 0, Weight: 100},
			},
			"_ldap._tcp.example.com": {
				{Target: "dc3.example.com.", Port: 389},
			},
		}}

		servers, err := NewSRVDiscovery(resolver).DiscoverServers(context.Background(), "example.com")
		require.NoError(t, err)
		require.Len(t, servers, 2)

		assert.Equal(t, "dc1.example.com", servers[0].Host)
		assert.Equal(t, "ldaps://dc1.example.com:636", servers[0].URL())
		assert.Equal(t, "srv", servers[0].Source)
		assert.Equal(t, "dc2.example.com", servers[1].Host)
		assert.Equal(t, []string{"_ldaps._tcp.example.com"}, resolver.lookups)
	})

	t.Run("plain ldap and global catalog", func(t *testing.T) {
		resolver := &fakeResolver{records: map[string][]*net.SRV{
			"_ldap._tcp.example.com": {{Target: "dc1.example.com.", Port: 389, Priority: 5}},
			"_gc._tcp.example.com":   {{Target: "gc.example.com.", Port: 3268, Priority: 1}},
		}}

		servers, err := NewSRVDiscovery(resolver).DiscoverServers(context.Background(), "example.com")
		require.NoError(t, err)
		require.Len(t, servers, 2)

		assert.Equal(t, "gc.example.com", servers[0].Host)
		assert.Equal(t, 3268, servers[0].Port)
		assert.False(t, servers[0].UseTLS)
		assert.Equal(t, "dc1.example.com", servers[1].Host)
	})

	t.Run("fallback without records", func(t *testing.T) {
		servers, err := NewSRVDiscovery(&fakeResolver{}).DiscoverServers(context.Background(), "example.com")
		require.NoError(t, err)
		require.Len(t, servers, 2)

		assert.Equal(t, "ldaps://example.com:636", servers[0].URL())
		assert.Equal(t, "ldap://example.com:389", servers[1].URL())
		assert.Equal(t, "fallback", servers[0].Source)
	})

	t.Run("empty domain", func(t *testing.T) {
		_, err := NewSRVDiscovery(&fakeResolver{}).DiscoverServers(context.Background(), "")
		assert.Error(t, err)
	})
}

func TestParseLDAPURL(t *testing.T) {
	tests := []struct {
		url     string
		host    string
		port    int
		useTLS  bool
		wantErr bool
	}{
		{url: "ldap://dc1.example.com", host: "dc1.example.com", port: 389},
		{url: "ldaps://dc1.example.com", host: "dc1.example.com", port: 636, useTLS: true},
		{url: "LDAPS://dc1.example.com:3269", host: "dc1.example.com", port: 3269, useTLS: true},
		{url: "ldap://[::1]:10389", host: "::1", port: 10389},
		{url: "http://dc1.example.com", wantErr: true},
		{url: "ldap://dc1.example.com:99999", wantErr: true},
		{url: "ldap://", wantErr: true},
		{url: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			server, err := ParseLDAPURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.host, server.Host)
			assert.Equal(t, tt.port, server.Port)
			assert.Equal(t, tt.useTLS, server.UseTLS)
			assert.Equal(t, "config", server.Source)
		})
	}
}

func TestResolveServers(t *testing.T) {
	config := DefaultConfig()
	config.LDAPURLs = []string{"ldaps://dc1.example.com", "ldap://dc2.example.com"}

	servers, err := resolveServers(context.Background(), config, NewSRVDiscovery(&fakeResolver{}))
	require.NoError(t, err)
	require.Len(t, servers, 2)
	assert.Equal(t, "ldaps://dc1.example.com:636", servers[0].URL())
	assert.Equal(t, "ldap://dc2.example.com:389", servers[1].URL())

	config.LDAPURLs = []string{"ftp://bad"}
	_, err = resolveServers(context.Background(), config, NewSRVDiscovery(&fakeResolver{}))
	assert.Error(t, err)

	config.LDAPURLs = nil
	config.Domain = "example.com"
	servers, err = resolveServers(context.Background(), config, NewSRVDiscovery(&fakeResolver{}))
	require.NoError(t, err)
	assert.Equal(t, "fallback", servers[0].Source)
}
