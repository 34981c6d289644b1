package ldap

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// Dialer opens an authenticated session for cfg.
type Dialer func(ctx context.Context, cfg *ConnectionConfig) (Session, error)

// connSession is a Session over a single go-ldap connection.
type connSession struct {
	conn    *ldap.Conn
	server  *ServerInfo
	timeout time.Duration
}

// DialSession connects to the first reachable server named by cfg, either
// from its LDAP URLs or by SRV discovery, and binds with the configured
// credentials. Servers are tried in order; the session does not reconnect.
func DialSession(ctx context.Context, cfg *ConnectionConfig) (Session, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	servers, err := resolveServers(ctx, cfg, NewSRVDiscovery(nil))
	if err != nil {
		return nil, fmt.Errorf("server discovery failed: %w", err)
	}
	if len(servers) == 0 {
		return nil, errors.New("no servers discovered")
	}

	tlsConfig, err := cfg.buildTLSConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid TLS configuration: %w", err)
	}

	var errs []error
	for _, server := range servers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fields := map[string]any{
			"server":      server.URL(),
			"source":      server.Source,
			"auth_method": cfg.GetAuthMethod().String(),
		}
		LogConnectionEvent(ctx, "connection_attempt", fields)

		session, err := dialServer(ctx, cfg, server, tlsConfig)
		if err != nil {
			fields["error"] = err.Error()
			LogConnectionEvent(ctx, "connection_failed", fields)
			errs = append(errs, err)
			continue
		}

		LogConnectionEvent(ctx, "connection_established", fields)
		return session, nil
	}

	return nil, NewProtocolError("connect", errors.Join(errs...))
}

// dialServer connects to one server, upgrades with StartTLS when required, and binds.
func dialServer(ctx context.Context, cfg *ConnectionConfig, server *ServerInfo, tlsConfig *tls.Config) (*connSession, error) {
	url := server.URL()
	dialer := &net.Dialer{Timeout: cfg.Timeout}

	var conn *ldap.Conn
	var err error

	if server.UseTLS {
		conn, err = ldap.DialURL(url, ldap.DialWithDialer(dialer), ldap.DialWithTLSConfig(tlsConfig))
	} else {
		conn, err = ldap.DialURL(url, ldap.DialWithDialer(dialer))
		if err == nil && cfg.UseTLS && !cfg.SkipTLS {
			if tlsErr := conn.StartTLS(tlsWithServerName(tlsConfig, server.Host)); tlsErr != nil {
				conn.Close()
				err = fmt.Errorf("StartTLS failed: %w", tlsErr)
			}
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}

	conn.SetTimeout(cfg.Timeout)

	if cfg.HasAuthentication() {
		if err := authenticate(ctx, conn, cfg, server); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to authenticate connection to %s: %w", url, err)
		}
	}

	return &connSession{conn: conn, server: server, timeout: cfg.Timeout}, nil
}

// authenticate binds conn using the configured method.
func authenticate(ctx context.Context, conn *ldap.Conn, cfg *ConnectionConfig, server *ServerInfo) error {
	method := cfg.GetAuthMethod()
	tflog.SubsystemDebug(ctx, subsystemLDAP, "Authenticating connection", map[string]any{
		"auth_method": method.String(),
		"server":      server.URL(),
	})

	var err error
	switch method {
	case AuthMethodSimpleBind:
		if cfg.Username == "" {
			return fmt.Errorf("username is required for simple bind authentication")
		}
		err = conn.Bind(cfg.Username, cfg.Password)
	case AuthMethodKerberos:
		err = performKerberosAuth(ctx, conn, cfg, server)
	case AuthMethodExternal:
		err = conn.ExternalBind()
	default:
		return fmt.Errorf("unsupported authentication method: %s", method.String())
	}

	if err != nil {
		return NewProtocolError("bind", err)
	}
	return nil
}

func tlsWithServerName(tlsConfig *tls.Config, host string) *tls.Config {
	if tlsConfig.ServerName != "" {
		return tlsConfig
	}
	out := tlsConfig.Clone()
	out.ServerName = host
	return out
}

// Search performs one search round trip.
func (s *connSession) Search(ctx context.Context, req *SearchRequest) (*SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	searchReq := ldap.NewSearchRequest(
		req.BaseDN,
		req.Scope.ldapScope(),
		ldap.NeverDerefAliases,
		0, // size limit is governed by paging
		int(s.timeout.Seconds()),
		false,
		req.Filter,
		req.Attributes,
		req.Controls,
	)

	result, err := s.conn.Search(searchReq)
	if err != nil {
		return nil, err
	}

	return &SearchResult{Entries: result.Entries, Controls: result.Controls}, nil
}

// Modify applies req in a single modify operation.
func (s *connSession) Modify(ctx context.Context, req *ldap.ModifyRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.conn.Modify(req)
}

// Close closes the underlying connection.
func (s *connSession) Close() error {
	s.conn.Close()
	return nil
}
