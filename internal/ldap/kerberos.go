package ldap

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-ldap/ldap/v3"
	"github.com/go-ldap/ldap/v3/gssapi"
	krb5client "github.com/jcmturner/gokrb5/v8/client"
	krb5config "github.com/jcmturner/gokrb5/v8/config"
	"github.com/jcmturner/gokrb5/v8/credentials"
	"github.com/jcmturner/gokrb5/v8/keytab"
)

const defaultKrb5ConfPath = "/etc/krb5.conf"

// kerberosSettings is the resolved Kerberos identity for one bind.
type kerberosSettings struct {
	username string
	realm    string
	password string
	keytab   string
	ccache   string
	confPath string
	spn      string
}

// resolveKerberosSettings derives the principal and credential sources from
// cfg without modifying it. A realm suffix on the username ("user@REALM")
// supplies the realm when none is configured.
func resolveKerberosSettings(cfg *ConnectionConfig) (*kerberosSettings, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	s := &kerberosSettings{
		username: cfg.Username,
		realm:    cfg.KerberosRealm,
		password: cfg.Password,
		keytab:   cfg.KerberosKeytab,
		ccache:   cfg.KerberosCCache,
		confPath: cfg.KerberosConfig,
		spn:      cfg.KerberosSPN,
	}

	if user, realm, ok := strings.Cut(s.username, "@"); ok {
		s.username = user
		if s.realm == "" {
			s.realm = realm
		}
	}

	if s.realm == "" && cfg.Domain != "" {
		s.realm = strings.ToUpper(cfg.Domain)
	}
	s.realm = strings.ToUpper(s.realm)

	if s.realm == "" {
		return nil, fmt.Errorf("kerberos realm is required (set kerberos_realm or include realm in username)")
	}

	return s, nil
}

// performKerberosAuth performs a GSSAPI bind on conn.
func performKerberosAuth(ctx context.Context, conn *ldap.Conn, cfg *ConnectionConfig, server *ServerInfo) error {
	settings, err := resolveKerberosSettings(cfg)
	if err != nil {
		return fmt.Errorf("kerberos configuration error: %w", err)
	}

	gssapiClient, err := newGSSAPIClient(ctx, settings, cfg.Domain)
	if err != nil {
		LogKerberosEvent(ctx, "ticket_acquisition_failed", map[string]any{
			"realm": settings.realm,
			"error": err.Error(),
		})
		return fmt.Errorf("failed to create GSSAPI client: %w", err)
	}
	defer func() {
		_ = gssapiClient.DeleteSecContext()
	}()

	spn, err := buildServicePrincipal(settings.spn, server)
	if err != nil {
		return fmt.Errorf("failed to build service principal: %w", err)
	}

	LogKerberosEvent(ctx, "principal_resolved", map[string]any{
		"principal": settings.username,
		"realm":     settings.realm,
		"spn":       spn,
	})

	if err := conn.GSSAPIBind(gssapiClient, spn, ""); err != nil {
		LogKerberosEvent(ctx, "authentication_failed", map[string]any{
			"spn":   spn,
			"error": err.Error(),
		})
		return fmt.Errorf("GSSAPI bind failed: %w", err)
	}

	LogKerberosEvent(ctx, "ticket_acquired", map[string]any{"spn": spn})
	return nil
}

// newGSSAPIClient creates a GSSAPI client. Credential sources are tried in
// order: explicit ccache, default ccache, explicit keytab, default keytab, password.
func newGSSAPIClient(ctx context.Context, s *kerberosSettings, domain string) (*gssapi.Client, error) {
	krb5conf, err := loadKrb5Config(ctx, s, domain)
	if err != nil {
		return nil, err
	}

	disableFAST := krb5client.DisablePAFXFAST(true)

	for _, path := range []string{s.ccache, defaultCCachePath()} {
		if !fileExists(path) {
			continue
		}
		ccache, err := credentials.LoadCCache(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load credential cache %s: %w", path, err)
		}
		cl, err := krb5client.NewFromCCache(ccache, krb5conf, disableFAST)
		if err != nil {
			return nil, fmt.Errorf("failed to use credential cache %s: %w", path, err)
		}
		LogKerberosEvent(ctx, "credentials_cached", map[string]any{"ccache": path})
		return &gssapi.Client{Client: cl}, nil
	}

	if s.username == "" {
		return nil, fmt.Errorf("username (principal) is required for Kerberos keytab or password authentication")
	}

	for _, path := range []string{s.keytab, defaultKeytabPath()} {
		if !fileExists(path) {
			continue
		}
		kt, err := keytab.Load(path)
		if err != nil {
			LogKerberosEvent(ctx, "keytab_load_failed", map[string]any{"keytab": path, "error": err.Error()})
			return nil, fmt.Errorf("failed to load keytab %s: %w", path, err)
		}
		LogKerberosEvent(ctx, "keytab_loaded", map[string]any{"keytab": path})
		return &gssapi.Client{Client: krb5client.NewWithKeytab(s.username, s.realm, kt, krb5conf, disableFAST)}, nil
	}

	if s.password != "" {
		return &gssapi.Client{Client: krb5client.NewWithPassword(s.username, s.realm, s.password, krb5conf, disableFAST)}, nil
	}

	return nil, fmt.Errorf("no suitable Kerberos credentials found: provide kerberos_ccache, kerberos_keytab, password, or ensure default credential cache/keytab exists")
}

// loadKrb5Config loads krb5.conf, or generates a DNS-discovery configuration
// when no explicit path is set and the default file is absent.
func loadKrb5Config(ctx context.Context, s *kerberosSettings, domain string) (*krb5config.Config, error) {
	path := s.confPath
	if path == "" {
		if !fileExists(defaultKrb5ConfPath) {
			generated := runtimeKrb5Conf(s.realm, domain)
			LogKerberosEvent(ctx, "runtime_config_generated", map[string]any{"realm": s.realm})
			cfg, err := krb5config.NewFromString(generated)
			if err != nil {
				return nil, fmt.Errorf("failed to parse generated krb5.conf: %w", err)
			}
			return cfg, nil
		}
		path = defaultKrb5ConfPath
	}

	if !fileExists(path) {
		return nil, fmt.Errorf("kerberos configuration file not found at %s", path)
	}

	cfg, err := krb5config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return cfg, nil
}

// runtimeKrb5Conf renders a minimal krb5.conf that locates KDCs through DNS SRV records.
func runtimeKrb5Conf(realm, domain string) string {
	if domain == "" {
		domain = realm
	}
	domain = strings.ToLower(domain)

	return fmt.Sprintf(`[libdefaults]
    default_realm = %s
    dns_lookup_kdc = true
    dns_lookup_realm = false
    rdns = false

[realms]
    %s = {
    }

[domain_realm]
    .%s = %s
    %s = %s
`, realm, realm, domain, realm, domain, realm)
}

// buildServicePrincipal returns override when set, otherwise ldap/<host>.
func buildServicePrincipal(override string, server *ServerInfo) (string, error) {
	if override != "" {
		return override, nil
	}

	if server == nil || server.Host == "" {
		return "", fmt.Errorf("hostname is required for service principal")
	}

	return "ldap/" + server.Host, nil
}

func defaultCCachePath() string {
	if ccache := os.Getenv("KRB5CCNAME"); ccache != "" {
		return strings.TrimPrefix(ccache, "FILE:")
	}
	return fmt.Sprintf("/tmp/krb5cc_%d", os.Getuid())
}

func defaultKeytabPath() string {
	if kt := os.Getenv("KRB5_KTNAME"); kt != "" {
		return strings.TrimPrefix(kt, "FILE:")
	}
	return "/etc/krb5.keytab"
}

// fileExists checks if a file exists and is readable.
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	file.Close()
	return true
}
