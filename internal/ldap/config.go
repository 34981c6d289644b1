package ldap

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
)

// ConnectionConfig holds configuration for a directory session.
type ConnectionConfig struct {
	// Connection settings
	Domain   string        // Domain for SRV discovery
	LDAPURLs []string      // Direct LDAP URLs (overrides domain)
	BaseDN   string        // Default base DN for searches
	Timeout  time.Duration `default:"30s"` // Connection and request timeout

	// Authentication settings
	Username       string // Bind DN, UPN, or principal name
	Password       string // Password for simple bind authentication
	KerberosRealm  string // Kerberos realm for GSSAPI authentication
	KerberosKeytab string // Path to Kerberos keytab file
	KerberosConfig string // Path to Kerberos config file (krb5.conf)
	KerberosCCache string // Path to Kerberos credential cache
	KerberosSPN    string // Service principal override (ldap/<host>)

	// TLS settings
	TLSConfig         *tls.Config // Custom TLS configuration
	UseTLS            bool        `default:"true"` // Use LDAPS or StartTLS
	SkipTLS           bool        // Skip TLS entirely (not recommended)
	TLSCACertFile     string      // Path to CA certificate file
	TLSCACert         string      // CA certificate content
	TLSClientCertFile string      // Path to client certificate file
	TLSClientKeyFile  string      // Path to client private key file

	// Search settings
	PageSize              uint32 `default:"1000"` // Page size for paged searches; 0 disables paging
	FriendlyNameAttribute string // Attribute used as friendly name; empty derives it from the DN
}

// DefaultConfig returns a secure default configuration.
func DefaultConfig() *ConnectionConfig {
	config := &ConnectionConfig{}
	if err := defaults.Set(config); err != nil {
		// Tags are static; failure here is a programming error.
		panic(fmt.Sprintf("invalid ConnectionConfig defaults: %v", err))
	}
	config.TLSConfig = &tls.Config{
		MinVersion: tls.VersionTLS12,
		// Certificate validation enabled by default
		InsecureSkipVerify: false,
	}
	return config
}

// Validate validates the connection configuration.
func (c *ConnectionConfig) Validate() error {
	if c.Domain == "" && len(c.LDAPURLs) == 0 {
		return errors.New("either domain or LDAP URLs must be specified")
	}

	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}

	if c.TLSCACertFile != "" && c.TLSCACert != "" {
		return errors.New("TLSCACertFile and TLSCACert are mutually exclusive")
	}

	if (c.TLSClientCertFile == "") != (c.TLSClientKeyFile == "") {
		return errors.New("TLSClientCertFile and TLSClientKeyFile must be set together")
	}

	return nil
}

// AuthMethod defines authentication method types.
type AuthMethod int

const (
	AuthMethodSimpleBind AuthMethod = iota // Username/password authentication
	AuthMethodKerberos                     // GSSAPI/Kerberos authentication
	AuthMethodExternal                     // External/certificate authentication
)

// String returns string representation of authentication method.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodSimpleBind:
		return "simple"
	case AuthMethodKerberos:
		return "kerberos"
	case AuthMethodExternal:
		return "external"
	default:
		return "unknown"
	}
}

// GetAuthMethod determines the authentication method from the configuration.
func (c *ConnectionConfig) GetAuthMethod() AuthMethod {
	// Kerberos authentication takes precedence
	if c.KerberosRealm != "" && (c.KerberosKeytab != "" || c.KerberosCCache != "" || c.Username != "") {
		return AuthMethodKerberos
	}

	if c.Username != "" {
		return AuthMethodSimpleBind
	}

	if c.TLSClientCertFile != "" && c.TLSClientKeyFile != "" {
		return AuthMethodExternal
	}

	return AuthMethodSimpleBind
}

// HasAuthentication checks if any authentication method is configured.
func (c *ConnectionConfig) HasAuthentication() bool {
	hasPassword := c.Username != "" && c.Password != ""
	hasKerberos := c.KerberosRealm != "" && (c.KerberosKeytab != "" || c.KerberosCCache != "" || c.Username != "")
	hasExternal := c.TLSClientCertFile != "" && c.TLSClientKeyFile != ""

	return hasPassword || hasKerberos || hasExternal
}

// buildTLSConfig returns the TLS configuration with CA and client certificates applied.
func (c *ConnectionConfig) buildTLSConfig() (*tls.Config, error) {
	var tlsConfig *tls.Config
	if c.TLSConfig != nil {
		tlsConfig = c.TLSConfig.Clone()
	} else {
		tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	caPEM := []byte(c.TLSCACert)
	if c.TLSCACertFile != "" {
		data, err := os.ReadFile(c.TLSCACertFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate file: %w", err)
		}
		caPEM = data
	}

	if len(caPEM) > 0 {
		pool, err := x509.SystemCertPool()
		if err != nil || pool == nil {
			pool = x509.NewCertPool()
		}
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, errors.New("no valid certificates found in CA certificate")
		}
		tlsConfig.RootCAs = pool
	}

	if c.TLSClientCertFile != "" && c.TLSClientKeyFile != "" {
		cert, err := tls.LoadX509KeyPair(c.TLSClientCertFile, c.TLSClientKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		tlsConfig.Certificates = append(tlsConfig.Certificates, cert)
	}

	return tlsConfig, nil
}
