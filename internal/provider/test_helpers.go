package provider

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/terraform-plugin-testing/helper/resource"
	"github.com/hashicorp/terraform-plugin-testing/terraform"

	ldapclient "github.com/isometry/terraform-provider-dirrecord/internal/ldap"
)

// Test environment configuration constants.
const (
	// Environment variables for test configuration.
	EnvTestDomain   = "DIRRECORD_TEST_DOMAIN"
	EnvTestLDAPURL  = "DIRRECORD_TEST_LDAP_URL"
	EnvTestUsername = "DIRRECORD_TEST_USERNAME"
	EnvTestPassword = "DIRRECORD_TEST_PASSWORD"
	EnvTestBaseDN   = "DIRRECORD_TEST_BASE_DN"
	EnvTestEntryDN  = "DIRRECORD_TEST_ENTRY_DN"
	EnvTestKeytab   = "DIRRECORD_TEST_KEYTAB"
	EnvTestRealm    = "DIRRECORD_TEST_REALM"

	// Default values for testing.
	DefaultTestDomain = "example.com"
	DefaultTestBaseDN = "DC=example,DC=com"

	// TestValuePrefix marks attribute values written by acceptance tests.
	TestValuePrefix = "tf-test-"
)

// TestConfig holds common test configuration.
type TestConfig struct {
	Domain      string
	LDAPURL     string
	Username    string
	Password    string
	BaseDN      string
	EntryDN     string
	Keytab      string
	Realm       string
	UseKerberos bool
}

// GetTestConfig returns the test configuration from environment variables.
func GetTestConfig() *TestConfig {
	config := &TestConfig{
		Domain:   getEnvWithDefault(EnvTestDomain, DefaultTestDomain),
		LDAPURL:  os.Getenv(EnvTestLDAPURL),
		Username: os.Getenv(EnvTestUsername),
		Password: os.Getenv(EnvTestPassword),
		BaseDN:   getEnvWithDefault(EnvTestBaseDN, DefaultTestBaseDN),
		EntryDN:  os.Getenv(EnvTestEntryDN),
		Keytab:   os.Getenv(EnvTestKeytab),
		Realm:    os.Getenv(EnvTestRealm),
	}

	config.UseKerberos = config.Keytab != "" && config.Realm != ""

	return config
}

// IsAccTest returns true if acceptance tests should run.
func IsAccTest() bool {
	return os.Getenv("TF_ACC") != ""
}

// SkipIfNotAccTest skips the test if TF_ACC is not set.
func SkipIfNotAccTest(t *testing.T) {
	if !IsAccTest() {
		t.Skip("Skipping acceptance test - set TF_ACC=1 to run")
	}
}

// testAccPreCheckWithConfig validates the acceptance test environment.
func testAccPreCheckWithConfig(t *testing.T) *TestConfig {
	SkipIfNotAccTest(t)

	config := GetTestConfig()

	if config.Username == "" && !config.UseKerberos {
		t.Skipf("Skipping test: %s must be set (or configure Kerberos)", EnvTestUsername)
	}

	if config.Password == "" && !config.UseKerberos {
		t.Skipf("Skipping test: %s must be set (or configure Kerberos)", EnvTestPassword)
	}

	if config.LDAPURL == "" && config.Domain == DefaultTestDomain {
		t.Skipf("Skipping test: Either %s or %s must be set to a real directory", EnvTestLDAPURL, EnvTestDomain)
	}

	return config
}

// TestProviderConfig generates provider configuration for tests.
func TestProviderConfig() string {
	config := GetTestConfig()

	var providerConfig strings.Builder
	providerConfig.WriteString("provider \"dirrecord\" {\n")

	if config.LDAPURL != "" {
		providerConfig.WriteString(fmt.Sprintf("  ldap_url = %q\n", config.LDAPURL))
	} else {
		providerConfig.WriteString(fmt.Sprintf("  domain = %q\n", config.Domain))
	}

	providerConfig.WriteString(fmt.Sprintf("  base_dn = %q\n", config.BaseDN))

	if config.UseKerberos {
		providerConfig.WriteString(fmt.Sprintf("  kerberos_realm = %q\n", config.Realm))
		providerConfig.WriteString(fmt.Sprintf("  kerberos_keytab = %q\n", config.Keytab))
	}
	if config.Username != "" {
		providerConfig.WriteString(fmt.Sprintf("  username = %q\n", config.Username))
	}
	if !config.UseKerberos {
		providerConfig.WriteString(fmt.Sprintf("  password = %q\n", config.Password))
	}

	providerConfig.WriteString("}\n")
	return providerConfig.String()
}

// GenerateTestValue generates a unique attribute value with timestamp.
func GenerateTestValue() string {
	timestamp := time.Now().Format("20060102-150405")
	shortUUID := uuid.New().String()[:8]
	return fmt.Sprintf("%s%s-%s", TestValuePrefix, timestamp, shortUUID)
}

// connectionConfig builds a client configuration for out-of-band checks.
func (c *TestConfig) connectionConfig() *ldapclient.ConnectionConfig {
	config := ldapclient.DefaultConfig()
	config.Domain = c.Domain
	if c.LDAPURL != "" {
		config.Domain = ""
		config.LDAPURLs = []string{c.LDAPURL}
	}
	config.BaseDN = c.BaseDN
	config.Username = c.Username
	config.Password = c.Password
	config.KerberosKeytab = c.Keytab
	config.KerberosRealm = c.Realm
	return config
}

// openTestClient opens a directory session for out-of-band checks.
func openTestClient(ctx context.Context) (*ldapclient.DirectoryClient, error) {
	client := ldapclient.NewClient(GetTestConfig().connectionConfig())
	if err := client.Open(ctx); err != nil {
		return nil, fmt.Errorf("failed to open directory session: %w", err)
	}
	return client, nil
}

// Test check functions for acceptance tests

// TestCheckRecordExists verifies the entry named by the resource's dn exists.
func TestCheckRecordExists(resourceName string) resource.TestCheckFunc {
	return func(s *terraform.State) error {
		rs, ok := s.RootModule().Resources[resourceName]
		if !ok {
			return fmt.Errorf("resource not found: %s", resourceName)
		}

		if rs.Primary.ID == "" {
			return fmt.Errorf("resource ID not set")
		}

		ctx := context.Background()
		client, err := openTestClient(ctx)
		if err != nil {
			return err
		}
		defer client.Close()

		rec, err := client.SearchOne(ctx, &ldapclient.Query{
			BaseDN: rs.Primary.Attributes["dn"],
			Filter: "(objectClass=*)",
			Scope:  ldapclient.ScopeBaseObject,
		})
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", rs.Primary.Attributes["dn"], err)
		}
		if rec == nil {
			return fmt.Errorf("entry %s does not exist", rs.Primary.Attributes["dn"])
		}

		return nil
	}
}

// TestCheckSingleValue verifies an attribute of dn holds want. An empty want
// expects the attribute to be absent.
func TestCheckSingleValue(dn, name, want string) resource.TestCheckFunc {
	return func(s *terraform.State) error {
		ctx := context.Background()
		client, err := openTestClient(ctx)
		if err != nil {
			return err
		}
		defer client.Close()

		rec, err := client.SearchOne(ctx, &ldapclient.Query{
			BaseDN:     dn,
			Filter:     "(objectClass=*)",
			Scope:      ldapclient.ScopeBaseObject,
			Attributes: []ldapclient.AttributeSpec{{Name: name, Arity: ldapclient.SingleValued}},
		})
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", dn, err)
		}
		if rec == nil {
			return fmt.Errorf("entry %s does not exist", dn)
		}

		attr, _ := rec.Attribute(name)
		got, err := attr.Single()
		if err != nil {
			return err
		}

		switch {
		case want == "" && got != nil:
			return fmt.Errorf("%s of %s: expected no value, got %q", name, dn, *got)
		case want != "" && (got == nil || *got != want):
			return fmt.Errorf("%s of %s: expected %q, got %v", name, dn, want, got)
		}
		return nil
	}
}

// Utility functions

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
