package provider

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/terraform-plugin-framework-validators/int64validator"
	"github.com/hashicorp/terraform-plugin-framework-validators/providervalidator"
	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/provider"
	"github.com/hashicorp/terraform-plugin-framework/provider/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	ldapclient "github.com/isometry/terraform-provider-dirrecord/internal/ldap"
	"github.com/isometry/terraform-provider-dirrecord/internal/provider/validators"
)

// Ensure DirRecordProvider satisfies various provider interfaces.
var _ provider.Provider = &DirRecordProvider{}
var _ provider.ProviderWithConfigValidators = &DirRecordProvider{}

// DirRecordProvider defines the provider implementation.
type DirRecordProvider struct {
	// Version is set to the provider version on release, "dev" when the
	// provider is built and ran locally, and "test" when running acceptance
	// testing.
	Version string

	// dialer overrides how the directory session is opened. Nil uses
	// ldapclient.DialSession.
	dialer ldapclient.Dialer
}

// DirRecordProviderModel describes the provider data model.
type DirRecordProviderModel struct {
	// Connection settings - mutually exclusive
	Domain  types.String `tfsdk:"domain"`
	LdapURL types.String `tfsdk:"ldap_url"`
	BaseDN  types.String `tfsdk:"base_dn"`

	// Authentication settings
	Username types.String `tfsdk:"username"`
	Password types.String `tfsdk:"password"`

	// Kerberos settings (optional)
	KerberosRealm  types.String `tfsdk:"kerberos_realm"`
	KerberosKeytab types.String `tfsdk:"kerberos_keytab"`
	KerberosConfig types.String `tfsdk:"kerberos_config"`
	KerberosCCache types.String `tfsdk:"kerberos_ccache"`
	KerberosSPN    types.String `tfsdk:"kerberos_spn"`

	// TLS settings
	UseTLS            types.Bool   `tfsdk:"use_tls"`
	SkipTLSVerify     types.Bool   `tfsdk:"skip_tls_verify"`
	TLSCACertFile     types.String `tfsdk:"tls_ca_cert_file"`
	TLSCACert         types.String `tfsdk:"tls_ca_cert"`
	TLSClientCertFile types.String `tfsdk:"tls_client_cert_file"`
	TLSClientKeyFile  types.String `tfsdk:"tls_client_key_file"`

	// Session settings
	ConnectTimeout        types.Int64  `tfsdk:"connect_timeout"`
	PageSize              types.Int64  `tfsdk:"page_size"`
	FriendlyNameAttribute types.String `tfsdk:"friendly_name_attribute"`
}

func (p *DirRecordProvider) Metadata(ctx context.Context, req provider.MetadataRequest, resp *provider.MetadataResponse) {
	resp.TypeName = "dirrecord"
	resp.Version = p.Version
}

func (p *DirRecordProvider) Schema(ctx context.Context, req provider.SchemaRequest, resp *provider.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "The dirrecord provider reads and edits attributes of directory entries over LDAP/LDAPS. " +
			"Searches are paged, and attribute edits are applied as one modify operation per entry.",
		Attributes: map[string]schema.Attribute{
			// Connection settings - mutually exclusive
			"domain": schema.StringAttribute{
				MarkdownDescription: "Directory domain name for SRV-based server discovery (e.g., `example.com`). " +
					"Mutually exclusive with `ldap_url`. Can be set via the `DIRRECORD_DOMAIN` environment variable.",
				Optional: true,
				Validators: []validator.String{
					stringvalidator.LengthAtLeast(1),
				},
			},
			"ldap_url": schema.StringAttribute{
				MarkdownDescription: "Direct LDAP/LDAPS URL (e.g., `ldaps://dc1.example.com:636`). " +
					"Mutually exclusive with `domain`. Can be set via the `DIRRECORD_LDAP_URL` environment variable.",
				Optional: true,
				Validators: []validator.String{
					stringvalidator.LengthAtLeast(1),
				},
			},
			"base_dn": schema.StringAttribute{
				MarkdownDescription: "Default base DN for searches (e.g., `dc=example,dc=com`), used when a data source sets none. " +
					"Can be set via the `DIRRECORD_BASE_DN` environment variable.",
				Optional: true,
				Validators: []validator.String{
					validators.IsValidDN(),
				},
			},

			// Authentication settings
			"username": schema.StringAttribute{
				MarkdownDescription: "Username for LDAP authentication. Supports DN, UPN, or Kerberos principal formats. " +
					"Can be set via the `DIRRECORD_USERNAME` environment variable.",
				Optional: true,
			},
			"password": schema.StringAttribute{
				MarkdownDescription: "Password for LDAP authentication. " +
					"Can be set via the `DIRRECORD_PASSWORD` environment variable.",
				Optional:  true,
				Sensitive: true,
			},

			// Kerberos settings
			"kerberos_realm": schema.StringAttribute{
				MarkdownDescription: "Kerberos realm for GSSAPI authentication (e.g., `EXAMPLE.COM`). " +
					"Can be set via the `DIRRECORD_KERBEROS_REALM` environment variable.",
				Optional: true,
			},
			"kerberos_keytab": schema.StringAttribute{
				MarkdownDescription: "Path to Kerberos keytab file for authentication. " +
					"Can be set via the `DIRRECORD_KERBEROS_KEYTAB` environment variable.",
				Optional: true,
			},
			"kerberos_config": schema.StringAttribute{
				MarkdownDescription: "Path to Kerberos configuration file. Defaults to `/etc/krb5.conf`, or a DNS-based configuration when absent. " +
					"Can be set via the `DIRRECORD_KERBEROS_CONFIG` environment variable.",
				Optional: true,
			},
			"kerberos_ccache": schema.StringAttribute{
				MarkdownDescription: "Path to Kerberos credential cache file for authentication. " +
					"Can be set via the `DIRRECORD_KERBEROS_CCACHE` environment variable.",
				Optional: true,
			},
			"kerberos_spn": schema.StringAttribute{
				MarkdownDescription: "Override Service Principal Name (SPN) for Kerberos authentication. " +
					"Format: `ldap/<hostname>` (e.g., `ldap/dc1.example.com`). " +
					"Can be set via the `DIRRECORD_KERBEROS_SPN` environment variable.",
				Optional: true,
			},

			// TLS settings
			"use_tls": schema.BoolAttribute{
				MarkdownDescription: "Use LDAPS, or StartTLS on `ldap://` servers. Defaults to `true`. " +
					"Can be set via the `DIRRECORD_USE_TLS` environment variable.",
				Optional: true,
			},
			"skip_tls_verify": schema.BoolAttribute{
				MarkdownDescription: "Skip TLS certificate verification. Not recommended for production. Defaults to `false`. " +
					"Can be set via the `DIRRECORD_SKIP_TLS_VERIFY` environment variable.",
				Optional: true,
			},
			"tls_ca_cert_file": schema.StringAttribute{
				MarkdownDescription: "Path to custom CA certificate file for TLS verification. " +
					"Can be set via the `DIRRECORD_TLS_CA_CERT_FILE` environment variable.",
				Optional: true,
			},
			"tls_ca_cert": schema.StringAttribute{
				MarkdownDescription: "Custom CA certificate content for TLS verification. " +
					"Can be set via the `DIRRECORD_TLS_CA_CERT` environment variable.",
				Optional:  true,
				Sensitive: true,
			},
			"tls_client_cert_file": schema.StringAttribute{
				MarkdownDescription: "Path to client certificate file for mutual TLS (SASL EXTERNAL) authentication. " +
					"Can be set via the `DIRRECORD_TLS_CLIENT_CERT_FILE` environment variable.",
				Optional: true,
			},
			"tls_client_key_file": schema.StringAttribute{
				MarkdownDescription: "Path to client private key file for mutual TLS authentication. " +
					"Can be set via the `DIRRECORD_TLS_CLIENT_KEY_FILE` environment variable.",
				Optional:  true,
				Sensitive: true,
			},

			// Session settings
			"connect_timeout": schema.Int64Attribute{
				MarkdownDescription: "Connection and request timeout in seconds. Defaults to `30`. " +
					"Can be set via the `DIRRECORD_CONNECT_TIMEOUT` environment variable.",
				Optional: true,
				Validators: []validator.Int64{
					int64validator.AtLeast(1),
				},
			},
			"page_size": schema.Int64Attribute{
				MarkdownDescription: "Number of entries requested per search page. `0` disables paging. Defaults to `1000`. " +
					"Can be set via the `DIRRECORD_PAGE_SIZE` environment variable.",
				Optional: true,
				Validators: []validator.Int64{
					int64validator.Between(0, 1<<31-1),
				},
			},
			"friendly_name_attribute": schema.StringAttribute{
				MarkdownDescription: "Attribute whose value becomes each record's friendly name. " +
					"When unset the friendly name is the lower-cased first RDN value of the DN. " +
					"Can be set via the `DIRRECORD_FRIENDLY_NAME_ATTRIBUTE` environment variable.",
				Optional: true,
			},
		},
	}
}

// ConfigValidators implements provider.ProviderWithConfigValidators.
func (p *DirRecordProvider) ConfigValidators(ctx context.Context) []provider.ConfigValidator {
	return []provider.ConfigValidator{
		// Domain and ldap_url are mutually exclusive
		providervalidator.Conflicting(
			path.MatchRoot("domain"),
			path.MatchRoot("ldap_url"),
		),
		// TLS cert file and cert content are mutually exclusive
		providervalidator.Conflicting(
			path.MatchRoot("tls_ca_cert_file"),
			path.MatchRoot("tls_ca_cert"),
		),
		// Client certificate and key go together
		providervalidator.RequiredTogether(
			path.MatchRoot("tls_client_cert_file"),
			path.MatchRoot("tls_client_key_file"),
		),
	}
}

func (p *DirRecordProvider) Configure(ctx context.Context, req provider.ConfigureRequest, resp *provider.ConfigureResponse) {
	var data DirRecordProviderModel

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	ctx = p.configureLogging(ctx)

	tflog.Info(ctx, "Configuring dirrecord provider", map[string]any{
		"version": p.Version,
	})

	config := p.buildLDAPConfig(&data, &resp.Diagnostics)
	if resp.Diagnostics.HasError() {
		return
	}

	if err := config.Validate(); err != nil {
		resp.Diagnostics.AddError(
			"Invalid Provider Configuration",
			"The provider configuration is incomplete or inconsistent.\n\n"+
				"Configuration Error: "+err.Error(),
		)
		return
	}

	var opts []ldapclient.ClientOption
	if p.dialer != nil {
		opts = append(opts, ldapclient.WithDialer(p.dialer))
	}
	client := ldapclient.NewClient(config, opts...)

	start := time.Now()
	if err := client.Open(ctx); err != nil {
		tflog.Error(ctx, "Failed to open directory session", map[string]any{
			"error":       err.Error(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		resp.Diagnostics.AddError(
			"Unable to Connect to Directory",
			"The provider could not open an authenticated session with the directory server. "+
				"Please verify your connection and authentication settings.\n\n"+
				"Connection Error: "+err.Error(),
		)
		return
	}

	tflog.Info(ctx, "dirrecord provider configured successfully", map[string]any{
		"duration_ms": time.Since(start).Milliseconds(),
		"auth_method": config.GetAuthMethod().String(),
	})

	providerData := ldapclient.NewProviderData(client)
	if err := providerData.ValidateConnection(ctx); err != nil {
		resp.Diagnostics.AddError("Unable to Connect to Directory", err.Error())
		_ = providerData.Close()
		return
	}

	resp.DataSourceData = providerData
	resp.ResourceData = providerData
}

// configureLogging sets up logging configuration based on environment variables.
func (p *DirRecordProvider) configureLogging(ctx context.Context) context.Context {
	ctx = tflog.SetField(ctx, "provider", "dirrecord")
	ctx = tflog.SetField(ctx, "provider_version", p.Version)
	ctx = tflog.MaskFieldValuesWithFieldKeys(ctx, "password")

	tflog.Debug(ctx, "dirrecord provider logging configured")

	return ctx
}

// buildLDAPConfig constructs the client configuration from provider config and environment variables.
func (p *DirRecordProvider) buildLDAPConfig(data *DirRecordProviderModel, diags *diag.Diagnostics) *ldapclient.ConnectionConfig {
	config := ldapclient.DefaultConfig()

	// Connection settings
	if domain := p.getStringValue(data.Domain, "DIRRECORD_DOMAIN"); domain != "" {
		config.Domain = domain
	}

	if ldapURL := p.getStringValue(data.LdapURL, "DIRRECORD_LDAP_URL"); ldapURL != "" {
		config.LDAPURLs = []string{ldapURL}
	}

	if config.Domain != "" && len(config.LDAPURLs) > 0 {
		diags.AddError(
			"Conflicting Connection Configuration",
			"Only one of 'domain' (DIRRECORD_DOMAIN) and 'ldap_url' (DIRRECORD_LDAP_URL) may be set.",
		)
		return config
	}

	if config.Domain == "" && len(config.LDAPURLs) == 0 {
		diags.AddError(
			"Missing Connection Configuration",
			"Either 'domain' or 'ldap_url' must be configured, or the DIRRECORD_DOMAIN or DIRRECORD_LDAP_URL environment variable set.",
		)
		return config
	}

	if baseDN := p.getStringValue(data.BaseDN, "DIRRECORD_BASE_DN"); baseDN != "" {
		config.BaseDN = baseDN
	}

	// Authentication settings
	config.Username = p.getStringValue(data.Username, "DIRRECORD_USERNAME")
	config.Password = p.getStringValue(data.Password, "DIRRECORD_PASSWORD")
	config.KerberosRealm = p.getStringValue(data.KerberosRealm, "DIRRECORD_KERBEROS_REALM")
	config.KerberosKeytab = p.getStringValue(data.KerberosKeytab, "DIRRECORD_KERBEROS_KEYTAB")
	config.KerberosConfig = p.getStringValue(data.KerberosConfig, "DIRRECORD_KERBEROS_CONFIG")
	config.KerberosCCache = p.getStringValue(data.KerberosCCache, "DIRRECORD_KERBEROS_CCACHE")
	config.KerberosSPN = p.getStringValue(data.KerberosSPN, "DIRRECORD_KERBEROS_SPN")

	// TLS settings
	config.UseTLS = p.getBoolValue(data.UseTLS, "DIRRECORD_USE_TLS", config.UseTLS)

	if p.getBoolValue(data.SkipTLSVerify, "DIRRECORD_SKIP_TLS_VERIFY", false) {
		config.TLSConfig.InsecureSkipVerify = true
	}

	config.TLSCACertFile = p.getStringValue(data.TLSCACertFile, "DIRRECORD_TLS_CA_CERT_FILE")
	config.TLSCACert = p.getStringValue(data.TLSCACert, "DIRRECORD_TLS_CA_CERT")
	config.TLSClientCertFile = p.getStringValue(data.TLSClientCertFile, "DIRRECORD_TLS_CLIENT_CERT_FILE")
	config.TLSClientKeyFile = p.getStringValue(data.TLSClientKeyFile, "DIRRECORD_TLS_CLIENT_KEY_FILE")

	// Session settings
	if connectTimeout := p.getInt64Value(data.ConnectTimeout, "DIRRECORD_CONNECT_TIMEOUT", 0); connectTimeout > 0 {
		config.Timeout = time.Duration(connectTimeout) * time.Second
	}

	if pageSize := p.getInt64Value(data.PageSize, "DIRRECORD_PAGE_SIZE", int64(config.PageSize)); pageSize >= 0 {
		config.PageSize = uint32(pageSize)
	}

	config.FriendlyNameAttribute = p.getStringValue(data.FriendlyNameAttribute, "DIRRECORD_FRIENDLY_NAME_ATTRIBUTE")

	return config
}

// Helper functions for configuration value resolution

func (p *DirRecordProvider) getStringValue(configValue types.String, envVar string) string {
	if !configValue.IsNull() && configValue.ValueString() != "" {
		return configValue.ValueString()
	}
	return os.Getenv(envVar)
}

func (p *DirRecordProvider) getBoolValue(configValue types.Bool, envVar string, defaultValue bool) bool {
	if !configValue.IsNull() {
		return configValue.ValueBool()
	}
	if envValue := os.Getenv(envVar); envValue != "" {
		if parsed, err := strconv.ParseBool(envValue); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func (p *DirRecordProvider) getInt64Value(configValue types.Int64, envVar string, defaultValue int64) int64 {
	if !configValue.IsNull() {
		return configValue.ValueInt64()
	}
	if envValue := os.Getenv(envVar); envValue != "" {
		if parsed, err := strconv.ParseInt(envValue, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func (p *DirRecordProvider) Resources(ctx context.Context) []func() resource.Resource {
	return []func() resource.Resource{
		NewAttributesResource,
	}
}

func (p *DirRecordProvider) DataSources(ctx context.Context) []func() datasource.DataSource {
	return []func() datasource.DataSource{
		NewRecordsDataSource,
	}
}

func New(version string) func() provider.Provider {
	return func() provider.Provider {
		return &DirRecordProvider{
			Version: version,
		}
	}
}
