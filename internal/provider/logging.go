package provider

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// initializeLogging initializes the provider subsystem for consistent logging.
// This should be called at the beginning of each data source Read method
// and resource Create/Read/Update/Delete methods.
func initializeLogging(ctx context.Context) context.Context {
	// Pattern: TF_LOG_PROVIDER_DIRRECORD_<SUBSYSTEM>
	ctx = tflog.NewSubsystem(ctx, "provider",
		tflog.WithLevelFromEnv("TF_LOG_PROVIDER_DIRRECORD_PROVIDER"))
	ctx = tflog.NewSubsystem(ctx, "ldap",
		tflog.WithLevelFromEnv("TF_LOG_PROVIDER_DIRRECORD_LDAP"))
	return tflog.NewSubsystem(ctx, "kerberos",
		tflog.WithLevelFromEnv("TF_LOG_PROVIDER_DIRRECORD_KERBEROS"))
}

// firstError returns the first error diagnostic as an error, or nil when
// there is none. Used for operation exit logging.
func firstError(diags diag.Diagnostics) error {
	errs := diags.Errors()
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%s: %s", errs[0].Summary(), errs[0].Detail())
}

func unconfiguredClient() diag.Diagnostics {
	var diags diag.Diagnostics
	diags.AddError(
		"Unconfigured Directory Client",
		"The provider has not been configured. Please report this issue to the provider developers.",
	)
	return diags
}
