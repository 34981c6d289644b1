package validators

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/schema/validator"

	ldapclient "github.com/isometry/terraform-provider-dirrecord/internal/ldap"
)

var _ validator.String = distinguishedName{}

// distinguishedName rejects strings that go-ldap cannot parse as a DN.
type distinguishedName struct{}

func (distinguishedName) Description(context.Context) string {
	return "must parse as an LDAP distinguished name"
}

func (d distinguishedName) MarkdownDescription(ctx context.Context) string {
	return d.Description(ctx)
}

func (distinguishedName) ValidateString(_ context.Context, req validator.StringRequest, resp *validator.StringResponse) {
	if req.ConfigValue.IsNull() || req.ConfigValue.IsUnknown() {
		return
	}

	dn := req.ConfigValue.ValueString()
	if err := ldapclient.ValidateDNSyntax(dn); err != nil {
		resp.Diagnostics.AddAttributeError(req.Path, "Invalid Distinguished Name",
			fmt.Sprintf("%q does not parse as a distinguished name: %s", dn, err.Error()))
	}
}

// IsValidDN checks entry and base DNs before they reach the directory.
// Null and unknown values pass.
func IsValidDN() validator.String {
	return distinguishedName{}
}
