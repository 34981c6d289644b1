// Package types holds custom attribute types for the provider schema.
package types

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/attr"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/types/basetypes"
	"github.com/hashicorp/terraform-plugin-go/tftypes"

	ldapclient "github.com/isometry/terraform-provider-dirrecord/internal/ldap"
)

var (
	_ basetypes.StringTypable                    = DNStringType{}
	_ basetypes.StringValuableWithSemanticEquals = DNStringValue{}
)

// DNStringType is the schema type of entry and base DN attributes. Its values
// compare as DNs, so "cn=jane,dc=example" in configuration and the server's
// "CN=Jane,DC=example" plan no change.
type DNStringType struct {
	basetypes.StringType
}

func (DNStringType) String() string { return "DNStringType" }

func (DNStringType) ValueType(context.Context) attr.Value { return DNStringValue{} }

func (t DNStringType) Equal(o attr.Type) bool {
	other, ok := o.(DNStringType)
	return ok && t.StringType.Equal(other.StringType)
}

func (DNStringType) ValueFromString(_ context.Context, in basetypes.StringValue) (basetypes.StringValuable, diag.Diagnostics) {
	return DNStringValue{StringValue: in}, nil
}

func (t DNStringType) ValueFromTerraform(ctx context.Context, in tftypes.Value) (attr.Value, error) {
	v, err := t.StringType.ValueFromTerraform(ctx, in)
	if err != nil {
		return nil, err
	}
	s, ok := v.(basetypes.StringValue)
	if !ok {
		return nil, fmt.Errorf("DN attribute holds %T, not a string", v)
	}
	return DNStringValue{StringValue: s}, nil
}

// DNStringValue is a DN held in state or configuration.
type DNStringValue struct {
	basetypes.StringValue
}

func (v DNStringValue) Equal(o attr.Value) bool {
	other, ok := o.(DNStringValue)
	return ok && v.StringValue.Equal(other.StringValue)
}

func (DNStringValue) Type(context.Context) attr.Type { return DNStringType{} }

// StringSemanticEquals treats two DNs naming the same entry as equal, using
// ldapclient.EqualDN. Strings that do not parse as DNs must match exactly.
func (v DNStringValue) StringSemanticEquals(_ context.Context, other basetypes.StringValuable) (bool, diag.Diagnostics) {
	var diags diag.Diagnostics

	o, ok := other.(DNStringValue)
	if !ok {
		diags.AddError("DN Comparison Error",
			fmt.Sprintf("Cannot compare a DN with a %T value. Please report this to the provider developers.", other))
		return false, diags
	}

	if !v.IsKnownValue() || !o.IsKnownValue() {
		return v.Equal(o), diags
	}
	if v.ValueString() == o.ValueString() {
		return true, diags
	}
	return ldapclient.EqualDN(v.ValueString(), o.ValueString()), diags
}

// IsKnownValue reports whether v holds a concrete string.
func (v DNStringValue) IsKnownValue() bool {
	return !v.IsNull() && !v.IsUnknown()
}

// DNString wraps a concrete DN.
func DNString(dn string) DNStringValue {
	return DNStringValue{StringValue: basetypes.NewStringValue(dn)}
}

func DNStringNull() DNStringValue {
	return DNStringValue{StringValue: basetypes.NewStringNull()}
}

func DNStringUnknown() DNStringValue {
	return DNStringValue{StringValue: basetypes.NewStringUnknown()}
}
