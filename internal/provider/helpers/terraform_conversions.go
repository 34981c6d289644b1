// Package helpers provides common utility functions for Terraform type conversions
// that can be reused across resources and data sources.
package helpers

import (
	"context"

	"github.com/hashicorp/terraform-plugin-framework/attr"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/types"
)

// StringListValue converts a Go string slice to a Terraform list. A nil slice
// becomes a null list; an empty slice becomes an empty list.
func StringListValue(values []string) types.List {
	if values == nil {
		return types.ListNull(types.StringType)
	}

	elements := make([]attr.Value, len(values))
	for i, v := range values {
		elements[i] = types.StringValue(v)
	}
	return types.ListValueMust(types.StringType, elements)
}

// StringListToGo converts a Terraform list of strings to a Go slice. Null and
// unknown lists become nil; null elements are skipped.
func StringListToGo(ctx context.Context, list types.List) ([]string, diag.Diagnostics) {
	if list.IsNull() || list.IsUnknown() {
		return nil, nil
	}

	var elements []types.String
	diags := list.ElementsAs(ctx, &elements, false)
	if diags.HasError() {
		return nil, diags
	}

	values := make([]string, 0, len(elements))
	for _, e := range elements {
		if e.IsNull() || e.IsUnknown() {
			continue
		}
		values = append(values, e.ValueString())
	}
	return values, diags
}

// StringPointerValue converts an optional Go string to a Terraform string.
func StringPointerValue(value *string) types.String {
	if value == nil {
		return types.StringNull()
	}
	return types.StringValue(*value)
}

// StringPointer converts a Terraform string to an optional Go string. Null and
// unknown values become nil.
func StringPointer(value types.String) *string {
	if value.IsNull() || value.IsUnknown() {
		return nil
	}
	s := value.ValueString()
	return &s
}
