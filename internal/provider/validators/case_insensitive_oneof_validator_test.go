package validators

import (
	"context"
	"strings"
	"testing"

	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
)

func TestCaseInsensitiveOneOf(t *testing.T) {
	t.Parallel()

	ops := CaseInsensitiveOneOf("replace", "append", "clear")
	scopes := CaseInsensitiveOneOf("base", "onelevel", "subtree")

	testCases := map[string]struct {
		validator validator.String
		input     types.String
		expectErr bool
	}{
		"valid-exact-match": {
			validator: ops,
			input:     types.StringValue("replace"),
			expectErr: false,
		},
		"valid-uppercase": {
			validator: ops,
			input:     types.StringValue("APPEND"),
			expectErr: false,
		},
		"valid-mixed-case": {
			validator: ops,
			input:     types.StringValue("cLeAr"),
			expectErr: false,
		},
		"valid-with-whitespace": {
			validator: ops,
			input:     types.StringValue("  replace  "),
			expectErr: false,
		},
		"valid-scope": {
			validator: scopes,
			input:     types.StringValue("OneLevel"),
			expectErr: false,
		},
		"invalid-value": {
			validator: ops,
			input:     types.StringValue("increment"),
			expectErr: true,
		},
		"invalid-partial-match": {
			validator: scopes,
			input:     types.StringValue("sub"),
			expectErr: true,
		},
		"invalid-empty": {
			validator: scopes,
			input:     types.StringValue(""),
			expectErr: true,
		},
		"null-value": {
			validator: ops,
			input:     types.StringNull(),
			expectErr: false,
		},
		"unknown-value": {
			validator: ops,
			input:     types.StringUnknown(),
			expectErr: false,
		},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			req := validator.StringRequest{
				Path:        path.Root("test"),
				ConfigValue: testCase.input,
			}
			resp := validator.StringResponse{}

			testCase.validator.ValidateString(context.Background(), req, &resp)

			if testCase.expectErr && !resp.Diagnostics.HasError() {
				t.Fatal("expected error, got none")
			}

			if !testCase.expectErr && resp.Diagnostics.HasError() {
				t.Fatalf("unexpected error: %s", resp.Diagnostics)
			}
		})
	}
}

func TestCaseInsensitiveOneOf_Description(t *testing.T) {
	t.Parallel()

	v := CaseInsensitiveOneOf("base", "onelevel", "subtree")
	desc := v.Description(context.Background())

	for _, expected := range []string{"base", "onelevel", "subtree"} {
		if !strings.Contains(desc, expected) {
			t.Fatalf("expected description to contain %q, got: %s", expected, desc)
		}
	}

	if md := v.MarkdownDescription(context.Background()); !strings.Contains(md, "`onelevel`") {
		t.Fatalf("expected markdown description to quote keywords, got: %s", md)
	}
}
