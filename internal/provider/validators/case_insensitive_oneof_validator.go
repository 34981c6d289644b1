package validators

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
)

var _ validator.String = keywordValidator{}

// keywordValidator accepts one of a fixed set of keywords in any letter case.
type keywordValidator struct {
	keywords []string
}

func (k keywordValidator) Description(context.Context) string {
	return fmt.Sprintf("one of %s, in any case", strings.Join(k.keywords, ", "))
}

func (k keywordValidator) MarkdownDescription(context.Context) string {
	quoted := make([]string, len(k.keywords))
	for i, kw := range k.keywords {
		quoted[i] = "`" + kw + "`"
	}
	return fmt.Sprintf("one of %s, in any case", strings.Join(quoted, ", "))
}

func (k keywordValidator) ValidateString(_ context.Context, req validator.StringRequest, resp *validator.StringResponse) {
	if req.ConfigValue.IsNull() || req.ConfigValue.IsUnknown() {
		return
	}

	got := strings.TrimSpace(req.ConfigValue.ValueString())
	for _, kw := range k.keywords {
		if strings.EqualFold(got, kw) {
			return
		}
	}

	resp.Diagnostics.AddAttributeError(req.Path, "Unsupported Keyword",
		fmt.Sprintf("%q is not one of %s.", req.ConfigValue.ValueString(), strings.Join(k.keywords, ", ")))
}

// CaseInsensitiveOneOf accepts scope and edit-operation keywords such as
// "subtree" or "REPLACE". Surrounding whitespace is ignored. Null and unknown
// values pass.
func CaseInsensitiveOneOf(keywords ...string) validator.String {
	return keywordValidator{keywords: keywords}
}
