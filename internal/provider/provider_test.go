package provider

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/hashicorp/terraform-plugin-framework/providerserver"
	"github.com/hashicorp/terraform-plugin-go/tfprotov6"
	"github.com/hashicorp/terraform-plugin-testing/helper/resource"
)

// testAccProtoV6ProviderFactories is used to instantiate a provider during acceptance testing.
// The factory function is called for each Terraform CLI command to create a provider
// server that the CLI can connect to and interact with.
var testAccProtoV6ProviderFactories = map[string]func() (tfprotov6.ProviderServer, error){
	"dirrecord": providerserver.NewProtocol6WithError(New("test")()),
}

func testAccPreCheck(t *testing.T) *TestConfig {
	return testAccPreCheckWithConfig(t)
}

func TestAccRecordsDataSource_Base(t *testing.T) {
	config := testAccPreCheck(t)

	resource.Test(t, resource.TestCase{
		ProtoV6ProviderFactories: testAccProtoV6ProviderFactories,
		Steps: []resource.TestStep{
			{
				Config: TestProviderConfig() + fmt.Sprintf(`
data "dirrecord_records" "test" {
  base_dn = %q
  filter  = "(objectClass=*)"
  scope   = "base"
}`, config.BaseDN),
				Check: resource.ComposeAggregateTestCheckFunc(
					resource.TestCheckResourceAttr("data.dirrecord_records.test", "found", "true"),
					resource.TestCheckResourceAttr("data.dirrecord_records.test", "record_count", "1"),
					resource.TestCheckResourceAttrSet("data.dirrecord_records.test", "records.0.dn"),
					resource.TestMatchResourceAttr("data.dirrecord_records.test", "ldif", regexp.MustCompile(`(?i)^dn: `)),
				),
			},
		},
	})
}

func TestAccRecordsDataSource_NoMatch(t *testing.T) {
	testAccPreCheck(t)

	resource.Test(t, resource.TestCase{
		ProtoV6ProviderFactories: testAccProtoV6ProviderFactories,
		Steps: []resource.TestStep{
			{
				Config: TestProviderConfig() + fmt.Sprintf(`
data "dirrecord_records" "test" {
  filter                   = "(description=%s)"
  single_valued_attributes = ["description"]
}`, GenerateTestValue()),
				Check: resource.ComposeAggregateTestCheckFunc(
					resource.TestCheckResourceAttr("data.dirrecord_records.test", "found", "false"),
					resource.TestCheckResourceAttr("data.dirrecord_records.test", "record_count", "0"),
					resource.TestCheckResourceAttr("data.dirrecord_records.test", "ldif", ""),
				),
			},
		},
	})
}

func TestAccAttributesResource_Lifecycle(t *testing.T) {
	config := testAccPreCheck(t)
	if config.EntryDN == "" {
		t.Skipf("Skipping test: %s must name an entry the test may edit", EnvTestEntryDN)
	}

	first := GenerateTestValue()
	second := GenerateTestValue()

	step := func(value string) string {
		return TestProviderConfig() + fmt.Sprintf(`
resource "dirrecord_attributes" "test" {
  dn               = %q
  clear_on_destroy = true

  attribute = [
    {
      name  = "description"
      value = %q
    },
  ]
}`, config.EntryDN, value)
	}

	resource.Test(t, resource.TestCase{
		ProtoV6ProviderFactories: testAccProtoV6ProviderFactories,
		CheckDestroy:             TestCheckSingleValue(config.EntryDN, "description", ""),
		Steps: []resource.TestStep{
			{
				Config: step(first),
				Check: resource.ComposeAggregateTestCheckFunc(
					TestCheckRecordExists("dirrecord_attributes.test"),
					TestCheckSingleValue(config.EntryDN, "description", first),
					resource.TestCheckResourceAttr("dirrecord_attributes.test", "attribute.0.op", "replace"),
					resource.TestMatchResourceAttr("dirrecord_attributes.test", "changes_ldif", regexp.MustCompile(`replace: description`)),
				),
			},
			{
				Config: step(second),
				Check:  TestCheckSingleValue(config.EntryDN, "description", second),
			},
		},
	})
}
