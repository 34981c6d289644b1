package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/terraform-plugin-framework-validators/listvalidator"
	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/attr"
	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	ldapclient "github.com/isometry/terraform-provider-dirrecord/internal/ldap"
	"github.com/isometry/terraform-provider-dirrecord/internal/provider/helpers"
	customtypes "github.com/isometry/terraform-provider-dirrecord/internal/provider/types"
	"github.com/isometry/terraform-provider-dirrecord/internal/provider/validators"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ datasource.DataSource = &RecordsDataSource{}
var _ datasource.DataSourceWithConfigure = &RecordsDataSource{}

func NewRecordsDataSource() datasource.DataSource {
	return &RecordsDataSource{}
}

// RecordsDataSource reads directory entries as records.
type RecordsDataSource struct {
	client *ldapclient.DirectoryClient
}

// RecordsDataSourceModel describes the data source data model.
type RecordsDataSourceModel struct {
	ID                     types.String              `tfsdk:"id"`
	BaseDN                 customtypes.DNStringValue `tfsdk:"base_dn"`
	Filter                 types.String              `tfsdk:"filter"`
	Scope                  types.String              `tfsdk:"scope"`
	SingleValuedAttributes types.List                `tfsdk:"single_valued_attributes"`
	MultiValuedAttributes  types.List                `tfsdk:"multi_valued_attributes"`
	FriendlyNameAttribute  types.String              `tfsdk:"friendly_name_attribute"`

	// Computed
	Found       types.Bool   `tfsdk:"found"`
	RecordCount types.Int64  `tfsdk:"record_count"`
	Records     types.List   `tfsdk:"records"`
	LDIF        types.String `tfsdk:"ldif"`
}

// recordAttrTypes is the object type of one element of "records".
var recordAttrTypes = map[string]attr.Type{
	"dn":            types.StringType,
	"friendly_name": types.StringType,
	"single_values": types.MapType{ElemType: types.StringType},
	"multi_values":  types.MapType{ElemType: types.ListType{ElemType: types.StringType}},
}

func (d *RecordsDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_records"
}

func (d *RecordsDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Searches the directory with an LDAP filter and returns the matching entries as records. " +
			"Each record carries its DN, a friendly name, and the requested attributes split by arity. " +
			"Large result sets are retrieved with the simple paged results control.",

		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				MarkdownDescription: "Identifier of the search, derived from scope, base DN and filter.",
				Computed:            true,
			},
			"base_dn": schema.StringAttribute{
				MarkdownDescription: "Base DN of the search. Defaults to the provider `base_dn`.",
				Optional:            true,
				CustomType:          customtypes.DNStringType{},
				Validators: []validator.String{
					validators.IsValidDN(),
				},
			},
			"filter": schema.StringAttribute{
				MarkdownDescription: "LDAP search filter (RFC 4515), e.g. `(&(objectClass=person)(mail=*))`.",
				Required:            true,
				Validators: []validator.String{
					stringvalidator.LengthAtLeast(1),
				},
			},
			"scope": schema.StringAttribute{
				MarkdownDescription: "Search scope: `base`, `onelevel` or `subtree`. Defaults to `subtree`.",
				Optional:            true,
				Validators: []validator.String{
					validators.CaseInsensitiveOneOf("base", "onelevel", "subtree"),
				},
			},
			"single_valued_attributes": schema.ListAttribute{
				MarkdownDescription: "Attributes read as a single value. Only the first value returned by the server is kept.",
				Optional:            true,
				ElementType:         types.StringType,
				Validators: []validator.List{
					listvalidator.UniqueValues(),
					listvalidator.ValueStringsAre(stringvalidator.LengthAtLeast(1)),
				},
			},
			"multi_valued_attributes": schema.ListAttribute{
				MarkdownDescription: "Attributes read as a list of values.",
				Optional:            true,
				ElementType:         types.StringType,
				Validators: []validator.List{
					listvalidator.UniqueValues(),
					listvalidator.ValueStringsAre(stringvalidator.LengthAtLeast(1)),
				},
			},
			"friendly_name_attribute": schema.StringAttribute{
				MarkdownDescription: "Attribute whose lower-cased value becomes each record's friendly name. " +
					"Defaults to the provider `friendly_name_attribute`, then to the first RDN value of the DN.",
				Optional: true,
			},
			"found": schema.BoolAttribute{
				MarkdownDescription: "Whether any entry matched the filter.",
				Computed:            true,
			},
			"record_count": schema.Int64Attribute{
				MarkdownDescription: "Number of matching entries.",
				Computed:            true,
			},
			"records": schema.ListNestedAttribute{
				MarkdownDescription: "Matching entries in server order.",
				Computed:            true,
				NestedObject: schema.NestedAttributeObject{
					Attributes: map[string]schema.Attribute{
						"dn": schema.StringAttribute{
							MarkdownDescription: "Distinguished name of the entry.",
							Computed:            true,
						},
						"friendly_name": schema.StringAttribute{
							MarkdownDescription: "Friendly name of the entry.",
							Computed:            true,
						},
						"single_values": schema.MapAttribute{
							MarkdownDescription: "Requested single-valued attributes. Attributes missing on the entry are null.",
							Computed:            true,
							ElementType:         types.StringType,
						},
						"multi_values": schema.MapAttribute{
							MarkdownDescription: "Requested multi-valued attributes. Attributes missing on the entry are null.",
							Computed:            true,
							ElementType:         types.ListType{ElemType: types.StringType},
						},
					},
				},
			},
			"ldif": schema.StringAttribute{
				MarkdownDescription: "The matching records rendered as LDIF content records.",
				Computed:            true,
			},
		},
	}
}

func (d *RecordsDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
	// Prevent panic if the provider has not been configured.
	if req.ProviderData == nil {
		return
	}

	providerData, ok := req.ProviderData.(*ldapclient.ProviderData)
	if !ok {
		resp.Diagnostics.AddError(
			"Unexpected Data Source Configure Type",
			fmt.Sprintf("Expected *ldapclient.ProviderData, got: %T. Please report this issue to the provider developers.", req.ProviderData),
		)
		return
	}

	d.client = providerData.Client
}

func (d *RecordsDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var data RecordsDataSourceModel

	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	logCompletion := ldapclient.LogDataSourceOperation(ctx, "dirrecord_records", "read", map[string]any{
		"base_dn": data.BaseDN.ValueString(),
		"filter":  data.Filter.ValueString(),
	})
	defer func() {
		logCompletion(firstError(resp.Diagnostics))
	}()

	if d.client == nil {
		resp.Diagnostics.Append(unconfiguredClient()...)
		return
	}

	query, diags := queryFromModel(ctx, &data)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	records, err := d.client.Search(ctx, query)
	if err != nil {
		resp.Diagnostics.AddError(
			"Error Searching Directory",
			fmt.Sprintf("Could not search %q with filter %q: %s", query.BaseDN, query.Filter, err.Error()),
		)
		return
	}

	tflog.Debug(ctx, "Directory search completed", map[string]any{
		"record_count": len(records),
	})

	resp.Diagnostics.Append(recordsToModel(query, records, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

// queryFromModel builds the search query from the data source configuration.
func queryFromModel(ctx context.Context, data *RecordsDataSourceModel) (*ldapclient.Query, diag.Diagnostics) {
	var diags diag.Diagnostics

	scope, ok := ldapclient.ParseSearchScope(strings.ToLower(strings.TrimSpace(data.Scope.ValueString())))
	if !ok {
		diags.AddAttributeError(
			path.Root("scope"),
			"Invalid Search Scope",
			fmt.Sprintf("Unsupported scope %q.", data.Scope.ValueString()),
		)
		return nil, diags
	}

	single, d := helpers.StringListToGo(ctx, data.SingleValuedAttributes)
	diags.Append(d...)
	multi, d := helpers.StringListToGo(ctx, data.MultiValuedAttributes)
	diags.Append(d...)
	if diags.HasError() {
		return nil, diags
	}

	specs := make([]ldapclient.AttributeSpec, 0, len(single)+len(multi))
	seen := make(map[string]bool, len(single)+len(multi))
	add := func(names []string, arity ldapclient.Arity) {
		for _, name := range names {
			if seen[name] {
				diags.AddAttributeError(
					path.Root("multi_valued_attributes"),
					"Duplicate Attribute",
					fmt.Sprintf("Attribute %q is listed more than once; each attribute has exactly one arity.", name),
				)
				continue
			}
			seen[name] = true
			specs = append(specs, ldapclient.AttributeSpec{Name: name, Arity: arity})
		}
	}
	add(single, ldapclient.SingleValued)
	add(multi, ldapclient.MultiValued)
	if diags.HasError() {
		return nil, diags
	}

	return &ldapclient.Query{
		BaseDN:                data.BaseDN.ValueString(),
		Filter:                data.Filter.ValueString(),
		Scope:                 scope,
		Attributes:            specs,
		FriendlyNameAttribute: data.FriendlyNameAttribute.ValueString(),
	}, diags
}

// recordsToModel writes the search result into the computed attributes.
func recordsToModel(query *ldapclient.Query, records []*ldapclient.Record, data *RecordsDataSourceModel) diag.Diagnostics {
	var diags diag.Diagnostics

	data.ID = types.StringValue(fmt.Sprintf("%s:%s:%s", query.Scope, query.BaseDN, query.Filter))
	data.Found = types.BoolValue(len(records) > 0)
	data.RecordCount = types.Int64Value(int64(len(records)))

	elements := make([]attr.Value, 0, len(records))
	for _, rec := range records {
		obj, d := recordObject(rec)
		diags.Append(d...)
		if diags.HasError() {
			return diags
		}
		elements = append(elements, obj)
	}

	list, d := types.ListValue(types.ObjectType{AttrTypes: recordAttrTypes}, elements)
	diags.Append(d...)
	data.Records = list

	out, err := ldapclient.RecordsLDIF(records)
	if err != nil {
		diags.AddError("Error Rendering LDIF", err.Error())
		return diags
	}
	data.LDIF = types.StringValue(out)

	return diags
}

// recordObject converts one record to the "records" element object.
func recordObject(rec *ldapclient.Record) (types.Object, diag.Diagnostics) {
	var diags diag.Diagnostics

	singles := make(map[string]attr.Value)
	multis := make(map[string]attr.Value)

	for _, a := range rec.Attributes() {
		switch v := a.Value.(type) {
		case ldapclient.Single:
			singles[a.Name] = helpers.StringPointerValue(v.Value)
		case ldapclient.Multi:
			multis[a.Name] = helpers.StringListValue(v.Values)
		}
	}

	singleMap, d := types.MapValue(types.StringType, singles)
	diags.Append(d...)
	multiMap, d := types.MapValue(types.ListType{ElemType: types.StringType}, multis)
	diags.Append(d...)
	if diags.HasError() {
		return types.ObjectNull(recordAttrTypes), diags
	}

	return types.ObjectValue(recordAttrTypes, map[string]attr.Value{
		"dn":            types.StringValue(rec.DN),
		"friendly_name": types.StringValue(rec.FriendlyName),
		"single_values": singleMap,
		"multi_values":  multiMap,
	})
}
