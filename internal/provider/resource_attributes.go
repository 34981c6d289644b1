package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/terraform-plugin-framework-validators/listvalidator"
	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/booldefault"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/planmodifier"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/stringdefault"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/stringplanmodifier"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	ldapclient "github.com/isometry/terraform-provider-dirrecord/internal/ldap"
	"github.com/isometry/terraform-provider-dirrecord/internal/provider/helpers"
	customtypes "github.com/isometry/terraform-provider-dirrecord/internal/provider/types"
	"github.com/isometry/terraform-provider-dirrecord/internal/provider/validators"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ resource.Resource = &AttributesResource{}
var _ resource.ResourceWithConfigure = &AttributesResource{}
var _ resource.ResourceWithImportState = &AttributesResource{}

func NewAttributesResource() resource.Resource {
	return &AttributesResource{}
}

// AttributesResource applies attribute edits to an existing directory entry.
type AttributesResource struct {
	client *ldapclient.DirectoryClient
}

// AttributesResourceModel describes the resource data model.
type AttributesResourceModel struct {
	ID             types.String              `tfsdk:"id"`
	DN             customtypes.DNStringValue `tfsdk:"dn"`
	Attributes     []AttributeEditModel      `tfsdk:"attribute"`
	ClearOnDestroy types.Bool                `tfsdk:"clear_on_destroy"`
	ChangesLDIF    types.String              `tfsdk:"changes_ldif"`
}

// AttributeEditModel is one element of the "attribute" list.
type AttributeEditModel struct {
	Name   types.String `tfsdk:"name"`
	Op     types.String `tfsdk:"op"`
	Value  types.String `tfsdk:"value"`
	Values types.List   `tfsdk:"values"`
}

func (r *AttributesResource) Metadata(ctx context.Context, req resource.MetadataRequest, resp *resource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_attributes"
}

func (r *AttributesResource) Schema(ctx context.Context, req resource.SchemaRequest, resp *resource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Edits attributes of an existing directory entry. All edits are sent to the server " +
			"as one modify operation, in the order they are listed. The entry itself is never created or deleted.",

		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				MarkdownDescription: "The normalized DN of the entry.",
				Computed:            true,
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
			"dn": schema.StringAttribute{
				MarkdownDescription: "Distinguished name of the entry to edit. Changing it replaces the resource.",
				Required:            true,
				CustomType:          customtypes.DNStringType{},
				Validators: []validator.String{
					validators.IsValidDN(),
				},
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.RequiresReplace(),
				},
			},
			"attribute": schema.ListNestedAttribute{
				MarkdownDescription: "Attribute edits, applied in order.",
				Required:            true,
				Validators: []validator.List{
					listvalidator.SizeAtLeast(1),
				},
				NestedObject: schema.NestedAttributeObject{
					Attributes: map[string]schema.Attribute{
						"name": schema.StringAttribute{
							MarkdownDescription: "Attribute name, e.g. `mail`.",
							Required:            true,
							Validators: []validator.String{
								stringvalidator.LengthAtLeast(1),
							},
						},
						"op": schema.StringAttribute{
							MarkdownDescription: "Edit operation: `replace` sets the attribute to exactly the given values, " +
								"`append` adds the given values, `clear` removes every value. Defaults to `replace`.",
							Optional: true,
							Computed: true,
							Default:  stringdefault.StaticString("replace"),
							Validators: []validator.String{
								validators.CaseInsensitiveOneOf("replace", "append", "clear"),
							},
						},
						"value": schema.StringAttribute{
							MarkdownDescription: "Value of a single-valued attribute. Unset with `replace` removes the attribute.",
							Optional:            true,
							Validators: []validator.String{
								stringvalidator.ConflictsWith(path.MatchRelative().AtParent().AtName("values")),
							},
						},
						"values": schema.ListAttribute{
							MarkdownDescription: "Values of a multi-valued attribute.",
							Optional:            true,
							ElementType:         types.StringType,
						},
					},
				},
			},
			"clear_on_destroy": schema.BoolAttribute{
				MarkdownDescription: "Clear attributes managed with `replace` when the resource is destroyed or the " +
					"attribute is removed from configuration. Defaults to `false`.",
				Optional: true,
				Computed: true,
				Default:  booldefault.StaticBool(false),
			},
			"changes_ldif": schema.StringAttribute{
				MarkdownDescription: "The last applied modify operation as an LDIF change record.",
				Computed:            true,
			},
		},
	}
}

func (r *AttributesResource) Configure(ctx context.Context, req resource.ConfigureRequest, resp *resource.ConfigureResponse) {
	// Prevent panic if the provider has not been configured.
	if req.ProviderData == nil {
		return
	}

	providerData, ok := req.ProviderData.(*ldapclient.ProviderData)
	if !ok {
		resp.Diagnostics.AddError(
			"Unexpected Resource Configure Type",
			fmt.Sprintf("Expected *ldapclient.ProviderData, got: %T. Please report this issue to the provider developers.", req.ProviderData),
		)
		return
	}

	r.client = providerData.Client
}

func (r *AttributesResource) Create(ctx context.Context, req resource.CreateRequest, resp *resource.CreateResponse) {
	var data AttributesResourceModel

	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.Plan.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	logCompletion := ldapclient.LogResourceOperation(ctx, "dirrecord_attributes", "create", map[string]any{
		"dn": data.DN.ValueString(),
	})
	defer func() {
		logCompletion(firstError(resp.Diagnostics))
	}()

	rec, diags := recordFromModel(ctx, data.DN.ValueString(), data.Attributes)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	resp.Diagnostics.Append(r.apply(ctx, rec, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *AttributesResource) Read(ctx context.Context, req resource.ReadRequest, resp *resource.ReadResponse) {
	var data AttributesResourceModel

	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.State.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	if r.client == nil {
		resp.Diagnostics.Append(unconfiguredClient()...)
		return
	}

	rec, err := r.client.SearchOne(ctx, &ldapclient.Query{
		BaseDN: data.DN.ValueString(),
		Filter: "(objectClass=*)",
		Scope:  ldapclient.ScopeBaseObject,
	})
	if err != nil && !ldapclient.IsNoSuchObjectError(err) {
		resp.Diagnostics.AddError(
			"Error Reading Directory Entry",
			fmt.Sprintf("Could not read %q: %s", data.DN.ValueString(), err.Error()),
		)
		return
	}

	if rec == nil {
		tflog.Warn(ctx, "Directory entry not found, removing from state", map[string]any{
			"dn": data.DN.ValueString(),
		})
		resp.State.RemoveResource(ctx)
		return
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *AttributesResource) Update(ctx context.Context, req resource.UpdateRequest, resp *resource.UpdateResponse) {
	var plan, state AttributesResourceModel

	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.Plan.Get(ctx, &plan)...)
	resp.Diagnostics.Append(req.State.Get(ctx, &state)...)
	if resp.Diagnostics.HasError() {
		return
	}

	logCompletion := ldapclient.LogResourceOperation(ctx, "dirrecord_attributes", "update", map[string]any{
		"dn": plan.DN.ValueString(),
	})
	defer func() {
		logCompletion(firstError(resp.Diagnostics))
	}()

	rec, diags := recordFromModel(ctx, plan.DN.ValueString(), plan.Attributes)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	if plan.ClearOnDestroy.ValueBool() {
		if r.client == nil {
			resp.Diagnostics.Append(unconfiguredClient()...)
			return
		}

		removed := removedReplaceAttributes(state.Attributes, plan.Attributes)
		present, _, err := r.presentAttributes(ctx, plan.DN.ValueString(), removed)
		if err != nil {
			resp.Diagnostics.AddError(
				"Error Reading Directory Entry",
				fmt.Sprintf("Could not read %q: %s", plan.DN.ValueString(), err.Error()),
			)
			return
		}
		for _, name := range present {
			rec.Clear(name)
		}
	}

	resp.Diagnostics.Append(r.apply(ctx, rec, &plan)...)
	if resp.Diagnostics.HasError() {
		return
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &plan)...)
}

func (r *AttributesResource) Delete(ctx context.Context, req resource.DeleteRequest, resp *resource.DeleteResponse) {
	var data AttributesResourceModel

	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.State.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	logCompletion := ldapclient.LogResourceOperation(ctx, "dirrecord_attributes", "delete", map[string]any{
		"dn":               data.DN.ValueString(),
		"clear_on_destroy": data.ClearOnDestroy.ValueBool(),
	})
	defer func() {
		logCompletion(firstError(resp.Diagnostics))
	}()

	if !data.ClearOnDestroy.ValueBool() {
		return
	}

	if r.client == nil {
		resp.Diagnostics.Append(unconfiguredClient()...)
		return
	}

	dn := data.DN.ValueString()
	present, found, err := r.presentAttributes(ctx, dn, removedReplaceAttributes(data.Attributes, nil))
	if err != nil {
		resp.Diagnostics.AddError(
			"Error Reading Directory Entry",
			fmt.Sprintf("Could not read %q: %s", dn, err.Error()),
		)
		return
	}
	if !found {
		tflog.Warn(ctx, "Directory entry not found, nothing to clear", map[string]any{"dn": dn})
		return
	}

	rec := ldapclient.NewRecord(dn, "")
	for _, name := range present {
		rec.Clear(name)
	}

	if err := r.client.ModifyRecord(ctx, rec); err != nil {
		if ldapclient.IsNoSuchObjectError(err) {
			return
		}
		resp.Diagnostics.AddError(
			"Error Clearing Attributes",
			fmt.Sprintf("Could not clear managed attributes of %q: %s", dn, err.Error()),
		)
	}
}

// presentAttributes reads the entry at dn and returns those of names it
// holds at least one value for. found is false when the entry does not exist.
func (r *AttributesResource) presentAttributes(ctx context.Context, dn string, names []string) (present []string, found bool, err error) {
	if len(names) == 0 {
		return nil, true, nil
	}

	specs := make([]ldapclient.AttributeSpec, 0, len(names))
	for _, name := range names {
		specs = append(specs, ldapclient.AttributeSpec{Name: name, Arity: ldapclient.MultiValued})
	}

	rec, err := r.client.SearchOne(ctx, &ldapclient.Query{
		BaseDN:     dn,
		Filter:     "(objectClass=*)",
		Scope:      ldapclient.ScopeBaseObject,
		Attributes: specs,
	})
	if err != nil {
		if ldapclient.IsNoSuchObjectError(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if rec == nil {
		return nil, false, nil
	}

	for _, name := range names {
		attr, ok := rec.Attribute(name)
		if !ok {
			continue
		}
		if values, _ := attr.Multi(); len(values) > 0 {
			present = append(present, name)
		}
	}
	return present, true, nil
}

func (r *AttributesResource) ImportState(ctx context.Context, req resource.ImportStateRequest, resp *resource.ImportStateResponse) {
	if err := ldapclient.ValidateDNSyntax(req.ID); err != nil {
		resp.Diagnostics.AddError(
			"Invalid Import ID",
			fmt.Sprintf("The import ID must be the DN of the entry: %s", err.Error()),
		)
		return
	}

	resp.Diagnostics.Append(resp.State.SetAttribute(ctx, path.Root("id"), req.ID)...)
	resp.Diagnostics.Append(resp.State.SetAttribute(ctx, path.Root("dn"), customtypes.DNString(req.ID))...)
}

// apply writes rec and records the id and change LDIF on data.
func (r *AttributesResource) apply(ctx context.Context, rec *ldapclient.Record, data *AttributesResourceModel) diag.Diagnostics {
	if r.client == nil {
		return unconfiguredClient()
	}

	var diags diag.Diagnostics

	changes, err := ldapclient.ChangesLDIF([]*ldapclient.Record{rec})
	if err != nil {
		diags.AddError("Error Rendering LDIF", err.Error())
		return diags
	}

	tflog.Debug(ctx, "Applying attribute edits", map[string]any{
		"dn":    rec.DN,
		"edits": rec.Len(),
	})

	if err := r.client.ModifyRecord(ctx, rec); err != nil {
		summary := "Error Modifying Directory Entry"
		if ldapclient.IsDuplicateValueError(err) {
			summary = "Attribute Value Already Present"
		}
		diags.AddError(summary, fmt.Sprintf("Could not modify %q: %s", rec.DN, err.Error()))
		return diags
	}

	id, err := ldapclient.NormalizeDN(rec.DN)
	if err != nil {
		diags.AddError("Invalid Distinguished Name", err.Error())
		return diags
	}

	data.ID = types.StringValue(id)
	data.ChangesLDIF = types.StringValue(changes)
	return diags
}

// recordFromModel builds the record of edits for dn from the configured
// attribute list. A set "values" makes the attribute multi-valued.
func recordFromModel(ctx context.Context, dn string, attrs []AttributeEditModel) (*ldapclient.Record, diag.Diagnostics) {
	var diags diag.Diagnostics

	rec := ldapclient.NewRecord(dn, "")
	seen := make(map[string]bool, len(attrs))

	for i, a := range attrs {
		name := a.Name.ValueString()
		attrPath := path.Root("attribute").AtListIndex(i)

		if seen[name] {
			diags.AddAttributeError(attrPath.AtName("name"), "Duplicate Attribute",
				fmt.Sprintf("Attribute %q is edited more than once.", name))
			continue
		}
		seen[name] = true

		op, err := ldapclient.ParseEditOp(a.Op.ValueString())
		if err != nil {
			diags.AddAttributeError(attrPath.AtName("op"), "Invalid Edit Operation", err.Error())
			continue
		}

		multi := !a.Values.IsNull()

		if op == ldapclient.OpClear {
			arity := ldapclient.SingleValued
			if multi {
				arity = ldapclient.MultiValued
			}
			rec.Put(ldapclient.Clear(name, arity))
			continue
		}

		var value ldapclient.AttributeValue
		if multi {
			values, d := helpers.StringListToGo(ctx, a.Values)
			diags.Append(d...)
			value = ldapclient.NewMultiValued(name, values)
		} else {
			value = ldapclient.NewSingleValued(name, helpers.StringPointer(a.Value))
		}

		rec.Put(ldapclient.AttributeEdit{AttributeValue: value, Op: op})
	}

	return rec, diags
}

// removedReplaceAttributes returns the names of replace-managed attributes in
// prior that are no longer edited in next.
func removedReplaceAttributes(prior, next []AttributeEditModel) []string {
	kept := make(map[string]bool, len(next))
	for _, a := range next {
		kept[a.Name.ValueString()] = true
	}

	var removed []string
	for _, a := range prior {
		name := a.Name.ValueString()
		if kept[name] || !strings.EqualFold(a.Op.ValueString(), "replace") {
			continue
		}
		removed = append(removed, name)
	}
	return removed
}
