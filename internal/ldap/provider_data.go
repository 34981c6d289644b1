package ldap

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// ProviderData is handed by the provider to its data sources and resources.
type ProviderData struct {
	Client *DirectoryClient
}

// NewProviderData creates a new provider data wrapper.
func NewProviderData(client *DirectoryClient) *ProviderData {
	return &ProviderData{Client: client}
}

// ValidateConnection ensures the client is available and open.
func (pd *ProviderData) ValidateConnection(ctx context.Context) error {
	if pd == nil || pd.Client == nil {
		return fmt.Errorf("directory client is not initialized")
	}

	if err := pd.Client.requireOpen("validate"); err != nil {
		return err
	}

	tflog.Debug(ctx, "Provider data validation successful", map[string]any{
		"base_dn":   pd.Client.Config().BaseDN,
		"page_size": pd.Client.pageSize,
	})

	return nil
}

// Close closes the client.
func (pd *ProviderData) Close() error {
	if pd == nil || pd.Client == nil {
		return nil
	}

	if err := pd.Client.Close(); err != nil {
		return fmt.Errorf("failed to close directory client: %w", err)
	}
	return nil
}
