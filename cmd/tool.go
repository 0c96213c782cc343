package cmd

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	contractx "github.com/tanpawarit/inventory-sms-agent/agent/contract"
	toolx "github.com/tanpawarit/inventory-sms-agent/agent/tool"
)

func newToolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tool",
		Short: "Run an inventory tool directly and print its JSON result",
	}

	var productName string
	details := &cobra.Command{
		Use:   "details [product-id]",
		Short: "Details for one product, by id or --name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			toolArgs := map[string]any{}
			if len(args) == 1 {
				toolArgs["product_id"] = args[0]
			}
			if strings.TrimSpace(productName) != "" {
				toolArgs["product_name"] = productName
			}
			return runTool(cmd, toolx.ToolProductDetails, toolArgs)
		},
	}
	details.Flags().StringVar(&productName, "name", "", "product name to look up when no id is given")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Inventory overview with alerts",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runTool(cmd, toolx.ToolInventoryStatus, nil)
			},
		},
		details,
		&cobra.Command{
			Use:   "reorder",
			Short: "Reorder recommendations against the monthly budget",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runTool(cmd, toolx.ToolReorderRecommendations, nil)
			},
		},
	)
	return cmd
}

// runTool goes through the gateway so the output matches what the worker sees.
func runTool(cmd *cobra.Command, name string, args map[string]any) error {
	inv, err := wireInventory(cmd.Context())
	if err != nil {
		return err
	}

	results, err := toolx.NewInventoryGateway(inv).Execute(cmd.Context(), contractx.AgentTagInventory, []contractx.ToolRequest{
		{CallID: "cli", Tool: name, Args: args},
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(results[0])
}
