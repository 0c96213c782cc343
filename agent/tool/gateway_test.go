package tool

import (
	"context"
	"errors"
	"testing"

	contractx "github.com/tanpawarit/inventory-sms-agent/agent/contract"
)

func TestGatewayExecutesBatchInOrder(t *testing.T) {
	t.Parallel()

	gw := NewInventoryGateway(newSampleInventory(t))
	results, err := gw.Execute(context.Background(), contractx.AgentTagInventory, []contractx.ToolRequest{
		{CallID: "c1", Tool: ToolInventoryStatus},
		{CallID: "c2", Tool: ToolProductDetails, Args: map[string]any{"product_id": "P404"}},
		{CallID: "c3", Tool: ToolReorderRecommendations, Args: map[string]any{}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, id := range []string{"c1", "c2", "c3"} {
		if results[i].CallID != id {
			t.Fatalf("result %d: expected call id %s, got %s", i, id, results[i].CallID)
		}
	}
	if _, ok := results[0].Result.(InventoryStatus); !ok {
		t.Fatalf("unexpected status result type: %T", results[0].Result)
	}
	if results[1].Code != contractx.ToolCodeNotFound {
		t.Fatalf("expected not found payload, got %+v", results[1])
	}
	if _, ok := results[2].Result.(ReorderPlan); !ok {
		t.Fatalf("unexpected reorder result type: %T", results[2].Result)
	}
}

func TestGatewayRejectsToolsOutsideAllowList(t *testing.T) {
	t.Parallel()

	called := false
	gw := NewGateway(map[contractx.AgentTag]Executor{
		contractx.AgentTagInventory: func(context.Context, string, map[string]any) (contractx.ToolResult, error) {
			called = true
			return contractx.ToolResult{}, nil
		},
	})
	results, err := gw.Execute(context.Background(), contractx.AgentTagInventory, []contractx.ToolRequest{
		{CallID: "x", Tool: "update_stock"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatal("executor must not run for tools outside the allow-list")
	}
	if results[0].Code != contractx.ToolCodeUnknownTool || results[0].CallID != "x" {
		t.Fatalf("unexpected result: %+v", results[0])
	}
}

func TestGatewayUnknownAgent(t *testing.T) {
	t.Parallel()

	gw := NewInventoryGateway(newSampleInventory(t))
	_, err := gw.Execute(context.Background(), contractx.AgentTag("billing_agent"), nil)
	if !errors.Is(err, contractx.ErrUnknownAgent) {
		t.Fatalf("expected ErrUnknownAgent, got %v", err)
	}
}

func TestGatewayStopsOnCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gw := NewInventoryGateway(newSampleInventory(t))
	results, err := gw.Execute(ctx, contractx.AgentTagInventory, []contractx.ToolRequest{{Tool: ToolInventoryStatus}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}
