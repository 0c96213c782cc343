package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/inventory-sms-agent/agent/contract"
)

func TestBuildForAgentInventory(t *testing.T) {
	t.Parallel()

	infos, executor := BuildForAgent(contractx.AgentTagInventory, newSampleInventory(t))
	if len(infos) != 3 {
		t.Fatalf("expected 3 tool infos, got %d", len(infos))
	}
	want := []string{ToolInventoryStatus, ToolProductDetails, ToolReorderRecommendations}
	for i, name := range want {
		if infos[i].Name != name {
			t.Fatalf("unexpected tool at %d: %s", i, infos[i].Name)
		}
	}
	if executor == nil {
		t.Fatal("executor must not be nil")
	}
}

func TestBuildForAgentNone(t *testing.T) {
	t.Parallel()

	infos, _ := BuildForAgent(contractx.AgentTagNone, nil)
	if len(infos) != 0 {
		t.Fatalf("expected no tools for none, got %d", len(infos))
	}
}

func TestDefaultExecutorUnavailableMessage(t *testing.T) {
	t.Parallel()

	executor := DefaultExecutor(contractx.AgentTagInventory)
	out, err := executor(context.Background(), "math.evaluate", map[string]any{"expression": "1+1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Tool != "math.evaluate" {
		t.Fatalf("unexpected tool: %s", out.Tool)
	}
	if out.Error == "" || out.Code != contractx.ToolCodeUnknownTool {
		t.Fatalf("expected unknown tool payload, got %+v", out)
	}
}

func TestExecutorProductDetails(t *testing.T) {
	t.Parallel()

	executor := NewExecutor(contractx.AgentTagInventory, newSampleInventory(t))
	out, err := executor(context.Background(), ToolProductDetails, map[string]any{"product_name": "macbook"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Error != "" {
		t.Fatalf("unexpected tool error: %s", out.Error)
	}
	details, ok := out.Result.(ProductDetails)
	if !ok {
		t.Fatalf("unexpected result type: %T", out.Result)
	}
	if details.ID != "P003" {
		t.Fatalf("unexpected product: %s", details.ID)
	}
}

func TestExecutorErrorPayloads(t *testing.T) {
	t.Parallel()

	executor := NewExecutor(contractx.AgentTagInventory, newSampleInventory(t))
	tests := []struct {
		name string
		tool string
		args map[string]any
		code string
	}{
		{name: "not found", tool: ToolProductDetails, args: map[string]any{"product_id": "P404"}, code: contractx.ToolCodeNotFound},
		{name: "no identifiers", tool: ToolProductDetails, args: map[string]any{}, code: contractx.ToolCodeInvalidArguments},
		{name: "wrong type", tool: ToolProductDetails, args: map[string]any{"product_id": 42}, code: contractx.ToolCodeInvalidArguments},
		{name: "unexpected field", tool: ToolInventoryStatus, args: map[string]any{"warehouse": "east"}, code: contractx.ToolCodeInvalidArguments},
		{name: "unknown tool", tool: "delete_product", args: nil, code: contractx.ToolCodeUnknownTool},
	}

	for _, tc := range tests {
		out, err := executor(context.Background(), tc.tool, tc.args)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if out.Code != tc.code {
			t.Fatalf("%s: expected code %s, got %s (%s)", tc.name, tc.code, out.Code, out.Error)
		}
		if out.Error == "" {
			t.Fatalf("%s: expected error message", tc.name)
		}
	}
}

func TestExecutorContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	executor := NewExecutor(contractx.AgentTagInventory, newSampleInventory(t))
	_, err := executor(ctx, ToolInventoryStatus, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestArgsSchemaFromStruct(t *testing.T) {
	t.Parallel()

	raw, err := argsSchema(ToolProductDetails)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	props, ok := raw["properties"].(map[string]any)
	if !ok {
		t.Fatalf("expected properties, got %v", raw)
	}
	for _, key := range []string{"product_id", "product_name"} {
		if _, ok := props[key]; !ok {
			t.Fatalf("missing property %s", key)
		}
	}
	if _, err := argsSchema("nope"); !errors.Is(err, contractx.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestToolInfoParamsFollowArgStructs(t *testing.T) {
	t.Parallel()

	want := map[string]map[string]string{
		ToolInventoryStatus: {},
		ToolProductDetails: {
			"product_id":   "Product identifier such as P001",
			"product_name": "Full or partial product name",
		},
		ToolReorderRecommendations: {},
	}

	infos := InfosForAgent(contractx.AgentTagInventory)
	if len(infos) != len(want) {
		t.Fatalf("expected %d tools, got %d", len(want), len(infos))
	}
	for _, info := range infos {
		params, err := paramsFor(info.Name)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", info.Name, err)
		}
		expected, ok := want[info.Name]
		if !ok {
			t.Fatalf("unexpected tool %s", info.Name)
		}
		if len(params) != len(expected) {
			t.Fatalf("%s: expected %d params, got %d", info.Name, len(expected), len(params))
		}
		for name, desc := range expected {
			p, ok := params[name]
			if !ok {
				t.Fatalf("%s: missing param %s", info.Name, name)
			}
			if p.Type != schema.String || p.Desc != desc || p.Required {
				t.Fatalf("%s.%s: got %+v", info.Name, name, p)
			}
		}

		openAPI, err := info.ParamsOneOf.ToOpenAPIV3()
		if err != nil {
			t.Fatalf("%s: to openapi: %v", info.Name, err)
		}
		if len(openAPI.Properties) != len(expected) {
			t.Fatalf("%s: expected %d schema properties, got %d", info.Name, len(expected), len(openAPI.Properties))
		}
	}
}
