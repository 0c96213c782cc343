package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestToolDetailsNotFoundPayload(t *testing.T) {
	out, err := runCLI(t, "tool", "details", "P404")
	require.NoError(t, err)

	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "get_product_details", res["tool"])
	assert.Equal(t, "not_found", res["code"])
	assert.Equal(t, "Product not found", res["error"])
}

func TestToolStatusPrintsOverview(t *testing.T) {
	out, err := runCLI(t, "tool", "status")
	require.NoError(t, err)

	var res struct {
		Tool   string         `json:"tool"`
		Result map[string]any `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "get_inventory_status", res.Tool)
	assert.Contains(t, res.Result, "overview")
	assert.Contains(t, res.Result, "product_status")
}

func TestAskRequiresMessage(t *testing.T) {
	_, err := runCLI(t, "ask")
	require.Error(t, err)
}
