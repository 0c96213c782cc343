package tool

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/schema"
	reflectschema "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v6"

	contractx "github.com/tanpawarit/inventory-sms-agent/agent/contract"
)

type StatusArgs struct{}

type ProductDetailsArgs struct {
	ProductID   string `json:"product_id,omitempty" jsonschema:"description=Product identifier such as P001"`
	ProductName string `json:"product_name,omitempty" jsonschema:"description=Full or partial product name"`
}

type ReorderArgs struct{}

// argSchema pairs the reflected JSON schema of an argument struct with its
// compiled validator.
type argSchema struct {
	raw      map[string]any
	compiled *jsonschema.Schema
}

var (
	argSchemasOnce sync.Once
	argSchemas     map[string]*argSchema
	argSchemasErr  error
)

func loadArgSchemas() (map[string]*argSchema, error) {
	argSchemasOnce.Do(func() {
		out := make(map[string]*argSchema, 3)
		for name, v := range map[string]any{
			ToolInventoryStatus:        &StatusArgs{},
			ToolProductDetails:         &ProductDetailsArgs{},
			ToolReorderRecommendations: &ReorderArgs{},
		} {
			s, err := compileArgSchema(name, v)
			if err != nil {
				argSchemasErr = fmt.Errorf("compile %s args schema: %w", name, err)
				return
			}
			out[name] = s
		}
		argSchemas = out
	})
	return argSchemas, argSchemasErr
}

func compileArgSchema(name string, v any) (*argSchema, error) {
	r := &reflectschema.Reflector{
		Anonymous:      true,
		DoNotReference: true,
		ExpandedStruct: true,
	}
	data, err := json.Marshal(r.Reflect(v))
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	url := name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, err
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, err
	}
	return &argSchema{raw: raw, compiled: compiled}, nil
}

func argsSchema(tool string) (map[string]any, error) {
	schemas, err := loadArgSchemas()
	if err != nil {
		return nil, err
	}
	s, ok := schemas[tool]
	if !ok {
		return nil, fmt.Errorf("%w: no schema for tool=%s", contractx.ErrNotFound, tool)
	}
	return s.raw, nil
}

// paramsFor converts the reflected argument schema of tool into the
// parameter map the model sees, so both come from the same struct tags.
func paramsFor(tool string) (map[string]*schema.ParameterInfo, error) {
	raw, err := argsSchema(tool)
	if err != nil {
		return nil, err
	}
	return objectParams(raw), nil
}

func mustParams(tool string) *schema.ParamsOneOf {
	params, err := paramsFor(tool)
	if err != nil {
		panic(err)
	}
	return schema.NewParamsOneOfByParams(params)
}

func objectParams(node map[string]any) map[string]*schema.ParameterInfo {
	out := map[string]*schema.ParameterInfo{}
	props, _ := node["properties"].(map[string]any)
	required := map[string]bool{}
	if list, ok := node["required"].([]any); ok {
		for _, v := range list {
			if name, ok := v.(string); ok {
				required[name] = true
			}
		}
	}
	for name, v := range props {
		prop, ok := v.(map[string]any)
		if !ok {
			continue
		}
		info := paramInfo(prop)
		info.Required = required[name]
		out[name] = info
	}
	return out
}

func paramInfo(prop map[string]any) *schema.ParameterInfo {
	info := &schema.ParameterInfo{}
	info.Desc, _ = prop["description"].(string)
	kind, _ := prop["type"].(string)
	switch kind {
	case "object":
		info.Type = schema.Object
		info.SubParams = objectParams(prop)
	case "array":
		info.Type = schema.Array
		if items, ok := prop["items"].(map[string]any); ok {
			info.ElemInfo = paramInfo(items)
		}
	case "integer":
		info.Type = schema.Integer
	case "number":
		info.Type = schema.Number
	case "boolean":
		info.Type = schema.Boolean
	case "null":
		info.Type = schema.Null
	default:
		info.Type = schema.String
	}
	if values, ok := prop["enum"].([]any); ok {
		for _, v := range values {
			info.Enum = append(info.Enum, fmt.Sprint(v))
		}
	}
	return info
}

// decodeArgs validates model-supplied arguments against the tool's schema
// and decodes them into T. Validation failures wrap contract.ErrValidation.
func decodeArgs[T any](tool string, args map[string]any) (T, error) {
	var out T
	schemas, err := loadArgSchemas()
	if err != nil {
		return out, err
	}
	s, ok := schemas[tool]
	if !ok {
		return out, fmt.Errorf("%w: no schema for tool=%s", contractx.ErrNotFound, tool)
	}
	if args == nil {
		args = map[string]any{}
	}

	data, err := json.Marshal(args)
	if err != nil {
		return out, fmt.Errorf("%w: encode args: %v", contractx.ErrValidation, err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return out, fmt.Errorf("%w: decode args: %v", contractx.ErrValidation, err)
	}
	if err := s.compiled.Validate(inst); err != nil {
		return out, fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}
	return out, nil
}
