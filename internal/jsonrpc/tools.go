package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/jsonschema-go/jsonschema"

	"fetcher.dev/cli/internal/core/domain"
	"fetcher.dev/cli/internal/core/ports"
)

// Tool is one entry of a tools/list result
type Tool struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`
}

// ListTools flattens every plugin's command table into tools named <plugin>_<command>
func ListTools(registry ports.PluginRegistry) []Tool {
	tools := make([]Tool, 0)
	for _, plugin := range registry.Plugins() {
		for _, cmd := range plugin.Commands().Commands() {
			tools = append(tools, Tool{
				Name:        domain.ToolName(plugin.Name(), cmd.Name),
				Description: fmt.Sprintf("%s: %s", plugin.Name(), cmd.Description),
				InputSchema: InputSchema(cmd),
			})
		}
	}
	return tools
}

// InputSchema describes a command's declared parameters as a JSON object schema.
// Commands without parameters accept a free-form arguments object.
func InputSchema(cmd domain.Command) *jsonschema.Schema {
	if len(cmd.Params) == 0 {
		return &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"arguments": {Type: "object", Description: "Command arguments"},
			},
		}
	}

	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: make(map[string]*jsonschema.Schema, len(cmd.Params)),
	}
	for _, param := range cmd.Params {
		prop := &jsonschema.Schema{Description: param.Description}
		switch param.Type {
		case domain.ParamNumber:
			prop.Type = "number"
		case domain.ParamStringOrNumber:
			prop.Types = []string{"string", "number"}
		default:
			prop.Type = "string"
		}
		if param.Default != "" {
			if raw, err := json.Marshal(param.Default); err == nil {
				prop.Default = json.RawMessage(raw)
			}
		}
		schema.Properties[param.Name] = prop
		if param.Required {
			schema.Required = append(schema.Required, param.Name)
		}
	}
	return schema
}

// NormalizeArguments turns tools/call arguments into positional args.
// Lists keep their order. Objects follow the command's declared parameter order,
// with defaults filling absent parameters, or the object's own key order when no
// key names a declared parameter. A lone nested "arguments" value is unwrapped first.
func NormalizeArguments(cmd domain.Command, raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, nullID) {
		return nil, nil
	}

	switch raw[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("invalid argument list: %w", err)
		}
		args := make([]string, 0, len(items))
		for _, item := range items {
			args = append(args, stringify(item)...)
		}
		return args, nil
	case '{':
		keys, values, err := decodeObject(raw)
		if err != nil {
			return nil, err
		}
		if len(keys) == 1 && keys[0] == "arguments" {
			if inner := bytes.TrimSpace(values["arguments"]); len(inner) > 0 && (inner[0] == '{' || inner[0] == '[') {
				return NormalizeArguments(cmd, inner)
			}
		}
		if !declaresAny(cmd.Params, values) {
			args := make([]string, 0, len(keys))
			for _, key := range keys {
				args = append(args, stringify(values[key])...)
			}
			return args, nil
		}
		return byParams(cmd.Params, values), nil
	default:
		return stringify(raw), nil
	}
}

func byParams(params []domain.Param, values map[string]json.RawMessage) []string {
	args := make([]string, 0, len(params))
	filled := 0
	for _, param := range params {
		value, ok := values[param.Name]
		if !ok || bytes.Equal(bytes.TrimSpace(value), nullID) {
			// Keep the slot so later params stay in position
			args = append(args, param.Default)
			if param.Default != "" {
				filled = len(args)
			}
			continue
		}
		args = append(args, stringify(value)...)
		filled = len(args)
	}
	return args[:filled]
}

// declaresAny reports whether any key names a declared param. Objects that
// match none are taken positionally in key order.
func declaresAny(params []domain.Param, values map[string]json.RawMessage) bool {
	for _, param := range params {
		if _, ok := values[param.Name]; ok {
			return true
		}
	}
	return false
}

// decodeObject reads a JSON object preserving key order
func decodeObject(raw json.RawMessage) ([]string, map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil, nil, fmt.Errorf("invalid argument object: %w", err)
	}
	var keys []string
	values := make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("invalid argument object: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("invalid argument object key %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, nil, fmt.Errorf("invalid value for %q: %w", key, err)
		}
		if _, seen := values[key]; !seen {
			keys = append(keys, key)
		}
		values[key] = value
	}
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, nil, fmt.Errorf("invalid argument object: %w", err)
	}
	return keys, values, nil
}

// stringify renders one JSON value as positional text. Arrays expand into one arg per item.
func stringify(raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return []string{s}
		}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err == nil {
			out := make([]string, 0, len(items))
			for _, item := range items {
				out = append(out, stringify(item)...)
			}
			return out
		}
	case 'n':
		return []string{""}
	}
	// Numbers and booleans keep their literal text, objects stay compact JSON
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return []string{string(raw)}
	}
	return []string{compact.String()}
}
