package llms

import (
	"reflect"

	"github.com/invopop/jsonschema"
)

// Tool describes a single callable function exposed to a model.
type Tool struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

// NewTool builds a tool definition whose parameter schema is reflected from
// the given argument struct. Struct fields carry their descriptions through
// `jsonschema` tags.
func NewTool(name string, description string, parameters any) Tool {
	tool := Tool{Name: name, Description: description}
	if parameters == nil {
		return tool
	}

	reflector := jsonschema.Reflector{DoNotReference: true}
	parametersType := reflect.TypeOf(parameters)
	if parametersType.Kind() == reflect.Ptr {
		parametersType = parametersType.Elem()
	}
	tool.Parameters = reflector.ReflectFromType(parametersType)
	tool.Parameters.Version = ""

	return tool
}
