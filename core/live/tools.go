package live

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/invopop/jsonschema"
)

type ToolDeclaration struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
}

// Tool is an operation the service may request through a function call.
// Call returns the result mapping sent back to the service; an error is
// reported back as a failed result.
type Tool interface {
	Declaration() ToolDeclaration
	Call(ctx context.Context, args map[string]any) (map[string]any, error)
}

type typedTool[T any] struct {
	declaration ToolDeclaration
	execute     func(context.Context, T) (map[string]any, error)
}

// NewTool declares a tool whose parameters are the fields of T. The schema
// is reflected from T's json and jsonschema tags; fields without omitempty
// are required.
func NewTool[T any](name, description string, execute func(ctx context.Context, args T) (map[string]any, error)) Tool {
	reflector := jsonschema.Reflector{DoNotReference: true}
	parameters := reflector.Reflect(new(T))
	parameters.Version = ""
	parameters.ID = ""

	return &typedTool[T]{
		declaration: ToolDeclaration{Name: name, Description: description, Parameters: parameters},
		execute:     execute,
	}
}

func (t *typedTool[T]) Declaration() ToolDeclaration {
	return t.declaration
}

func (t *typedTool[T]) Call(ctx context.Context, args map[string]any) (map[string]any, error) {
	for _, required := range t.declaration.Parameters.Required {
		if _, ok := args[required]; !ok {
			return nil, fmt.Errorf("missing required argument %q", required)
		}
	}

	encoded, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to encode arguments: %w", err)
	}
	var parameters T
	if err := json.Unmarshal(encoded, &parameters); err != nil {
		return nil, fmt.Errorf("invalid arguments for %s: %w", t.declaration.Name, err)
	}

	return t.execute(ctx, parameters)
}

// Declarations lists the declarations of tools, sorted by name.
func Declarations(tools ...Tool) []ToolDeclaration {
	declarations := make([]ToolDeclaration, 0, len(tools))
	for _, tool := range tools {
		declarations = append(declarations, tool.Declaration())
	}
	slices.SortFunc(declarations, func(a, b ToolDeclaration) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return declarations
}
