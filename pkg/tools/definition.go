package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

var contextType = reflect.TypeOf((*context.Context)(nil)).Elem()

// ToolDefinition describes a tool the model can request.
type ToolDefinition struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters"`
	Function    ToolFunc           `json:"-"`
}

// ToolFunc wraps the registered Go function behind a JSON-argument executor.
type ToolFunc struct {
	Fn         interface{}                                        `json:"-"`
	executor   func(context.Context, []byte) (interface{}, error) `json:"-"`
	inputType  reflect.Type                                       `json:"-"`
	outputType reflect.Type                                       `json:"-"`
}

// NewToolFromFunc creates a ToolDefinition from a Go function. Supported
// signatures are func(Input) (Result, error) and
// func(context.Context, Input) (Result, error); the error return is optional.
func NewToolFromFunc(name, description string, fn interface{}) (*ToolDefinition, error) {
	funcType := reflect.TypeOf(fn)
	if funcType == nil || funcType.Kind() != reflect.Func {
		return nil, fmt.Errorf("provided value is not a function")
	}

	if funcType.NumOut() == 0 || funcType.NumOut() > 2 {
		return nil, fmt.Errorf("function must return (result) or (result, error)")
	}
	if funcType.NumOut() == 2 {
		if !funcType.Out(1).Implements(reflect.TypeOf((*error)(nil)).Elem()) {
			return nil, fmt.Errorf("second return value must be an error")
		}
	}

	inputType, err := resolveInputType(funcType)
	if err != nil {
		return nil, err
	}

	schema, err := schemaForInput(inputType)
	if err != nil {
		return nil, fmt.Errorf("failed to generate schema: %w", err)
	}

	toolFunc := ToolFunc{
		Fn:         fn,
		executor:   makeExecutor(fn, funcType, inputType),
		inputType:  inputType,
		outputType: funcType.Out(0),
	}

	return &ToolDefinition{
		Name:        name,
		Description: description,
		Parameters:  schema,
		Function:    toolFunc,
	}, nil
}

// ExecuteWithContext runs the tool with JSON-encoded arguments.
func (tf *ToolFunc) ExecuteWithContext(ctx context.Context, args []byte) (interface{}, error) {
	if tf.executor == nil {
		return nil, fmt.Errorf("tool function not properly initialized")
	}
	return tf.executor(ctx, args)
}

func resolveInputType(funcType reflect.Type) (reflect.Type, error) {
	switch funcType.NumIn() {
	case 0:
		return nil, nil
	case 1:
		if funcType.In(0) == contextType {
			return nil, nil
		}
		return funcType.In(0), nil
	case 2:
		if funcType.In(0) != contextType {
			return nil, fmt.Errorf("two-arg tool function must be (context.Context, Input)")
		}
		return funcType.In(1), nil
	default:
		return nil, fmt.Errorf("function must take (Input) or (context.Context, Input)")
	}
}

func schemaForInput(inputType reflect.Type) (*jsonschema.Schema, error) {
	if inputType == nil {
		return &jsonschema.Schema{Type: "object"}, nil
	}

	inputInstance := reflect.New(inputType).Elem().Interface()

	reflector := jsonschema.Reflector{
		// Expand definitions inline instead of using $refs
		DoNotReference: true,
	}
	schema := reflector.Reflect(inputInstance)

	if schema.Type == "" && schema.Ref == "" {
		schema.Type = "object"
	}

	return schema, nil
}

func makeExecutor(fn interface{}, funcType reflect.Type, inputType reflect.Type) func(context.Context, []byte) (interface{}, error) {
	funcValue := reflect.ValueOf(fn)
	wantsContext := funcType.NumIn() > 0 && funcType.In(0) == contextType

	return func(ctx context.Context, args []byte) (interface{}, error) {
		in := []reflect.Value{}
		if wantsContext {
			in = append(in, reflect.ValueOf(ctx))
		}

		if inputType != nil {
			input := reflect.New(inputType).Interface()
			if err := json.Unmarshal(args, input); err != nil {
				return nil, fmt.Errorf("failed to unmarshal arguments: %w", err)
			}
			in = append(in, reflect.ValueOf(input).Elem())
		}

		return extractResults(funcValue.Call(in))
	}
}

func extractResults(results []reflect.Value) (interface{}, error) {
	switch len(results) {
	case 1:
		return results[0].Interface(), nil
	case 2:
		result := results[0].Interface()
		errInterface := results[1].Interface()
		if errInterface == nil {
			return result, nil
		}
		if err, ok := errInterface.(error); ok {
			return result, err
		}
		return result, fmt.Errorf("unexpected error type: %T", errInterface)
	default:
		return nil, fmt.Errorf("unexpected number of return values: %d", len(results))
	}
}
