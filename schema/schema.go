// Package schema generates the JSON Schema documents that describe tool inputs.
package schema

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Schema represents a JSON Schema.
type Schema struct {
	Type        string             `json:"type,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Description string             `json:"description,omitempty"`
	Default     any                `json:"default,omitempty"`
	Enum        []any              `json:"enum,omitempty"`
	Minimum     *float64           `json:"minimum,omitempty"`
	Maximum     *float64           `json:"maximum,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
}

// Generate creates a JSON Schema from a Go value.
func Generate(v any) (*Schema, error) {
	return GenerateFromType(reflect.TypeOf(v))
}

// For creates a JSON Schema for the type parameter T.
func For[T any]() (*Schema, error) {
	return GenerateFromType(reflect.TypeOf((*T)(nil)).Elem())
}

// GenerateFromType creates a JSON Schema from a reflect.Type.
func GenerateFromType(t reflect.Type) (*Schema, error) {
	if t == nil {
		return nil, fmt.Errorf("schema: nil type")
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Struct:
		return generateStruct(t)
	case reflect.String:
		return &Schema{Type: "string"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: "integer"}, nil
	case reflect.Float32, reflect.Float64:
		return &Schema{Type: "number"}, nil
	case reflect.Bool:
		return &Schema{Type: "boolean"}, nil
	case reflect.Slice, reflect.Array:
		items, err := GenerateFromType(t.Elem())
		if err != nil {
			return nil, err
		}
		return &Schema{Type: "array", Items: items}, nil
	case reflect.Map:
		return &Schema{Type: "object"}, nil
	default:
		return &Schema{}, nil
	}
}

func generateStruct(t reflect.Type) (*Schema, error) {
	s := &Schema{
		Type:       "object",
		Properties: make(map[string]*Schema, t.NumField()),
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name, ok := jsonName(field)
		if !ok {
			continue
		}

		prop, err := GenerateFromType(field.Type)
		if err != nil {
			return nil, err
		}

		required, err := applyTag(prop, field.Tag.Get("jsonschema"))
		if err != nil {
			return nil, fmt.Errorf("schema: field %s: %w", field.Name, err)
		}
		if required {
			s.Required = append(s.Required, name)
		}

		s.Properties[name] = prop
	}

	return s, nil
}

func jsonName(field reflect.StructField) (string, bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false
	}
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name, true
	}
	return field.Name, true
}

// applyTag reads a jsonschema struct tag such as
// `jsonschema:"required,minimum=1,maximum=100,description=Results per page"`.
// Description must come last when its text contains a comma.
func applyTag(s *Schema, tag string) (required bool, err error) {
	for tag != "" {
		var part string
		if strings.HasPrefix(tag, "description=") {
			part, tag = tag, ""
		} else {
			part, tag, _ = strings.Cut(tag, ",")
		}
		part = strings.TrimSpace(part)

		key, value, _ := strings.Cut(part, "=")
		switch key {
		case "":
		case "required":
			required = true
		case "description":
			s.Description = value
		case "minimum":
			if s.Minimum, err = parseBound(value); err != nil {
				return false, err
			}
		case "maximum":
			if s.Maximum, err = parseBound(value); err != nil {
				return false, err
			}
		default:
			return false, fmt.Errorf("unknown jsonschema tag %q", key)
		}
	}
	return required, nil
}

func parseBound(value string) (*float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid bound %q: %w", value, err)
	}
	return &f, nil
}
