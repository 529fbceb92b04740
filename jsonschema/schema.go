// Package jsonschema holds a minimal JSON Schema representation used to
// export contract variants.
package jsonschema

// Draft is the dialect every exported document declares.
const Draft = "https://json-schema.org/draft/2020-12/schema"

// Schema is a minimal JSON Schema representation used for export.
// Keep this struct small and extend it as variants need more keywords.
type Schema struct {
	SchemaURI   string `json:"$schema,omitempty" yaml:"$schema,omitempty"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Core
	Type    any      `json:"type,omitempty" yaml:"type,omitempty"` // string or []string
	Default any      `json:"default,omitempty" yaml:"default,omitempty"`
	Const   any      `json:"const,omitempty" yaml:"const,omitempty"`
	Enum    []string `json:"enum,omitempty" yaml:"enum,omitempty"`

	// String
	MinLength *int `json:"minLength,omitempty" yaml:"minLength,omitempty"`

	// Object
	Properties           map[string]*Schema `json:"properties,omitempty" yaml:"properties,omitempty"`
	Required             []string           `json:"required,omitempty" yaml:"required,omitempty"`
	AdditionalProperties *bool              `json:"additionalProperties,omitempty" yaml:"additionalProperties,omitempty"`

	// Conditionals
	If   *Schema `json:"if,omitempty" yaml:"if,omitempty"`
	Then *Schema `json:"then,omitempty" yaml:"then,omitempty"`
	Else *Schema `json:"else,omitempty" yaml:"else,omitempty"`
	Not  *Schema `json:"not,omitempty" yaml:"not,omitempty"`

	// Union
	OneOf []*Schema `json:"oneOf,omitempty" yaml:"oneOf,omitempty"`
}

// Bool returns a pointer to b, for AdditionalProperties.
func Bool(b bool) *bool { return &b }

// Int returns a pointer to i, for MinLength.
func Int(i int) *int { return &i }
