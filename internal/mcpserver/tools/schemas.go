package tools

import (
	"github.com/invopop/jsonschema"
)

// reflector builds flat object schemas from argument structs: properties in
// field order, every field without omitempty required, descriptions from
// jsonschema_description tags.
var reflector = &jsonschema.Reflector{
	ExpandedStruct:            true,
	DoNotReference:            true,
	Anonymous:                 true,
	AllowAdditionalProperties: true,
}

// SchemaFor returns the input schema for an argument struct value
func SchemaFor(v any) *jsonschema.Schema {
	schema := reflector.Reflect(v)
	schema.Version = ""
	return schema
}

// propertyType returns the JSON type declared for a property, or "" if absent
func propertyType(schema *jsonschema.Schema, name string) string {
	if schema == nil || schema.Properties == nil {
		return ""
	}
	prop, ok := schema.Properties.Get(name)
	if !ok || prop == nil {
		return ""
	}
	return prop.Type
}
