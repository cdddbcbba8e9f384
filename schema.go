package contract

import "slices"

// Type is the primitive type of a schema node.
type Type string

// Schema primitive types.
const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeBoolean Type = "boolean"
	TypeObject  Type = "object"
	TypeArray   Type = "array"
)

// Schema is a declarative description of a value. Object properties are
// required by default; set Optional on a property schema to allow absence.
// Zero-valued constraint fields are not enforced.
type Schema struct {
	Type        Type
	Description string

	// Format is a string refinement: "email", "uuid", or "date-time".
	Format string

	// String constraints.
	MinLength int
	MaxLength int
	Pattern   string
	Enum      []string

	// Number constraints.
	Minimum *float64
	Maximum *float64

	// Optional marks a property schema as allowed to be absent from its
	// parent object. Only meaningful inside Properties.
	Optional bool

	// Object properties.
	Properties map[string]*Schema

	// Array element schema.
	Items *Schema
}

// Float returns a pointer to v, for Minimum/Maximum literals.
func Float(v float64) *float64 { return &v }

// propertyNames returns the object's property names in sorted order.
func (s *Schema) propertyNames() []string {
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
