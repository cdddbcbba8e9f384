package contract

// Introspector answers schema questions for both the request pipeline and
// the document synthesizer. Both sides must share one instance so the
// runtime and documentation views of requiredness can never diverge.
type Introspector interface {
	// IsRequired reports whether an object schema rejects a value in which
	// the named field is absent.
	IsRequired(s *Schema, field string) bool

	// PrimitiveType returns the declared type of the named property, or ""
	// if the schema declares no such property.
	PrimitiveType(s *Schema, field string) Type

	// Validate checks raw against the schema, returning the parsed value
	// and any field-level failures.
	Validate(s *Schema, raw any) (any, []FieldError)
}

// NewIntrospector returns the canonical Introspector. Requiredness is
// computed by probing: validate an object with the field absent and check
// for a required failure on that field.
func NewIntrospector() Introspector {
	return probeIntrospector{}
}

type probeIntrospector struct{}

func (probeIntrospector) IsRequired(s *Schema, field string) bool {
	if s == nil || s.Type != TypeObject {
		return false
	}

	_, failures := s.Validate(map[string]any{})
	for _, f := range failures {
		if f.Field == field && f.Code == codeRequired {
			return true
		}
	}
	return false
}

func (probeIntrospector) PrimitiveType(s *Schema, field string) Type {
	if s == nil {
		return ""
	}
	prop, ok := s.Properties[field]
	if !ok {
		return ""
	}
	return prop.Type
}

func (probeIntrospector) Validate(s *Schema, raw any) (any, []FieldError) {
	return s.Validate(raw)
}
