package contract

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FieldError describes a single field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Failure codes emitted by Validate.
const (
	codeRequired  = "required"
	codeType      = "type"
	codeMinLength = "min_length"
	codeMaxLength = "max_length"
	codePattern   = "pattern"
	codeFormat    = "format"
	codeEnum      = "enum"
	codeMinimum   = "minimum"
	codeMaximum   = "maximum"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Validate checks raw against the schema and returns the parsed value with
// all failures, or the value alone when valid. Object schemas accept
// map[string]any (JSON bodies) and map[string]string (flattened query and
// form maps, with string values coerced to the declared property types).
// The parsed object contains only declared, present properties.
func (s *Schema) Validate(raw any) (any, []FieldError) {
	return validateValue(s, "", raw)
}

func validateValue(s *Schema, path string, v any) (any, []FieldError) {
	switch s.Type {
	case TypeObject:
		return validateObject(s, path, v)
	case TypeString:
		return validateString(s, path, v)
	case TypeNumber:
		return validateNumber(s, path, v)
	case TypeBoolean:
		return validateBoolean(s, path, v)
	case TypeArray:
		return validateArray(s, path, v)
	default:
		return v, nil
	}
}

func validateObject(s *Schema, path string, v any) (any, []FieldError) {
	fields, coerce, ok := objectFields(v)
	if !ok {
		return nil, []FieldError{typeFailure(path, s.Type)}
	}

	var errs []FieldError
	parsed := make(map[string]any, len(s.Properties))

	for _, name := range s.propertyNames() {
		prop := s.Properties[name]
		fieldPath := name
		if path != "" {
			fieldPath = path + "." + name
		}

		raw, present := fields[name]
		if !present {
			if !prop.Optional {
				errs = append(errs, FieldError{
					Field:   fieldPath,
					Code:    codeRequired,
					Message: "field is required",
				})
			}
			continue
		}

		if coerce {
			coerced, err := coerceString(prop, raw)
			if err != nil {
				errs = append(errs, typeFailure(fieldPath, prop.Type))
				continue
			}
			raw = coerced
		}

		val, ferrs := validateValue(prop, fieldPath, raw)
		if len(ferrs) > 0 {
			errs = append(errs, ferrs...)
			continue
		}
		parsed[name] = val
	}

	return parsed, errs
}

// objectFields normalizes the two accepted object representations into a
// map[string]any, reporting whether string coercion applies.
func objectFields(v any) (fields map[string]any, coerce, ok bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, false, true
	case map[string]string:
		fields = make(map[string]any, len(m))
		for k, val := range m {
			fields[k] = val
		}
		return fields, true, true
	default:
		return nil, false, false
	}
}

// coerceString converts a flattened string value to the declared type,
// mirroring how typed struct fields are set from query and form values.
func coerceString(s *Schema, v any) (any, error) {
	str, ok := v.(string)
	if !ok {
		return v, nil
	}

	switch s.Type {
	case TypeNumber:
		return strconv.ParseFloat(str, 64)
	case TypeBoolean:
		return strconv.ParseBool(str)
	default:
		return str, nil
	}
}

func validateString(s *Schema, path string, v any) (any, []FieldError) {
	str, ok := v.(string)
	if !ok {
		return nil, []FieldError{typeFailure(path, s.Type)}
	}

	var errs []FieldError

	if s.MinLength > 0 && len(str) < s.MinLength {
		errs = append(errs, FieldError{
			Field:   path,
			Code:    codeMinLength,
			Message: fmt.Sprintf("must be at least %d characters", s.MinLength),
		})
	}
	if s.MaxLength > 0 && len(str) > s.MaxLength {
		errs = append(errs, FieldError{
			Field:   path,
			Code:    codeMaxLength,
			Message: fmt.Sprintf("must be at most %d characters", s.MaxLength),
		})
	}
	if s.Pattern != "" {
		if matched, err := regexp.MatchString(s.Pattern, str); err == nil && !matched {
			errs = append(errs, FieldError{
				Field:   path,
				Code:    codePattern,
				Message: fmt.Sprintf("must match pattern %s", s.Pattern),
			})
		}
	}
	if s.Format != "" && !matchesFormat(s.Format, str) {
		errs = append(errs, FieldError{
			Field:   path,
			Code:    codeFormat,
			Message: fmt.Sprintf("must be a valid %s", s.Format),
		})
	}
	if len(s.Enum) > 0 && !slices.Contains(s.Enum, str) {
		errs = append(errs, FieldError{
			Field:   path,
			Code:    codeEnum,
			Message: fmt.Sprintf("must be one of [%s]", strings.Join(s.Enum, ", ")),
		})
	}

	return str, errs
}

func matchesFormat(format, v string) bool {
	switch format {
	case "email":
		return emailPattern.MatchString(v)
	case "uuid":
		return uuidFormatOK(v)
	case "date-time":
		return dateTimeFormatOK(v)
	default:
		return true
	}
}

func validateNumber(s *Schema, path string, v any) (any, []FieldError) {
	num, ok := toNumber(v)
	if !ok {
		return nil, []FieldError{typeFailure(path, s.Type)}
	}

	var errs []FieldError
	if s.Minimum != nil && num < *s.Minimum {
		errs = append(errs, FieldError{
			Field:   path,
			Code:    codeMinimum,
			Message: fmt.Sprintf("must be at least %v", *s.Minimum),
		})
	}
	if s.Maximum != nil && num > *s.Maximum {
		errs = append(errs, FieldError{
			Field:   path,
			Code:    codeMaximum,
			Message: fmt.Sprintf("must be at most %v", *s.Maximum),
		})
	}

	return num, errs
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func validateBoolean(s *Schema, path string, v any) (any, []FieldError) {
	b, ok := v.(bool)
	if !ok {
		return nil, []FieldError{typeFailure(path, s.Type)}
	}
	return b, nil
}

func validateArray(s *Schema, path string, v any) (any, []FieldError) {
	items, ok := v.([]any)
	if !ok {
		return nil, []FieldError{typeFailure(path, s.Type)}
	}

	var errs []FieldError
	parsed := make([]any, 0, len(items))

	for i, item := range items {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		if s.Items == nil {
			parsed = append(parsed, item)
			continue
		}
		val, ferrs := validateValue(s.Items, itemPath, item)
		if len(ferrs) > 0 {
			errs = append(errs, ferrs...)
			continue
		}
		parsed = append(parsed, val)
	}

	return parsed, errs
}

func typeFailure(path string, want Type) FieldError {
	field := path
	if field == "" {
		field = "."
	}
	return FieldError{
		Field:   field,
		Code:    codeType,
		Message: fmt.Sprintf("must be a %s", want),
	}
}

func uuidFormatOK(v string) bool {
	_, err := uuid.Parse(v)
	return err == nil
}

func dateTimeFormatOK(v string) bool {
	_, err := time.Parse(time.RFC3339, v)
	return err == nil
}
