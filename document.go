package contract

import (
	"net/http"
	"strconv"
	"strings"
)

// Document is the synthesized OpenAPI 3.1 description of every registered
// contract. It is built from the registry once, never per-request, and is
// read-only after synthesis.
type Document struct {
	OpenAPI    string              `json:"openapi"`
	Info       Info                `json:"info"`
	Servers    []Server            `json:"servers,omitempty"`
	Paths      map[string]PathItem `json:"paths"`
	Components *Components         `json:"components,omitempty"`
}

// Info holds API metadata.
type Info struct {
	Title       string `json:"title"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
}

// Server describes one API server.
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// PathItem maps lower-case HTTP methods to operations.
type PathItem map[string]Operation

// Operation describes a single operation on a path.
type Operation struct {
	Summary     string                `json:"summary,omitempty"`
	Description string                `json:"description,omitempty"`
	Tags        []string              `json:"tags,omitempty"`
	Security    []map[string][]string `json:"security,omitempty"`
	Parameters  []Parameter           `json:"parameters,omitempty"`
	RequestBody *RequestBody          `json:"requestBody,omitempty"`
	Responses   map[string]Response   `json:"responses"`
}

// Parameter describes one query or path parameter.
type Parameter struct {
	Name        string       `json:"name"`
	In          string       `json:"in"`
	Description string       `json:"description,omitempty"`
	Required    bool         `json:"required,omitempty"`
	Schema      SchemaObject `json:"schema"`
}

// RequestBody describes the request body.
type RequestBody struct {
	Required bool                 `json:"required"`
	Content  map[string]MediaType `json:"content"`
}

// MediaType is a media type object with an optional schema.
type MediaType struct {
	Schema *SchemaObject `json:"schema,omitempty"`
}

// Response describes one response outcome.
type Response struct {
	Description string               `json:"description"`
	Content     map[string]MediaType `json:"content,omitempty"`
}

// Components holds reusable document objects.
type Components struct {
	SecuritySchemes map[string]SecurityScheme `json:"securitySchemes,omitempty"`
}

// SecurityScheme describes an authentication scheme.
type SecurityScheme struct {
	Type         string `json:"type"`
	Scheme       string `json:"scheme,omitempty"`
	BearerFormat string `json:"bearerFormat,omitempty"`
}

// SchemaObject is the document rendering of a Schema.
type SchemaObject struct {
	Type        string                  `json:"type,omitempty"`
	Format      string                  `json:"format,omitempty"`
	Description string                  `json:"description,omitempty"`
	Enum        []string                `json:"enum,omitempty"`
	Pattern     string                  `json:"pattern,omitempty"`
	MinLength   int                     `json:"minLength,omitempty"`
	MaxLength   int                     `json:"maxLength,omitempty"`
	Minimum     *float64                `json:"minimum,omitempty"`
	Maximum     *float64                `json:"maximum,omitempty"`
	Items       *SchemaObject           `json:"items,omitempty"`
	Properties  map[string]SchemaObject `json:"properties,omitempty"`
	Required    []string                `json:"required,omitempty"`
}

// bearerScheme is the name of the registered bearer-auth security scheme.
const bearerScheme = "bearerAuth"

// Synthesizer turns a registry of contracts into one Document. It shares
// its Introspector with the pipeline, so a field documented as required is
// exactly a field the pipeline would reject when absent.
type Synthesizer struct {
	registry *Registry
	intr     Introspector
	info     Info
	servers  []Server
}

// NewSynthesizer creates a synthesizer over a registry.
func NewSynthesizer(registry *Registry, intr Introspector, info Info, servers ...Server) *Synthesizer {
	if intr == nil {
		intr = NewIntrospector()
	}
	return &Synthesizer{registry: registry, intr: intr, info: info, servers: servers}
}

// Document synthesizes the full document. Synthesis is pure: the same
// registry always yields the same document, with contracts visited in
// registration order.
func (s *Synthesizer) Document() *Document {
	doc := &Document{
		OpenAPI: "3.1.0",
		Info:    s.info,
		Servers: s.servers,
		Paths:   make(map[string]PathItem),
		Components: &Components{
			SecuritySchemes: map[string]SecurityScheme{
				bearerScheme: {Type: "http", Scheme: "bearer", BearerFormat: "JWT"},
			},
		},
	}

	for _, c := range s.registry.Contracts() {
		method := strings.ToLower(c.Method)
		if doc.Paths[c.Path] == nil {
			doc.Paths[c.Path] = make(PathItem)
		}
		doc.Paths[c.Path][method] = s.buildOperation(c)
	}

	return doc
}

func (s *Synthesizer) buildOperation(c *Contract) Operation {
	op := Operation{
		Summary:     c.Summary,
		Description: c.Description,
		Tags:        c.Tags,
		Parameters:  s.buildParameters(c),
		RequestBody: s.buildRequestBody(c),
		Responses:   s.buildResponses(c),
	}

	if c.AuthRequired {
		op.Security = []map[string][]string{{bearerScheme: {}}}
	}

	return op
}

func (s *Synthesizer) buildParameters(c *Contract) []Parameter {
	var params []Parameter

	if c.PathParams != nil {
		for _, name := range c.PathParams.propertyNames() {
			prop := c.PathParams.Properties[name]
			params = append(params, Parameter{
				Name:        name,
				In:          "path",
				Description: prop.Description,
				Required:    true,
				Schema:      s.renderSchema(prop),
			})
		}
	}

	if c.Query != nil {
		for _, name := range c.Query.propertyNames() {
			prop := c.Query.Properties[name]
			params = append(params, Parameter{
				Name:        name,
				In:          "query",
				Description: prop.Description,
				Required:    s.intr.IsRequired(c.Query, name),
				Schema:      s.renderSchema(prop),
			})
		}
	}

	return params
}

// buildRequestBody renders the JSON body schema, or, for file-upload
// contracts, a multipart schema unioning binary file placeholders with the
// accompanying form schema's properties. The required list is the union of
// both sources: file flags come from the FileField specs, form flags from
// the introspector, and neither source can drop the other's names.
func (s *Synthesizer) buildRequestBody(c *Contract) *RequestBody {
	if len(c.FileFields) > 0 {
		props := make(map[string]SchemaObject, len(c.FileFields))
		var required []string

		for _, ff := range c.FileFields {
			props[ff.Name] = SchemaObject{
				Type:        "string",
				Format:      "binary",
				Description: ff.Description,
			}
			if ff.Required {
				required = append(required, ff.Name)
			}
		}

		if c.Form != nil {
			for _, name := range c.Form.propertyNames() {
				props[name] = s.renderSchema(c.Form.Properties[name])
				if s.intr.IsRequired(c.Form, name) {
					required = append(required, name)
				}
			}
		}

		return &RequestBody{
			Required: true,
			Content: map[string]MediaType{
				"multipart/form-data": {Schema: &SchemaObject{
					Type:       "object",
					Properties: props,
					Required:   required,
				}},
			},
		}
	}

	if c.Body != nil {
		schema := s.renderSchema(c.Body)
		return &RequestBody{
			Required: true,
			Content: map[string]MediaType{
				"application/json": {Schema: &schema},
			},
		}
	}

	return nil
}

// buildResponses emits the declared outcomes plus the conventional entries
// implied by the contract's configuration: unauthorized when auth is
// required, forbidden when roles are required, and validation-failed when
// any body input exists. Declared entries win on collision.
func (s *Synthesizer) buildResponses(c *Contract) map[string]Response {
	responses := make(map[string]Response)

	for code, spec := range c.Responses {
		resp := Response{Description: spec.Description}
		if spec.Schema != nil {
			schema := s.renderSchema(spec.Schema)
			resp.Content = map[string]MediaType{
				"application/json": {Schema: &schema},
			}
		}
		responses[strconv.Itoa(code)] = resp
	}

	if len(responses) == 0 {
		responses["200"] = Response{Description: "Successful response"}
	}

	synthesize := func(code int, desc string) {
		key := strconv.Itoa(code)
		if _, declared := responses[key]; declared {
			return
		}
		schema := errorSchema()
		responses[key] = Response{
			Description: desc,
			Content: map[string]MediaType{
				"application/json": {Schema: &schema},
			},
		}
	}

	if c.AuthRequired {
		synthesize(http.StatusUnauthorized, "Not authenticated")
		if len(c.RequiredRoles) > 0 {
			synthesize(http.StatusForbidden, "Not permitted")
		}
	}
	if c.hasBodyInput() {
		synthesize(http.StatusUnprocessableEntity, "Validation failed")
	}

	return responses
}

// renderSchema converts a Schema to its document form. Object requiredness
// goes through the introspector — the same probe the pipeline relies on.
func (s *Synthesizer) renderSchema(sc *Schema) SchemaObject {
	out := SchemaObject{
		Type:        string(sc.Type),
		Format:      sc.Format,
		Description: sc.Description,
		Enum:        sc.Enum,
		Pattern:     sc.Pattern,
		MinLength:   sc.MinLength,
		MaxLength:   sc.MaxLength,
		Minimum:     sc.Minimum,
		Maximum:     sc.Maximum,
	}

	if sc.Items != nil {
		items := s.renderSchema(sc.Items)
		out.Items = &items
	}

	if len(sc.Properties) > 0 {
		out.Properties = make(map[string]SchemaObject, len(sc.Properties))
		for _, name := range sc.propertyNames() {
			out.Properties[name] = s.renderSchema(sc.Properties[name])
			if s.intr.IsRequired(sc, name) {
				out.Required = append(out.Required, name)
			}
		}
	}

	return out
}

// errorSchema renders the error wire envelope for synthesized responses.
func errorSchema() SchemaObject {
	return SchemaObject{
		Type: "object",
		Properties: map[string]SchemaObject{
			"error": {
				Type: "object",
				Properties: map[string]SchemaObject{
					"kind":    {Type: "string"},
					"message": {Type: "string"},
					"detail":  {},
				},
				Required: []string{"kind", "message"},
			},
		},
		Required: []string{"error"},
	}
}
