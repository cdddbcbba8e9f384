package contract

import (
	"fmt"
	"sync"
)

// Contract is the declarative description of one endpoint. It is created
// once at wiring time and must not be mutated after registration — the
// registry hands the same value to the pipeline and the synthesizer.
type Contract struct {
	Method      string
	Path        string
	Summary     string
	Description string
	Tags        []string

	// AuthRequired gates the authenticate stage. RequiredRoles additionally
	// gates the authorize stage; an empty list means any valid claims pass.
	AuthRequired  bool
	RequiredRoles []Role

	// Body is the JSON body schema. Mutually exclusive with FileFields.
	Body *Schema

	// Query and PathParams describe query-string and path parameters.
	Query      *Schema
	PathParams *Schema

	// FileFields declares multipart file-upload fields. Form describes the
	// ordinary string fields accompanying them and is only valid together
	// with FileFields.
	FileFields []FileField
	Form       *Schema

	// Responses maps status codes to declared outcomes. Unauthorized,
	// forbidden, and validation-failure entries are synthesized in the
	// document and need not be declared.
	Responses map[int]ResponseSpec
}

// FileField describes one uploadable-content field, distinct from ordinary
// form fields.
type FileField struct {
	Name        string
	Required    bool
	Description string
}

// ResponseSpec describes one declared response outcome.
type ResponseSpec struct {
	Description string
	Schema      *Schema
}

// hasBodyInput reports whether the contract declares any request body.
func (c *Contract) hasBodyInput() bool {
	return c.Body != nil || len(c.FileFields) > 0
}

// key returns the registry lookup key.
func (c *Contract) key() string {
	return c.Method + " " + c.Path
}

// Registry holds the registered contracts. It is written during startup
// wiring and read-only once traffic starts; both the pipeline and the
// synthesizer read from the same instance.
type Registry struct {
	mu        sync.Mutex
	contracts []*Contract
	byKey     map[string]*Contract
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byKey: make(map[string]*Contract)}
}

// Register validates and stores a contract. Registration fails fast on a
// contract that declares both a JSON body and file fields — the two body
// encodings are mutually exclusive — and on duplicate method/path pairs.
// Role requirements without AuthRequired are rejected as well; the authorize
// stage only runs behind authentication, so such a contract would never have
// its roles enforced.
func (g *Registry) Register(c *Contract) error {
	if c.Method == "" || c.Path == "" {
		return fmt.Errorf("contract: method and path are required")
	}
	if len(c.RequiredRoles) > 0 && !c.AuthRequired {
		return fmt.Errorf("contract %s: required roles need AuthRequired", c.key())
	}
	if c.Body != nil && len(c.FileFields) > 0 {
		return fmt.Errorf("contract %s: json body and file fields are mutually exclusive", c.key())
	}
	if c.Form != nil && len(c.FileFields) == 0 {
		return fmt.Errorf("contract %s: form schema requires file fields", c.key())
	}
	if c.Body != nil && c.Body.Type != TypeObject {
		return fmt.Errorf("contract %s: body schema must be an object", c.key())
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.byKey[c.key()]; exists {
		return fmt.Errorf("contract %s: already registered", c.key())
	}

	g.byKey[c.key()] = c
	g.contracts = append(g.contracts, c)
	return nil
}

// Contracts returns the registered contracts in registration order.
func (g *Registry) Contracts() []*Contract {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*Contract, len(g.contracts))
	copy(out, g.contracts)
	return out
}

// Lookup returns the contract registered for the given method and path.
func (g *Registry) Lookup(method, path string) (*Contract, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.byKey[method+" "+path]
	return c, ok
}
