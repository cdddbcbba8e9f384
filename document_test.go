package contract_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brev/contract"
)

func newSynthesizer(t *testing.T, contracts ...*contract.Contract) *contract.Synthesizer {
	t.Helper()

	reg := contract.NewRegistry()
	for _, c := range contracts {
		require.NoError(t, reg.Register(c))
	}
	return contract.NewSynthesizer(reg, contract.NewIntrospector(), contract.Info{
		Title:   "Test API",
		Version: "0.0.1",
	})
}

func TestDocument_basics(t *testing.T) {
	t.Parallel()

	s := newSynthesizer(t, &contract.Contract{
		Method:  http.MethodPost,
		Path:    "/login",
		Summary: "Log in",
		Body:    loginSchema(),
		Responses: map[int]contract.ResponseSpec{
			http.StatusOK: {Description: "Token issued"},
		},
	})

	doc := s.Document()

	assert.Equal(t, "3.1.0", doc.OpenAPI)
	assert.Equal(t, "Test API", doc.Info.Title)

	require.Contains(t, doc.Paths, "/login")
	op, ok := doc.Paths["/login"]["post"]
	require.True(t, ok)
	assert.Equal(t, "Log in", op.Summary)

	require.NotNil(t, doc.Components)
	scheme, ok := doc.Components.SecuritySchemes["bearerAuth"]
	require.True(t, ok)
	assert.Equal(t, "http", scheme.Type)
	assert.Equal(t, "bearer", scheme.Scheme)

	require.NotNil(t, op.RequestBody)
	media, ok := op.RequestBody.Content["application/json"]
	require.True(t, ok)
	require.NotNil(t, media.Schema)
	assert.ElementsMatch(t, []string{"email", "password"}, media.Schema.Required)
}

func TestDocument_required_union_for_uploads(t *testing.T) {
	t.Parallel()

	base := func(form *contract.Schema) *contract.Contract {
		return &contract.Contract{
			Method:     http.MethodPost,
			Path:       "/upload",
			FileFields: []contract.FileField{{Name: "doc", Required: true}},
			Form:       form,
		}
	}

	t.Run("one required file and one optional form field", func(t *testing.T) {
		t.Parallel()

		s := newSynthesizer(t, base(&contract.Schema{
			Type: contract.TypeObject,
			Properties: map[string]*contract.Schema{
				"caption": {Type: contract.TypeString, Optional: true},
			},
		}))

		body := s.Document().Paths["/upload"]["post"].RequestBody
		require.NotNil(t, body)
		media := body.Content["multipart/form-data"]
		require.NotNil(t, media.Schema)

		assert.Equal(t, []string{"doc"}, media.Schema.Required)
		assert.Contains(t, media.Schema.Properties, "doc")
		assert.Contains(t, media.Schema.Properties, "caption")
		assert.Equal(t, "binary", media.Schema.Properties["doc"].Format)
	})

	t.Run("adding a required form field extends the union", func(t *testing.T) {
		t.Parallel()

		s := newSynthesizer(t, base(&contract.Schema{
			Type: contract.TypeObject,
			Properties: map[string]*contract.Schema{
				"caption": {Type: contract.TypeString, Optional: true},
				"title":   {Type: contract.TypeString},
			},
		}))

		body := s.Document().Paths["/upload"]["post"].RequestBody
		require.NotNil(t, body)
		media := body.Content["multipart/form-data"]

		assert.ElementsMatch(t, []string{"doc", "title"}, media.Schema.Required)
	})
}

func TestDocument_synthesized_responses(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		c         *contract.Contract
		wantCodes []string
	}{
		"open endpoint with body gets 422": {
			c: &contract.Contract{
				Method: http.MethodPost,
				Path:   "/a",
				Body:   loginSchema(),
				Responses: map[int]contract.ResponseSpec{
					http.StatusOK: {Description: "OK"},
				},
			},
			wantCodes: []string{"200", "422"},
		},
		"auth endpoint gets 401": {
			c: &contract.Contract{
				Method:       http.MethodGet,
				Path:         "/b",
				AuthRequired: true,
				Responses: map[int]contract.ResponseSpec{
					http.StatusOK: {Description: "OK"},
				},
			},
			wantCodes: []string{"200", "401"},
		},
		"role endpoint gets 401 and 403": {
			c: &contract.Contract{
				Method:        http.MethodGet,
				Path:          "/c",
				AuthRequired:  true,
				RequiredRoles: []contract.Role{contract.RoleAdmin},
				Responses: map[int]contract.ResponseSpec{
					http.StatusOK: {Description: "OK"},
				},
			},
			wantCodes: []string{"200", "401", "403"},
		},
		"everything": {
			c: &contract.Contract{
				Method:        http.MethodPost,
				Path:          "/d",
				AuthRequired:  true,
				RequiredRoles: []contract.Role{contract.RoleAdmin},
				Body:          loginSchema(),
				Responses: map[int]contract.ResponseSpec{
					http.StatusCreated: {Description: "Created"},
				},
			},
			wantCodes: []string{"201", "401", "403", "422"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s := newSynthesizer(t, tc.c)
			op := s.Document().Paths[tc.c.Path][methodKey(tc.c.Method)]

			codes := make([]string, 0, len(op.Responses))
			for code := range op.Responses {
				codes = append(codes, code)
			}
			assert.ElementsMatch(t, tc.wantCodes, codes)
		})
	}
}

func methodKey(method string) string {
	switch method {
	case http.MethodPost:
		return "post"
	default:
		return "get"
	}
}

func TestDocument_declared_response_wins_over_synthesized(t *testing.T) {
	t.Parallel()

	s := newSynthesizer(t, &contract.Contract{
		Method:       http.MethodGet,
		Path:         "/a",
		AuthRequired: true,
		Responses: map[int]contract.ResponseSpec{
			http.StatusOK:           {Description: "OK"},
			http.StatusUnauthorized: {Description: "Custom unauthorized text"},
		},
	})

	op := s.Document().Paths["/a"]["get"]
	assert.Equal(t, "Custom unauthorized text", op.Responses["401"].Description)
}

func TestDocument_security_only_on_auth_contracts(t *testing.T) {
	t.Parallel()

	s := newSynthesizer(t,
		&contract.Contract{Method: http.MethodGet, Path: "/open"},
		&contract.Contract{Method: http.MethodGet, Path: "/closed", AuthRequired: true},
	)

	doc := s.Document()
	assert.Empty(t, doc.Paths["/open"]["get"].Security)
	require.Len(t, doc.Paths["/closed"]["get"].Security, 1)
	assert.Contains(t, doc.Paths["/closed"]["get"].Security[0], "bearerAuth")
}

func TestDocument_parameters_use_introspector_requiredness(t *testing.T) {
	t.Parallel()

	s := newSynthesizer(t, &contract.Contract{
		Method: http.MethodGet,
		Path:   "/search/{scope}",
		PathParams: &contract.Schema{
			Type: contract.TypeObject,
			Properties: map[string]*contract.Schema{
				"scope": {Type: contract.TypeString},
			},
		},
		Query: &contract.Schema{
			Type: contract.TypeObject,
			Properties: map[string]*contract.Schema{
				"q":    {Type: contract.TypeString},
				"page": {Type: contract.TypeNumber, Optional: true},
			},
		},
	})

	op := s.Document().Paths["/search/{scope}"]["get"]
	require.Len(t, op.Parameters, 3)

	byName := make(map[string]contract.Parameter, len(op.Parameters))
	for _, p := range op.Parameters {
		byName[p.Name] = p
	}

	assert.Equal(t, "path", byName["scope"].In)
	assert.True(t, byName["scope"].Required)
	assert.Equal(t, "query", byName["q"].In)
	assert.True(t, byName["q"].Required)
	assert.False(t, byName["page"].Required)
}

func TestDocument_synthesis_is_deterministic(t *testing.T) {
	t.Parallel()

	reg := contract.NewRegistry()
	require.NoError(t, reg.Register(&contract.Contract{
		Method:       http.MethodPost,
		Path:         "/upload",
		AuthRequired: true,
		FileFields:   []contract.FileField{{Name: "doc", Required: true}},
		Form: &contract.Schema{
			Type: contract.TypeObject,
			Properties: map[string]*contract.Schema{
				"caption": {Type: contract.TypeString, Optional: true},
				"title":   {Type: contract.TypeString},
			},
		},
	}))
	require.NoError(t, reg.Register(&contract.Contract{
		Method: http.MethodPost,
		Path:   "/login",
		Body:   loginSchema(),
	}))

	s := contract.NewSynthesizer(reg, contract.NewIntrospector(), contract.Info{Title: "T", Version: "1"})

	first, err := json.Marshal(s.Document())
	require.NoError(t, err)

	for range 5 {
		next, err := json.Marshal(s.Document())
		require.NoError(t, err)
		assert.Equal(t, string(first), string(next))
	}
}
