// Package contract is a declare-once request contract layer for HTTP
// endpoints. A Contract describes everything an endpoint expects — auth,
// roles, body/query/path schemas, file-upload fields, and per-status
// responses — and the same declaration drives both request-time enforcement
// and OpenAPI document synthesis, so the two renderings can never disagree
// about which fields are required.
//
// Contracts are registered with a Router, which runs each request through a
// strictly ordered, short-circuiting pipeline:
//
//	r := contract.New(contract.WithTitle("Users API"), contract.WithVersion("1.0.0"))
//	err := r.Handle(&contract.Contract{
//	    Method: http.MethodPost,
//	    Path:   "/login",
//	    Body: &contract.Schema{
//	        Type: contract.TypeObject,
//	        Properties: map[string]*contract.Schema{
//	            "email":    {Type: contract.TypeString, Format: "email"},
//	            "password": {Type: contract.TypeString, MinLength: 8},
//	        },
//	    },
//	}, loginHandler)
//
// Handlers receive a fully validated RequestContext and never see raw,
// unvalidated input:
//
//	func loginHandler(ctx context.Context, rc *contract.RequestContext) (*contract.Result, error)
//
// The OpenAPI document is synthesized from the same registry:
//
//	r.ServeDocument("/openapi.json")
//
// Middleware uses the standard func(http.Handler) http.Handler signature,
// so the entire Go middleware ecosystem works natively.
package contract
