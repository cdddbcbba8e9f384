package contract

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// RequestContext is the per-request state handed to a handler. Everything in
// it has already passed the contract's checks; it is allocated fresh per
// request and discarded after the response is emitted.
type RequestContext struct {
	CorrelationID string

	// Claims is set when the contract requires auth.
	Claims *Claims

	// Body is the validated body: the parsed JSON object for a JSON
	// contract, or the parsed form fields for a multipart contract with a
	// Form schema.
	Body any

	// Query and Path are the validated query-string and path-parameter maps.
	Query any
	Path  any

	// Files and Form are populated for multipart contracts. Form holds the
	// raw string fields; Body holds their validated, coerced counterparts.
	Files []UploadedFile
	Form  map[string]string

	// Raw is the underlying request, for escape hatches.
	Raw *http.Request
}

// Result is a handler's successful outcome.
type Result struct {
	// Status defaults to 200, or 204 when Body is nil.
	Status int
	Body   any
	Header http.Header
}

// HandlerFunc is the user business-logic signature. A returned *Error
// propagates unchanged; any other error is reported as an internal error
// with a generic message.
type HandlerFunc func(ctx context.Context, rc *RequestContext) (*Result, error)

// Pipeline runs requests through the contract's checks in a fixed order:
// correlate, authenticate, authorize, parse body, parse query, invoke, emit.
// The first failing stage determines the response; no later stage runs and
// the handler is never invoked after a failure. The pipeline holds no
// mutable state across requests.
type Pipeline struct {
	intr     Introspector
	verifier *Verifier
	logger   *slog.Logger
}

// NewPipeline creates a pipeline. The introspector must be the same instance
// the document synthesizer uses. The verifier may be nil when no registered
// contract requires auth.
func NewPipeline(intr Introspector, verifier *Verifier, logger *slog.Logger) *Pipeline {
	if intr == nil {
		intr = NewIntrospector()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{intr: intr, verifier: verifier, logger: logger}
}

// Handler builds the http.Handler enforcing the contract around h.
func (p *Pipeline) Handler(c *Contract, h HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc := &RequestContext{Raw: r}
		var res *Result

		stages := []func() *Error{
			func() *Error { // correlate
				rc.CorrelationID = ResolveCorrelationID(r.Header.Get(CorrelationHeader))
				r = r.WithContext(withCorrelationID(r.Context(), rc.CorrelationID))
				rc.Raw = r
				return nil
			},
			func() *Error { // authenticate
				return p.authenticate(c, r, rc)
			},
			func() *Error { // authorize
				if !c.AuthRequired {
					return nil
				}
				return CheckRole(rc.Claims, c.RequiredRoles)
			},
			func() *Error { // parse body
				return p.parseBody(c, r, rc)
			},
			func() *Error { // parse query and path
				return p.parseParams(c, r, rc)
			},
			func() *Error { // invoke
				var err *Error
				res, err = p.invoke(r.Context(), rc, h)
				return err
			},
		}

		for _, run := range stages {
			if err := run(); err != nil {
				p.emitError(w, rc, err)
				return
			}
		}

		p.emit(w, rc, res)
	})
}

func (p *Pipeline) authenticate(c *Contract, r *http.Request, rc *RequestContext) *Error {
	if !c.AuthRequired {
		return nil
	}
	if p.verifier == nil {
		p.logger.Error("auth required but no verifier configured",
			"method", c.Method, "path", c.Path)
		return Internalf("internal error")
	}

	token, ok := ExtractBearer(r.Header.Get("Authorization"))
	if !ok {
		return Unauthorizedf("not authenticated")
	}

	claims, err := p.verifier.Verify(token)
	if err != nil {
		return err
	}
	rc.Claims = claims
	return nil
}

// parseBody dispatches on the contract's body encoding. File-field contracts
// parse as multipart; JSON contracts decode and validate the body object.
// The two are mutually exclusive, enforced at registration.
func (p *Pipeline) parseBody(c *Contract, r *http.Request, rc *RequestContext) *Error {
	switch {
	case len(c.FileFields) > 0:
		in, err := parseMultipartBody(r, c, p.intr)
		if err != nil {
			return err
		}
		rc.Files = in.files
		rc.Form = in.form
		rc.Body = in.parsed
		return nil

	case c.Body != nil:
		var raw map[string]any
		if err := decodeJSONBody(r, &raw); err != nil {
			return BadRequestf("malformed json body")
		}
		if raw == nil {
			raw = map[string]any{}
		}
		parsed, failures := p.intr.Validate(c.Body, raw)
		if len(failures) > 0 {
			return ValidationFailed(failures)
		}
		rc.Body = parsed
		return nil

	default:
		return nil
	}
}

// parseParams validates the flattened query-string map and, when declared,
// the path parameters.
func (p *Pipeline) parseParams(c *Contract, r *http.Request, rc *RequestContext) *Error {
	if c.Query != nil {
		values := r.URL.Query()
		flat := make(map[string]string, len(values))
		for name := range values {
			flat[name] = values.Get(name)
		}

		parsed, failures := p.intr.Validate(c.Query, flat)
		if len(failures) > 0 {
			return ValidationFailed(failures)
		}
		rc.Query = parsed
	}

	if c.PathParams != nil {
		flat := make(map[string]string, len(c.PathParams.Properties))
		for name := range c.PathParams.Properties {
			if v := r.PathValue(name); v != "" {
				flat[name] = v
			}
		}

		parsed, failures := p.intr.Validate(c.PathParams, flat)
		if len(failures) > 0 {
			return ValidationFailed(failures)
		}
		rc.Path = parsed
	}

	return nil
}

// invoke runs the handler. A returned *Error passes through unchanged; any
// other error or panic is logged with the correlation id and normalized to
// an internal error whose message leaks nothing.
func (p *Pipeline) invoke(ctx context.Context, rc *RequestContext, h HandlerFunc) (res *Result, appErr *Error) {
	defer func() {
		if rec := recover(); rec != nil {
			p.logger.Error("handler panic",
				"panic", rec,
				"stack", string(debug.Stack()),
				"correlation_id", rc.CorrelationID,
			)
			res = nil
			appErr = Internalf("internal error")
		}
	}()

	res, err := h(ctx, rc)
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			return nil, e
		}
		p.logger.Error("handler error",
			"error", err,
			"correlation_id", rc.CorrelationID,
		)
		return nil, Internalf("internal error")
	}
	return res, nil
}

func (p *Pipeline) emit(w http.ResponseWriter, rc *RequestContext, res *Result) {
	w.Header().Set(CorrelationHeader, rc.CorrelationID)

	if res == nil {
		res = &Result{}
	}
	for key, vals := range res.Header {
		for _, v := range vals {
			w.Header().Add(key, v)
		}
	}

	status := res.Status
	if status == 0 {
		if res.Body == nil {
			status = http.StatusNoContent
		} else {
			status = http.StatusOK
		}
	}

	if res.Body == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson,gosec // best-effort after WriteHeader
	json.NewEncoder(w).Encode(res.Body)
}

func (p *Pipeline) emitError(w http.ResponseWriter, rc *RequestContext, err *Error) {
	w.Header().Set(CorrelationHeader, rc.CorrelationID)
	writeError(w, err)
}

// decodeJSONBody decodes the request body as a single JSON value. An empty
// body decodes to nil rather than failing; trailing content after the value
// is an error.
func decodeJSONBody(r *http.Request, target *map[string]any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	if err := dec.Decode(new(json.RawMessage)); !errors.Is(err, io.EOF) {
		return errors.New("trailing data after json value")
	}
	return nil
}
