package contract

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Router mounts contracts on an http.ServeMux and owns the registry that
// the pipeline and the document synthesizer share. It implements
// http.Handler. Registration happens before traffic starts; concurrent
// registration during live traffic is unsupported.
type Router struct {
	mux        *http.ServeMux
	registry   *Registry
	pipeline   *Pipeline
	middleware []Middleware

	intr     Introspector
	verifier *Verifier
	logger   *slog.Logger

	title       string
	version     string
	description string
	servers     []Server
}

// Option configures a Router.
type Option func(*Router)

// WithTitle sets the API title used in the synthesized document.
func WithTitle(title string) Option {
	return func(r *Router) { r.title = title }
}

// WithVersion sets the API version used in the synthesized document.
func WithVersion(version string) Option {
	return func(r *Router) { r.version = version }
}

// WithDescription sets the API description used in the synthesized document.
func WithDescription(desc string) Option {
	return func(r *Router) { r.description = desc }
}

// WithServers sets the servers list for the synthesized document.
func WithServers(servers ...Server) Option {
	return func(r *Router) { r.servers = servers }
}

// WithAuth sets the token verifier. Required before registering any
// contract with AuthRequired.
func WithAuth(v *Verifier) Option {
	return func(r *Router) { r.verifier = v }
}

// WithIntrospector overrides the schema introspector shared by the pipeline
// and the synthesizer.
func WithIntrospector(intr Introspector) Option {
	return func(r *Router) { r.intr = intr }
}

// WithLogger sets the operational logger used for internal-error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) { r.logger = logger }
}

// New creates a Router with the given options.
func New(opts ...Option) *Router {
	r := &Router{
		mux:      http.NewServeMux(),
		registry: NewRegistry(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.intr == nil {
		r.intr = NewIntrospector()
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.pipeline = NewPipeline(r.intr, r.verifier, r.logger)
	return r
}

// Handle registers a contract and mounts its pipeline handler. It fails
// fast on registry violations and on auth contracts without a verifier.
func (r *Router) Handle(c *Contract, h HandlerFunc) error {
	if c.AuthRequired && r.verifier == nil {
		return fmt.Errorf("contract %s: auth required but router has no verifier", c.key())
	}
	if err := r.registry.Register(c); err != nil {
		return err
	}
	r.mux.Handle(c.Method+" "+c.Path, r.pipeline.Handler(c, h))
	return nil
}

// MustHandle is Handle that panics on error, for static wiring.
func (r *Router) MustHandle(c *Contract, h HandlerFunc) {
	if err := r.Handle(c, h); err != nil {
		panic(err)
	}
}

// Registry returns the contract registry.
func (r *Router) Registry() *Registry { return r.registry }

// Synthesizer returns a document synthesizer over the router's registry,
// sharing the pipeline's introspector.
func (r *Router) Synthesizer() *Synthesizer {
	info := Info{Title: r.title, Version: r.version, Description: r.description}
	return NewSynthesizer(r.registry, r.intr, info, r.servers...)
}

// Document synthesizes the API document for all registered contracts.
func (r *Router) Document() *Document {
	return r.Synthesizer().Document()
}

// Use adds middleware. Middleware is applied in the order added, outside
// the contract pipeline.
func (r *Router) Use(mw ...Middleware) {
	r.middleware = append(r.middleware, mw...)
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	handler := http.Handler(r.mux)
	for i := len(r.middleware) - 1; i >= 0; i-- {
		handler = r.middleware[i](handler)
	}
	handler.ServeHTTP(w, req)
}

// ListenAndServe starts an HTTP server on the given address. It blocks
// until the context is cancelled, then shuts down gracefully.
func (r *Router) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
