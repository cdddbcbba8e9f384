// Command sample demonstrates the contract layer with a small user API:
// login issues a token, profile and admin endpoints enforce auth and roles,
// and avatar upload exercises the multipart path.
//
// Run:
//
//	go run ./cmd/sample
//
// Generate the API document:
//
//	go run ./cmd/sample -doc                 — print to stdout
//	go run ./cmd/sample -doc -o openapi.json — write to file
//
// Then explore:
//
//	GET  http://localhost:8080/openapi.json — API document
//	GET  http://localhost:8080/docs         — interactive docs UI
//	POST http://localhost:8080/login        — obtain a token
//	GET  http://localhost:8080/me           — profile (auth required)
//	GET  http://localhost:8080/admin/users  — user list (admin only)
//	POST http://localhost:8080/me/avatar    — upload avatar (multipart)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/brev/contract"
)

func main() {
	docFlag := flag.Bool("doc", false, "Print the API document to stdout and exit")
	outFlag := flag.String("o", "", "Output file for the document (requires -doc)")
	flag.Parse()

	r, err := newRouter()
	if err != nil {
		slog.Error("wiring failed", "err", err)
		os.Exit(1)
	}

	if *docFlag {
		if err := writeDocument(r, *outFlag); err != nil {
			slog.Error("document generation failed", "err", err)
			os.Exit(1)
		}
		return
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	slog.Info("starting server", "addr", ":8080", "doc", "http://localhost:8080/openapi.json")

	if err := r.ListenAndServe(ctx, ":8080"); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "err", err)
	}

	slog.Info("server stopped")
}

// secret resolves the signing secret, with a development fallback so the
// sample runs without configuration.
func secret() string {
	if s := os.Getenv("SAMPLE_TOKEN_SECRET"); s != "" {
		return s
	}
	return "sample-dev-secret"
}

func newRouter() (*contract.Router, error) {
	verifier := contract.NewVerifier([]byte(secret()))

	r := contract.New(
		contract.WithTitle("Sample User API"),
		contract.WithVersion("1.0.0"),
		contract.WithDescription("Demonstrates the declare-once contract layer."),
		contract.WithServers(contract.Server{URL: "http://localhost:8080"}),
		contract.WithAuth(verifier),
	)

	r.Use(contract.Recovery())
	r.Use(contract.Logger(slog.Default()))
	r.Use(contract.RateLimit(contract.RateLimitConfig{Rate: 50, Burst: 100}))
	r.Use(contract.BodyLimit(8 << 20)) // 8 MB

	r.ServeDocument("/openapi.json")
	r.ServeDocumentYAML("/openapi.yaml")
	r.ServeDocs("/docs")

	store := newUserStore(verifier)

	contracts := []struct {
		c *contract.Contract
		h contract.HandlerFunc
	}{
		{loginContract(), store.handleLogin},
		{profileContract(), store.handleProfile},
		{listUsersContract(), store.handleListUsers},
		{avatarContract(), store.handleAvatarUpload},
	}

	for _, reg := range contracts {
		if err := r.Handle(reg.c, reg.h); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func loginContract() *contract.Contract {
	return &contract.Contract{
		Method:  http.MethodPost,
		Path:    "/login",
		Summary: "Log in",
		Tags:    []string{"auth"},
		Body: &contract.Schema{
			Type: contract.TypeObject,
			Properties: map[string]*contract.Schema{
				"email":    {Type: contract.TypeString, Format: "email"},
				"password": {Type: contract.TypeString, MinLength: 8},
			},
		},
		Responses: map[int]contract.ResponseSpec{
			http.StatusOK: {
				Description: "Token issued",
				Schema: &contract.Schema{
					Type: contract.TypeObject,
					Properties: map[string]*contract.Schema{
						"token": {Type: contract.TypeString},
					},
				},
			},
		},
	}
}

func profileContract() *contract.Contract {
	return &contract.Contract{
		Method:       http.MethodGet,
		Path:         "/me",
		Summary:      "Current user profile",
		Tags:         []string{"users"},
		AuthRequired: true,
		Responses: map[int]contract.ResponseSpec{
			http.StatusOK: {
				Description: "Profile",
				Schema: &contract.Schema{
					Type: contract.TypeObject,
					Properties: map[string]*contract.Schema{
						"subject": {Type: contract.TypeString},
						"email":   {Type: contract.TypeString, Optional: true},
						"role":    {Type: contract.TypeString, Enum: []string{"user", "admin"}},
					},
				},
			},
		},
	}
}

func listUsersContract() *contract.Contract {
	return &contract.Contract{
		Method:        http.MethodGet,
		Path:          "/admin/users",
		Summary:       "List users",
		Tags:          []string{"admin"},
		AuthRequired:  true,
		RequiredRoles: []contract.Role{contract.RoleAdmin},
		Query: &contract.Schema{
			Type: contract.TypeObject,
			Properties: map[string]*contract.Schema{
				"limit": {Type: contract.TypeNumber, Minimum: contract.Float(1), Maximum: contract.Float(100), Optional: true},
			},
		},
		Responses: map[int]contract.ResponseSpec{
			http.StatusOK: {Description: "Users"},
		},
	}
}

func avatarContract() *contract.Contract {
	return &contract.Contract{
		Method:       http.MethodPost,
		Path:         "/me/avatar",
		Summary:      "Upload avatar",
		Tags:         []string{"users"},
		AuthRequired: true,
		FileFields: []contract.FileField{
			{Name: "avatar", Required: true, Description: "Avatar image"},
		},
		Form: &contract.Schema{
			Type: contract.TypeObject,
			Properties: map[string]*contract.Schema{
				"caption": {Type: contract.TypeString, MaxLength: 120, Optional: true},
			},
		},
		Responses: map[int]contract.ResponseSpec{
			http.StatusCreated: {Description: "Avatar stored"},
		},
	}
}

// userStore is an in-memory stand-in for a real user service.
type userStore struct {
	verifier *contract.Verifier
}

func newUserStore(verifier *contract.Verifier) *userStore {
	return &userStore{verifier: verifier}
}

func (s *userStore) handleLogin(_ context.Context, rc *contract.RequestContext) (*contract.Result, error) {
	body := rc.Body.(map[string]any)
	email := body["email"].(string)

	role := contract.RoleUser
	if email == "admin@example.com" {
		role = contract.RoleAdmin
	}

	token, err := s.verifier.IssueToken(contract.Claims{
		Subject: email,
		Email:   email,
		Role:    role,
	}, time.Hour)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &contract.Result{Body: map[string]any{"token": token}}, nil
}

func (s *userStore) handleProfile(_ context.Context, rc *contract.RequestContext) (*contract.Result, error) {
	return &contract.Result{Body: map[string]any{
		"subject": rc.Claims.Subject,
		"email":   rc.Claims.Email,
		"role":    string(rc.Claims.Role),
	}}, nil
}

func (s *userStore) handleListUsers(_ context.Context, rc *contract.RequestContext) (*contract.Result, error) {
	limit := 20.0
	if q, ok := rc.Query.(map[string]any); ok {
		if v, ok := q["limit"].(float64); ok {
			limit = v
		}
	}
	return &contract.Result{Body: map[string]any{
		"users": []string{"admin@example.com", "user@example.com"},
		"limit": limit,
	}}, nil
}

func (s *userStore) handleAvatarUpload(_ context.Context, rc *contract.RequestContext) (*contract.Result, error) {
	avatar := rc.Files[0]
	return &contract.Result{
		Status: http.StatusCreated,
		Body: map[string]any{
			"filename": avatar.Filename,
			"size":     avatar.SizeBytes,
			"mime":     avatar.MimeType,
		},
	}, nil
}

func writeDocument(r *contract.Router, out string) error {
	if out == "" {
		return r.WriteDocument(os.Stdout)
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck // closed again below on the success path

	if err := r.WriteDocument(f); err != nil {
		return err
	}
	return f.Close()
}
