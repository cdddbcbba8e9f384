package contract

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is one level of the two-level role hierarchy. An admin implicitly
// satisfies any check that only requires user.
type Role string

// The role hierarchy, lowest first.
const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// satisfies reports whether the role meets a required role.
func (r Role) satisfies(required Role) bool {
	if r == required {
		return true
	}
	return r == RoleAdmin && required == RoleUser
}

// Claims is the verified identity extracted from a token. It lives only for
// the duration of a request.
type Claims struct {
	Subject string
	Email   string
	Name    string
	Role    Role
}

// tokenClaims is the JWT payload shape.
type tokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Verifier verifies bearer tokens. Only HMAC-SHA256 signatures are accepted;
// a token signed with any other algorithm is rejected.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier over an HMAC secret.
func NewVerifier(secret []byte) *Verifier {
	return &Verifier{secret: secret}
}

// ExtractBearer pulls the token out of an Authorization header value. Only a
// case-insensitive "Bearer <token>" scheme is recognized; any other scheme
// or a malformed header reads as absent.
func ExtractBearer(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

// Verify parses and verifies a token, returning its claims. Malformed
// tokens, wrong keys, and disallowed algorithms all fail as Unauthorized
// with a generic message; expiry carries a distinguishable message but the
// same kind.
func (v *Verifier) Verify(token string) (*Claims, *Error) {
	var tc tokenClaims
	_, err := jwt.ParseWithClaims(token, &tc, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, Unauthorizedf("token expired")
		}
		return nil, Unauthorizedf("invalid token")
	}

	return &Claims{
		Subject: tc.Subject,
		Email:   tc.Email,
		Name:    tc.Name,
		Role:    Role(tc.Role),
	}, nil
}

// IssueToken signs a token for the given claims, valid for ttl.
func (v *Verifier) IssueToken(claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	tc := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: claims.Email,
		Name:  claims.Name,
		Role:  string(claims.Role),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, tc).SignedString(v.secret)
}

// CheckRole verifies claims against a role requirement. An empty requirement
// always passes; claims without a role fail any non-empty requirement. The
// message stays fixed so callers cannot tell which check failed.
func CheckRole(claims *Claims, required []Role) *Error {
	if len(required) == 0 {
		return nil
	}
	if claims == nil || claims.Role == "" {
		return Forbiddenf("not permitted")
	}
	for _, req := range required {
		if claims.Role.satisfies(req) {
			return nil
		}
	}
	return Forbiddenf("not permitted")
}
