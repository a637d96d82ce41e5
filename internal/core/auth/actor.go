// Package auth turns a bearer token into the Actor that every pipeline operation
// receives explicitly. Session handling lives outside this service; the token is
// trusted once its signature verifies.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Role is the warehouse function of an actor.
type Role string

const (
	RoleChinaStaff     Role = "china_staff"
	RoleVenezuelaStaff Role = "venezuela_staff"
	RoleAdmin          Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleChinaStaff, RoleVenezuelaStaff, RoleAdmin:
		return true
	}
	return false
}

// Actor identifies who invoked an operation.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// System is the actor used for internal callers such as startup tasks.
var System = Actor{ID: "system", Role: RoleAdmin}

const localsKey = "actor"

var (
	// ErrMissingToken is returned when no bearer token is present.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken is returned when the token fails verification or carries bad claims.
	ErrInvalidToken = errors.New("invalid token")
)

type claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 actor tokens.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier for the shared secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Parse verifies a raw token and returns its actor.
func (v *Verifier) Parse(raw string) (Actor, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Actor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if c.Subject == "" || !c.Role.Valid() {
		return Actor{}, fmt.Errorf("%w: subject and known role required", ErrInvalidToken)
	}

	return Actor{ID: c.Subject, Role: c.Role}, nil
}

// Issue signs a token for actor valid for ttl.
func (v *Verifier) Issue(actor Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(v.secret)
}

// Middleware rejects requests without a valid bearer token and stores the actor in locals.
func (v *Verifier) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			return unauthorized(c, ErrMissingToken)
		}

		actor, err := v.Parse(raw)
		if err != nil {
			return unauthorized(c, err)
		}

		c.Locals(localsKey, actor)
		return c.Next()
	}
}

// FromCtx returns the actor stored by Middleware.
func FromCtx(c *fiber.Ctx) (Actor, bool) {
	actor, ok := c.Locals(localsKey).(Actor)
	return actor, ok
}

func unauthorized(c *fiber.Ctx, err error) error {
	rayID, _ := c.Locals("requestid").(string)
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"message": err.Error(),
		"ray_id":  rayID,
	})
}
