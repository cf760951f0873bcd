package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/spotiload/api/pkg/response"
)

type AuthMiddleware struct {
	jwtSecret string
}

type UserClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

func NewAuthMiddleware(jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{jwtSecret: jwtSecret}
}

// Authenticate validates JWT token from Authorization header
func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := m.parseToken(c)
		if err != nil {
			return response.Unauthorized(c, err.Error())
		}

		storeClaims(c, claims)
		return c.Next()
	}
}

// OptionalAuthenticate attaches user identity when a valid token is
// present but lets anonymous requests through. Download starts work
// without an account; history association kicks in only for known
// users.
func (m *AuthMiddleware) OptionalAuthenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get("Authorization") == "" {
			return c.Next()
		}

		claims, err := m.parseToken(c)
		if err == nil {
			storeClaims(c, claims)
		}
		return c.Next()
	}
}

func (m *AuthMiddleware) parseToken(c *fiber.Ctx) (*UserClaims, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil, errMissingHeader
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return nil, errBadHeader
	}

	token, err := jwt.ParseWithClaims(parts[1], &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(m.jwtSecret), nil
	})
	if err != nil {
		return nil, errInvalidToken
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return nil, errInvalidToken
	}
	return claims, nil
}

var (
	errMissingHeader = fiberError("Missing authorization header")
	errBadHeader     = fiberError("Invalid authorization header format")
	errInvalidToken  = fiberError("Invalid or expired token")
)

type fiberError string

func (e fiberError) Error() string { return string(e) }

func storeClaims(c *fiber.Ctx, claims *UserClaims) {
	c.Locals("userId", claims.UserID)
	c.Locals("email", claims.Email)
	c.Locals("claims", claims)
}

// GetUserID extracts user ID from context
func GetUserID(c *fiber.Ctx) string {
	if userID, ok := c.Locals("userId").(string); ok {
		return userID
	}
	return ""
}

// GetUserEmail extracts user email from context
func GetUserEmail(c *fiber.Ctx) string {
	if email, ok := c.Locals("email").(string); ok {
		return email
	}
	return ""
}

// GenerateToken creates a new JWT token (useful for testing)
func (m *AuthMiddleware) GenerateToken(userID, email string) (string, error) {
	claims := UserClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "spotiload-api",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.jwtSecret))
}
