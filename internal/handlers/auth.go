package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/course-service/internal/config"
	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/repositories"
	"github.com/SAP-F-2025/course-service/internal/services"
	"github.com/SAP-F-2025/course-service/pkg/jwt"
)

const (
	MsgNoToken      = "Acceso denegado. No se proporcionó un token."
	MsgInvalidToken = "Token inválido."
	MsgTokenExpired = "Token expirado."

	contextUserID    = "user_id"
	contextUserRole  = "user_role"
	contextUserEmail = "user_email"
)

var errUnknownUser = errors.New("token subject has no local account")

// Principal is the authenticated caller as seen by handlers
type Principal struct {
	UserID string
	Name   string
	Email  string
	Role   models.UserRole
}

// TokenVerifier turns a bearer token into a Principal
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}

// LocalTokenVerifier accepts the HS256 tokens minted at login
type LocalTokenVerifier struct {
	tokens *jwt.Manager
}

func NewLocalTokenVerifier(tokens *jwt.Manager) *LocalTokenVerifier {
	return &LocalTokenVerifier{tokens: tokens}
}

func (v *LocalTokenVerifier) Verify(_ context.Context, token string) (*Principal, error) {
	claims, err := v.tokens.ParseToken(token)
	if err != nil {
		return nil, err
	}
	return &Principal{
		UserID: claims.UserID,
		Name:   claims.Name,
		Email:  claims.Email,
		Role:   models.UserRole(claims.Role),
	}, nil
}

// CasdoorTokenVerifier accepts tokens issued by a Casdoor instance. The
// Casdoor account is matched to a local user by email, and the local role is
// the one that counts.
type CasdoorTokenVerifier struct {
	client   *casdoorsdk.Client
	userRepo repositories.UserRepository
}

func NewCasdoorTokenVerifier(cfg config.CasdoorConfig, userRepo repositories.UserRepository) *CasdoorTokenVerifier {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Organization,
		cfg.Application,
	)

	return &CasdoorTokenVerifier{
		client:   client,
		userRepo: userRepo,
	}
}

func (v *CasdoorTokenVerifier) Verify(ctx context.Context, token string) (*Principal, error) {
	claims, err := v.client.ParseJwtToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", jwt.ErrTokenInvalid, err)
	}

	email := claims.User.Email
	if email == "" {
		return nil, jwt.ErrTokenInvalid
	}

	user, err := v.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, errUnknownUser
		}
		return nil, err
	}

	return &Principal{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
	}, nil
}

// NewTokenVerifier picks the verifier named by AUTH_PROVIDER
func NewTokenVerifier(cfg *config.Config, tokens *jwt.Manager, userRepo repositories.UserRepository) TokenVerifier {
	if cfg.AuthProvider == config.AuthProviderCasdoor {
		return NewCasdoorTokenVerifier(cfg.Casdoor, userRepo)
	}
	return NewLocalTokenVerifier(tokens)
}

// AuthMiddleware rejects requests without a valid bearer token and stores
// the caller in the gin context
type AuthMiddleware struct {
	BaseHandler
	verifier TokenVerifier
}

func NewAuthMiddleware(verifier TokenVerifier, base BaseHandler) *AuthMiddleware {
	return &AuthMiddleware{BaseHandler: base, verifier: verifier}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			am.RespondWithError(c, http.StatusUnauthorized, MsgNoToken, nil)
			return
		}

		principal, err := am.verifier.Verify(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, jwt.ErrTokenExpired):
				am.RespondWithError(c, http.StatusUnauthorized, MsgTokenExpired, nil)
			case errors.Is(err, jwt.ErrTokenInvalid), errors.Is(err, errUnknownUser):
				am.log(c).Warn("Token rejected", "error", err)
				am.RespondWithError(c, http.StatusUnauthorized, MsgInvalidToken, nil)
			default:
				am.LogError(c, err, "Token verification failed")
				am.RespondWithError(c, http.StatusInternalServerError, MsgInternalError, nil)
			}
			return
		}

		c.Set(contextUserID, principal.UserID)
		c.Set(contextUserRole, principal.Role)
		c.Set(contextUserEmail, principal.Email)
		c.Next()
	}
}

// RequireRole lets through callers holding any of roles. Admins pass every
// role gate.
func (am *AuthMiddleware) RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := GetUserRoleFromContext(c)
		if err != nil {
			am.RespondWithError(c, http.StatusUnauthorized, MsgNoToken, nil)
			return
		}

		if role == models.RoleAdmin {
			c.Next()
			return
		}
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		am.RespondWithError(c, http.StatusForbidden, services.MsgNoPermission, nil)
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// GetUserIDFromContext extracts user ID from Gin context
func GetUserIDFromContext(c *gin.Context) (string, error) {
	userID, exists := c.Get(contextUserID)
	if !exists {
		return "", fmt.Errorf("user ID not found in context")
	}

	id, ok := userID.(string)
	if !ok || id == "" {
		return "", fmt.Errorf("invalid user ID type in context")
	}

	return id, nil
}

// GetUserRoleFromContext extracts user role from Gin context
func GetUserRoleFromContext(c *gin.Context) (models.UserRole, error) {
	userRole, exists := c.Get(contextUserRole)
	if !exists {
		return "", fmt.Errorf("user role not found in context")
	}

	role, ok := userRole.(models.UserRole)
	if !ok {
		return "", fmt.Errorf("invalid user role type in context")
	}

	return role, nil
}
