package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/advoga/advoga/internal/app/models/dto"
	"github.com/advoga/advoga/internal/app/repositories"
	"github.com/advoga/advoga/internal/pkg/auth"
)

// Context keys set by JWTAuth for downstream handlers
const (
	CtxActorID   = "actorID"
	CtxActorName = "actorName"
	CtxActorType = "actorType"
	CtxIsClient  = "isClient"
	CtxRoleType  = "roleType"
	CtxTenantID  = "tenantID"
	CtxEmail     = "email"
)

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	jwtService *auth.JWTService
	userRepo   *repositories.UserRepository
	clientRepo *repositories.ClientRepository
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService, userRepo *repositories.UserRepository, clientRepo *repositories.ClientRepository) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		userRepo:   userRepo,
		clientRepo: clientRepo,
	}
}

// JWTAuth validates the bearer token and loads the actor into the request
// context. Websocket clients cannot set headers from the browser, so a
// `token` query parameter is accepted as a fallback.
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			extracted, err := auth.ExtractBearerToken(authHeader)
			if err != nil {
				// Some clients send the raw JWT without the Bearer prefix
				if strings.Count(authHeader, ".") == 2 {
					extracted = authHeader
				} else {
					abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Invalid token format")
					return
				}
			}
			tokenString = extracted
		} else if queryToken := c.Query("token"); queryToken != "" {
			tokenString = queryToken
		}

		if tokenString == "" {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Authentication required")
			return
		}

		claims, err := m.jwtService.ValidateAndExtractClaims(tokenString)
		if err != nil {
			code := dto.ErrorCodeInvalidToken
			message := "Invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				code = dto.ErrorCodeExpiredToken
				message = "Token has expired"
			}
			abortUnauthorized(c, code, message)
			return
		}

		// Re-read the actor so deactivation and tenant moves take effect
		// without waiting for token expiry
		tenantID := ""
		if claims.IsClient {
			client, err := m.clientRepo.GetByID(c.Request.Context(), claims.ActorID)
			if err != nil || !client.IsActive {
				abortUnauthorized(c, dto.ErrorCodeAccountDisabled, "Account is not active")
				return
			}
			tenantID = client.TenantID
		} else {
			user, err := m.userRepo.GetByID(c.Request.Context(), claims.ActorID)
			if err != nil || !user.IsActive {
				abortUnauthorized(c, dto.ErrorCodeAccountDisabled, "Account is not active")
				return
			}
			tenantID = user.TenantID
		}

		actorType := "client"
		if !claims.IsClient {
			actorType = strings.ToLower(claims.RoleType)
		}

		c.Set(CtxActorID, claims.ActorID)
		c.Set(CtxActorName, claims.ActorName)
		c.Set(CtxActorType, actorType)
		c.Set(CtxIsClient, claims.IsClient)
		c.Set(CtxRoleType, claims.RoleType)
		c.Set(CtxTenantID, tenantID)
		c.Set(CtxEmail, claims.Email)

		c.Next()
	}
}

// StaffOnly rejects portal clients. Must run after JWTAuth.
func (m *AuthMiddleware) StaffOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetBool(CtxIsClient) {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(
				dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Staff access required")))
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, code dto.ErrorCode, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(
		dto.NewErrorDetail(code, message)))
}
