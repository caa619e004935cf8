package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-restaurant-ordering/helpers"
	"go-restaurant-ordering/logging"
	"go-restaurant-ordering/services"
)

const (
	uidKey   = "uid"
	roleKey  = "user_role"
	emailKey = "email"
	nameKey  = "Name"
)

// Authentication validates the token header and stores the caller's claims in
// the gin context.
func Authentication(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientToken := c.Request.Header.Get("token")
		if clientToken == "" {
			abort(c, http.StatusUnauthorized, services.Unauthorized("No authorization token provided"))
			return
		}
		claims, msg := helpers.ValidateToken(secret, clientToken)
		if msg != "" {
			logging.From(c).Info("token rejected", "reason", msg)
			abort(c, http.StatusUnauthorized, services.Unauthorized("Invalid token: "+msg))
			return
		}
		c.Set(emailKey, claims.Email)
		c.Set(nameKey, claims.Name)
		c.Set(uidKey, claims.Uid)
		c.Set(roleKey, claims.User_role)
		c.Next()
	}
}

// RequireRole lets only callers with role through. It must run after
// Authentication.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(uidKey) == "" {
			abort(c, http.StatusUnauthorized, services.Unauthorized("Authentication required"))
			return
		}
		if c.GetString(roleKey) != role {
			abort(c, http.StatusForbidden, services.Forbidden("Requires role "+role))
			return
		}
		c.Next()
	}
}

// ActorFrom returns the authenticated caller, or a zero Actor.
func ActorFrom(c *gin.Context) services.Actor {
	return services.Actor{ID: c.GetString(uidKey), Role: c.GetString(roleKey)}
}

func abort(c *gin.Context, status int, err *services.Error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Message, "code": err.Code})
}
