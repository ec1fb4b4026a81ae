package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/BruksfildServices01/barber-booking-engine/internal/config"
	"github.com/BruksfildServices01/barber-booking-engine/internal/domain/access"
	"github.com/BruksfildServices01/barber-booking-engine/internal/httperr"
)

const (
	ContextUserID       = "userID"
	ContextBarbershopID = "barbershopID"
	ContextUserRole     = "userRole"
	ContextActor        = "actor"
)

func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing_authorization_header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c, "invalid_authorization_header")
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenMalformed
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			abortUnauthorized(c, "invalid_token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortUnauthorized(c, "invalid_token_claims")
			return
		}

		userID, ok1 := claims["sub"].(float64)
		barbershopID, ok2 := claims["barbershopId"].(float64)
		role, _ := claims["role"].(string)
		if !ok1 || !ok2 {
			abortUnauthorized(c, "invalid_token_payload")
			return
		}

		// tokens antigos não tinham role: eram sempre do dono
		if role == "" {
			role = string(access.RoleOwner)
		}

		actor := access.Actor{
			UserID:       uint(userID),
			BarbershopID: uint(barbershopID),
			Role:         access.Role(role),
		}

		c.Set(ContextUserID, actor.UserID)
		c.Set(ContextBarbershopID, actor.BarbershopID)
		c.Set(ContextUserRole, role)
		c.Set(ContextActor, actor)

		c.Next()
	}
}

// ActorFrom devolve o ator autenticado; ok=false fora do grupo protegido.
func ActorFrom(c *gin.Context) (access.Actor, bool) {
	v, exists := c.Get(ContextActor)
	if !exists {
		return access.Actor{}, false
	}
	actor, ok := v.(access.Actor)
	return actor, ok
}

// RequireStaff barra clientes nas rotas de administração da barbearia.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok || !actor.IsStaff() {
			httperr.Forbidden(c, httperr.CodeUnauthorized, "Acesso restrito à equipe da barbearia.")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin limita a rota ao dono/administrador.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok || !actor.IsAdmin() {
			httperr.Forbidden(c, httperr.CodeUnauthorized, "Acesso restrito ao administrador.")
			c.Abort()
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, code string) {
	httperr.Unauthorized(c, code, "Autenticação necessária.")
	c.Abort()
}
