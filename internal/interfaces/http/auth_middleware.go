package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/supplychain-core/internal/application/dto"
	"github.com/jhoicas/supplychain-core/internal/domain/entity"
	"github.com/jhoicas/supplychain-core/pkg/jwt"
)

// Locals keys de la identidad del actor en Fiber.
const (
	LocalUserID         = "user_id"
	LocalOrganizationID = "organization_id"
	LocalRoleLevel      = "role_level"
)

// AuthMiddleware valida el Bearer Token JWT y deja la identidad del actor en c.Locals.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		claims, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		if claims.UserID == "" || claims.OrganizationID == "" || claims.RoleLevel <= 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INCOMPLETE_IDENTITY", Message: "el token no trae usuario, organización o nivel"})
		}
		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalOrganizationID, claims.OrganizationID)
		c.Locals(LocalRoleLevel, claims.RoleLevel)
		return c.Next()
	}
}

// RequireLevel deja pasar solo a actores con nivel <= maxLevel (menor = más privilegio).
func RequireLevel(maxLevel int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		level := GetRoleLevel(c)
		if level <= 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "nivel de rol ausente"})
		}
		if level > maxLevel {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "nivel de rol insuficiente"})
		}
		return c.Next()
	}
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalUserID).(string)
	return s
}

// GetOrganizationID devuelve la organización del actor.
func GetOrganizationID(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalOrganizationID).(string)
	return s
}

// GetRoleLevel devuelve el nivel de rol del actor; 0 si no hay.
func GetRoleLevel(c *fiber.Ctx) int {
	n, _ := c.Locals(LocalRoleLevel).(int)
	return n
}

// GetActor arma el actor a partir de los locals.
func GetActor(c *fiber.Ctx) entity.Actor {
	return entity.Actor{
		UserID:         GetUserID(c),
		OrganizationID: GetOrganizationID(c),
		RoleLevel:      GetRoleLevel(c),
	}
}
