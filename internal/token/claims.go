package token

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"auth-service/internal/model"
)

// Claims is the payload shared by access and refresh tokens.
type Claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) principal() (model.Principal, bool) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return model.Principal{}, false
	}
	if !c.Role.IsValid() {
		return model.Principal{}, false
	}
	return model.Principal{SubjectID: id, Role: c.Role}, true
}
