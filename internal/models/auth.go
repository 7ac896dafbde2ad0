package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the claim set carried by every bearer token
type TokenClaims struct {
	Authorities []string `json:"authorities"`
	jwt.RegisteredClaims
}
