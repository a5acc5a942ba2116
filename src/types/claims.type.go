package types

import "github.com/golang-jwt/jwt/v4"

type Claims struct {
	Address string `json:"address"`
	Email   string `json:"email,omitempty"`
	jwt.RegisteredClaims
}
