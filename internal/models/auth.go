package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims represents the JWT claims for a session token
type TokenClaims struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Identity is the verified caller attached to the request context by the
// auth middleware.
type Identity struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
}
