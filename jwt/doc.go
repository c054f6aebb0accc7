// Package jwt wraps github.com/golang-jwt/jwt/v5 with the claim layout
// and verification rules of the authgate session token.
package jwt
