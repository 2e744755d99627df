// Package jwt wraps github.com/golang-jwt/jwt/v5 with a dual-secret HS256
// manager. Access and refresh tokens are minted and verified with separate
// secrets so the two token classes can never be confused for each other.
package jwt
