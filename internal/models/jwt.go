package models

// JWTClaims holds the claims extracted from a verified identity token
type JWTClaims struct {
	Sub   string `json:"sub"`   // Stable subject identifier from the provider
	Email string `json:"email"` // User email
	Name  string `json:"name"`  // Display name
	Exp   int64  `json:"exp"`   // Expiration time
	Iat   int64  `json:"iat"`   // Issued at
	Iss   string `json:"iss"`   // Issuer
	Aud   string `json:"aud"`   // Audience
}
