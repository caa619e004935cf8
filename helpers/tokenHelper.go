package helpers

import (
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
)

type SignedDetails struct {
	Email     string
	Name      string
	Uid       string
	User_role string
	jwt.StandardClaims
}

// GenerateAllTokens signs an access token carrying the caller's identity and
// role, plus a bare refresh token with twice the lifetime.
func GenerateAllTokens(secret string, ttl time.Duration, email string, name string, uid string, userRole string) (signedToken string, refreshSignedToken string, err error) {
	now := time.Now()
	claim := SignedDetails{
		Email:     email,
		Name:      name,
		Uid:       uid,
		User_role: userRole,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	}
	refreshClaim := SignedDetails{
		Uid: uid,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(2 * ttl).Unix(),
		},
	}

	signedToken, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claim).SignedString([]byte(secret))
	if err != nil {
		return "", "", fmt.Errorf("sign token: %w", err)
	}
	refreshSignedToken, err = jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaim).SignedString([]byte(secret))
	if err != nil {
		return "", "", fmt.Errorf("sign refresh token: %w", err)
	}
	return signedToken, refreshSignedToken, nil
}

// ValidateToken returns the claims of signedToken, or a non-empty msg saying
// why it was rejected.
func ValidateToken(secret string, signedToken string) (claims *SignedDetails, msg string) {
	token, err := jwt.ParseWithClaims(
		signedToken,
		&SignedDetails{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		},
	)
	if err != nil {
		return nil, err.Error()
	}
	claims, ok := token.Claims.(*SignedDetails)
	if !ok || !token.Valid {
		return nil, "the token is invalid"
	}
	if claims.ExpiresAt < time.Now().Unix() {
		return nil, "token is expired"
	}
	if claims.Uid == "" {
		return nil, "token has no subject"
	}
	return claims, ""
}
