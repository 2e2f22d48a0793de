package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// dealIssuer keeps deal tokens and bearer tokens apart: each parser only
// accepts its own issuer.
const dealIssuer = "camgrocer/deal"

// DealClaims bind a negotiated unit price to a product. Subject is the
// product id.
type DealClaims struct {
	Price int `json:"price"`
	jwt.RegisteredClaims
}

// DealSigner signs the prices committed by negotiation dialogues so that
// checkout only accepts prices the engine actually agreed to.
type DealSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewDealSigner(secret string, ttl time.Duration) *DealSigner {
	return &DealSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a deal token for price on productID and its expiry.
func (s *DealSigner) Sign(productID string, price int) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := DealClaims{
		Price: price,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   productID,
			Issuer:    dealIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign deal: %w", err)
	}
	return signed, exp, nil
}

// Verify checks the signature and expiry of a deal token.
func (s *DealSigner) Verify(token string) (*DealClaims, error) {
	claims := &DealClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(dealIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.Price <= 0 {
		return nil, fmt.Errorf("%w: incomplete deal", ErrInvalidToken)
	}
	return claims, nil
}
