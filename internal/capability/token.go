package capability

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/topstrike/syscall-relayer/internal/models"
)

// Issuer is the iss claim stamped on every capability token.
const Issuer = "syscall-relayer"

// Claims extends the registered JWT claims with the entitlement a verified
// payment purchased. The token is the sole carrier of entitlement between
// the verify and dispatch calls; no server-side session state exists.
type Claims struct {
	jwt.RegisteredClaims
	// PaymentID is the on-chain payment identifier, decimal encoded.
	PaymentID string `json:"pid"`
	// Service is the purchased service type ("sms" or "email").
	Service string `json:"svc"`
	// Quantity is the purchased quota in payload bytes.
	Quantity uint64 `json:"qty"`
}

// Tokens issues and validates capability tokens with a shared symmetric
// secret. Any two relay instances sharing the secret can issue and validate
// interchangeably.
type Tokens struct {
	secret []byte
	ttl    time.Duration

	// now is swapped out in tests
	now func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue maps a verified payment into a signed, time-boxed capability token.
// No chain interaction happens here.
func (t *Tokens) Issue(v *models.VerifiedPayment) (string, error) {
	now := t.now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   v.Payer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		PaymentID: v.PaymentID.String(),
		Service:   v.Service,
		Quantity:  v.Quantity,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Validate checks the token's signature and expiry and returns its claims.
// It never touches the chain; the replay guard lives on-chain, checked at
// verification and enforced again by the consumePayment transaction.
func (t *Tokens) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			return t.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithTimeFunc(func() time.Time { return t.now() }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, models.ErrTokenExpired
		}
		return nil, models.ErrTokenMalformed
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, models.ErrTokenMalformed
	}
	return claims, nil
}
