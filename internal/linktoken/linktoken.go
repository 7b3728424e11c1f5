// Package linktoken issues the opaque links customers use to open quotes and
// invoices. Tokens are HS256 JWTs; only a BLAKE2b digest is persisted.
package linktoken

import (
	"encoding/hex"
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

const (
	KindQuote   = "quote"
	KindInvoice = "invoice"

	issuer = "youngspirits"
)

var ErrInvalidToken = errors.New("invalid or unknown link")

type linkClaims struct {
	jwtlib.RegisteredClaims
	Kind string `json:"kind"`
}

type Signer struct {
	secret []byte
	now    func() time.Time
}

func NewSigner(secret string) *Signer {
	if secret == "" {
		secret = "dev-change-me"
	}
	return &Signer{secret: []byte(secret), now: time.Now}
}

// Issue returns a new link token for the entity and the digest to store
// alongside it.
func (s *Signer) Issue(kind string, entityID string) (token string, digest string, err error) {
	claims := linkClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			ID:       uuid.NewString(),
			Subject:  entityID,
			IssuedAt: jwtlib.NewNumericDate(s.now().UTC()),
			Issuer:   issuer,
		},
		Kind: kind,
	}
	token, err = jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", "", err
	}
	return token, Digest(token), nil
}

// Verify checks the signature and kind and returns the entity id the token
// was issued for.
func (s *Signer) Verify(kind string, token string) (string, error) {
	claims := &linkClaims{}
	parsed, err := jwtlib.ParseWithClaims(token, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}), jwtlib.WithIssuer(issuer))
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	if claims.Kind != kind {
		return "", ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}

// Digest is the at-rest form of a token used for lookups.
func Digest(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
