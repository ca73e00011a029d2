package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/okhara/roleauth/role"
)

// ErrCorruptRecord is returned when stored bytes do not parse and verify as
// a valid record. The caller must treat the record as absent; the store
// purges it so the failure never repeats.
var ErrCorruptRecord = errors.New("corrupt session record")

const minSigningKeyLength = 32

// recordClaims is the signed wire shape of a Record. Subject carries the
// principal ID; the JWT ID is a fresh uuid per Save so each persisted
// snapshot is individually identifiable in audit trails.
type recordClaims struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	ManagerID  string `json:"mgr,omitempty"`
	TeamLeadID string `json:"tl,omitempty"`
	Department string `json:"dept,omitempty"`
	Avatar     string `json:"avatar,omitempty"`
	CreatedAt  int64  `json:"cat"`

	jwt.RegisteredClaims
}

// Codec signs and verifies persisted records with HMAC-SHA256.
//
// Codec instances are intended to be configured during initialization and
// then treated as immutable.
type Codec struct {
	signingKey []byte
}

// NewCodec creates a [Codec] from the given signing key. The key must be at
// least 32 bytes; it is copied, never aliased.
func NewCodec(signingKey []byte) (*Codec, error) {
	if len(signingKey) < minSigningKeyLength {
		return nil, fmt.Errorf("signing key must be at least %d bytes", minSigningKeyLength)
	}
	key := make([]byte, len(signingKey))
	copy(key, signingKey)
	return &Codec{signingKey: key}, nil
}

// Encode serializes rec as a signed token. The record must carry an ID and a
// role from the closed set; an out-of-set role fails with
// [role.ErrInvalidRole].
func (c *Codec) Encode(rec *Record) (string, error) {
	if rec == nil {
		return "", errors.New("nil record")
	}
	if rec.ID == "" {
		return "", errors.New("record ID required")
	}
	if rec.Email == "" {
		return "", errors.New("record email required")
	}
	if !rec.Role.Valid() {
		return "", fmt.Errorf("%w: %d", role.ErrInvalidRole, uint8(rec.Role))
	}

	claims := recordClaims{
		Name:       rec.Name,
		Email:      rec.Email,
		Role:       rec.Role.String(),
		ManagerID:  rec.ManagerID,
		TeamLeadID: rec.TeamLeadID,
		Department: rec.Department,
		Avatar:     rec.Avatar,
		CreatedAt:  rec.CreatedAt,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  rec.ID,
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.signingKey)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Decode verifies data and reconstructs the Record. Any signature, shape, or
// field failure resolves to [ErrCorruptRecord]; a syntactically intact token
// carrying a role outside the closed set additionally carries
// [role.ErrInvalidRole].
func (c *Codec) Decode(data string) (*Record, error) {
	claims := &recordClaims{}
	token, err := jwt.ParseWithClaims(data, claims, func(t *jwt.Token) (interface{}, error) {
		return c.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: signature rejected", ErrCorruptRecord)
	}

	if claims.Subject == "" || claims.Email == "" {
		return nil, fmt.Errorf("%w: missing identity fields", ErrCorruptRecord)
	}
	r, err := role.Parse(claims.Role)
	if err != nil {
		return nil, errors.Join(ErrCorruptRecord, err)
	}

	return &Record{
		ID:         claims.Subject,
		Name:       claims.Name,
		Email:      claims.Email,
		Role:       r,
		ManagerID:  claims.ManagerID,
		TeamLeadID: claims.TeamLeadID,
		Department: claims.Department,
		Avatar:     claims.Avatar,
		CreatedAt:  claims.CreatedAt,
	}, nil
}
