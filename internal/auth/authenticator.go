package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/covestore/cove/internal/database"
	"github.com/covestore/cove/internal/model"
	"github.com/pkg/errors"
)

// Window is the maximum age of a request timestamp.
const Window = 15 * time.Minute

// The rejection reasons. All of them are terminal client errors.
var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrUnknownIdentity    = errors.New("unknown identity")
	ErrRequestExpired     = errors.New("request expired")
	ErrInvalidSignature   = errors.New("invalid signature")
)

// An Authenticator verifies the identity and the freshness of inbound requests.
// It never mutates any state.
type Authenticator struct {
	db database.Client
}

// New returns a new Authenticator.
func New(db database.Client) *Authenticator {
	return &Authenticator{
		db: db,
	}
}

// Sign computes the signature of the canonical request descriptor
// with the given secret. It is also used by clients to craft requests.
func Sign(secret, method, path, timestamp string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(method + "\n" + path + "\n" + timestamp))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify authenticates the claimed identity of a request.
// On success it returns the credential that owns the tenant's namespace.
func (a *Authenticator) Verify(accessKey, signature, timestamp, method, path string) (*model.Credential, error) {
	if accessKey == "" || signature == "" || timestamp == "" {
		return nil, ErrMissingCredentials
	}

	credential, err := a.db.FindCredentialByAccessKey(accessKey)
	if err != nil {
		if a.db.IsNotFound(err) {
			return nil, ErrUnknownIdentity
		}
		return nil, errors.Wrap(err, "authenticator")
	}

	// Staleness only. Timestamps from the future are accepted.
	unix, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return nil, ErrRequestExpired
	}
	if time.Since(time.Unix(unix, 0)) > Window {
		return nil, ErrRequestExpired
	}

	expected := Sign(credential.SecretKey, method, path, timestamp)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, ErrInvalidSignature
	}

	return credential, nil
}
