package middleware

import (
	"net/http"

	"github.com/covestore/cove/internal/auth"
	"github.com/covestore/cove/internal/model"
	"github.com/covestore/cove/internal/webserver/weberror"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// The request headers carrying the claimed identity.
const (
	HeaderAccessKey = "X-Access-Key"
	HeaderSignature = "X-Signature"
	HeaderTimestamp = "X-Timestamp"
)

// credentialKey is the context key under which the authenticated credential is bound.
const credentialKey = "credential"

// Authenticate gates every data-path route.
// On success the authenticated credential is bound to the request context
// and is the sole tenant-scoping key used downstream.
func Authenticate(authenticator *auth.Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			r := c.Request()

			credential, err := authenticator.Verify(
				r.Header.Get(HeaderAccessKey),
				r.Header.Get(HeaderSignature),
				r.Header.Get(HeaderTimestamp),
				r.Method,
				r.URL.Path,
			)

			switch errors.Cause(err) {
			case nil:
			case auth.ErrMissingCredentials, auth.ErrUnknownIdentity, auth.ErrRequestExpired, auth.ErrInvalidSignature:
				return weberror.New(http.StatusUnauthorized, err.Error())
			default:
				return weberror.New(http.StatusInternalServerError, err.Error())
			}

			c.Set(credentialKey, credential)
			return next(c)
		}
	}
}

// CurrentCredential returns the credential bound by Authenticate.
func CurrentCredential(c echo.Context) *model.Credential {
	credential, _ := c.Get(credentialKey).(*model.Credential)
	return credential
}

// Admin gates the provisioning routes with a static capability secret.
// An empty secret disables them entirely.
func Admin(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			if secret == "" || c.Request().Header.Get("X-Admin-Secret") != secret {
				return weberror.New(http.StatusUnauthorized, "authorization failed")
			}

			return next(c)
		}
	}
}
