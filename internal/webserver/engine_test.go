package webserver_test

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/covestore/cove/internal/auth"
	"github.com/covestore/cove/internal/database"
	"github.com/covestore/cove/internal/model"
	"github.com/covestore/cove/internal/quota"
	"github.com/covestore/cove/internal/storage"
	"github.com/covestore/cove/internal/webserver"
	"github.com/labstack/echo/v4"
	"github.com/mdouchement/logger"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminSecret = "sesame"

// Plan limits are shrunk so quota behavior is observable with tiny payloads.
var testLimits = quota.Limits{
	model.PlanStarter:  100,
	model.PlanStandard: 10 << 20,
}

func setup(t *testing.T) (*httptest.Server, database.Client) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	//

	dbname, err := os.CreateTemp(t.TempDir(), "cove.db.")
	require.NoError(t, err)
	dbname.Close()

	db, err := database.StormOpen(dbname.Name())
	require.NoError(t, err)

	//

	ctrl := webserver.Controller{
		Logger:   logger.WrapLogrus(log),
		Database: db,
		Storage:  storage.NewFileSystem(t.TempDir()),
		Ledger:   quota.NewLedger(db, testLimits),
		//
		AdminSecret: adminSecret,
	}
	engine := webserver.EchoEngine(ctrl)

	server := httptest.NewUnstartedServer(engine)
	server.Config.ReadTimeout = 20 * time.Second
	server.Config.WriteTimeout = 20 * time.Second
	server.Start()

	t.Cleanup(func() {
		server.Close()
		db.Close()
	})

	return server, db
}

//
// Provisioning helpers
//

func provision(t *testing.T, server *httptest.Server, plan model.Plan) (access, secret string) {
	payload, err := json.Marshal(echo.Map{"plan": plan})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, server.URL+"/admin/credentials", bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("X-Admin-Secret", adminSecret)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body["access_key"].(string), body["secret_key"].(string)
}

func createBucket(t *testing.T, server *httptest.Server, access, name string) {
	payload, err := json.Marshal(echo.Map{"access_key": access, "name": name})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, server.URL+"/admin/buckets", bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("X-Admin-Secret", adminSecret)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

//
// Data-path helpers
//

func signedRequest(t *testing.T, server *httptest.Server, method, path string, body []byte, access, secret string) *http.Response {
	req, err := http.NewRequest(method, server.URL+path, bytes.NewReader(body))
	require.NoError(t, err)

	ts := strconv.FormatInt(time.Now().Unix(), 10)
	req.Header.Set("X-Access-Key", access)
	req.Header.Set("X-Signature", auth.Sign(secret, method, req.URL.Path, ts))
	req.Header.Set("X-Timestamp", ts)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func bytesUsed(t *testing.T, db database.Client, access string) int64 {
	credential, err := db.FindCredentialByAccessKey(access)
	require.NoError(t, err)
	return credential.BytesUsed
}

//
// Tests
//

func TestAuthenticationRequired(t *testing.T) {
	server, _ := setup(t)
	access, secret := provision(t, server, model.PlanStarter)
	createBucket(t, server, access, "photos")

	// No credentials at all.
	resp, err := http.Get(server.URL + "/v1")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Signed with the wrong secret.
	resp = signedRequest(t, server, http.MethodGet, "/v1", nil, access, "not-the-secret")
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Stale timestamp.
	req, err := http.NewRequest(http.MethodGet, server.URL+"/v1", nil)
	require.NoError(t, err)
	ts := strconv.FormatInt(time.Now().Add(-time.Hour).Unix(), 10)
	req.Header.Set("X-Access-Key", access)
	req.Header.Set("X-Signature", auth.Sign(secret, http.MethodGet, "/v1", ts))
	req.Header.Set("X-Timestamp", ts)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Unknown access key.
	resp = signedRequest(t, server, http.MethodGet, "/v1", nil, "AKUNKNOWN", secret)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// And finally a well-signed request.
	resp = signedRequest(t, server, http.MethodGet, "/v1", nil, access, secret)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestObjectRoundTrip(t *testing.T) {
	server, _ := setup(t)
	access, secret := provision(t, server, model.PlanStarter)
	createBucket(t, server, access, "photos")

	content := []byte("hello cove")
	digest := sha256.Sum256(content)
	fingerprint := hex.EncodeToString(digest[:])

	//

	resp := signedRequest(t, server, http.MethodPut, "/v1/photos/a1/b2/c3.txt", content, access, secret)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, fingerprint, resp.Header.Get("Etag"))

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, fingerprint, body["fingerprint"])
	assert.EqualValues(t, len(content), body["bytes"])

	//

	resp = signedRequest(t, server, http.MethodGet, "/v1/photos/a1/b2/c3.txt", nil, access, secret)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	downloaded, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, content, downloaded)

	// The fingerprint recomputed from the stored bytes matches the one
	// returned at write time.
	resp = signedRequest(t, server, http.MethodHead, "/v1/photos/a1/b2/c3.txt", nil, access, secret)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, fingerprint, resp.Header.Get("Etag"))
}

func TestObjectReplace(t *testing.T) {
	server, db := setup(t)
	access, secret := provision(t, server, model.PlanStarter)
	createBucket(t, server, access, "photos")

	resp := signedRequest(t, server, http.MethodPut, "/v1/photos/note.txt", []byte("first"), access, secret)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = signedRequest(t, server, http.MethodPut, "/v1/photos/note.txt", []byte("second version"), access, secret)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	//

	resp = signedRequest(t, server, http.MethodGet, "/v1/photos/note.txt", nil, access, secret)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	downloaded, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "second version", string(downloaded))

	// No trace of the first content remains in the accounting.
	assert.EqualValues(t, len("second version"), bytesUsed(t, db, access))
}

func TestQuotaScenario(t *testing.T) {
	server, db := setup(t)
	access, secret := provision(t, server, model.PlanStarter) // 100 bytes
	createBucket(t, server, access, "photos")

	sixty := bytes.Repeat([]byte("a"), 60)
	fifty := bytes.Repeat([]byte("b"), 50)

	// 60 bytes fit.
	resp := signedRequest(t, server, http.MethodPut, "/v1/photos/a", sixty, access, secret)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.EqualValues(t, 60, bytesUsed(t, db, access))

	// 50 more do not.
	resp = signedRequest(t, server, http.MethodPut, "/v1/photos/b", fifty, access, secret)
	resp.Body.Close()
	require.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.EqualValues(t, 60, bytesUsed(t, db, access))

	// Nothing was written for the rejected object.
	resp = signedRequest(t, server, http.MethodGet, "/v1/photos/b", nil, access, secret)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Deleting the first frees the quota.
	resp = signedRequest(t, server, http.MethodDelete, "/v1/photos/a", nil, access, secret)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.EqualValues(t, 0, bytesUsed(t, db, access))

	// And the second now fits.
	resp = signedRequest(t, server, http.MethodPut, "/v1/photos/b", fifty, access, secret)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.EqualValues(t, 50, bytesUsed(t, db, access))
}

func TestBucketNotFound(t *testing.T) {
	server, _ := setup(t)
	access, secret := provision(t, server, model.PlanStarter)

	for _, method := range []string{http.MethodPut, http.MethodGet, http.MethodDelete} {
		resp := signedRequest(t, server, method, "/v1/nope/note.txt", []byte("content"), access, secret)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, method)
	}
}

func TestDeleteMissingObject(t *testing.T) {
	server, db := setup(t)
	access, secret := provision(t, server, model.PlanStarter)
	createBucket(t, server, access, "photos")

	resp := signedRequest(t, server, http.MethodPut, "/v1/photos/a", []byte("123456789"), access, secret)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = signedRequest(t, server, http.MethodDelete, "/v1/photos/missing", nil, access, secret)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// The counter is left unchanged.
	assert.EqualValues(t, 9, bytesUsed(t, db, access))
}

func TestListBuckets(t *testing.T) {
	server, _ := setup(t)
	access, secret := provision(t, server, model.PlanStandard)
	createBucket(t, server, access, "photos")
	createBucket(t, server, access, "docs")

	// Another tenant's buckets stay invisible.
	other, _ := provision(t, server, model.PlanStandard)
	createBucket(t, server, other, "secrets")

	resp := signedRequest(t, server, http.MethodGet, "/v1", nil, access, secret)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	names := make([]string, 0, len(body))
	for _, bucket := range body {
		names = append(names, bucket["name"].(string))
	}
	assert.ElementsMatch(t, []string{"photos", "docs"}, names)
}

func TestKeyTraversalRejected(t *testing.T) {
	server, _ := setup(t)
	access, secret := provision(t, server, model.PlanStarter)
	createBucket(t, server, access, "photos")

	req, err := http.NewRequest(http.MethodPut, server.URL+"/v1/photos/%2e%2e/escape", bytes.NewReader([]byte("content")))
	require.NoError(t, err)

	ts := strconv.FormatInt(time.Now().Unix(), 10)
	req.Header.Set("X-Access-Key", access)
	req.Header.Set("X-Signature", auth.Sign(secret, http.MethodPut, req.URL.Path, ts))
	req.Header.Set("X-Timestamp", ts)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdminSecretRequired(t *testing.T) {
	server, _ := setup(t)

	payload, err := json.Marshal(echo.Map{"plan": model.PlanStarter})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, server.URL+"/admin/credentials", bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("X-Admin-Secret", "not-sesame")
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	server, _ := setup(t)

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "cove_requests_total")
}
