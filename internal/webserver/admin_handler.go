package webserver

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/covestore/cove/internal/database"
	"github.com/covestore/cove/internal/model"
	"github.com/covestore/cove/internal/webserver/serializer"
	"github.com/covestore/cove/internal/webserver/weberror"
	"github.com/covestore/cove/internal/xpath"
	"github.com/gofrs/uuid"
	"github.com/labstack/echo/v4"
	"github.com/mdouchement/logger"
)

// admin exposes the provisioning endpoints.
// They are the only producers of credential and bucket records,
// the core never calls back into them.
type admin struct {
	logger logger.Logger
	db     database.Client
}

type credentialParams struct {
	Plan string `json:"plan"`
}

func (h *admin) CreateCredential(c echo.Context) error {
	c.Set("handler_method", "admin.CreateCredential")

	var params credentialParams
	if err := c.Bind(&params); err != nil {
		return weberror.New(http.StatusBadRequest, "invalid payload")
	}

	plan := model.Plan(params.Plan)
	if plan == "" {
		plan = model.PlanStarter
	}

	//

	secret := make([]byte, 20)
	if _, err := rand.Read(secret); err != nil {
		return weberror.New(http.StatusInternalServerError, err.Error())
	}

	credential := &model.Credential{
		AccessKey: strings.ToUpper(strings.ReplaceAll(uuid.Must(uuid.NewV4()).String(), "-", "")),
		SecretKey: hex.EncodeToString(secret),
		Plan:      plan,
	}

	if err := h.db.Save(credential); err != nil {
		return weberror.New(http.StatusInternalServerError, err.Error())
	}

	h.logger.Infof("Issued credential %s (%s)", credential.AccessKey, credential.Plan)
	return c.JSON(http.StatusCreated, serializer.Credential(credential))
}

type bucketParams struct {
	AccessKey string `json:"access_key"`
	Name      string `json:"name"`
}

func (h *admin) CreateBucket(c echo.Context) error {
	c.Set("handler_method", "admin.CreateBucket")

	var params bucketParams
	if err := c.Bind(&params); err != nil {
		return weberror.New(http.StatusBadRequest, "invalid payload")
	}

	name, err := xpath.Bucket(params.Name)
	if err != nil {
		return weberror.New(http.StatusBadRequest, err.Error())
	}

	credential, err := h.db.FindCredentialByAccessKey(params.AccessKey)
	if err != nil {
		if h.db.IsNotFound(err) {
			return weberror.New(http.StatusNotFound, "unknown identity")
		}
		return weberror.New(http.StatusInternalServerError, err.Error())
	}

	//

	bucket, err := h.db.FindBucketByName(credential.ID, name)
	if err != nil && !h.db.IsNotFound(err) {
		return weberror.New(http.StatusInternalServerError, err.Error())
	}

	if h.db.IsNotFound(err) {
		bucket = &model.Bucket{
			OwnerID: credential.ID,
			Name:    name,
		}
		if err = h.db.Save(bucket); err != nil {
			return weberror.New(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusCreated, serializer.Bucket(bucket))
}
