package webserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/covestore/cove/internal/database"
	"github.com/covestore/cove/internal/metrics"
	"github.com/covestore/cove/internal/model"
	"github.com/covestore/cove/internal/quota"
	"github.com/covestore/cove/internal/storage"
	"github.com/covestore/cove/internal/webserver/middleware"
	"github.com/covestore/cove/internal/webserver/serializer"
	"github.com/covestore/cove/internal/webserver/service"
	"github.com/covestore/cove/internal/webserver/weberror"
	"github.com/covestore/cove/internal/xpath"
	"github.com/labstack/echo/v4"
	"github.com/mdouchement/logger"
	"github.com/pkg/errors"
)

const (
	msgBucketNotFound = "bucket not found"
	msgObjectNotFound = "object not found"
)

type object struct {
	logger  logger.Logger
	db      database.Client
	storage storage.Backend
	ledger  *quota.Ledger
	metrics *metrics.GatewayMetrics
}

func (h *object) Show(c echo.Context) error {
	c.Set("handler_method", "object.Show")

	credential, bucket, key, err := h.load(c)
	if err != nil {
		return err
	}

	if !h.storage.Exist(credential.ID, bucket.Name, key) {
		return weberror.New(http.StatusNotFound, msgObjectNotFound)
	}

	//

	downloader := service.NewObjectDownloader(h.storage, credential, bucket, key)

	size, err := downloader.Size()
	if err != nil {
		return weberror.New(http.StatusInternalServerError, err.Error())
	}

	fingerprint, err := downloader.Fingerprint()
	if err != nil {
		return weberror.New(http.StatusInternalServerError, err.Error())
	}

	//

	c.Response().Header().Set("Date", time.Now().UTC().Format(http.TimeFormat))
	c.Response().Header().Set(echo.HeaderContentLength, strconv.FormatInt(size, 10))
	c.Response().Header().Set("Etag", fingerprint)
	return c.NoContent(http.StatusOK)
}

func (h *object) Download(c echo.Context) error {
	c.Set("handler_method", "object.Download")

	credential, bucket, key, err := h.load(c)
	if err != nil {
		return err
	}

	if !h.storage.Exist(credential.ID, bucket.Name, key) {
		return weberror.New(http.StatusNotFound, msgObjectNotFound)
	}

	//

	downloader := service.NewObjectDownloader(h.storage, credential, bucket, key)

	size, err := downloader.Size()
	if err != nil {
		return weberror.New(http.StatusInternalServerError, err.Error())
	}

	r, err := downloader.Stream()
	if err != nil {
		return weberror.New(http.StatusInternalServerError, err.Error())
	}
	defer r.Close()

	h.metrics.BytesDownloaded.Add(float64(size))

	c.Response().Header().Set(echo.HeaderContentLength, strconv.FormatInt(size, 10))
	return c.Stream(http.StatusOK, echo.MIMEOctetStream, r)
}

func (h *object) Upload(c echo.Context) error {
	c.Set("handler_method", "object.Upload")

	credential, bucket, key, err := h.load(c)
	if err != nil {
		return err
	}

	//

	uploader := service.NewObjectUploader(h.ledger, h.storage, credential, bucket)
	err = uploader.Upload(key, c.Request().Body)
	if errors.Cause(err) == quota.ErrLimitExceeded {
		h.metrics.QuotaRejections.Inc()
		return weberror.New(http.StatusRequestEntityTooLarge, quota.ErrLimitExceeded.Error())
	}
	if err != nil {
		return weberror.New(http.StatusInternalServerError, err.Error())
	}

	//

	h.metrics.BytesUploaded.Add(float64(uploader.Size()))

	c.Response().Header().Set("Date", time.Now().UTC().Format(http.TimeFormat))
	c.Response().Header().Set("Etag", uploader.Fingerprint())
	return c.JSON(http.StatusCreated, serializer.Object(key, uploader.Size(), uploader.Fingerprint()))
}

func (h *object) Delete(c echo.Context) error {
	c.Set("handler_method", "object.Delete")

	credential, bucket, key, err := h.load(c)
	if err != nil {
		return err
	}

	if !h.storage.Exist(credential.ID, bucket.Name, key) {
		return weberror.New(http.StatusNotFound, msgObjectNotFound)
	}

	//

	destroyer := service.NewObjectDestroyer(h.ledger, h.storage, credential, bucket, key)
	if err = destroyer.Destroy(); err != nil {
		return weberror.New(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}

// load resolves the tenant-scoped namespace of the request.
// The bucket existence check always comes first.
func (h *object) load(c echo.Context) (*model.Credential, *model.Bucket, string, error) {
	credential := middleware.CurrentCredential(c)

	bucket, err := h.db.FindBucketByName(credential.ID, c.Param("bucket"))
	if err != nil {
		if h.db.IsNotFound(err) {
			return nil, nil, "", weberror.New(http.StatusNotFound, msgBucketNotFound)
		}
		return nil, nil, "", weberror.New(http.StatusInternalServerError, err.Error())
	}

	key, err := xpath.Key(c.Param("*"))
	if err != nil {
		return nil, nil, "", weberror.New(http.StatusBadRequest, err.Error())
	}

	return credential, bucket, key, nil
}
