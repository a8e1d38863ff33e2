package webserver

import (
	"net/http"

	"github.com/covestore/cove/internal/database"
	"github.com/covestore/cove/internal/webserver/middleware"
	"github.com/covestore/cove/internal/webserver/serializer"
	"github.com/covestore/cove/internal/webserver/weberror"
	"github.com/labstack/echo/v4"
	"github.com/mdouchement/logger"
)

type bucket struct {
	logger logger.Logger
	db     database.Client
}

func (h *bucket) List(c echo.Context) error {
	c.Set("handler_method", "bucket.List")

	credential := middleware.CurrentCredential(c)

	buckets, err := h.db.ListBuckets(credential.ID)
	if err != nil && !h.db.IsNotFound(err) {
		return weberror.New(http.StatusInternalServerError, err.Error())
	}

	//

	if c.Request().Header.Get("Accept") == "text/plain" {
		return c.String(http.StatusOK, serializer.TextBuckets(buckets))
	}
	// "application/json"
	return c.JSON(http.StatusOK, serializer.Buckets(buckets))
}
