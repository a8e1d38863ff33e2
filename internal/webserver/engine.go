package webserver

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/covestore/cove/internal/auth"
	"github.com/covestore/cove/internal/database"
	"github.com/covestore/cove/internal/metrics"
	"github.com/covestore/cove/internal/quota"
	"github.com/covestore/cove/internal/storage"
	middlewarepkg "github.com/covestore/cove/internal/webserver/middleware"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mdouchement/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// A Controller is an Iversion Of Control pattern used to init the server package.
type Controller struct {
	Version  string
	Logger   logger.Logger
	Database database.Client
	Storage  storage.Backend
	Ledger   *quota.Ledger
	//
	AdminSecret string
}

// EchoEngine instantiates the wep server.
func EchoEngine(ctrl Controller) *echo.Echo {
	engine := echo.New()
	engine.Use(middleware.Gzip())
	engine.Use(middlewarepkg.Logger(ctrl.Logger))
	engine.Use(middlewarepkg.Metrics(metrics.Gateway()))

	engine.HTTPErrorHandler = middlewarepkg.NewHTTPErrorHandler(ctrl.Logger)

	//
	//
	//

	router := engine.Group("")

	// Generic handlers
	//
	router.GET("/version", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"version": ctrl.Version,
		})
	})
	router.GET("/metrics", echo.WrapHandler(
		promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
	))

	// Provisioning
	//
	// Separate trust boundary gated by a static capability secret.
	//
	admin := admin{
		logger: ctrl.Logger,
		db:     ctrl.Database,
	}
	provisioning := router.Group("/admin", middlewarepkg.Admin(ctrl.AdminSecret))
	provisioning.POST("/credentials", admin.CreateCredential)
	provisioning.POST("/buckets", admin.CreateBucket)

	// Data path
	//
	// Every route authenticates exactly once before anything else runs.
	//
	authenticate := middlewarepkg.Authenticate(auth.New(ctrl.Database))

	data := router.Group("/v1")

	// Bucket
	//
	bucket := bucket{
		logger: ctrl.Logger,
		db:     ctrl.Database,
	}
	data.GET("", bucket.List, authenticate)

	// Object
	//
	object := object{
		logger:  ctrl.Logger,
		db:      ctrl.Database,
		storage: ctrl.Storage,
		ledger:  ctrl.Ledger,
		metrics: metrics.Gateway(),
	}
	data.HEAD("/:bucket/*", object.Show, authenticate)
	data.GET("/:bucket/*", object.Download, authenticate)
	data.PUT("/:bucket/*", object.Upload, authenticate)
	data.DELETE("/:bucket/*", object.Delete, authenticate)

	return engine
}

// PrintRoutes prints the Echo engin exposed routes.
func PrintRoutes(e *echo.Echo) {
	ignored := map[string]bool{
		"":   true,
		".":  true,
		"/*": true,
	}

	routes := e.Routes()
	sort.Slice(routes, func(i int, j int) bool {
		return routes[i].Path < routes[j].Path
	})

	fmt.Println("Routes:")
	for _, route := range routes {
		if ignored[route.Path] {
			continue
		}
		fmt.Printf("%6s %s\n", route.Method, route.Path)
	}
}
