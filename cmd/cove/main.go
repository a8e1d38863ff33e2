package main

import (
	"fmt"
	"log"
	"path/filepath"
	"regexp"
	"runtime"

	"github.com/covestore/cove/internal/database"
	"github.com/covestore/cove/internal/quota"
	"github.com/covestore/cove/internal/scheduler"
	"github.com/covestore/cove/internal/storage"
	"github.com/covestore/cove/internal/webserver"
	"github.com/mdouchement/logger"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const dbname = "cove.db"

var (
	version  = "dev"
	revision = "none"
	date     = "unknown"

	binding string
	port    string
)

func main() {
	viper.SetEnvPrefix("cove")
	viper.AutomaticEnv()
	viper.SetDefault("database_path", "")
	viper.SetDefault("storage_path", "storage")
	viper.SetDefault("admin_secret", "")
	viper.SetDefault("reconcile_every", "@every 1m")

	c := &cobra.Command{
		Use:     "cove",
		Short:   "Multi-tenant object storage gateway",
		Version: fmt.Sprintf("%s - build %.7s @ %s - %s", version, revision, date, runtime.Version()),
		Args:    cobra.ExactArgs(0),
	}
	c.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Version for cove",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(c.Version)
		},
	})
	c.AddCommand(initCmd)
	c.AddCommand(reindexCmd)

	serverCmd.Flags().StringVarP(&binding, "binding", "b", "0.0.0.0", "Server's binding")
	serverCmd.Flags().StringVarP(&port, "port", "p", "5000", "Server's port")
	c.AddCommand(serverCmd)

	if err := c.Execute(); err != nil {
		log.Fatalf("%+v", err)
	}
}

var (
	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Init the database",
		Args:  cobra.ExactArgs(0),
		RunE: func(_ *cobra.Command, _ []string) error {
			return database.StormInit(databasename())
		},
	}

	//

	reindexCmd = &cobra.Command{
		Use:   "reindex",
		Short: "Reindex the database",
		Args:  cobra.ExactArgs(0),
		RunE: func(_ *cobra.Command, _ []string) error {
			return database.StormReIndex(databasename())
		},
	}

	//

	serverCmd = &cobra.Command{
		Use:   "server",
		Short: "Start server",
		Args:  cobra.ExactArgs(0),
		RunE: func(c *cobra.Command, _ []string) error {
			ctrl := webserver.Controller{
				Version: c.Parent().Version,
				//
				AdminSecret: viper.GetString("admin_secret"),
			}

			//

			log := logrus.New()
			log.SetFormatter(&logger.LogrusTextFormatter{
				DisableColors:   false,
				ForceColors:     true,
				ForceFormatting: true,
				PrefixRE:        regexp.MustCompile(`^(\[.*?\])\s`),
				FullTimestamp:   true,
				TimestampFormat: "2006-01-02 15:04:05",
			})
			ctrl.Logger = logger.WrapLogrus(log)

			if ctrl.AdminSecret == "" {
				ctrl.Logger.Warn("COVE_ADMIN_SECRET is not set, provisioning endpoints are disabled")
			}

			//

			db, err := database.StormOpen(databasename())
			if err != nil {
				return errors.Wrap(err, "could not open database")
			}
			defer db.Close()
			ctrl.Database = db

			//

			ctrl.Storage = storage.NewFileSystem(viper.GetString("storage_path"))
			ctrl.Ledger = quota.NewLedger(db, nil)

			//

			scheduler.Start(scheduler.Controller{
				Logger:        ctrl.Logger,
				Database:      ctrl.Database,
				Storage:       ctrl.Storage,
				Specification: viper.GetString("reconcile_every"),
			})

			//

			engine := webserver.EchoEngine(ctrl)
			webserver.PrintRoutes(engine)

			listen := fmt.Sprintf("%s:%s", binding, port)
			log.Printf("Server listening on %s", listen)
			return errors.Wrap(
				engine.Start(listen),
				"could not run server",
			)
		},
	}
)

func databasename() string {
	p := viper.GetString("database_path")
	if p == "" {
		return dbname
	}
	return filepath.Join(p, dbname)
}
