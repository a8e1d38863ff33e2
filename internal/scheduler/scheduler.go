package scheduler

import (
	"github.com/covestore/cove/internal/database"
	"github.com/covestore/cove/internal/storage"
	"github.com/mdouchement/logger"
	"github.com/robfig/cron/v3"
)

// A Controller is an Iversion Of Control pattern used to init the scheduler package.
type Controller struct {
	Logger        logger.Logger
	Database      database.Client
	Storage       storage.Backend
	Specification string
}

// Start lauches the scheduler asynchronously.
// It periodically reconciles each credential's bytes-used counter with the
// bytes actually present in the backing store, so a crash between a storage
// mutation and its ledger update only leaves a bounded drift.
func Start(c Controller) {
	cron := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))

	log := c.Logger.WithPrefix("[scheduler]")

	_, err := cron.AddFunc(c.Specification, func() {
		log := c.Logger.WithPrefix("[reconcile]")

		credentials, err := c.Database.ListCredentials()
		if err != nil {
			log.Error(err)
			return
		}

		for _, credential := range credentials {
			used, err := c.Storage.UsedBytes(credential.ID)
			if err != nil {
				log.Error(err)
				continue
			}

			if used == credential.BytesUsed {
				continue
			}

			log.Infof("Adjusting %s bytes-used from %d to %d", credential.AccessKey, credential.BytesUsed, used)
			credential.BytesUsed = used
			if err := c.Database.Save(credential); err != nil {
				log.Error(err)
				return
			}
		}

		err = c.Storage.Cleanup()
		if err != nil {
			log.Error(err)
		}
	})
	if err != nil {
		panic(err)
	}
	log.Info("Reconciliation task registred")

	cron.Start()
	log.Info("Scheduler is running")
}
