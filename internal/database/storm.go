package database

import (
	"time"

	"github.com/asdine/storm/v3"
	"github.com/asdine/storm/v3/codec/json"
	"github.com/asdine/storm/v3/q"
	"github.com/covestore/cove/internal/model"
	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
)

type strm struct {
	db *storm.DB
}

// StormCodec is the format used to store data in the database.
var StormCodec = storm.Codec(json.Codec)

// StormInit initializes Storm database.
func StormInit(database string) error {
	db, err := storm.Open(database, StormCodec)
	if err != nil {
		return errors.Wrap(err, "could not get database connection")
	}
	defer db.Close()

	if err := db.Init(&model.Credential{}); err != nil {
		return errors.Wrap(err, "could not init credential index")
	}

	err = db.Init(&model.Bucket{})
	return errors.Wrap(err, "could not init bucket index")
}

// StormReIndex rebuilds the indexes of the Storm database.
func StormReIndex(database string) error {
	db, err := storm.Open(database, StormCodec)
	if err != nil {
		return errors.Wrap(err, "could not get database connection")
	}
	defer db.Close()

	if err := db.ReIndex(&model.Credential{}); err != nil {
		return errors.Wrap(err, "could not ReIndex credentials")
	}

	err = db.ReIndex(&model.Bucket{})
	return errors.Wrap(err, "could not ReIndex buckets")
}

// StormOpen returns a Client backed by a Storm database.
func StormOpen(database string) (Client, error) {
	db, err := storm.Open(database, StormCodec)
	if err != nil {
		return nil, errors.Wrap(err, "could not get database connection")
	}

	return &strm{
		db: db,
	}, nil
}

func (c *strm) Save(m model.Model) error {
	t := time.Now().UTC()
	m.SetUpdatedAt(t)

	if m.GetID() == "" {
		m.SetID(uuid.Must(uuid.NewV4()).String())
		m.SetCreatedAt(t)
	}

	return errors.Wrap(c.db.Save(m), "could not save the model")
}

func (c *strm) Delete(m model.Model) error {
	return errors.Wrap(c.db.DeleteStruct(m), "could not delete the model")
}

func (c *strm) Close() error {
	return c.db.Close()
}

func (c *strm) IsNotFound(err error) bool {
	return errors.Cause(err) == storm.ErrNotFound
}

//
// Credential
//

func (c *strm) ListCredentials() ([]*model.Credential, error) {
	credentials := make([]*model.Credential, 0)
	err := c.db.All(&credentials)
	return credentials, errors.Wrap(err, "could not get all credentials")
}

func (c *strm) FindCredential(id string) (*model.Credential, error) {
	var credential model.Credential
	err := c.db.One("ID", id, &credential)
	return &credential, errors.Wrap(err, "could not find credential")
}

func (c *strm) FindCredentialByAccessKey(key string) (*model.Credential, error) {
	var credential model.Credential
	err := c.db.One("AccessKey", key, &credential)
	return &credential, errors.Wrap(err, "could not find credential")
}

//
// Bucket
//

func (c *strm) FindBucketByName(ownerID, name string) (*model.Bucket, error) {
	var bucket model.Bucket
	err := c.db.Select(q.Eq("OwnerID", ownerID), q.Eq("Name", name)).First(&bucket)
	return &bucket, errors.Wrap(err, "could not find bucket")
}

func (c *strm) ListBuckets(ownerID string) ([]*model.Bucket, error) {
	buckets := make([]*model.Bucket, 0)
	err := c.db.Select(q.Eq("OwnerID", ownerID)).OrderBy("CreatedAt").Find(&buckets)
	return buckets, errors.Wrap(err, "could not get buckets by owner_id")
}
