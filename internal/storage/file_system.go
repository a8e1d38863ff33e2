package storage

import (
	"io"
	fspkg "io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Uploads are staged in sibling files carrying this prefix.
const uploadPrefix = ".upload-"

// staleUploadAge is the age after which an orphan staging file is
// considered a leftover from a crashed upload.
const staleUploadAge = time.Hour

type fs struct {
	workspace string
}

// NewFileSystem returns a new File System backend.
func NewFileSystem(workspace string) Backend {
	return &fs{
		workspace: workspace,
	}
}

func (b *fs) Name() string {
	return "file_system"
}

func (b *fs) Reader(owner, bucket, object string) (io.ReadCloser, error) {
	rc, err := os.Open(filepath.Join(b.workspace, owner, bucket, object))
	if err != nil {
		return rc, errors.Wrap(err, "could not open file")
	}
	return rc, err
}

func (b *fs) Writer(owner, bucket, object string) (Writer, error) {
	filename := filepath.Join(b.workspace, owner, bucket, object)

	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return nil, errors.Wrap(err, "could not create directories")
	}

	// The upload lands in a sibling staging file and is published
	// on Commit with a rename.
	f, err := os.CreateTemp(filepath.Dir(filename), uploadPrefix+"*")
	if err != nil {
		return nil, errors.Wrap(err, "could not create file")
	}

	return &atomicFile{
		File:     f,
		filename: filename,
	}, nil
}

func (b *fs) Exist(owner, bucket, object string) bool {
	_, err := os.Stat(filepath.Join(b.workspace, owner, bucket, object))
	if err == nil {
		return true
	}
	if os.IsNotExist(err) {
		return false
	}
	return true // ignoring error
}

func (b *fs) Size(owner, bucket, object string) (int64, error) {
	info, err := os.Stat(filepath.Join(b.workspace, owner, bucket, object))
	if err != nil {
		return 0, errors.Wrap(err, "could not stat file")
	}
	return info.Size(), nil
}

func (b *fs) Remove(owner, bucket, object string) error {
	err := os.Remove(filepath.Join(b.workspace, owner, bucket, object))
	return errors.Wrap(err, "could not delete file")
}

func (b *fs) UsedBytes(owner string) (int64, error) {
	var used int64

	err := filepath.Walk(filepath.Join(b.workspace, owner), func(path string, info fspkg.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		// Staging files are not stored content.
		if strings.HasPrefix(info.Name(), uploadPrefix) {
			return nil
		}

		used += info.Size()
		return nil
	})
	if os.IsNotExist(errors.Cause(err)) {
		return 0, nil
	}

	return used, errors.Wrap(err, "used bytes")
}

func (b *fs) Cleanup() error {
	// Find empty directories and stale staging files.
	//
	stats := map[string]int{}
	err := filepath.Walk(b.workspace, func(path string, info fspkg.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path == b.workspace {
				return nil
			}
			stats[path] = 0
			return nil
		}

		// Leftovers from crashed uploads. Recent ones may still be
		// in-flight and keep their directory alive.
		if strings.HasPrefix(info.Name(), uploadPrefix) && time.Since(info.ModTime()) > staleUploadAge {
			os.Remove(path)
			return nil
		}

		for dirname := filepath.Dir(path); dirname != b.workspace; dirname = filepath.Dir(dirname) {
			stats[dirname]++
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "cleanup")
	}

	// Remove empty directories.
	//
	for dirname, count := range stats {
		if count == 0 {
			os.RemoveAll(dirname)
		}
	}
	return nil
}

type atomicFile struct {
	*os.File
	filename string
}

// Commit syncs the staged content and publishes it under its final name.
// On failure the staging file is discarded and any previous version of the
// object stays visible.
func (f *atomicFile) Commit() error {
	if err := f.Sync(); err != nil {
		f.File.Close()
		os.Remove(f.File.Name())
		return errors.Wrap(err, "could not sync file")
	}

	if err := f.File.Close(); err != nil {
		os.Remove(f.File.Name())
		return errors.Wrap(err, "could not close file")
	}

	if err := os.Rename(f.File.Name(), f.filename); err != nil {
		os.Remove(f.File.Name())
		return errors.Wrap(err, "could not publish file")
	}
	return nil
}

// Abort discards the staged content.
func (f *atomicFile) Abort() error {
	f.File.Close()
	return errors.Wrap(os.Remove(f.File.Name()), "could not discard file")
}
