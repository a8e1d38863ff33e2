package xpath

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidName is returned for names unfit to be used as path segments.
var ErrInvalidName = errors.New("invalid name")

// Bucket validates a bucket name. A bucket is a single path segment.
func Bucket(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, "/\\") {
		return "", ErrInvalidName
	}

	switch name {
	case ".", "..":
		return "", ErrInvalidName
	}
	return name, nil
}

// Key normalizes and validates an object key before it is resolved
// to a storage path. Keys may span several segments but none of them
// can escape the bucket.
func Key(raw string) (string, error) {
	key, err := url.PathUnescape(raw)
	if err != nil {
		key = raw
	}

	if key == "" {
		return "", ErrInvalidName
	}

	for _, segment := range strings.Split(key, "/") {
		switch segment {
		case "", ".", "..":
			return "", ErrInvalidName
		}
		if strings.Contains(segment, "\\") {
			return "", ErrInvalidName
		}
	}

	return key, nil
}
