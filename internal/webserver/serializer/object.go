package serializer

// Object returns the serialized form of a stored object.
func Object(key string, size int64, fingerprint string) map[string]interface{} {
	return map[string]interface{}{
		"key":         key,
		"bytes":       size,
		"fingerprint": fingerprint,
	}
}
