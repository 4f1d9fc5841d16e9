package storage

import "strings"

// NewStorage creates an ObjectStorage instance based on the configuration.
// Parameters:
//   - cfg: storage configuration including endpoint, credentials, and bucket.
// Returns:
//   - ObjectStorage: MinIO client for StorageTypeMinIO, S3 client otherwise.
//   - error: non-nil if the storage client cannot be created.
func NewStorage(cfg *Config) (ObjectStorage, error) {
	if cfg.Type == "" {
		cfg.Type = detectStorageType(cfg.Endpoint)
	}

	if cfg.Type == StorageTypeMinIO {
		return NewMinIOStorage(cfg)
	}
	return NewS3Storage(cfg)
}

// detectStorageType guesses the storage type from the endpoint
func detectStorageType(endpoint string) StorageType {
	endpoint = strings.ToLower(endpoint)

	switch {
	case strings.Contains(endpoint, "r2.cloudflarestorage.com"):
		return StorageTypeR2
	case strings.Contains(endpoint, "amazonaws.com"):
		return StorageTypeS3
	default:
		return StorageTypeS3Compatible
	}
}
