package snapshot

import (
	"fmt"

	"github.com/vango-dev/vtree/internal/config"
)

// Open returns the store selected by cfg.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.Snapshot.Backend {
	case config.BackendBolt:
		return OpenBolt(cfg.BoltPath())
	case config.BackendS3:
		s3cfg := cfg.Snapshot.S3
		client := NewS3Client(S3Options{
			Region:    s3cfg.Region,
			Endpoint:  s3cfg.Endpoint,
			PathStyle: s3cfg.PathStyle,
		})
		return NewS3Store(client, s3cfg.Bucket, s3cfg.Prefix), nil
	default:
		return nil, fmt.Errorf("snapshot: unknown backend %q", cfg.Snapshot.Backend)
	}
}
