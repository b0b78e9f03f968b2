// Package archive writes report documents to cold storage.
package archive

import (
	"context"
	"fmt"
)

// Storage defines the interface for cold/archive storage backends
type Storage interface {
	// Write stores data at the given path
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths matching the prefix, slash separated
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the data at the given path
	Delete(ctx context.Context, path string) error

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)
}

// Config selects and configures a backend.
type Config struct {
	Type string   `mapstructure:"type" json:"type"` // "", "localfs" or "s3"
	Path string   `mapstructure:"path" json:"path"`
	S3   S3Config `mapstructure:"s3" json:"s3"`
}

// Enabled reports whether archiving is configured.
func (c Config) Enabled() bool { return c.Type != "" }

// New opens the configured backend. It returns nil when archiving is off.
func New(cfg Config) (Storage, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case "localfs":
		return NewLocalFS(cfg.Path)
	case "s3":
		return NewS3(cfg.S3)
	default:
		return nil, fmt.Errorf("unknown archive type %q", cfg.Type)
	}
}
