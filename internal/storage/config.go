package storage

import (
	"path"
	"time"
)

// Config holds the MinIO connection settings.
type Config struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	UseSSL     bool
	Bucket     string
	PresignTTL time.Duration
}

// Enabled reports whether an endpoint is configured.
func (c Config) Enabled() bool { return c.Endpoint != "" }

// DocumentKey is the object key of an exported document page.
func DocumentKey(ownerID, docID string) string {
	return path.Join("documents", ownerID, docID+".html")
}
