// Package gcs publishes dictionary archives to Google Cloud Storage.
package gcs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
)

const archiveContentType = "application/zip"

// Config captures the upload destination.
type Config struct {
	Bucket string
	// Prefix is prepended to object names, e.g. "dictionaries".
	Prefix string
}

// Publisher writes archives to a configured GCS bucket.
type Publisher struct {
	client *storage.Client
	bucket string
	prefix string
	logger *zap.Logger
}

// New wraps an existing storage client.
func New(client *storage.Client, cfg Config, logger *zap.Logger) (*Publisher, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		logger: logger,
	}, nil
}

// Dial creates a client from Application Default Credentials and checks that
// the bucket is reachable before any build work starts. The returned close
// function releases the client.
func Dial(ctx context.Context, cfg Config, logger *zap.Logger) (*Publisher, func() error, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	if _, err := client.Bucket(cfg.Bucket).Attrs(ctx); err != nil {
		if cerr := client.Close(); cerr != nil && logger != nil {
			logger.Warn("Failed to close GCS client after bucket check failure", zap.Error(cerr))
		}
		return nil, nil, fmt.Errorf("failed to get GCS bucket '%s' attributes: %w", cfg.Bucket, err)
	}
	p, err := New(client, cfg, logger)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return p, client.Close, nil
}

// ObjectName maps a local archive path to its object name under the prefix.
func (p *Publisher) ObjectName(localPath string) string {
	name := filepath.Base(localPath)
	if p.prefix == "" {
		return name
	}
	return path.Join(p.prefix, name)
}

// PublishFile uploads the archive at localPath and returns its gs:// URI.
func (p *Publisher) PublishFile(ctx context.Context, localPath string) (string, error) {
	// #nosec G304 -- archive path comes from configuration.
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	uri, err := p.PutObject(ctx, p.ObjectName(localPath), archiveContentType, f)
	if err != nil {
		return "", err
	}
	p.logger.Info("Uploaded archive", zap.String("uri", uri))
	return uri, nil
}

// PutObject uploads data to the configured bucket and returns a gs:// URI.
func (p *Publisher) PutObject(ctx context.Context, name string, contentType string, r io.Reader) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("object name is required")
	}
	// Canceling ctx abandons the upload. Close would commit the partial object.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	writer := p.client.Bucket(p.bucket).Object(name).NewWriter(ctx)
	if contentType != "" {
		writer.ContentType = contentType
	}
	if _, err := io.Copy(writer, r); err != nil {
		cancel()
		_ = writer.Close()
		return "", fmt.Errorf("copy object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close writer: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", p.bucket, name), nil
}
