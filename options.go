// Package uploadq provides functional options for configuring the upload
// manager. These options follow the functional options pattern for clean,
// composable configuration.
package uploadq

import (
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/input-output-hk/catalyst-forge-libs/fs"

	"github.com/fileforge/uploadq/internal/s3api"
	"github.com/fileforge/uploadq/uptypes"
)

// WithConcurrency sets the maximum number of simultaneous transfers.
// Default is 3 concurrent transfers.
func WithConcurrency(concurrency int) uptypes.Option {
	return func(c *uptypes.ManagerConfig) {
		if concurrency > 0 {
			c.Concurrency = concurrency
		}
	}
}

// WithPresignEndpoint configures the presigned-URL transport. When both a
// presign and a proxy endpoint are configured, presign wins.
func WithPresignEndpoint(endpoint string) uptypes.Option {
	return func(c *uptypes.ManagerConfig) {
		c.PresignEndpoint = endpoint
	}
}

// WithProxyEndpoint configures the backend-relay transport. The manager
// POSTs encoded payloads to {endpoint}/upload.
func WithProxyEndpoint(endpoint string) uptypes.Option {
	return func(c *uptypes.ManagerConfig) {
		c.ProxyEndpoint = endpoint
	}
}

// WithFolder sets the target folder uploads are stored under.
// Default is the storage root.
func WithFolder(folder string) uptypes.Option {
	return func(c *uptypes.ManagerConfig) {
		c.Folder = folder
	}
}

// WithConflictPolicy sets what the backend should do when an upload's
// name already exists. Default is rename.
func WithConflictPolicy(policy uptypes.ConflictPolicy) uptypes.Option {
	return func(c *uptypes.ManagerConfig) {
		c.OnConflict = policy
	}
}

// WithConflictResolver installs a callback consulted when the backend
// reports a name conflict. The conflicted file is parked in
// StatusConflict while the resolver decides; its answer is dispatched
// once more. Without a resolver, an "ask" policy degrades to rename
// before dispatch.
func WithConflictResolver(resolver uptypes.ConflictResolver) uptypes.Option {
	return func(c *uptypes.ManagerConfig) {
		c.Resolver = resolver
	}
}

// WithMaxFileSize rejects payloads larger than maxBytes at ingestion;
// oversize files enter the store already in StatusError. Zero (the
// default) disables the check.
func WithMaxFileSize(maxBytes int64) uptypes.Option {
	return func(c *uptypes.ManagerConfig) {
		c.MaxFileSize = maxBytes
	}
}

// WithAutoUpload makes AddFiles, AddPaths, and AddDir queue new files for
// upload immediately instead of waiting for UploadAll.
func WithAutoUpload(auto bool) uptypes.Option {
	return func(c *uptypes.ManagerConfig) {
		c.AutoUpload = auto
	}
}

// WithPresignRetries allows up to n extra attempts of the presign
// negotiation call on transient network errors. HTTP-level and
// response-level failures are never retried. Default is 0.
func WithPresignRetries(n uint64) uptypes.Option {
	return func(c *uptypes.ManagerConfig) {
		c.PresignRetries = n
	}
}

// WithHTTPClient provides a custom HTTP client for the presign and proxy
// transports. This gives full control over timeouts, proxies, and TLS.
func WithHTTPClient(client *http.Client) uptypes.Option {
	return func(c *uptypes.ManagerConfig) {
		c.HTTPClient = client
	}
}

// WithFilesystem sets a custom filesystem implementation for AddPaths and
// AddDir. This allows using in-memory filesystems for testing.
// If not specified, defaults to the OS filesystem.
func WithFilesystem(filesystem fs.Filesystem) uptypes.Option {
	return func(c *uptypes.ManagerConfig) {
		c.Filesystem = filesystem
	}
}

// WithLogger sets the structured logger. The manager is silent by
// default.
func WithLogger(logger *slog.Logger) uptypes.Option {
	return func(c *uptypes.ManagerConfig) {
		c.Logger = logger
	}
}

// WithS3Client configures the direct S3 transport with an AWS SDK client.
// It is used only when neither HTTP endpoint is configured. publicBaseURL
// is the prefix uploaded objects are reachable under; empty means the
// virtual-hosted bucket URL.
func WithS3Client(client *s3.Client, bucket, publicBaseURL string) uptypes.Option {
	return WithS3API(client, bucket, publicBaseURL)
}

// WithS3API is WithS3Client for any implementation of the narrow S3
// surface the strategy needs. This is primarily used for testing with
// mocked clients.
func WithS3API(api s3api.API, bucket, publicBaseURL string) uptypes.Option {
	return func(c *uptypes.ManagerConfig) {
		c.S3Client = api
		c.S3Bucket = bucket
		c.S3PublicBaseURL = publicBaseURL
	}
}

// WithOnUpload registers a callback invoked once per successfully
// uploaded file with the file's final state.
func WithOnUpload(cb uptypes.UploadCallback) uptypes.Option {
	return func(c *uptypes.ManagerConfig) {
		c.OnUpload = cb
	}
}

// WithOnError registers a callback invoked once per failed attempt with a
// human-readable message.
func WithOnError(cb uptypes.ErrorCallback) uptypes.Option {
	return func(c *uptypes.ManagerConfig) {
		c.OnError = cb
	}
}
