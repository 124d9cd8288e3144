// Package transport implements the strategies that move one file's bytes
// to remote storage: presigned direct-to-storage, backend proxy, and
// direct S3. A strategy is selected once at configuration time and reused
// for every transfer.
package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/fileforge/uploadq/errors"
	"github.com/fileforge/uploadq/uptypes"
)

// Request carries everything a strategy needs to upload one file.
type Request struct {
	// Filename is the name the object should be stored under.
	Filename string

	// ContentType is the MIME type of the payload.
	ContentType string

	// Folder is the target folder, empty for the storage root.
	Folder string

	// Data is the raw payload.
	Data []byte

	// OnConflict tells the backend what to do when Filename already
	// exists at the target.
	OnConflict uptypes.ConflictPolicy

	// Progress receives coarse checkpoint percentages during the
	// transfer. Always non-nil.
	Progress func(pct int)
}

// Result is the outcome of a successful dispatch. Either the object was
// stored (URL and Path set) or the backend reported a name conflict.
type Result struct {
	// URL is the public URL of the stored object.
	URL string

	// Path is the storage path of the stored object.
	Path string

	// Conflict is true when the backend declined the upload because the
	// name already exists; URL and Path are empty in that case.
	Conflict bool

	// ExistingPath is the path of the colliding object, when reported.
	ExistingPath string
}

// Strategy moves one file's bytes to the remote store. Implementations
// must honor ctx cancellation at every network boundary and report a
// public URL and path on success.
type Strategy interface {
	// Name identifies the strategy in logs and errors.
	Name() string

	// Upload transfers the file described by req.
	Upload(ctx context.Context, req *Request) (*Result, error)
}

// Select returns the strategy for the given configuration. The presign
// endpoint takes priority when several are configured; the direct S3
// strategy is used only when neither HTTP endpoint is set. A nil strategy
// with a nil error means no transport is configured, which is a per-file
// error at attempt time rather than a construction failure.
func Select(cfg *uptypes.ManagerConfig) (Strategy, error) {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	switch {
	case cfg.PresignEndpoint != "":
		return NewPresign(cfg.PresignEndpoint, httpClient, cfg.PresignRetries), nil
	case cfg.ProxyEndpoint != "":
		return NewProxy(cfg.ProxyEndpoint, httpClient), nil
	case cfg.S3Client != nil:
		if cfg.S3Bucket == "" {
			return nil, errors.NewError("select", errors.ErrInvalidInput).
				WithMessage("S3 transport requires a bucket")
		}
		return NewS3(cfg.S3Client, cfg.S3Bucket, cfg.S3PublicBaseURL), nil
	default:
		return nil, nil
	}
}

// statusError converts a non-2xx response into an upload failure,
// preserving a short prefix of the body when the server sent one.
func statusError(op string, resp *http.Response) *errors.Error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := fmt.Sprintf("unexpected status %d", resp.StatusCode)
	if len(body) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, string(body))
	}
	return errors.NewError(op, errors.ErrUploadFailed).WithMessage(msg)
}

// drain discards the remainder of a response body so the underlying
// connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4*1024))
	_ = resp.Body.Close()
}
