package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cenkalti/backoff/v4"

	"github.com/fileforge/uploadq/errors"
)

// Presign is the direct-to-storage strategy: it asks the backend for a
// time-limited upload URL, then PUTs the raw bytes straight to storage.
// The backend never sees the payload.
type Presign struct {
	endpoint string
	client   *http.Client

	// retries bounds additional attempts of the negotiation POST on
	// transient network errors. Zero keeps single-attempt semantics;
	// HTTP-level and response-level failures are never retried.
	retries uint64
}

// NewPresign creates the presigned strategy for the given endpoint.
func NewPresign(endpoint string, client *http.Client, retries uint64) *Presign {
	return &Presign{
		endpoint: endpoint,
		client:   client,
		retries:  retries,
	}
}

// Name implements Strategy.
func (p *Presign) Name() string { return "presign" }

// presignRequest is the negotiation request body.
type presignRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Folder      string `json:"folder,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// presignResponse is the negotiation response body.
type presignResponse struct {
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
	Path      string `json:"path"`
	Error     string `json:"error,omitempty"`
}

// Upload implements Strategy. Two physical round-trips: the negotiation
// POST and the storage PUT. Progress is coarse because the PUT exposes no
// byte-level progress channel.
func (p *Presign) Upload(ctx context.Context, req *Request) (*Result, error) {
	grant, err := p.negotiate(ctx, req)
	if err != nil {
		return nil, err
	}
	req.Progress(10)

	if err := p.put(ctx, grant.UploadURL, req); err != nil {
		return nil, err
	}

	return &Result{
		URL:  grant.PublicURL,
		Path: grant.Path,
	}, nil
}

// negotiate asks the backend for an upload grant. Any non-success status,
// a response-level error, or a missing uploadUrl is a hard failure for
// this attempt.
func (p *Presign) negotiate(ctx context.Context, req *Request) (*presignResponse, error) {
	body, err := json.Marshal(presignRequest{
		Filename:    req.Filename,
		ContentType: req.ContentType,
		Folder:      req.Folder,
		Size:        int64(len(req.Data)),
	})
	if err != nil {
		return nil, errors.NewError("presign", err).WithName(req.Filename)
	}

	var grant *presignResponse
	attempt := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(errors.NewError("presign", err).WithName(req.Filename))
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := p.client.Do(httpReq)
		if err != nil {
			// Transport-level failure: retryable unless the context ended.
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return errors.NewError("presign", err).WithName(req.Filename)
		}
		defer drain(resp)

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return backoff.Permanent(statusError("presign", resp).WithName(req.Filename))
		}

		var decoded presignResponse
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return backoff.Permanent(errors.NewError("presign", errors.ErrMalformedResponse).
				WithName(req.Filename).
				WithMessage(err.Error()))
		}
		if decoded.Error != "" {
			return backoff.Permanent(errors.NewError("presign", errors.ErrUploadFailed).
				WithName(req.Filename).
				WithRemote(decoded.Error).
				WithMessage(decoded.Error))
		}
		if decoded.UploadURL == "" {
			return backoff.Permanent(errors.NewError("presign", errors.ErrMalformedResponse).
				WithName(req.Filename).
				WithMessage("response missing uploadUrl"))
		}
		grant = &decoded
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), p.retries), ctx)
	if err := backoff.Retry(attempt, policy); err != nil {
		return nil, err
	}
	return grant, nil
}

// put writes the raw payload to the granted storage URL. The storage
// response body is ignored beyond its status code.
func (p *Presign) put(ctx context.Context, uploadURL string, req *Request) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(req.Data))
	if err != nil {
		return errors.NewError("storagePut", err).WithName(req.Filename)
	}
	httpReq.Header.Set("Content-Type", req.ContentType)
	httpReq.ContentLength = int64(len(req.Data))

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("storage put: %w", err)
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError("storagePut", resp).WithName(req.Filename)
	}
	return nil
}
