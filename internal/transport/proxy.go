package transport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/fileforge/uploadq/errors"
	"github.com/fileforge/uploadq/internal/pool"
	"github.com/fileforge/uploadq/uptypes"
)

// Proxy is the relay strategy: the payload is base64-encoded and POSTed
// to the application backend, which forwards the bytes to storage.
type Proxy struct {
	endpoint string
	client   *http.Client
	buffers  *pool.BufferPool
}

// NewProxy creates the proxy strategy for the given endpoint. The
// "/upload" route is appended at dispatch time.
func NewProxy(endpoint string, client *http.Client) *Proxy {
	return &Proxy{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		client:   client,
		buffers:  pool.NewBufferPool(),
	}
}

// Name implements Strategy.
func (p *Proxy) Name() string { return "proxy" }

// proxyRequest is the relay request body.
type proxyRequest struct {
	Data        string `json:"data"`
	Filename    string `json:"filename"`
	Folder      string `json:"folder"`
	ContentType string `json:"contentType"`
	OnConflict  string `json:"onConflict"`
}

// proxyResponse is the relay response body.
type proxyResponse struct {
	Success      bool   `json:"success"`
	URL          string `json:"url,omitempty"`
	Path         string `json:"path,omitempty"`
	Error        string `json:"error,omitempty"`
	Conflict     bool   `json:"conflict,omitempty"`
	ExistingPath string `json:"existingPath,omitempty"`
}

// Upload implements Strategy. Progress checkpoints bracket encode,
// dispatch, and response receipt; the backend exposes no byte-level
// progress channel.
func (p *Proxy) Upload(ctx context.Context, req *Request) (*Result, error) {
	req.Progress(10)

	buf := p.buffers.Get(base64.StdEncoding.EncodedLen(len(req.Data)) + len(req.Filename) + 256)
	defer p.buffers.Put(buf)

	err := json.NewEncoder(buf).Encode(proxyRequest{
		Data:        base64.StdEncoding.EncodeToString(req.Data),
		Filename:    req.Filename,
		Folder:      req.Folder,
		ContentType: req.ContentType,
		OnConflict:  wirePolicy(req.OnConflict),
	})
	if err != nil {
		return nil, errors.NewError("proxyUpload", err).WithName(req.Filename)
	}
	req.Progress(30)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/upload", buf)
	if err != nil {
		return nil, errors.NewError("proxyUpload", err).WithName(req.Filename)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, errors.NewError("proxyUpload", err).WithName(req.Filename)
	}
	defer drain(resp)
	req.Progress(80)

	var decoded proxyResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&decoded)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Prefer the server-supplied message over the status line.
		if decodeErr == nil && decoded.Error != "" {
			return nil, errors.NewError("proxyUpload", errors.ErrUploadFailed).
				WithName(req.Filename).
				WithRemote(decoded.Error).
				WithMessage(decoded.Error)
		}
		return nil, statusError("proxyUpload", resp).WithName(req.Filename)
	}
	if decodeErr != nil {
		return nil, errors.NewError("proxyUpload", errors.ErrMalformedResponse).
			WithName(req.Filename).
			WithMessage(decodeErr.Error())
	}

	if decoded.Conflict && !decoded.Success {
		return &Result{
			Conflict:     true,
			ExistingPath: decoded.ExistingPath,
		}, nil
	}
	if !decoded.Success {
		msg := decoded.Error
		if msg == "" {
			msg = "server rejected upload"
		}
		return nil, errors.NewError("proxyUpload", errors.ErrUploadFailed).
			WithName(req.Filename).
			WithRemote(decoded.Error).
			WithMessage(msg)
	}

	return &Result{
		URL:  decoded.URL,
		Path: decoded.Path,
	}, nil
}

// wirePolicy maps a conflict policy to its wire value. The protocol has
// no "ask" primitive, so an unresolved ask degrades to rename; the
// manager only passes ask through when a resolver will handle the
// resulting conflict.
func wirePolicy(policy uptypes.ConflictPolicy) string {
	switch policy {
	case "", uptypes.ConflictAsk:
		return string(uptypes.ConflictRename)
	default:
		return string(policy)
	}
}
