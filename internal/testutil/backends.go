package testutil

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// PresignRequest mirrors the presign negotiation request body.
type PresignRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Folder      string `json:"folder"`
	Size        int64  `json:"size"`
}

// ProxyRequest mirrors the proxy upload request body.
type ProxyRequest struct {
	Data        string `json:"data"`
	Filename    string `json:"filename"`
	Folder      string `json:"folder"`
	ContentType string `json:"contentType"`
	OnConflict  string `json:"onConflict"`
}

// PresignBackend is an httptest double for the presign endpoint plus the
// storage target the granted URLs point at. Zero-value fields mean the
// happy path; set the Fail* fields to exercise failure branches.
type PresignBackend struct {
	mu sync.Mutex

	// Requests records every negotiation body received, in order.
	Requests []PresignRequest

	// Uploads maps object path to the bytes PUT to storage.
	Uploads map[string][]byte

	// FailError, when non-empty, makes negotiation respond 200 with an
	// error field.
	FailError string

	// FailStatus, when non-zero, is the negotiation response status.
	FailStatus int

	// OmitUploadURL makes negotiation respond without an uploadUrl.
	OmitUploadURL bool

	// FailPutStatus, when non-zero, is the storage PUT response status.
	FailPutStatus int

	// PutDelay stalls the storage PUT, for cancellation and concurrency
	// tests. The stall ends early when the request context is done.
	PutDelay time.Duration

	// PublicBase is the prefix of granted public URLs.
	PublicBase string

	endpoint *httptest.Server
	storage  *httptest.Server
}

// NewPresignBackend starts the two servers. Callers must Close it.
func NewPresignBackend() *PresignBackend {
	b := &PresignBackend{
		Uploads:    make(map[string][]byte),
		PublicBase: "https://acct.example.com",
	}

	b.storage = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if b.PutDelay > 0 {
			select {
			case <-time.After(b.PutDelay):
			case <-r.Context().Done():
				return
			}
		}
		if b.FailPutStatus != 0 {
			w.WriteHeader(b.FailPutStatus)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		b.mu.Lock()
		b.Uploads[r.URL.Path] = body
		b.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))

	b.endpoint = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req PresignRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		b.mu.Lock()
		b.Requests = append(b.Requests, req)
		b.mu.Unlock()

		if b.FailStatus != 0 {
			w.WriteHeader(b.FailStatus)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if b.FailError != "" {
			_ = json.NewEncoder(w).Encode(map[string]string{"error": b.FailError})
			return
		}

		resp := map[string]string{
			"publicUrl": b.PublicBase + "/uploads/" + req.Filename,
			"path":      "/uploads/" + req.Filename,
		}
		if !b.OmitUploadURL {
			resp["uploadUrl"] = b.storage.URL + "/uploads/" + req.Filename
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))

	return b
}

// URL returns the presign endpoint URL.
func (b *PresignBackend) URL() string { return b.endpoint.URL }

// StorageURL returns the storage target URL.
func (b *PresignBackend) StorageURL() string { return b.storage.URL }

// Upload returns the bytes stored under path.
func (b *PresignBackend) Upload(path string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.Uploads[path]
	return data, ok
}

// RequestCount returns how many negotiation calls were received.
func (b *PresignBackend) RequestCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Requests)
}

// Close shuts both servers down.
func (b *PresignBackend) Close() {
	b.endpoint.Close()
	b.storage.Close()
}

// ProxyBackend is an httptest double for the proxy upload endpoint.
type ProxyBackend struct {
	mu sync.Mutex

	// Requests records every upload body received, in order.
	Requests []ProxyRequest

	// Uploads maps filename to decoded payload bytes.
	Uploads map[string][]byte

	// FailError, when non-empty, makes the endpoint respond
	// {success: false, error: FailError}.
	FailError string

	// FailStatus, when non-zero, is the HTTP response status.
	FailStatus int

	// FailOnce limits FailError / FailStatus to the first request, so
	// retry flows can succeed on the second attempt.
	FailOnce bool

	// ConflictPaths maps a filename to the existingPath reported when a
	// skip-policy upload collides with it.
	ConflictPaths map[string]string

	// Delay stalls request handling; ends early on context done.
	Delay time.Duration

	// PublicBase is the prefix of returned URLs.
	PublicBase string

	server *httptest.Server
}

// NewProxyBackend starts the server. Callers must Close it.
func NewProxyBackend() *ProxyBackend {
	b := &ProxyBackend{
		Uploads:       make(map[string][]byte),
		ConflictPaths: make(map[string]string),
		PublicBase:    "https://acct.example.com",
	}

	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upload" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if b.Delay > 0 {
			select {
			case <-time.After(b.Delay):
			case <-r.Context().Done():
				return
			}
		}

		var req ProxyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		b.mu.Lock()
		b.Requests = append(b.Requests, req)
		reqNum := len(b.Requests)
		b.mu.Unlock()

		failing := b.FailError != "" || b.FailStatus != 0
		if b.FailOnce && reqNum > 1 {
			failing = false
		}

		w.Header().Set("Content-Type", "application/json")
		if failing {
			if b.FailStatus != 0 {
				w.WriteHeader(b.FailStatus)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"error":   b.FailError,
			})
			return
		}

		if existing, ok := b.ConflictPaths[req.Filename]; ok && req.OnConflict == "skip" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success":      false,
				"conflict":     true,
				"existingPath": existing,
			})
			return
		}

		payload, err := base64.StdEncoding.DecodeString(req.Data)
		if err != nil {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"error":   "bad payload encoding",
			})
			return
		}
		b.mu.Lock()
		b.Uploads[req.Filename] = payload
		b.mu.Unlock()

		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"url":     b.PublicBase + "/uploads/" + req.Filename,
			"path":    "/uploads/" + req.Filename,
		})
	}))

	return b
}

// URL returns the proxy endpoint base URL (without the /upload route).
func (b *ProxyBackend) URL() string { return b.server.URL }

// Upload returns the decoded payload received for filename.
func (b *ProxyBackend) Upload(filename string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.Uploads[filename]
	return data, ok
}

// RequestCount returns how many upload calls were received.
func (b *ProxyBackend) RequestCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Requests)
}

// LastRequest returns the most recent upload body received.
func (b *ProxyBackend) LastRequest() (ProxyRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.Requests) == 0 {
		return ProxyRequest{}, false
	}
	return b.Requests[len(b.Requests)-1], true
}

// Close shuts the server down.
func (b *ProxyBackend) Close() {
	b.server.Close()
}
