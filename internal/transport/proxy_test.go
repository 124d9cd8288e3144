package transport

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fileforge/uploadq/errors"
	"github.com/fileforge/uploadq/internal/testutil"
	"github.com/fileforge/uploadq/uptypes"
)

func proxyRequestFor(name string, data []byte, policy uptypes.ConflictPolicy) *Request {
	return &Request{
		Filename:    name,
		ContentType: "application/pdf",
		Folder:      "docs",
		Data:        data,
		OnConflict:  policy,
		Progress:    func(int) {},
	}
}

func TestProxy_Upload_Success(t *testing.T) {
	backend := testutil.NewProxyBackend()
	defer backend.Close()

	payload := []byte("pdf bytes")
	p := NewProxy(backend.URL(), http.DefaultClient)

	var checkpoints []int
	req := proxyRequestFor("report.pdf", payload, uptypes.ConflictRename)
	req.Progress = func(pct int) { checkpoints = append(checkpoints, pct) }

	res, err := p.Upload(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "https://acct.example.com/uploads/report.pdf", res.URL)
	assert.Equal(t, "/uploads/report.pdf", res.Path)

	// The payload survives the base64 round trip.
	stored, ok := backend.Upload("report.pdf")
	require.True(t, ok)
	assert.Equal(t, payload, stored)

	sent, ok := backend.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "docs", sent.Folder)
	assert.Equal(t, "application/pdf", sent.ContentType)
	assert.Equal(t, "rename", sent.OnConflict)

	assert.Equal(t, []int{10, 30, 80}, checkpoints)
}

func TestProxy_Upload_TrimsTrailingSlash(t *testing.T) {
	backend := testutil.NewProxyBackend()
	defer backend.Close()

	p := NewProxy(backend.URL()+"/", http.DefaultClient)
	_, err := p.Upload(context.Background(), proxyRequestFor("a.pdf", []byte("x"), ""))
	require.NoError(t, err)
}

func TestProxy_Upload_ServerFailure(t *testing.T) {
	backend := testutil.NewProxyBackend()
	defer backend.Close()
	backend.FailError = "disk full"

	p := NewProxy(backend.URL(), http.DefaultClient)
	res, err := p.Upload(context.Background(), proxyRequestFor("a.pdf", []byte("x"), ""))
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Equal(t, "disk full", errors.RemoteMessage(err),
		"the server's own message is preserved verbatim")
	assert.True(t, errors.IsUploadFailed(err))
}

func TestProxy_Upload_ErrorStatusPrefersBodyMessage(t *testing.T) {
	backend := testutil.NewProxyBackend()
	defer backend.Close()
	backend.FailStatus = http.StatusInsufficientStorage
	backend.FailError = "disk full"

	p := NewProxy(backend.URL(), http.DefaultClient)
	_, err := p.Upload(context.Background(), proxyRequestFor("a.pdf", []byte("x"), ""))
	require.Error(t, err)
	assert.Equal(t, "disk full", errors.RemoteMessage(err))
}

func TestProxy_Upload_ConflictResponse(t *testing.T) {
	backend := testutil.NewProxyBackend()
	defer backend.Close()
	backend.ConflictPaths["report.pdf"] = "/docs/report.pdf"

	p := NewProxy(backend.URL(), http.DefaultClient)
	res, err := p.Upload(context.Background(), proxyRequestFor("report.pdf", []byte("x"), uptypes.ConflictSkip))
	require.NoError(t, err, "a reported conflict is not a transport error")
	assert.True(t, res.Conflict)
	assert.Equal(t, "/docs/report.pdf", res.ExistingPath)
	assert.Empty(t, res.URL)
}

func TestProxy_Upload_ContextCancelled(t *testing.T) {
	backend := testutil.NewProxyBackend()
	defer backend.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewProxy(backend.URL(), http.DefaultClient)
	_, err := p.Upload(ctx, proxyRequestFor("a.pdf", []byte("x"), ""))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWirePolicy(t *testing.T) {
	tests := []struct {
		name   string
		policy uptypes.ConflictPolicy
		want   string
	}{
		{name: "empty degrades to rename", policy: "", want: "rename"},
		{name: "ask degrades to rename", policy: uptypes.ConflictAsk, want: "rename"},
		{name: "rename passes through", policy: uptypes.ConflictRename, want: "rename"},
		{name: "replace passes through", policy: uptypes.ConflictReplace, want: "replace"},
		{name: "skip passes through", policy: uptypes.ConflictSkip, want: "skip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wirePolicy(tt.policy))
		})
	}
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *uptypes.ManagerConfig
		wantName string
		wantNil  bool
		wantErr  bool
	}{
		{
			name:     "presign wins over proxy",
			cfg:      &uptypes.ManagerConfig{PresignEndpoint: "https://api.example.com/presign", ProxyEndpoint: "https://api.example.com"},
			wantName: "presign",
		},
		{
			name:     "proxy when no presign",
			cfg:      &uptypes.ManagerConfig{ProxyEndpoint: "https://api.example.com"},
			wantName: "proxy",
		},
		{
			name:     "s3 when no http endpoint",
			cfg:      &uptypes.ManagerConfig{S3Client: &testutil.MockS3Client{}, S3Bucket: "bucket"},
			wantName: "s3",
		},
		{
			name:    "s3 without bucket",
			cfg:     &uptypes.ManagerConfig{S3Client: &testutil.MockS3Client{}},
			wantErr: true,
		},
		{
			name:    "nothing configured",
			cfg:     &uptypes.ManagerConfig{},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strategy, err := Select(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsInvalidInput(err))
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, strategy)
				return
			}
			require.NotNil(t, strategy)
			assert.Equal(t, tt.wantName, strategy.Name())
		})
	}
}
