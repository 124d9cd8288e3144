package uploadq

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fileforge/uploadq/internal/testutil"
	"github.com/fileforge/uploadq/uptypes"
)

func TestOverallProgress(t *testing.T) {
	tests := []struct {
		name  string
		files []uptypes.TrackedFile
		want  int
	}{
		{
			name:  "no files",
			files: nil,
			want:  0,
		},
		{
			name: "single file",
			files: []uptypes.TrackedFile{
				{Progress: 40},
			},
			want: 40,
		},
		{
			name: "mean of two",
			files: []uptypes.TrackedFile{
				{Progress: 100, Status: uptypes.StatusSuccess},
				{Progress: 50, Status: uptypes.StatusUploading},
			},
			want: 75,
		},
		{
			name: "rounds to nearest",
			files: []uptypes.TrackedFile{
				{Progress: 100},
				{Progress: 100},
				{Progress: 0},
			},
			want: 67,
		},
		{
			name: "all complete",
			files: []uptypes.TrackedFile{
				{Progress: 100},
				{Progress: 100},
			},
			want: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, overallProgress(tt.files))
		})
	}
}

func TestIsUploading(t *testing.T) {
	tests := []struct {
		name  string
		files []uptypes.TrackedFile
		want  bool
	}{
		{name: "no files", files: nil, want: false},
		{
			name: "all settled",
			files: []uptypes.TrackedFile{
				{Status: uptypes.StatusSuccess},
				{Status: uptypes.StatusError},
				{Status: uptypes.StatusPending},
			},
			want: false,
		},
		{
			name: "one uploading",
			files: []uptypes.TrackedFile{
				{Status: uptypes.StatusSuccess},
				{Status: uptypes.StatusUploading},
			},
			want: true,
		},
		{
			name: "remote processing counts",
			files: []uptypes.TrackedFile{
				{Status: uptypes.StatusProcessing},
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUploading(tt.files))
		})
	}
}

func TestIsComplete(t *testing.T) {
	tests := []struct {
		name  string
		files []uptypes.TrackedFile
		want  bool
	}{
		{name: "no files is not complete", files: nil, want: false},
		{
			name: "all success",
			files: []uptypes.TrackedFile{
				{Status: uptypes.StatusSuccess},
				{Status: uptypes.StatusSuccess},
			},
			want: true,
		},
		{
			name: "one still pending",
			files: []uptypes.TrackedFile{
				{Status: uptypes.StatusSuccess},
				{Status: uptypes.StatusPending},
			},
			want: false,
		},
		{
			name: "one failed",
			files: []uptypes.TrackedFile{
				{Status: uptypes.StatusSuccess},
				{Status: uptypes.StatusError},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isComplete(tt.files))
		})
	}
}

func TestManager_ProgressObservables(t *testing.T) {
	backend := testutil.NewProxyBackend()
	defer backend.Close()
	backend.FailError = "disk full"
	backend.FailOnce = true

	m, err := New(WithProxyEndpoint(backend.URL()))
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, 0, m.OverallProgress())
	assert.False(t, m.IsUploading())
	assert.False(t, m.IsComplete(), "an empty set is never complete")

	recs := m.AddFiles(
		uptypes.FileInput{Name: "a.pdf", Data: []byte("a")},
		uptypes.FileInput{Name: "b.pdf", Data: []byte("b")},
	)
	m.UploadAll()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, m.Wait(ctx))

	// One succeeded, one failed on the first round.
	assert.False(t, m.IsComplete())
	assert.False(t, m.IsUploading())

	for _, rec := range recs {
		cur, _ := m.File(rec.ID)
		if cur.Status == uptypes.StatusError {
			require.NoError(t, m.RetryFile(cur.ID))
		}
	}
	require.NoError(t, m.Wait(ctx))

	assert.True(t, m.IsComplete())
	assert.Equal(t, 100, m.OverallProgress())
}
