package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fileforge/uploadq/uptypes"
)

func TestStore_Add(t *testing.T) {
	tests := []struct {
		name      string
		files     []uptypes.TrackedFile
		wantAdded int
		wantLen   int
	}{
		{
			name: "adds records in order",
			files: []uptypes.TrackedFile{
				{ID: "a", Name: "a.jpg"},
				{ID: "b", Name: "b.jpg"},
			},
			wantAdded: 2,
			wantLen:   2,
		},
		{
			name: "skips duplicate ids",
			files: []uptypes.TrackedFile{
				{ID: "a", Name: "first.jpg"},
				{ID: "a", Name: "second.jpg"},
			},
			wantAdded: 1,
			wantLen:   1,
		},
		{
			name: "skips empty ids",
			files: []uptypes.TrackedFile{
				{ID: "", Name: "noid.jpg"},
				{ID: "a", Name: "a.jpg"},
			},
			wantAdded: 1,
			wantLen:   1,
		},
		{
			name:      "empty input",
			files:     nil,
			wantAdded: 0,
			wantLen:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			added := s.Add(tt.files...)
			assert.Len(t, added, tt.wantAdded)
			assert.Equal(t, tt.wantLen, s.Len())
		})
	}
}

func TestStore_Add_NeverOverwrites(t *testing.T) {
	s := New()
	s.Add(uptypes.TrackedFile{ID: "a", Name: "original.jpg"})
	s.Add(uptypes.TrackedFile{ID: "a", Name: "clobber.jpg"})

	rec, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "original.jpg", rec.Name)
}

func TestStore_Remove(t *testing.T) {
	s := New()
	s.Add(
		uptypes.TrackedFile{ID: "a"},
		uptypes.TrackedFile{ID: "b"},
		uptypes.TrackedFile{ID: "c"},
	)

	assert.True(t, s.Remove("b"))
	assert.False(t, s.Remove("b"), "second remove is a no-op")
	assert.False(t, s.Remove("missing"))

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "c", list[1].ID)
}

func TestStore_Clear(t *testing.T) {
	s := New()
	s.Add(uptypes.TrackedFile{ID: "a"}, uptypes.TrackedFile{ID: "b"})

	ids := s.Clear()
	assert.Equal(t, []string{"a", "b"}, ids)
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Clear())
}

func TestStore_Update(t *testing.T) {
	status := uptypes.StatusUploading
	progress := 42
	errMsg := "boom"

	t.Run("merges non-nil fields only", func(t *testing.T) {
		s := New()
		s.Add(uptypes.TrackedFile{ID: "a", Name: "a.jpg", Status: uptypes.StatusPending})

		updated, ok := s.Update("a", uptypes.FileUpdate{
			Status:   &status,
			Progress: &progress,
		})
		require.True(t, ok)
		assert.Equal(t, uptypes.StatusUploading, updated.Status)
		assert.Equal(t, 42, updated.Progress)
		assert.Equal(t, "a.jpg", updated.Name, "nil fields stay untouched")

		updated, ok = s.Update("a", uptypes.FileUpdate{Error: &errMsg})
		require.True(t, ok)
		assert.Equal(t, "boom", updated.Error)
		assert.Equal(t, 42, updated.Progress)
	})

	t.Run("unknown id", func(t *testing.T) {
		s := New()
		_, ok := s.Update("missing", uptypes.FileUpdate{Status: &status})
		assert.False(t, ok)
	})

	t.Run("remote location is immutable once set", func(t *testing.T) {
		s := New()
		s.Add(uptypes.TrackedFile{ID: "a"})

		first := "https://cdn.example.com/a.jpg"
		firstPath := "/uploads/a.jpg"
		_, ok := s.Update("a", uptypes.FileUpdate{RemoteURL: &first, RemotePath: &firstPath})
		require.True(t, ok)

		second := "https://cdn.example.com/other.jpg"
		secondPath := "/uploads/other.jpg"
		updated, ok := s.Update("a", uptypes.FileUpdate{RemoteURL: &second, RemotePath: &secondPath})
		require.True(t, ok)
		assert.Equal(t, first, updated.RemoteURL)
		assert.Equal(t, firstPath, updated.RemotePath)
	})
}

func TestStore_ListOrder(t *testing.T) {
	s := New()
	for i := 0; i < 10; i++ {
		s.Add(uptypes.TrackedFile{ID: fmt.Sprintf("f%d", i)})
	}

	list := s.List()
	require.Len(t, list, 10)
	for i, rec := range list {
		assert.Equal(t, fmt.Sprintf("f%d", i), rec.ID)
	}
}

func TestStore_ListReturnsCopies(t *testing.T) {
	s := New()
	s.Add(uptypes.TrackedFile{ID: "a", Name: "a.jpg"})

	list := s.List()
	list[0].Name = "mutated.jpg"

	rec, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a.jpg", rec.Name)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := New()
	status := uptypes.StatusUploading

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("f%d", i)
			s.Add(uptypes.TrackedFile{ID: id})
			s.Update(id, uptypes.FileUpdate{Status: &status})
			s.Get(id)
			s.List()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, s.Len())
	for _, rec := range s.List() {
		assert.Equal(t, uptypes.StatusUploading, rec.Status)
	}
}
