package uploadq

import (
	"math"

	"github.com/fileforge/uploadq/uptypes"
)

// OverallProgress returns the rounded mean progress across all tracked
// files, or 0 when none are tracked. It is recomputed from the store on
// every call and holds no state of its own.
func (m *Manager) OverallProgress() int {
	return overallProgress(m.store.List())
}

// IsUploading reports whether any tracked file is currently uploading or
// being processed by the remote side.
func (m *Manager) IsUploading() bool {
	return isUploading(m.store.List())
}

// IsComplete reports whether at least one file is tracked and every
// tracked file has uploaded successfully.
func (m *Manager) IsComplete() bool {
	return isComplete(m.store.List())
}

func overallProgress(files []uptypes.TrackedFile) int {
	if len(files) == 0 {
		return 0
	}
	sum := 0
	for _, f := range files {
		sum += f.Progress
	}
	return int(math.Round(float64(sum) / float64(len(files))))
}

func isUploading(files []uptypes.TrackedFile) bool {
	for _, f := range files {
		if f.Status == uptypes.StatusUploading || f.Status == uptypes.StatusProcessing {
			return true
		}
	}
	return false
}

func isComplete(files []uptypes.TrackedFile) bool {
	if len(files) == 0 {
		return false
	}
	for _, f := range files {
		if f.Status != uptypes.StatusSuccess {
			return false
		}
	}
	return true
}
