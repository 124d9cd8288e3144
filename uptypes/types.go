// Package uptypes provides shared type definitions for the uploadq module.
package uptypes

import (
	"log/slog"
	"net/http"

	"github.com/input-output-hk/catalyst-forge-libs/fs"

	"github.com/fileforge/uploadq/internal/s3api"
)

// Status represents the lifecycle state of a tracked file.
type Status string

// Lifecycle states for a tracked file.
const (
	// StatusPending means the file is waiting to be admitted for upload.
	StatusPending Status = "pending"

	// StatusUploading means a transfer is currently in flight for the file.
	StatusUploading Status = "uploading"

	// StatusProcessing means the remote side accepted the bytes and is
	// still working on them.
	StatusProcessing Status = "processing"

	// StatusSuccess means the file was uploaded and has a remote URL.
	StatusSuccess Status = "success"

	// StatusError means the last attempt failed; the file can be retried.
	StatusError Status = "error"

	// StatusConflict means the remote side reported a name conflict that
	// awaits resolution.
	StatusConflict Status = "conflict"
)

// ConflictPolicy tells the backend what to do when the target name
// already exists.
type ConflictPolicy string

// Predefined conflict policies.
const (
	// ConflictRename uploads under a new, non-colliding name.
	ConflictRename ConflictPolicy = "rename"

	// ConflictReplace overwrites the existing object.
	ConflictReplace ConflictPolicy = "replace"

	// ConflictSkip leaves the existing object untouched.
	ConflictSkip ConflictPolicy = "skip"

	// ConflictAsk defers the decision to a ConflictResolver. It has no
	// wire representation; without a resolver it degrades to rename.
	ConflictAsk ConflictPolicy = "ask"
)

// TrackedFile is one unit of upload work. Its ID is the sole key for all
// lookups and mutations; every other field may change over the file's
// lifetime except RemoteURL and RemotePath, which are immutable once set.
type TrackedFile struct {
	// ID is an opaque unique identifier assigned at creation.
	ID string

	// Name is the user-facing filename. It may be rewritten when a
	// conflict is resolved by rename.
	Name string

	// ContentType is the MIME type of the payload.
	ContentType string

	// Size is the payload size in bytes.
	Size int64

	// Data is the in-memory payload. It is nil for files imported by URL,
	// which are already hosted remotely.
	Data []byte

	// RemoteURL is the public URL of the uploaded object.
	RemoteURL string

	// RemotePath is the storage path of the uploaded object.
	RemotePath string

	// Status is the current lifecycle state.
	Status Status

	// Progress is 0-100. It is monotonic while uploading and resets to 0
	// when an attempt fails or is cancelled.
	Progress int

	// Error holds the last failure message. Empty unless Status is
	// StatusError.
	Error string
}

// FileInput describes a file handed to the manager for tracking.
type FileInput struct {
	// Name is the user-facing filename.
	Name string

	// Data is the file payload.
	Data []byte

	// ContentType is optional; when empty it is sniffed from Data.
	ContentType string
}

// FileUpdate is a partial-field merge applied to a tracked file.
// Nil fields are left untouched.
type FileUpdate struct {
	Name       *string
	Status     *Status
	Progress   *int
	RemoteURL  *string
	RemotePath *string
	Error      *string
}

// UploadCallback is invoked once per successfully uploaded file with the
// file's final state.
type UploadCallback func(files []TrackedFile)

// ErrorCallback is invoked once per failed attempt with a human-readable
// message. The file is nil for failures not tied to a single record.
type ErrorCallback func(message string, file *TrackedFile)

// ConflictResolver decides how to proceed when the backend reports that
// the target name already exists at existingPath. Returning ConflictAsk
// (or an empty policy) abandons the attempt.
type ConflictResolver func(file TrackedFile, existingPath string) ConflictPolicy

// ManagerConfig holds configuration for the upload manager.
type ManagerConfig struct {
	Concurrency     int
	PresignEndpoint string
	ProxyEndpoint   string
	Folder          string
	OnConflict      ConflictPolicy
	MaxFileSize     int64
	AutoUpload      bool
	PresignRetries  uint64
	HTTPClient      *http.Client
	Filesystem      fs.Filesystem // Filesystem abstraction for path ingestion
	Logger          *slog.Logger

	// Direct S3 strategy settings. Used only when neither HTTP endpoint
	// is configured.
	S3Bucket        string
	S3PublicBaseURL string
	S3Client        s3api.API

	OnUpload UploadCallback
	OnError  ErrorCallback
	Resolver ConflictResolver
}

// Option is a functional option for configuring the upload manager.
type Option func(*ManagerConfig)
