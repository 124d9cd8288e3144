// Package uploadq provides the upload manager: file tracking, bounded
// concurrent transfers, cancellation, and progress aggregation.
package uploadq

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sync/atomic"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/input-output-hk/catalyst-forge-libs/fs"
	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"

	"github.com/fileforge/uploadq/errors"
	"github.com/fileforge/uploadq/internal/cancelreg"
	"github.com/fileforge/uploadq/internal/queue"
	"github.com/fileforge/uploadq/internal/store"
	"github.com/fileforge/uploadq/internal/transport"
	"github.com/fileforge/uploadq/internal/validation"
	"github.com/fileforge/uploadq/uptypes"
)

const (
	// DefaultConcurrency is the number of simultaneous transfers when
	// WithConcurrency is not given.
	DefaultConcurrency = 3

	// genericFailure is reported when a failed attempt carries no
	// backend-supplied message.
	genericFailure = "Upload failed"
)

// Manager tracks a set of files and uploads them to remote storage under
// a concurrency limit. It owns the file record store; all mutations flow
// through it, and every reader observes a mutation as soon as the call
// that made it returns.
//
// A Manager is safe for concurrent use.
type Manager struct {
	cfg      *uptypes.ManagerConfig
	strategy transport.Strategy
	store    *store.Store
	sched    *queue.Scheduler
	cancels  *cancelreg.Registry
	fs       fs.Filesystem
	log      *slog.Logger
	closed   atomic.Bool
}

// New creates an upload manager with the provided options.
//
// A manager without any transport configured is still usable for
// tracking; attempts to upload then fail per-file with a configuration
// error, surfaced through the error callback.
//
// Example:
//
//	mgr, err := uploadq.New(
//	    uploadq.WithPresignEndpoint("https://api.example.com/presign"),
//	    uploadq.WithConcurrency(4),
//	)
func New(opts ...uptypes.Option) (*Manager, error) {
	cfg := &uptypes.ManagerConfig{
		Concurrency: DefaultConcurrency,
		OnConflict:  uptypes.ConflictRename,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if err := validation.ValidateFolder(cfg.Folder); err != nil {
		return nil, err
	}

	strategy, err := transport.Select(cfg)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	filesystem := cfg.Filesystem
	if filesystem == nil {
		filesystem = billy.NewOSFS("/")
	}

	m := &Manager{
		cfg:      cfg,
		strategy: strategy,
		store:    store.New(),
		cancels:  cancelreg.New(),
		fs:       filesystem,
		log:      logger,
	}
	m.sched = queue.New(cfg.Concurrency, m.transfer, logger)
	return m, nil
}

// AddFiles tracks new in-memory files and returns their records. Each
// record gets a fresh id and starts in StatusPending, or StatusError when
// it fails pre-validation (bad name, oversize payload). With auto-upload
// enabled, pending records are queued immediately.
func (m *Manager) AddFiles(inputs ...uptypes.FileInput) []uptypes.TrackedFile {
	recs := make([]uptypes.TrackedFile, 0, len(inputs))
	for _, in := range inputs {
		recs = append(recs, m.buildRecord(in))
	}
	return m.track(recs)
}

// AddURLs tracks files that are already hosted remotely. Each record is
// created directly in StatusSuccess with the URL as its remote location
// and no local payload; a URL that does not parse yields a StatusError
// record instead.
func (m *Manager) AddURLs(urls ...string) []uptypes.TrackedFile {
	recs := make([]uptypes.TrackedFile, 0, len(urls))
	for _, raw := range urls {
		rec := uptypes.TrackedFile{
			ID:   uuid.NewString(),
			Name: raw,
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			rec.Status = uptypes.StatusError
			rec.Error = "invalid URL"
			recs = append(recs, rec)
			continue
		}
		if base := path.Base(u.Path); base != "." && base != "/" {
			rec.Name = base
		}
		rec.Status = uptypes.StatusSuccess
		rec.Progress = 100
		rec.RemoteURL = raw
		rec.RemotePath = u.Path
		recs = append(recs, rec)
	}
	return m.store.Add(recs...)
}

// AddPaths reads local files through the configured filesystem and
// tracks them. It fails fast on the first unreadable path; oversize files
// are still tracked as StatusError records like any other pre-validation
// failure.
func (m *Manager) AddPaths(paths ...string) ([]uptypes.TrackedFile, error) {
	recs := make([]uptypes.TrackedFile, 0, len(paths))
	for _, p := range paths {
		info, err := m.fs.Stat(p)
		if err != nil {
			return nil, errors.NewError("addPaths", err).WithName(p)
		}
		if info.IsDir() {
			return nil, errors.NewError("addPaths", errors.ErrInvalidInput).
				WithName(p).
				WithMessage("path points to a directory, not a file")
		}

		name := filepath.Base(p)
		if m.cfg.MaxFileSize > 0 && info.Size() > m.cfg.MaxFileSize {
			// Skip the read; the record is rejected either way.
			recs = append(recs, m.buildRecord(uptypes.FileInput{Name: name}))
			recs[len(recs)-1].Size = info.Size()
			recs[len(recs)-1].Status = uptypes.StatusError
			recs[len(recs)-1].Error = "file exceeds maximum size"
			continue
		}

		data, err := m.fs.ReadFile(p)
		if err != nil {
			return nil, errors.NewError("addPaths", err).WithName(p)
		}
		recs = append(recs, m.buildRecord(uptypes.FileInput{Name: name, Data: data}))
	}
	return m.track(recs), nil
}

// AddDir walks a directory tree through the configured filesystem and
// tracks every regular file in it.
func (m *Manager) AddDir(dir string) ([]uptypes.TrackedFile, error) {
	var paths []string
	err := m.fs.Walk(dir, func(p string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !info.IsDir() {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, errors.NewError("addDir", err).WithName(dir)
	}
	return m.AddPaths(paths...)
}

// RemoveFile cancels any in-flight transfer for id and removes the
// record. Removing an absent id is a tolerant no-op.
func (m *Manager) RemoveFile(id string) {
	m.cancels.Cancel(id)
	m.store.Remove(id)
}

// ClearFiles cancels all in-flight transfers and empties the store.
func (m *Manager) ClearFiles() {
	m.cancels.CancelAll()
	m.store.Clear()
}

// CancelUpload aborts the in-flight transfer for id, returning the file
// to StatusPending. Cancelling a settled or unknown id is a no-op.
func (m *Manager) CancelUpload(id string) {
	m.cancels.Cancel(id)
}

// RetryFile queues a failed file for another attempt. The status stays
// StatusError until the scheduler actually admits the file. Retrying a
// file that is not in StatusError is a no-op.
func (m *Manager) RetryFile(id string) error {
	rec, ok := m.store.Get(id)
	if !ok {
		return errors.NewError("retryFile", errors.ErrFileNotFound)
	}
	if rec.Status != uptypes.StatusError {
		return nil
	}
	m.sched.Enqueue(id)
	return nil
}

// UploadFile queues a single file for upload. Queuing a file that is
// already uploading or uploaded is a no-op.
func (m *Manager) UploadFile(id string) error {
	rec, ok := m.store.Get(id)
	if !ok {
		return errors.NewError("uploadFile", errors.ErrFileNotFound)
	}
	if rec.Status == uptypes.StatusUploading || rec.Status == uptypes.StatusSuccess {
		return nil
	}
	m.sched.Enqueue(id)
	return nil
}

// UploadAll queues every pending and failed file, in store order, and
// starts transfers up to the concurrency limit.
func (m *Manager) UploadAll() {
	var ids []string
	for _, rec := range m.store.List() {
		if rec.Status == uptypes.StatusPending || rec.Status == uptypes.StatusError {
			ids = append(ids, rec.ID)
		}
	}
	m.sched.Enqueue(ids...)
}

// Files returns copies of all tracked records in insertion order.
func (m *Manager) Files() []uptypes.TrackedFile {
	return m.store.List()
}

// File returns a copy of the record for id.
func (m *Manager) File(id string) (uptypes.TrackedFile, bool) {
	return m.store.Get(id)
}

// Wait blocks until every queued and in-flight transfer has settled, or
// until ctx is done.
func (m *Manager) Wait(ctx context.Context) error {
	return m.sched.Wait(ctx)
}

// Close aborts all in-flight transfers and marks the manager closed.
// Closed managers no-op further queue operations.
func (m *Manager) Close() error {
	m.closed.Store(true)
	m.cancels.CancelAll()
	return nil
}

// buildRecord turns a FileInput into a tracked record, running
// pre-validation and content-type sniffing.
func (m *Manager) buildRecord(in uptypes.FileInput) uptypes.TrackedFile {
	rec := uptypes.TrackedFile{
		ID:          uuid.NewString(),
		Name:        in.Name,
		ContentType: in.ContentType,
		Size:        int64(len(in.Data)),
		Data:        in.Data,
		Status:      uptypes.StatusPending,
	}

	if err := validation.ValidateDisplayName(in.Name); err != nil {
		rec.Status = uptypes.StatusError
		rec.Error = "invalid file name"
		return rec
	}
	if err := validation.ValidateSize(rec.Size, m.cfg.MaxFileSize); err != nil {
		rec.Status = uptypes.StatusError
		rec.Error = "file exceeds maximum size"
		return rec
	}

	if rec.ContentType == "" {
		rec.ContentType = mimetype.Detect(in.Data).String()
	}
	return rec
}

// track adds records to the store and, with auto-upload on, queues the
// pending ones.
func (m *Manager) track(recs []uptypes.TrackedFile) []uptypes.TrackedFile {
	added := m.store.Add(recs...)
	if m.cfg.AutoUpload && !m.closed.Load() {
		var ids []string
		for _, rec := range added {
			if rec.Status == uptypes.StatusPending {
				ids = append(ids, rec.ID)
			}
		}
		if len(ids) > 0 {
			m.sched.Enqueue(ids...)
		}
	}
	return added
}

// transfer runs one upload attempt for id. It is invoked by the
// scheduler with a slot held and must never panic or leak the slot; all
// failure paths collapse into state mutations plus callbacks.
func (m *Manager) transfer(id string) {
	if m.closed.Load() {
		return
	}

	rec, ok := m.store.Get(id)
	if !ok {
		// Removed while queued. Skip silently so the pipeline keeps
		// moving.
		m.log.Debug("skipping vanished file", slog.String("file_id", id))
		return
	}
	switch rec.Status {
	case uptypes.StatusUploading, uptypes.StatusProcessing, uptypes.StatusSuccess:
		return
	}

	if m.strategy == nil {
		m.fail(id, "no upload endpoint configured")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancels.Register(id, cancel)
	defer func() {
		m.cancels.Unregister(id)
		cancel()
	}()

	m.store.Update(id, uptypes.FileUpdate{
		Status:   ptrStatus(uptypes.StatusUploading),
		Progress: ptrInt(0),
		Error:    ptrStr(""),
	})
	m.log.Info("upload started",
		slog.String("file_id", id),
		slog.String("name", rec.Name),
		slog.String("strategy", m.strategy.Name()),
	)

	last := 0
	req := &transport.Request{
		Filename:    rec.Name,
		ContentType: rec.ContentType,
		Folder:      m.cfg.Folder,
		Data:        rec.Data,
		OnConflict:  m.dispatchPolicy(),
		Progress: func(pct int) {
			// Monotonic while uploading; 100 is reserved for success.
			if pct <= last {
				return
			}
			if pct > 99 {
				pct = 99
			}
			last = pct
			m.store.Update(id, uptypes.FileUpdate{Progress: ptrInt(pct)})
		},
	}

	res, err := m.strategy.Upload(ctx, req)
	m.settleAttempt(ctx, id, req, res, err, true)
}

// settleAttempt converts one dispatch outcome into store mutations and
// callbacks. allowResolve guards the single conflict re-dispatch.
func (m *Manager) settleAttempt(
	ctx context.Context,
	id string,
	req *transport.Request,
	res *transport.Result,
	err error,
	allowResolve bool,
) {
	switch {
	case err != nil && (stderrors.Is(err, context.Canceled) || ctx.Err() != nil):
		// Cancellation is not a failure: back to pending, no message.
		m.store.Update(id, uptypes.FileUpdate{
			Status:   ptrStatus(uptypes.StatusPending),
			Progress: ptrInt(0),
		})
		m.log.Info("upload cancelled", slog.String("file_id", id))

	case err != nil:
		msg := errors.RemoteMessage(err)
		if msg == "" {
			msg = genericFailure
		}
		m.log.Warn("upload failed",
			slog.String("file_id", id),
			slog.String("error", err.Error()),
		)
		m.fail(id, msg)

	case res.Conflict:
		if allowResolve {
			m.resolveConflict(ctx, id, req, res)
		} else {
			m.fail(id, "name conflict: "+res.ExistingPath)
		}

	default:
		m.succeed(id, res)
	}
}

// resolveConflict parks the file in StatusConflict, consults the
// resolver, and re-dispatches once with the concrete policy it returns.
func (m *Manager) resolveConflict(ctx context.Context, id string, req *transport.Request, res *transport.Result) {
	m.store.Update(id, uptypes.FileUpdate{Status: ptrStatus(uptypes.StatusConflict)})

	resolver := m.cfg.Resolver
	rec, ok := m.store.Get(id)
	if resolver == nil || !ok {
		m.fail(id, "name conflict: "+res.ExistingPath)
		return
	}

	policy := resolver(rec, res.ExistingPath)
	if policy == "" || policy == uptypes.ConflictAsk {
		m.log.Info("conflict left unresolved",
			slog.String("file_id", id),
			slog.String("existing_path", res.ExistingPath),
		)
		m.fail(id, "name conflict: "+res.ExistingPath)
		return
	}
	if policy == uptypes.ConflictSkip {
		// The caller chose to keep the existing object; its location is
		// the best remote state available for this file.
		m.succeed(id, &transport.Result{URL: res.ExistingPath, Path: res.ExistingPath})
		return
	}

	m.store.Update(id, uptypes.FileUpdate{Status: ptrStatus(uptypes.StatusUploading)})
	req.OnConflict = policy
	res2, err := m.strategy.Upload(ctx, req)
	m.settleAttempt(ctx, id, req, res2, err, false)
}

// fail marks the file failed and reports the attempt through the error
// callback.
func (m *Manager) fail(id, msg string) {
	updated, ok := m.store.Update(id, uptypes.FileUpdate{
		Status:   ptrStatus(uptypes.StatusError),
		Progress: ptrInt(0),
		Error:    ptrStr(msg),
	})
	if m.cfg.OnError != nil {
		if ok {
			m.cfg.OnError(msg, &updated)
		} else {
			m.cfg.OnError(msg, nil)
		}
	}
}

// succeed records the remote location and reports the file through the
// upload callback.
func (m *Manager) succeed(id string, res *transport.Result) {
	updated, ok := m.store.Update(id, uptypes.FileUpdate{
		Status:     ptrStatus(uptypes.StatusSuccess),
		Progress:   ptrInt(100),
		RemoteURL:  ptrStr(res.URL),
		RemotePath: ptrStr(res.Path),
		Error:      ptrStr(""),
	})
	if !ok {
		return
	}
	m.log.Info("upload complete",
		slog.String("file_id", id),
		slog.String("remote_path", updated.RemotePath),
	)
	if m.cfg.OnUpload != nil {
		m.cfg.OnUpload([]uptypes.TrackedFile{updated})
	}
}

// dispatchPolicy maps the configured conflict policy to what the first
// dispatch should carry. An "ask" policy becomes a skip probe when a
// resolver can handle the resulting conflict, and rename otherwise,
// since the wire protocol has no ask primitive.
func (m *Manager) dispatchPolicy() uptypes.ConflictPolicy {
	policy := m.cfg.OnConflict
	if policy != uptypes.ConflictAsk {
		return policy
	}
	if m.cfg.Resolver != nil {
		return uptypes.ConflictSkip
	}
	return uptypes.ConflictRename
}

func ptrStatus(s uptypes.Status) *uptypes.Status { return &s }
func ptrInt(i int) *int                          { return &i }
func ptrStr(s string) *string                    { return &s }
