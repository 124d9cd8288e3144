// Package uploadq provides a client-side upload orchestration layer for
// remote object storage. Given a set of files or URLs, it stages them,
// uploads them under a concurrency limit, tracks per-file lifecycle
// state, supports cancellation and retry, and aggregates overall
// progress.
//
// Two HTTP transport strategies are negotiated with an external backend:
// a presigned-URL path that writes bytes directly to storage, and a proxy
// path where the backend relays them. A third strategy uploads straight
// to S3 for callers that hold AWS credentials themselves.
//
// Key features:
//   - Bounded-concurrency FIFO upload scheduling
//   - Per-file cancellation and retry with clean state transitions
//   - Pluggable transport selection through functional options
//   - Name-conflict resolution via an explicit resolver callback
//   - Progress aggregation derived from tracked file state
//
// Example usage:
//
//	mgr, err := uploadq.New(
//	    uploadq.WithPresignEndpoint("https://api.example.com/presign"),
//	    uploadq.WithConcurrency(4),
//	)
//	if err != nil {
//	    return err
//	}
//
//	mgr.AddFiles(uptypes.FileInput{Name: "a.jpg", Data: data})
//	mgr.UploadAll()
//	if err := mgr.Wait(ctx); err != nil {
//	    return err
//	}
package uploadq
