package transport

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/fileforge/uploadq/errors"
	"github.com/fileforge/uploadq/internal/s3api"
	"github.com/fileforge/uploadq/uptypes"
)

// S3 is the direct-storage strategy for callers that hold AWS
// credentials themselves: one PutObject, no backend round-trip.
type S3 struct {
	api     s3api.API
	bucket  string
	baseURL string
}

// NewS3 creates the direct S3 strategy. baseURL is the public prefix
// objects are reachable under (e.g. a CloudFront distribution); when
// empty, the virtual-hosted bucket URL is used.
func NewS3(api s3api.API, bucket, baseURL string) *S3 {
	return &S3{
		api:     api,
		bucket:  bucket,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// NewS3FromDefaultConfig builds the strategy on a client from the default
// AWS credential chain.
func NewS3FromDefaultConfig(ctx context.Context, bucket, baseURL string) (*S3, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.NewError("s3Init", err)
	}
	return NewS3(s3.NewFromConfig(cfg), bucket, baseURL), nil
}

// Name implements Strategy.
func (t *S3) Name() string { return "s3" }

// Upload implements Strategy. Conflicts are detected client-side with a
// HEAD request, since S3 itself overwrites unconditionally.
func (t *S3) Upload(ctx context.Context, req *Request) (*Result, error) {
	key := req.Filename
	if req.Folder != "" {
		key = path.Join(req.Folder, req.Filename)
	}
	req.Progress(10)

	key, conflict, existing, err := t.resolveKey(ctx, key, req.OnConflict)
	if err != nil {
		return nil, err
	}
	if conflict {
		return &Result{Conflict: true, ExistingPath: existing}, nil
	}
	req.Progress(30)

	_, err = t.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(t.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(req.Data),
		ContentType:   aws.String(req.ContentType),
		ContentLength: aws.Int64(int64(len(req.Data))),
	})
	if err != nil {
		return nil, errors.NewError("s3Upload", err).WithName(req.Filename)
	}

	return &Result{
		URL:  t.publicURL(key),
		Path: "/" + key,
	}, nil
}

// resolveKey applies the conflict policy against the current bucket
// contents. Rename appends a short unique suffix; skip and ask surface
// the conflict to the caller; replace uploads over the existing object.
func (t *S3) resolveKey(
	ctx context.Context,
	key string,
	policy uptypes.ConflictPolicy,
) (resolved string, conflict bool, existingPath string, err error) {
	if policy == uptypes.ConflictReplace {
		return key, false, "", nil
	}

	exists, err := t.exists(ctx, key)
	if err != nil {
		return "", false, "", err
	}
	if !exists {
		return key, false, "", nil
	}

	switch policy {
	case uptypes.ConflictSkip, uptypes.ConflictAsk:
		return "", true, "/" + key, nil
	default: // rename
		ext := path.Ext(key)
		stem := strings.TrimSuffix(key, ext)
		return fmt.Sprintf("%s-%s%s", stem, uuid.NewString()[:8], ext), false, "", nil
	}
}

// exists checks the bucket for key with a HEAD request. A not-found
// response is not an error.
func (t *S3) exists(ctx context.Context, key string) (bool, error) {
	_, err := t.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(t.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		msg := err.Error()
		if strings.Contains(msg, "NotFound") || strings.Contains(msg, "NoSuchKey") {
			return false, nil
		}
		return false, errors.NewError("s3Head", err)
	}
	return true, nil
}

// publicURL joins the configured base URL with the object key, escaping
// each path segment.
func (t *S3) publicURL(key string) string {
	escaped := make([]string, 0, 4)
	for _, seg := range strings.Split(key, "/") {
		escaped = append(escaped, url.PathEscape(seg))
	}
	joined := strings.Join(escaped, "/")

	if t.baseURL != "" {
		return t.baseURL + "/" + joined
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", t.bucket, joined)
}
