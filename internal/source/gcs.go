package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSScheme prefixes object URIs accepted by GCS.Handle.
const GCSScheme = "gs://"

// GCS selects files from Google Cloud Storage buckets.
type GCS struct {
	client *gcs.Client
}

// NewGCS creates a Cloud Storage byte-reader. With an empty credentialsFile
// the client uses application default credentials.
func NewGCS(ctx context.Context, credentialsFile string) (*GCS, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCS{client: client}, nil
}

// IsGCSURI reports whether uri names a Cloud Storage object.
func IsGCSURI(uri string) bool {
	return strings.HasPrefix(uri, GCSScheme)
}

// ParseGCSURI splits gs://bucket/object into its bucket and object names.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	if !IsGCSURI(uri) {
		return "", "", fmt.Errorf("%w: %q missing %s prefix", ErrInvalidURI, uri, GCSScheme)
	}

	bucket, object, ok := strings.Cut(strings.TrimPrefix(uri, GCSScheme), "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidURI, uri)
	}
	return bucket, object, nil
}

// Handle resolves an object's attributes into a FileHandle.
// The declared media type is the object's stored Content-Type.
func (g *GCS) Handle(ctx context.Context, uri string) (FileHandle, error) {
	bucket, object, err := ParseGCSURI(uri)
	if err != nil {
		return FileHandle{}, err
	}

	obj := g.client.Bucket(bucket).Object(object)
	attrs, err := obj.Attrs(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) || errors.Is(err, gcs.ErrBucketNotExist) {
			return FileHandle{}, fmt.Errorf("%w: %s not found", ErrRead, uri)
		}
		return FileHandle{}, fmt.Errorf("%w: %v", ErrRead, err)
	}

	name := path.Base(object)
	return FileHandle{
		Name:        name,
		ContentType: DetectContentType(attrs.ContentType, name, nil),
		Size:        attrs.Size,
		Open: func(ctx context.Context) (io.ReadCloser, error) {
			return obj.NewReader(ctx)
		},
	}, nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}
