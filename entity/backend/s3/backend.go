package s3

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/mwantia/cmdparse/data"
	"github.com/mwantia/cmdparse/entity/backend"
)

// S3Backend stores every entity as a JSON object "<prefix>/<kind>/<id>.json"
// inside a single bucket.
type S3Backend struct {
	mu sync.RWMutex

	client     *minio.Client
	bucketName string
	prefix     string
}

func NewS3Backend(endpoint, bucketName, accessKey, secretKey string, useSsl bool) (*S3Backend, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSsl,
	})
	if err != nil {
		return nil, err
	}

	return &S3Backend{
		client:     client,
		bucketName: bucketName,
		prefix:     "entities",
	}, nil
}

// Returns the identifier name defined for this backend
func (*S3Backend) Name() string {
	return "s3"
}

// Open verifies that the configured bucket exists.
func (sb *S3Backend) Open(ctx context.Context) error {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	exists, err := sb.client.BucketExists(ctx, sb.bucketName)
	if err != nil {
		return err
	}

	if !exists {
		return fmt.Errorf("%w: bucket '%s' does not exist", data.ErrBackendOpen, sb.bucketName)
	}

	return nil
}

// Close is part of the lifecycle behaviour; the S3 client holds no resources.
func (sb *S3Backend) Close(ctx context.Context) error {
	return nil
}

func (sb *S3Backend) objectName(kind, id string) string {
	return sb.prefix + "/" + backend.EntityKey(kind, id) + ".json"
}

func (sb *S3Backend) listPrefix(query *backend.EntityQuery) string {
	if query.Kind == "" {
		return sb.prefix + "/"
	}
	return sb.prefix + "/" + backend.EntityKey(query.Kind, query.Prefix)
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return strings.EqualFold(code, "NoSuchKey") || strings.EqualFold(code, "NotFound")
}
