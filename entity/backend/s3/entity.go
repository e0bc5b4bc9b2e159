package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/mwantia/cmdparse/data"
	"github.com/mwantia/cmdparse/entity/backend"
)

func (sb *S3Backend) PutEntity(ctx context.Context, entity *data.Entity) error {
	if err := backend.ValidateEntity(entity); err != nil {
		return err
	}

	sb.mu.Lock()
	defer sb.mu.Unlock()

	if entity.CreateTime.IsZero() {
		entity.CreateTime = time.Now()
	}

	body, err := json.Marshal(entity)
	if err != nil {
		return err
	}

	_, err = sb.client.PutObject(ctx, sb.bucketName, sb.objectName(entity.Kind, entity.ID),
		bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
			ContentType: "application/json",
		})
	return err
}

func (sb *S3Backend) GetEntity(ctx context.Context, kind, id string) (*data.Entity, error) {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	return sb.readObject(ctx, sb.objectName(kind, id))
}

func (sb *S3Backend) DeleteEntity(ctx context.Context, kind, id string) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	name := sb.objectName(kind, id)
	if _, err := sb.client.StatObject(ctx, sb.bucketName, name, minio.StatObjectOptions{}); err != nil {
		if isNotFound(err) {
			return data.ErrNotExist
		}
		return err
	}

	return sb.client.RemoveObject(ctx, sb.bucketName, name, minio.RemoveObjectOptions{})
}

func (sb *S3Backend) QueryEntities(ctx context.Context, query *backend.EntityQuery) (*backend.EntityQueryResult, error) {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	var candidates []*data.Entity
	for object := range sb.client.ListObjects(ctx, sb.bucketName, minio.ListObjectsOptions{
		Prefix:    sb.listPrefix(query),
		Recursive: true,
	}) {
		if object.Err != nil {
			return nil, object.Err
		}

		entity, err := sb.readObject(ctx, object.Key)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, entity)
	}

	return backend.ApplyQuery(candidates, query), nil
}

// readObject must be called while holding at least a read lock.
func (sb *S3Backend) readObject(ctx context.Context, name string) (*data.Entity, error) {
	object, err := sb.client.GetObject(ctx, sb.bucketName, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer object.Close()

	body, err := io.ReadAll(object)
	if err != nil {
		if isNotFound(err) {
			return nil, data.ErrNotExist
		}
		return nil, err
	}

	var entity data.Entity
	if err := json.Unmarshal(body, &entity); err != nil {
		return nil, err
	}
	if entity.Attributes == nil {
		entity.Attributes = make(map[string]string)
	}

	return &entity, nil
}
