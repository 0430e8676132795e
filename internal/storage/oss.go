package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

type OSSConfig struct {
	Endpoint        string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	Prefix          string
}

// OSSStore keeps objects in an Aliyun OSS bucket under an optional prefix.
type OSSStore struct {
	bucket *oss.Bucket
	prefix string
}

func NewOSSStore(config OSSConfig) (*OSSStore, error) {
	if config.Endpoint == "" || config.AccessKeyID == "" || config.AccessKeySecret == "" || config.Bucket == "" {
		return nil, errors.New("oss endpoint, credentials and bucket are required")
	}

	client, err := oss.New(config.Endpoint, config.AccessKeyID, config.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("oss client: %w", err)
	}
	bucket, err := client.Bucket(config.Bucket)
	if err != nil {
		return nil, fmt.Errorf("oss bucket: %w", err)
	}
	if location, err := client.GetBucketLocation(config.Bucket); err != nil {
		var serviceErr oss.ServiceError
		if errors.As(err, &serviceErr) && serviceErr.StatusCode == http.StatusForbidden {
			log.Printf("oss bucket location check denied for %s, continuing", config.Bucket)
		} else {
			return nil, fmt.Errorf("verify oss bucket: %w", err)
		}
	} else {
		log.Printf("oss bucket %s location: %s", config.Bucket, location)
	}

	return &OSSStore{bucket: bucket, prefix: strings.Trim(config.Prefix, "/")}, nil
}

func (store *OSSStore) Put(ctx context.Context, key string, content []byte, contentType string) error {
	objectKey, err := store.objectKey(key)
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return store.bucket.PutObject(
		objectKey,
		bytes.NewReader(content),
		oss.WithContext(ctx),
		oss.ContentType(contentType),
		oss.ContentDisposition("inline"),
	)
}

func (store *OSSStore) Get(ctx context.Context, key string) ([]byte, error) {
	objectKey, err := store.objectKey(key)
	if err != nil {
		return nil, err
	}
	body, err := store.bucket.GetObject(objectKey, oss.WithContext(ctx))
	if err != nil {
		var serviceErr oss.ServiceError
		if errors.As(err, &serviceErr) && serviceErr.StatusCode == http.StatusNotFound {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(body)
}

func (store *OSSStore) Delete(ctx context.Context, key string) error {
	objectKey, err := store.objectKey(key)
	if err != nil {
		return err
	}
	return store.bucket.DeleteObject(objectKey, oss.WithContext(ctx))
}

func (store *OSSStore) objectKey(key string) (string, error) {
	cleaned, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	if store.prefix == "" {
		return cleaned, nil
	}
	return path.Join(store.prefix, cleaned), nil
}
