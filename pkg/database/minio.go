package database

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"book_story_service/pkg/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// MinIOClient object storage scoped to one bucket
type MinIOClient struct {
	Client     *minio.Client
	BucketName string
}

// NewMinIOConnection connects to minio and makes sure the bucket exists, retrying per d.Retry
func NewMinIOConnection(ctx context.Context, d MinIOConnection) (*MinIOClient, error) {
	cli, err := minio.New(d.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(d.User, d.Password, ""),
		Secure: d.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化 MinIO 失敗: %w", err)
	}

	mc := &MinIOClient{Client: cli, BucketName: d.BucketName}
	if err := withRetry(ctx, "minIO", d.Retry, mc.ensureBucket); err != nil {
		return nil, err
	}
	return mc, nil
}

func (m *MinIOClient) ensureBucket(ctx context.Context) error {
	exists, err := m.Client.BucketExists(ctx, m.BucketName)
	if err != nil {
		return fmt.Errorf("檢查 bucket [%s] 失敗: %w", m.BucketName, err)
	}
	if exists {
		return nil
	}

	if err := m.Client.MakeBucket(ctx, m.BucketName, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("建立 bucket [%s] 失敗: %w", m.BucketName, err)
	}
	logger.Log.Info("bucket created", zap.String("bucket", m.BucketName))
	return nil
}

// UploadReader streams size bytes from r into objectName
func (m *MinIOClient) UploadReader(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) error {
	_, err := m.Client.PutObject(ctx, m.BucketName, objectName, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", objectName, err)
	}
	return nil
}

// PresignGetURL 生成一個 Presigned URL 用來獲取指定的 object
func (m *MinIOClient) PresignGetURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	u, err := m.Client.PresignedGetObject(ctx, m.BucketName, objectName, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("生成 Presigned URL 失敗: %w", err)
	}
	return u.String(), nil
}
