package s3

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"

	"pixelcard-backend/internal/repo"
)

const bucketName = "pixelcards"

type Blob struct {
	minioClient *minio.Client
	publicURL   string
}

// NewBlob создаёт бакет для карточек, предварительно проверив, что его нет.
// publicURL — базовый адрес, по которому объекты доступны снаружи; если он
// пуст, используется endpoint клиента
func NewBlob(minioClient *minio.Client, publicURL string) (repo.Blob, error) {
	ctx := context.TODO()
	exists, err := minioClient.BucketExists(ctx, bucketName)
	if err != nil {
		return nil, err
	}
	if !exists {
		err = minioClient.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{
			Region: "eu-central-1",
		})
		if err != nil {
			return nil, err
		}
	}
	if publicURL == "" {
		publicURL = minioClient.EndpointURL().String()
	}
	return &Blob{
		minioClient: minioClient,
		publicURL:   strings.TrimRight(publicURL, "/"),
	}, nil
}

func (b *Blob) Upload(path string, raw []byte, contentType string) (string, error) {
	ctx := context.TODO()
	_, err := b.minioClient.PutObject(
		ctx,
		bucketName,
		path,
		bytes.NewReader(raw),
		int64(len(raw)),
		minio.PutObjectOptions{
			ContentType: contentType,
		},
	)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/%s", b.publicURL, bucketName, path), nil
}

func (b *Blob) Remove(path string) error {
	return b.minioClient.RemoveObject(context.TODO(), bucketName, path, minio.RemoveObjectOptions{})
}
