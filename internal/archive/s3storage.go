package archive

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"

	"github.com/Brownie44l1/riceleaf-api/internal/config"
)

type S3Storage struct {
	client *s3.Client
	cfg    *config.S3Config
}

func NewS3Storage(cfg *config.S3Config) (*S3Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("s3 config is not set")
	}

	opts := []func(*awsConfig.LoadOptions) error{awsConfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(context.TODO(), opts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.EndpointUrl != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointUrl)
			o.UsePathStyle = true
		}
	})

	return &S3Storage{client: client, cfg: cfg}, nil
}

func (s *S3Storage) Upload(file FileInfo) (string, error) {
	key := file.Key()
	if folder := strings.Trim(s.cfg.Folder, "/"); folder != "" {
		key = folder + "/" + key
	}
	_, err := s.client.PutObject(context.TODO(), &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(mimetype.Detect(file.Content).String()),
		Body:        bytes.NewReader(file.Content),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put %s: %w", key, err)
	}

	return fmt.Sprintf("s3://%s/%s", s.cfg.Bucket, key), nil
}
