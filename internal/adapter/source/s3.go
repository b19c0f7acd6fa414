package source

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"yada/internal/domain"
	"yada/internal/port"
)

var _ port.FoodSource = (*S3Source)(nil)

// S3GetObjectAPI is the slice of the S3 client the source needs.
type S3GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads one food document from an S3 object.
type S3Source struct {
	bucket string
	key    string
	s3     S3GetObjectAPI
}

func NewS3Source(client S3GetObjectAPI, bucket, key string) *S3Source {
	return &S3Source{
		bucket: bucket,
		key:    key,
		s3:     client,
	}
}

// ParseS3URL splits "s3://bucket/path/to/key".
func ParseS3URL(url string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(url, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 url: %q", url)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 url needs bucket and key: %q", url)
	}
	return bucket, key, nil
}

func (s *S3Source) FetchFoodData(ctx context.Context) ([]domain.Food, error) {
	resp, err := s.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get food object s3://%s/%s: %w", s.bucket, s.key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read food object: %w", err)
	}
	return Decode(data)
}
