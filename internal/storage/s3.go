package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	apperrors "github.com/sanchitvj/sparkify-lake/internal/errors"
	"go.uber.org/zap"
)

// S3 DeleteObjects accepts at most 1000 keys per call.
const deleteBatchSize = 1000

// S3Config holds what the S3 client constructor needs. Credentials are passed
// explicitly; when both are empty the SDK default chain applies.
type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	ForcePathStyle  bool
	VerifyUploads   bool
}

// S3Client is the process-wide S3 handle shared by every bucket store.
type S3Client struct {
	api      s3iface.S3API
	uploader s3manageriface.UploaderAPI
	verify   bool
	log      *zap.Logger
}

// NewS3Client creates the AWS session once.
func NewS3Client(cfg S3Config, log *zap.Logger) (*S3Client, error) {
	if log == nil {
		log = zap.NewNop()
	}

	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.AccessKeyID != "" || cfg.SecretAccessKey != "" {
		if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
			return nil, apperrors.NewConfig("both access key id and secret access key are required", nil)
		}
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	if cfg.ForcePathStyle {
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, apperrors.NewConfig("create AWS session", err)
	}

	api := s3.New(sess)
	return NewS3ClientWithAPI(api, s3manager.NewUploaderWithClient(api), cfg.VerifyUploads, log), nil
}

// NewS3ClientWithAPI wires an S3Client around existing SDK interfaces.
func NewS3ClientWithAPI(api s3iface.S3API, uploader s3manageriface.UploaderAPI, verify bool, log *zap.Logger) *S3Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &S3Client{api: api, uploader: uploader, verify: verify, log: log}
}

// Bucket returns the Store for one bucket.
func (c *S3Client) Bucket(name string) *S3Store {
	return &S3Store{client: c, bucket: name}
}

// S3Store is a Store over one S3 bucket.
type S3Store struct {
	client *S3Client
	bucket string
}

// List returns every key under prefix.
func (s *S3Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.client.api.ListObjectsPagesWithContext(ctx,
		&s3.ListObjectsInput{
			Bucket: aws.String(s.bucket),
			Prefix: aws.String(prefix),
		},
		func(page *s3.ListObjectsOutput, lastPage bool) bool {
			for _, obj := range page.Contents {
				keys = append(keys, aws.StringValue(obj.Key))
			}
			return !lastPage
		})
	if err != nil {
		return nil, apperrors.NewRead(fmt.Sprintf("list s3://%s/%s", s.bucket, prefix), err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Get streams the object body.
func (s *S3Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.api.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, apperrors.NewRead(fmt.Sprintf("get s3://%s/%s", s.bucket, key), err)
	}
	return out.Body, nil
}

// Put uploads body and, when verification is on, confirms the object with HeadObject.
func (s *S3Store) Put(ctx context.Context, key string, body []byte, metadata map[string]string) error {
	input := &s3manager.UploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	}
	if len(metadata) > 0 {
		input.Metadata = aws.StringMap(metadata)
	}

	result, err := s.client.uploader.UploadWithContext(ctx, input)
	if err != nil {
		return apperrors.NewWrite(fmt.Sprintf("upload s3://%s/%s", s.bucket, key), err)
	}
	s.client.log.Debug("uploaded object",
		zap.String("location", result.Location),
		zap.Int("bytes", len(body)),
	)

	if !s.client.verify {
		return nil
	}
	_, err = s.client.api.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return apperrors.NewWrite(fmt.Sprintf("verify upload s3://%s/%s", s.bucket, key), err)
	}
	return nil
}

// Delete removes one object.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.api.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return apperrors.NewWrite(fmt.Sprintf("delete s3://%s/%s", s.bucket, key), err)
	}
	return nil
}

// DeletePrefix removes every object under prefix in batches.
func (s *S3Store) DeletePrefix(ctx context.Context, prefix string) error {
	if prefix == "" {
		return apperrors.NewWrite(fmt.Sprintf("refusing to delete every object in s3://%s", s.bucket), nil)
	}

	keys, err := s.List(ctx, prefix)
	if err != nil {
		return apperrors.Wrap(err, "list objects to overwrite", false)
	}

	for start := 0; start < len(keys); start += deleteBatchSize {
		end := start + deleteBatchSize
		if end > len(keys) {
			end = len(keys)
		}

		objects := make([]*s3.ObjectIdentifier, 0, end-start)
		for _, key := range keys[start:end] {
			objects = append(objects, &s3.ObjectIdentifier{Key: aws.String(key)})
		}

		out, err := s.client.api.DeleteObjectsWithContext(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &s3.Delete{Objects: objects, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return apperrors.NewWrite(fmt.Sprintf("delete s3://%s/%s", s.bucket, prefix), err)
		}
		if len(out.Errors) > 0 {
			first := out.Errors[0]
			return apperrors.NewWrite(
				fmt.Sprintf("delete s3://%s/%s: %d objects failed, first %s: %s",
					s.bucket, prefix, len(out.Errors), aws.StringValue(first.Key), aws.StringValue(first.Message)),
				nil)
		}
	}

	s.client.log.Debug("deleted prefix",
		zap.String("bucket", s.bucket),
		zap.String("prefix", prefix),
		zap.Int("objects", len(keys)),
	)
	return nil
}
