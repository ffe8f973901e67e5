package s3_helper

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/danthegoodman1/parquetview/gologger"
	"github.com/danthegoodman1/parquetview/utils"
	"github.com/rs/zerolog"
)

var (
	logger = gologger.NewLogger()
)

// ReadBytesFromS3 downloads one object into memory. bucket defaults to
// S3_BUCKET_NAME. This is the only S3 operation: the viewer never writes.
func ReadBytesFromS3(ctx context.Context, bucket, key string) ([]byte, error) {
	ctx = logger.WithContext(ctx)
	logger := zerolog.Ctx(ctx)

	if bucket == "" {
		bucket = utils.S3_BUCKET_NAME
	}

	s3Config := &aws.Config{
		Region:      aws.String(utils.AWS_DEFAULT_REGION),
		Credentials: credentials.NewEnvCredentials(),
	}
	if utils.S3_ENDPOINT != "" {
		s3Config.Endpoint = aws.String(utils.S3_ENDPOINT)
	}

	s3Session, err := session.NewSession(s3Config)
	if err != nil {
		return nil, fmt.Errorf("error making new session: %w", err)
	}

	downloader := s3manager.NewDownloader(s3Session)

	buf := &aws.WriteAtBuffer{}

	s := time.Now()
	_, err = downloader.DownloadWithContext(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("error downloading from s3: %w", err)
	}

	d := time.Since(s)
	logger.Debug().Str("bucket", bucket).Str("key", key).Int64("durationNS", d.Nanoseconds()).Str("durationHuman", d.String()).Msg("downloaded file from s3")

	return buf.Bytes(), nil
}
