// Package secrets loads the token signing key from one of its configured
// sources: an inline value, a local file or an S3 object.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var ErrNoSecret = errors.New("no signing secret configured")

// maxSecretSize bounds what is read from a file or object.
const maxSecretSize = 1 << 20

// Source lists the places a secret may come from. The first non-empty of
// Key, File and URI wins.
type Source struct {
	Key  string
	File string
	URI  string

	S3Region       string
	S3BaseEndpoint string
	S3AccessKey    string
	S3SecretKey    string
}

type objectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var (
	readFile = os.ReadFile

	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3Client = func(cfg aws.Config, optFns ...func(*s3.Options)) objectGetter {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// Load returns the raw secret bytes. An empty result is an error.
func Load(ctx context.Context, src Source) ([]byte, error) {
	var (
		secret []byte
		err    error
	)

	switch {
	case src.Key != "":
		secret = []byte(src.Key)
	case src.File != "":
		secret, err = readFile(src.File)
		if err != nil {
			return nil, fmt.Errorf("read secret file: %w", err)
		}
	case src.URI != "":
		secret, err = loadS3(ctx, src)
		if err != nil {
			return nil, err
		}
	default:
		return nil, ErrNoSecret
	}

	if len(secret) == 0 {
		return nil, ErrNoSecret
	}
	if len(secret) > maxSecretSize {
		return nil, fmt.Errorf("secret larger than %d bytes", maxSecretSize)
	}
	return secret, nil
}

// ParseS3URI splits s3://bucket/key.
func ParseS3URI(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("secret uri: %w", err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("secret uri %q: want s3://bucket/key", raw)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", fmt.Errorf("secret uri %q: missing object key", raw)
	}
	return u.Host, key, nil
}

func loadS3(ctx context.Context, src Source) ([]byte, error) {
	bucket, key, err := ParseS3URI(src.URI)
	if err != nil {
		return nil, err
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(src.S3Region)}
	if src.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(src.S3AccessKey, src.S3SecretKey, ""),
		))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3Client(cfg, func(o *s3.Options) {
		if src.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(src.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	out, err := client.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		return nil, fmt.Errorf("get secret object: %w", err)
	}
	defer out.Body.Close()

	b, err := io.ReadAll(io.LimitReader(out.Body, maxSecretSize+1))
	if err != nil {
		return nil, fmt.Errorf("read secret object: %w", err)
	}
	return b, nil
}
