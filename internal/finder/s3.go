package finder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
	"github.com/tanq16/alpnfinder/internal/utils"
)

type s3Source struct {
	client     *s3.Client
	downloader *manager.Downloader
	httpClient aws.HTTPClient
}

func newS3Source(ctx context.Context, cfg utils.Config) (*s3Source, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithHTTPClient(utils.NewAWSHTTPClient(cfg)),
		config.WithRetryer(func() aws.Retryer { return aws.NopRetryer{} }),
	}
	if cfg.AWSProfile() != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.AWSProfile()))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint() != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint())
			o.UsePathStyle = true
		}
	})
	return &s3Source{
		client: client,
		downloader: manager.NewDownloader(client, func(d *manager.Downloader) {
			d.Concurrency = 1
		}),
		httpClient: awsCfg.HTTPClient,
	}, nil
}

func (s *s3Source) close() {
	if c, ok := s.httpClient.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
}

// get reads a small object in a single GetObject call.
func (s *s3Source) get(ctx context.Context, rawURL string) ([]byte, error) {
	bucket, key, err := parseS3URL(rawURL)
	if err != nil {
		return nil, &utils.NetworkError{URL: rawURL, Err: err}
	}
	log.Debug().Str("op", "finder/s3").Msgf("GetObject s3://%s/%s", bucket, key)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, s3Error(rawURL, err)
	}
	defer out.Body.Close()
	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &utils.NetworkError{URL: rawURL, Err: fmt.Errorf("error reading object body: %w", err)}
	}
	return body, nil
}

// download buffers the whole object in memory through the transfer manager.
func (s *s3Source) download(ctx context.Context, rawURL string) ([]byte, error) {
	bucket, key, err := parseS3URL(rawURL)
	if err != nil {
		return nil, &utils.NetworkError{URL: rawURL, Err: err}
	}
	log.Debug().Str("op", "finder/s3").Msgf("Downloading s3://%s/%s", bucket, key)
	buf := manager.NewWriteAtBuffer([]byte{})
	if _, err := s.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		return nil, s3Error(rawURL, err)
	}
	return buf.Bytes(), nil
}

func s3Error(rawURL string, err error) error {
	var respErr interface{ HTTPStatusCode() int }
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() != 0 {
		return &utils.HTTPStatusError{URL: rawURL, StatusCode: respErr.HTTPStatusCode()}
	}
	return &utils.NetworkError{URL: rawURL, Err: err}
}

func isS3URL(rawURL string) bool {
	return strings.HasPrefix(strings.ToLower(rawURL), "s3://")
}

func parseS3URL(rawURL string) (string, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid S3 URL: %w", err)
	}
	if !strings.EqualFold(u.Scheme, "s3") || u.Host == "" {
		return "", "", fmt.Errorf("invalid S3 URL %q, expected s3://bucket/key", rawURL)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", fmt.Errorf("S3 URL %q has no object key", rawURL)
	}
	return u.Host, key, nil
}
