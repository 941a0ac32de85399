// Package finder resolves the ALPN boot version for a java version and
// downloads the matching jar.
//
// A Finder owns one HTTP client for its whole life: create it with New and
// always Close it, even when Resolve or Download fail.
package finder

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/alpnfinder/internal/utils"
)

type Finder struct {
	cfg    utils.Config
	client *utils.FinderHTTPClient
	s3     *s3Source
	closed bool
}

func New(cfg utils.Config) *Finder {
	if cfg.ProxyHost() != "" {
		log.Debug().Str("op", "finder/init").Msgf("Using proxy %s", utils.ProxyURL(cfg.ProxyHost(), cfg.ProxyPort()))
	}
	if cfg.InsecureSkipVerifyTLS() {
		log.Debug().Str("op", "finder/init").Msg("TLS certificate verification disabled")
	}
	return &Finder{
		cfg:    cfg,
		client: utils.NewFinderHTTPClient(cfg),
	}
}

// Close releases the HTTP clients. Calling it more than once is a no-op.
func (f *Finder) Close() {
	if f.closed {
		return
	}
	f.closed = true
	f.client.Close()
	if f.s3 != nil {
		f.s3.close()
	}
	log.Debug().Str("op", "finder/close").Msg("HTTP client released")
}

// fetch returns the whole body found at rawURL.
func (f *Finder) fetch(ctx context.Context, rawURL string, buffered bool) ([]byte, error) {
	if f.closed {
		return nil, fmt.Errorf("finder is closed")
	}
	if isS3URL(rawURL) {
		src, err := f.getS3Source(ctx)
		if err != nil {
			return nil, &utils.NetworkError{URL: rawURL, Err: err}
		}
		if buffered {
			return src.download(ctx, rawURL)
		}
		return src.get(ctx, rawURL)
	}
	return httpGet(ctx, f.client, rawURL)
}

func (f *Finder) getS3Source(ctx context.Context) (*s3Source, error) {
	if f.s3 != nil {
		return f.s3, nil
	}
	src, err := newS3Source(ctx, f.cfg)
	if err != nil {
		return nil, err
	}
	f.s3 = src
	return src, nil
}
