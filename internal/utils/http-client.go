package utils

import (
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type FinderHTTPClient struct {
	client    *http.Client
	transport *http.Transport
	userAgent string
}

// NewFinderHTTPClient builds the single client used for both GETs. Without a
// proxy host the usual proxy environment variables apply.
func NewFinderHTTPClient(cfg Config) *FinderHTTPClient {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConns:        10,
		DisableCompression:  true,
	}
	transportOptions(cfg)(transport)
	return &FinderHTTPClient{
		client: &http.Client{
			Timeout:   cfg.Timeout(),
			Transport: transport,
		},
		transport: transport,
		userAgent: cfg.UserAgent(),
	}
}

// NewAWSHTTPClient gives the AWS SDK the same proxy and TLS behaviour. The SDK
// needs a buildable client so it can add a custom CA bundle on top.
func NewAWSHTTPClient(cfg Config) *awshttp.BuildableClient {
	return awshttp.NewBuildableClient().
		WithTransportOptions(transportOptions(cfg)).
		WithTimeout(cfg.Timeout())
}

func transportOptions(cfg Config) func(*http.Transport) {
	return func(tr *http.Transport) {
		tr.Proxy = http.ProxyFromEnvironment
		if cfg.ProxyHost() != "" {
			tr.Proxy = http.ProxyURL(ProxyURL(cfg.ProxyHost(), cfg.ProxyPort()))
		}
		if tr.TLSClientConfig == nil {
			tr.TLSClientConfig = &tls.Config{}
		}
		tr.TLSClientConfig.InsecureSkipVerify = cfg.InsecureSkipVerifyTLS()
	}
}

func ProxyURL(host string, port int) *url.URL {
	return &url.URL{Scheme: "http", Host: net.JoinHostPort(host, strconv.Itoa(port))}
}

func (f *FinderHTTPClient) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", f.userAgent)
	return f.client.Do(req)
}

// Close drops pooled connections. The client must not be used afterwards.
func (f *FinderHTTPClient) Close() {
	f.transport.CloseIdleConnections()
}
