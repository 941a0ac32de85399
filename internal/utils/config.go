package utils

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is built once by NewConfig and never mutated afterwards.
type Config struct {
	destinationFile string
	proxyHost       string
	proxyPort       int
	mavenRepository string
	mappingURL      string
	javaVersion     string
	insecureTLS     bool
	timeout         time.Duration
	awsProfile      string
	s3Endpoint      string
	userAgent       string
}

type Option func(*Config)

func WithDestinationFile(path string) Option {
	return func(c *Config) { c.destinationFile = path }
}

func WithProxy(host string, port int) Option {
	return func(c *Config) {
		c.proxyHost = host
		c.proxyPort = port
	}
}

func WithMavenRepository(repo string) Option {
	return func(c *Config) { c.mavenRepository = repo }
}

func WithMappingURL(u string) Option {
	return func(c *Config) { c.mappingURL = u }
}

func WithJavaVersion(v string) Option {
	return func(c *Config) { c.javaVersion = v }
}

// WithInsecureSkipVerifyTLS makes the client trust any server certificate.
func WithInsecureSkipVerifyTLS(insecure bool) Option {
	return func(c *Config) { c.insecureTLS = insecure }
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) { c.timeout = timeout }
}

func WithAWSProfile(profile string) Option {
	return func(c *Config) { c.awsProfile = profile }
}

// WithS3Endpoint points s3:// URLs at an S3 compatible store instead of AWS.
func WithS3Endpoint(endpoint string) Option {
	return func(c *Config) { c.s3Endpoint = endpoint }
}

func WithUserAgent(ua string) Option {
	return func(c *Config) { c.userAgent = ua }
}

// NewConfig applies opts over the defaults. The java version falls back to
// the locally detected one when not given.
func NewConfig(opts ...Option) (Config, error) {
	c := Config{
		destinationFile: DefaultDestinationFile,
		mavenRepository: DefaultMavenRepository,
		mappingURL:      DefaultMappingURL,
		insecureTLS:     true,
		userAgent:       ToolUserAgent(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.userAgent == "" {
		c.userAgent = ToolUserAgent()
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	if c.javaVersion == "" {
		c.javaVersion = LocalJavaVersion()
	}
	return c, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.destinationFile) == "" {
		return fmt.Errorf("destination file cannot be empty")
	}
	if c.proxyPort < 0 || c.proxyPort > 65535 {
		return fmt.Errorf("invalid proxy port %d", c.proxyPort)
	}
	if c.proxyHost != "" && c.proxyPort == 0 {
		return fmt.Errorf("proxy port is required when proxy host %q is set", c.proxyHost)
	}
	if c.mavenRepository == "" {
		return fmt.Errorf("maven repository cannot be empty")
	}
	if c.mappingURL == "" {
		return fmt.Errorf("mapping url cannot be empty")
	}
	if c.timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	return nil
}

func (c Config) DestinationFile() string { return c.destinationFile }
func (c Config) ProxyHost() string { return c.proxyHost }
func (c Config) ProxyPort() int { return c.proxyPort }
func (c Config) MavenRepository() string { return c.mavenRepository }
func (c Config) MappingURL() string { return c.mappingURL }
func (c Config) JavaVersion() string { return c.javaVersion }
func (c Config) InsecureSkipVerifyTLS() bool { return c.insecureTLS }
func (c Config) Timeout() time.Duration { return c.timeout }
func (c Config) AWSProfile() string { return c.awsProfile }
func (c Config) S3Endpoint() string { return c.s3Endpoint }
func (c Config) UserAgent() string { return c.userAgent }

// FileConfig is the YAML form of the flags. Zero values mean "not set".
type FileConfig struct {
	DestinationFile string `yaml:"destination-file"`
	ProxyHost       string `yaml:"proxy-host"`
	ProxyPort       int    `yaml:"proxy-port"`
	MavenRepository string `yaml:"maven-repository"`
	MappingURL      string `yaml:"mapping-url"`
	JavaVersion     string `yaml:"java-version"`
	Insecure        *bool  `yaml:"insecure"`
	Timeout         string `yaml:"timeout"`
	AWSProfile      string `yaml:"aws-profile"`
	S3Endpoint      string `yaml:"s3-endpoint"`
	UserAgent       string `yaml:"user-agent"`
}

func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("error reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("error parsing config file %s: %w", path, err)
	}
	return fc, nil
}

// Options converts the set fields of the file into config options.
func (fc FileConfig) Options() ([]Option, error) {
	var opts []Option
	if fc.DestinationFile != "" {
		opts = append(opts, WithDestinationFile(fc.DestinationFile))
	}
	if fc.ProxyHost != "" || fc.ProxyPort != 0 {
		opts = append(opts, WithProxy(fc.ProxyHost, fc.ProxyPort))
	}
	if fc.MavenRepository != "" {
		opts = append(opts, WithMavenRepository(fc.MavenRepository))
	}
	if fc.MappingURL != "" {
		opts = append(opts, WithMappingURL(fc.MappingURL))
	}
	if fc.JavaVersion != "" {
		opts = append(opts, WithJavaVersion(fc.JavaVersion))
	}
	if fc.Insecure != nil {
		opts = append(opts, WithInsecureSkipVerifyTLS(*fc.Insecure))
	}
	if fc.Timeout != "" {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q in config file: %w", fc.Timeout, err)
		}
		opts = append(opts, WithTimeout(d))
	}
	if fc.AWSProfile != "" {
		opts = append(opts, WithAWSProfile(fc.AWSProfile))
	}
	if fc.S3Endpoint != "" {
		opts = append(opts, WithS3Endpoint(fc.S3Endpoint))
	}
	if fc.UserAgent != "" {
		opts = append(opts, WithUserAgent(fc.UserAgent))
	}
	return opts, nil
}
