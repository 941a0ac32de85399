package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tanq16/alpnfinder/internal/finder"
	"github.com/tanq16/alpnfinder/internal/output"
	"github.com/tanq16/alpnfinder/internal/utils"
)

type rootOptions struct {
	destinationFile string
	proxyHost       string
	proxyPort       int
	mavenRepository string
	mappingURL      string
	javaVersion     string
	insecure        bool
	timeout         time.Duration
	awsProfile      string
	s3Endpoint      string
	userAgent       string
	configFile      string
	debug           bool
}

// usageError makes the command print its usage and exit cleanly.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func newRootCmd() *cobra.Command {
	o := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "alpnfinder",
		Short: "Find and download the ALPN boot jar matching a java version",
		Long: `alpnfinder looks up the ALPN boot version matching a java version in a
version mapping file, then downloads alpn-boot-<version>.jar from a maven
repository. Repository and mapping locations may be http(s):// or s3:// URLs.

TLS certificates are not verified unless --insecure=false is given.`,
		Version:       utils.ToolVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return &usageError{fmt.Errorf("unexpected arguments: %v", args)}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			utils.InitLogger(o.debug)
			cfg, err := o.config(cmd)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err}
	})

	flags := cmd.Flags()
	flags.StringVarP(&o.destinationFile, "destination-file", "d", utils.DefaultDestinationFile, "Destination file for the ALPN boot jar")
	flags.StringVar(&o.proxyHost, "proxy-host", "", "HTTP proxy host to use if any")
	flags.IntVar(&o.proxyPort, "proxy-port", 0, "HTTP proxy port (used with --proxy-host)")
	flags.StringVarP(&o.mavenRepository, "maven-repository", "m", utils.DefaultMavenRepository, "Maven repository base URL (http(s):// or s3://bucket/prefix)")
	flags.StringVarP(&o.mappingURL, "mapping-url", "u", utils.DefaultMappingURL, "Java to ALPN version mapping URL (http(s):// or s3://bucket/key)")
	flags.StringVarP(&o.javaVersion, "java-version", "j", "", "Java version to look up (default: local java, else the Go runtime version)")
	flags.BoolVar(&o.insecure, "insecure", true, "Trust any TLS certificate")
	flags.DurationVarP(&o.timeout, "timeout", "t", 0, "Per request timeout, 0 means no timeout (eg. 30s, 2m)")
	flags.StringVar(&o.awsProfile, "aws-profile", "", "AWS shared config profile for s3:// URLs")
	flags.StringVar(&o.s3Endpoint, "s3-endpoint", "", "Custom endpoint for S3 compatible stores")
	flags.StringVarP(&o.userAgent, "user-agent", "a", utils.ToolUserAgent(), "User agent")
	flags.StringVarP(&o.configFile, "config", "c", "", "YAML file providing defaults for the flags above")
	flags.BoolVar(&o.debug, "debug", false, "Enable debug logging")
	return cmd
}

// config layers explicitly set flags over the YAML file over the defaults.
func (o *rootOptions) config(cmd *cobra.Command) (utils.Config, error) {
	var opts []utils.Option
	var proxyHost string
	var proxyPort int
	if o.configFile != "" {
		fc, err := utils.LoadFileConfig(o.configFile)
		if err != nil {
			return utils.Config{}, err
		}
		fileOpts, err := fc.Options()
		if err != nil {
			return utils.Config{}, &usageError{err}
		}
		opts = append(opts, fileOpts...)
		proxyHost, proxyPort = fc.ProxyHost, fc.ProxyPort
		log.Debug().Str("op", "cmd/config").Msgf("Loaded config file %s", o.configFile)
	}
	flags := cmd.Flags()
	if flags.Changed("destination-file") {
		opts = append(opts, utils.WithDestinationFile(o.destinationFile))
	}
	if flags.Changed("proxy-host") {
		proxyHost = o.proxyHost
	}
	if flags.Changed("proxy-port") {
		proxyPort = o.proxyPort
	}
	if proxyHost != "" || proxyPort != 0 {
		opts = append(opts, utils.WithProxy(proxyHost, proxyPort))
	}
	if flags.Changed("maven-repository") {
		opts = append(opts, utils.WithMavenRepository(o.mavenRepository))
	}
	if flags.Changed("mapping-url") {
		opts = append(opts, utils.WithMappingURL(o.mappingURL))
	}
	if flags.Changed("java-version") {
		opts = append(opts, utils.WithJavaVersion(o.javaVersion))
	}
	if flags.Changed("insecure") {
		opts = append(opts, utils.WithInsecureSkipVerifyTLS(o.insecure))
	}
	if flags.Changed("timeout") {
		opts = append(opts, utils.WithTimeout(o.timeout))
	}
	if flags.Changed("aws-profile") {
		opts = append(opts, utils.WithAWSProfile(o.awsProfile))
	}
	if flags.Changed("s3-endpoint") {
		opts = append(opts, utils.WithS3Endpoint(o.s3Endpoint))
	}
	if flags.Changed("user-agent") {
		opts = append(opts, utils.WithUserAgent(o.userAgent))
	}
	cfg, err := utils.NewConfig(opts...)
	if err != nil {
		return utils.Config{}, &usageError{err}
	}
	return cfg, nil
}

func run(ctx context.Context, cfg utils.Config) error {
	f := finder.New(cfg)
	defer f.Close()

	version, err := f.Resolve(ctx)
	if err != nil {
		return err
	}
	output.PrintInfo(fmt.Sprintf("Java %s uses alpn-boot %s", cfg.JavaVersion(), version))
	if err := f.Download(ctx, version); err != nil {
		var invalid *utils.InvalidDestinationError
		if errors.As(err, &invalid) {
			return &usageError{err}
		}
		return err
	}
	output.PrintSuccess(fmt.Sprintf("All done, alpn-boot %s downloaded as %s. Enjoy HTTP/2", version, output.FDetail(cfg.DestinationFile())))
	return nil
}

// Run executes the command line and returns the process exit code.
func Run(ctx context.Context, args []string, out io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(out)
	output.SetOutput(out)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var usage *usageError
	if errors.As(err, &usage) {
		output.PrintWarning(usage.Error())
		if err := cmd.Usage(); err != nil {
			output.PrintError(err.Error())
			return 1
		}
		return 0
	}
	output.PrintError(err.Error())
	return 1
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := Run(ctx, os.Args[1:], os.Stdout)
	stop()
	os.Exit(code)
}
