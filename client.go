// Package gdelt is a streaming client for the GDELT Project's published
// datasets: events v2, event mentions v2, the Global Knowledge Graph v2, and
// web ngrams 3.0. Records come from the 15-minute archive files on
// data.gdeltproject.org, with an optional BigQuery path over the public
// gdelt-bq tables used as a forced source or as a fallback when the file
// server is throttled.
package gdelt

import (
	"net/http"

	"github.com/gdeltlab/gdelt-go/internal/bqsource"
	"github.com/gdeltlab/gdelt-go/internal/config"
	"github.com/gdeltlab/gdelt-go/internal/diskcache"
	"github.com/gdeltlab/gdelt-go/internal/fetcher"
	"github.com/gdeltlab/gdelt-go/internal/filesource"
	"github.com/gdeltlab/gdelt-go/internal/httpclient"
	"github.com/gdeltlab/gdelt-go/internal/masterlist"
)

// Client is the entry point. It owns the HTTP transport unless one was
// injected, the on-disk cache, and the master file-list index. Safe for
// concurrent use; create one per process and share it.
type Client struct {
	settings config.Settings
	hc       *httpclient.Client
	cache    *diskcache.Cache
	list     *masterlist.List
	bq       *bqsource.Source
	fetch    *fetcher.Fetcher
}

// Option configures NewClient.
type Option func(*clientOptions)

type clientOptions struct {
	configFile string
	transport  http.RoundTripper
	overrides  []config.Override
}

// WithConfigFile loads settings from a YAML file before applying the
// environment and explicit options.
func WithConfigFile(path string) Option {
	return func(o *clientOptions) { o.configFile = path }
}

// WithTransport injects a shared HTTP transport. The client will not close
// it.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *clientOptions) { o.transport = rt }
}

// WithBigQueryProject enables the warehouse source, billing to project.
func WithBigQueryProject(project string) Option {
	return func(o *clientOptions) {
		o.overrides = append(o.overrides, func(s *config.Settings) {
			s.BigQueryProject = project
		})
	}
}

// WithBigQueryCredentials points the warehouse source at a service-account
// key file.
func WithBigQueryCredentials(path string) Option {
	return func(o *clientOptions) {
		o.overrides = append(o.overrides, func(s *config.Settings) {
			s.BigQueryCredentialsPath = path
		})
	}
}

// WithCacheDir overrides the on-disk cache location.
func WithCacheDir(dir string) Option {
	return func(o *clientOptions) {
		o.overrides = append(o.overrides, func(s *config.Settings) {
			s.CacheDir = dir
		})
	}
}

// WithValidateCodes toggles country and theme code validation at filter
// construction.
func WithValidateCodes(on bool) Option {
	return func(o *clientOptions) {
		o.overrides = append(o.overrides, func(s *config.Settings) {
			s.ValidateCodes = on
		})
	}
}

// WithIncludeTranslated sets the default for filters that leave the flag nil.
func WithIncludeTranslated(on bool) Option {
	return func(o *clientOptions) {
		o.overrides = append(o.overrides, func(s *config.Settings) {
			s.IncludeTranslated = on
		})
	}
}

// NewClient resolves settings (defaults, then config file, then GDELT_
// environment variables, then options) and wires the sources.
func NewClient(opts ...Option) (*Client, error) {
	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}

	settings, err := config.Load(o.configFile, o.overrides...)
	if err != nil {
		return nil, err
	}

	hc := httpclient.New(httpclient.Config{
		Timeout:               settings.Timeout,
		MaxConcurrentRequests: settings.MaxConcurrentRequests,
		RequestsPerSecond:     settings.RequestsPerSecond,
		Transport:             o.transport,
	})

	cache, err := diskcache.New(
		settings.CacheDir,
		settings.CacheTTL,
		httpclient.NewRetry(hc, settings.MaxRetries),
	)
	if err != nil {
		hc.Close()
		return nil, err
	}

	list := masterlist.New(masterlist.Config{
		TTL:        settings.MasterFileListTTL,
		PersistDir: settings.CacheDir,
	}, hc)

	files := filesource.New(filesource.Config{
		MaxConcurrentDownloads: settings.MaxConcurrentDownloads,
		DecompressedSizeCap:    settings.DecompressedSizeCap,
	}, list, cache)

	bq := bqsource.New(bqsource.Config{
		ProjectID:       settings.BigQueryProject,
		CredentialsPath: settings.BigQueryCredentialsPath,
	})

	return &Client{
		settings: settings,
		hc:       hc,
		cache:    cache,
		list:     list,
		bq:       bq,
		fetch:    fetcher.New(files, bq),
	}, nil
}

// BigQueryConfigured reports whether the warehouse source is available.
func (c *Client) BigQueryConfigured() bool { return c.bq.Configured() }

// Stats are cumulative counters across the client's lifetime.
type Stats struct {
	// Records yielded to consumers across all streams.
	Records int64
	// Failures recorded across all streams (buckets and queries).
	Failures int64
	// Fallbacks counts reroutes from the file path to BigQuery.
	Fallbacks int64
	// BytesBilled is the total BigQuery bytes processed this session.
	BytesBilled int64
}

func (c *Client) Stats() Stats {
	s := c.fetch.Stats()
	return Stats{
		Records:     s.Records,
		Failures:    s.Failures,
		Fallbacks:   s.Fallbacks,
		BytesBilled: s.BytesBilled,
	}
}

// Close releases the transport (when owned) and the BigQuery client.
func (c *Client) Close() error {
	err := c.bq.Close()
	c.hc.Close()
	return err
}

func (c *Client) filterEnv() filterEnv {
	return filterEnv{
		validateCodes:     c.settings.ValidateCodes,
		includeTranslated: c.settings.IncludeTranslated,
	}
}
