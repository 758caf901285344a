// Package config resolves client settings from explicit overrides, the
// environment (GDELT_ prefix, case-insensitive), an optional YAML config
// file, and built-in defaults; the highest source wins. Load returns a value,
// not a pointer: the snapshot is immutable once resolved.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gdeltlab/gdelt-go/internal/gdelterr"
)

// Settings is the exhaustive set of client knobs.
type Settings struct {
	// BigQuery. Project must be set for the warehouse source to be available.
	BigQueryProject         string
	BigQueryCredentialsPath string

	// Cache.
	CacheDir string
	CacheTTL time.Duration

	// MasterFileListTTL governs how long the in-memory inventory index is
	// served before a refresh.
	MasterFileListTTL time.Duration

	// Transport.
	MaxRetries            int
	Timeout               time.Duration
	MaxConcurrentRequests int
	RequestsPerSecond     float64 // 0 = unlimited

	// File source.
	MaxConcurrentDownloads int

	// Behavior flags.
	FallbackToBigQuery bool
	ValidateCodes      bool
	IncludeTranslated  bool

	// DecompressedSizeCap bounds the total bytes any single archive may
	// decompress to. Guards against decompression bombs.
	DecompressedSizeCap int64
}

// Defaults returns the built-in settings per the published contract.
func Defaults() Settings {
	return Settings{
		CacheDir:               defaultCacheDir(),
		CacheTTL:               time.Hour,
		MasterFileListTTL:      5 * time.Minute,
		MaxRetries:             3,
		Timeout:                30 * time.Second,
		MaxConcurrentRequests:  10,
		MaxConcurrentDownloads: 10,
		FallbackToBigQuery:     true,
		ValidateCodes:          true,
		IncludeTranslated:      true,
		DecompressedSizeCap:    500 << 20, // 500 MB
	}
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "gdelt")
	}
	return filepath.Join(os.TempDir(), "gdelt-cache")
}

// Override is applied last, after file and environment resolution.
type Override func(*Settings)

// Load resolves settings. configPath may be empty; a missing file is not an
// error, a malformed one is.
func Load(configPath string, overrides ...Override) (Settings, error) {
	s := Defaults()

	if configPath != "" {
		if err := applyFile(&s, configPath); err != nil {
			return Settings{}, err
		}
	}
	applyEnv(&s)
	for _, o := range overrides {
		o(&s)
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate rejects settings no component could run with.
func (s Settings) Validate() error {
	if s.CacheDir == "" {
		return fmt.Errorf("%w: cache_dir is empty", gdelterr.ErrConfiguration)
	}
	if s.MaxConcurrentRequests <= 0 || s.MaxConcurrentDownloads <= 0 {
		return fmt.Errorf("%w: concurrency caps must be positive", gdelterr.ErrConfiguration)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", gdelterr.ErrConfiguration)
	}
	if s.MaxRetries < 0 {
		return fmt.Errorf("%w: max_retries must be >= 0", gdelterr.ErrConfiguration)
	}
	if s.DecompressedSizeCap <= 0 {
		return fmt.Errorf("%w: decompressed_size_cap must be positive", gdelterr.ErrConfiguration)
	}
	if s.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: requests_per_second must be >= 0", gdelterr.ErrConfiguration)
	}
	return nil
}

// BigQueryConfigured reports whether the warehouse source can be constructed.
func (s Settings) BigQueryConfigured() bool {
	return s.BigQueryProject != ""
}

func applyFile(s *Settings, path string) error {
	path = filepath.Clean(path)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: read config file %s: %v", gdelterr.ErrConfiguration, path, err)
	}
	var raw fileSettings
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: parse config file %s: %v", gdelterr.ErrConfiguration, path, err)
	}
	raw.apply(s)
	return nil
}

// fileSettings mirrors Settings with string durations ("30s", "5m") so the
// YAML stays human-writable. Pointer fields distinguish "absent" from "zero".
type fileSettings struct {
	BigQueryProject         *string  `yaml:"bigquery_project"`
	BigQueryCredentialsPath *string  `yaml:"bigquery_credentials_path"`
	CacheDir                *string  `yaml:"cache_dir"`
	CacheTTL                *string  `yaml:"cache_ttl"`
	MasterFileListTTL       *string  `yaml:"master_file_list_ttl"`
	MaxRetries              *int     `yaml:"max_retries"`
	Timeout                 *string  `yaml:"timeout"`
	MaxConcurrentRequests   *int     `yaml:"max_concurrent_requests"`
	RequestsPerSecond       *float64 `yaml:"requests_per_second"`
	MaxConcurrentDownloads  *int     `yaml:"max_concurrent_downloads"`
	FallbackToBigQuery      *bool    `yaml:"fallback_to_bigquery"`
	ValidateCodes           *bool    `yaml:"validate_codes"`
	IncludeTranslated       *bool    `yaml:"include_translated"`
	DecompressedSizeCap     *int64   `yaml:"decompressed_size_cap"`
}

func (f fileSettings) apply(s *Settings) {
	setStr := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setDur := func(dst *time.Duration, src *string) {
		if src == nil {
			return
		}
		if d, err := time.ParseDuration(*src); err == nil {
			*dst = d
		} else if secs, err := strconv.Atoi(*src); err == nil {
			*dst = time.Duration(secs) * time.Second
		}
	}
	setStr(&s.BigQueryProject, f.BigQueryProject)
	setStr(&s.BigQueryCredentialsPath, f.BigQueryCredentialsPath)
	setStr(&s.CacheDir, f.CacheDir)
	setDur(&s.CacheTTL, f.CacheTTL)
	setDur(&s.MasterFileListTTL, f.MasterFileListTTL)
	if f.MaxRetries != nil {
		s.MaxRetries = *f.MaxRetries
	}
	setDur(&s.Timeout, f.Timeout)
	if f.MaxConcurrentRequests != nil {
		s.MaxConcurrentRequests = *f.MaxConcurrentRequests
	}
	if f.RequestsPerSecond != nil {
		s.RequestsPerSecond = *f.RequestsPerSecond
	}
	if f.MaxConcurrentDownloads != nil {
		s.MaxConcurrentDownloads = *f.MaxConcurrentDownloads
	}
	if f.FallbackToBigQuery != nil {
		s.FallbackToBigQuery = *f.FallbackToBigQuery
	}
	if f.ValidateCodes != nil {
		s.ValidateCodes = *f.ValidateCodes
	}
	if f.IncludeTranslated != nil {
		s.IncludeTranslated = *f.IncludeTranslated
	}
	if f.DecompressedSizeCap != nil {
		s.DecompressedSizeCap = *f.DecompressedSizeCap
	}
}

func applyEnv(s *Settings) {
	if v := getEnv("GDELT_BIGQUERY_PROJECT"); v != "" {
		s.BigQueryProject = v
	}
	if v := getEnv("GDELT_BIGQUERY_CREDENTIALS_PATH"); v != "" {
		s.BigQueryCredentialsPath = v
	}
	if v := getEnv("GDELT_CACHE_DIR"); v != "" {
		s.CacheDir = v
	}
	envDuration("GDELT_CACHE_TTL", &s.CacheTTL)
	envDuration("GDELT_MASTER_FILE_LIST_TTL", &s.MasterFileListTTL)
	envInt("GDELT_MAX_RETRIES", &s.MaxRetries)
	envDuration("GDELT_TIMEOUT", &s.Timeout)
	envInt("GDELT_MAX_CONCURRENT_REQUESTS", &s.MaxConcurrentRequests)
	envFloat("GDELT_REQUESTS_PER_SECOND", &s.RequestsPerSecond)
	envInt("GDELT_MAX_CONCURRENT_DOWNLOADS", &s.MaxConcurrentDownloads)
	envBool("GDELT_FALLBACK_TO_BIGQUERY", &s.FallbackToBigQuery)
	envBool("GDELT_VALIDATE_CODES", &s.ValidateCodes)
	envBool("GDELT_INCLUDE_TRANSLATED", &s.IncludeTranslated)
	envInt64("GDELT_DECOMPRESSED_SIZE_CAP", &s.DecompressedSizeCap)
}

// getEnv is case-insensitive on the key: GDELT_CACHE_DIR and gdelt_cache_dir
// both resolve.
func getEnv(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if v := os.Getenv(strings.ToLower(key)); v != "" {
		return v
	}
	return ""
}

func envInt(key string, dst *int) {
	if v := getEnv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envInt64(key string, dst *int64) {
	if v := getEnv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := getEnv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envBool(key string, dst *bool) {
	if v := getEnv(key); v != "" {
		*dst = v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes")
	}
}

// envDuration accepts either a Go duration string ("45s") or bare seconds.
func envDuration(key string, dst *time.Duration) {
	v := getEnv(key)
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
		return
	}
	if secs, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(secs) * time.Second
	}
}
