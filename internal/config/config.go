package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// ArchivePattern matches the MSG.1 group archives picked up when
// MSG1_ARCHIVES is not set.
const ArchivePattern = "MSG1_*.tar"

// Config holds all service settings, populated from environment variables.
type Config struct {
	ArchiveDir string
	Archives   []string
	OutputPath string

	ChunkSize        int
	SeparateGroups   bool
	IncludeAuxiliary bool

	// Store tuning.
	StoreChunkRows int
	StoreCacheSize int64

	// Kafka publication is enabled when KafkaBrokers is non-empty.
	KafkaBrokers []string
	KafkaTopic   string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Remote collections, used by the validate command.
	RemoteBaseURL   string
	RemoteToken     string
	RemoteTimeout   time.Duration
	RemoteCacheSize int
}

// KafkaEnabled reports whether rows should also be published to Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	chunkSize, err := parsePositiveInt("CHUNK_SIZE", 25000)
	if err != nil {
		return nil, err
	}
	storeChunkRows, err := parsePositiveInt("STORE_CHUNK_ROWS", 5000)
	if err != nil {
		return nil, err
	}
	storeCacheSize, err := parsePositiveInt("STORE_CACHE_SIZE", 64<<20)
	if err != nil {
		return nil, err
	}
	remoteCacheSize, err := parsePositiveInt("REMOTE_CACHE_SIZE", 6)
	if err != nil {
		return nil, err
	}

	separateGroups, err := parseBool("SEPARATE_GROUPS", true)
	if err != nil {
		return nil, err
	}
	includeAuxiliary, err := parseBool("INCLUDE_AUXILIARY", false)
	if err != nil {
		return nil, err
	}

	remoteTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("REMOTE_TIMEOUT", "30s"))
	if err != nil || remoteTimeout <= 0 {
		return nil, errors.New("invalid REMOTE_TIMEOUT")
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	archiveDir := sharedcfg.EnvOrDefault("MSG1_ARCHIVE_DIR", ".")
	archives, err := resolveArchives(archiveDir, os.Getenv("MSG1_ARCHIVES"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ArchiveDir:       archiveDir,
		Archives:         archives,
		OutputPath:       sharedcfg.EnvOrDefault("OUTPUT_PATH", "./msg1-dataset"),
		ChunkSize:        chunkSize,
		SeparateGroups:   separateGroups,
		IncludeAuxiliary: includeAuxiliary,
		StoreChunkRows:   storeChunkRows,
		StoreCacheSize:   int64(storeCacheSize),
		KafkaBrokers:     brokers,
		KafkaTopic:       sharedcfg.EnvOrDefault("KAFKA_TOPIC", "msg1-records"),
		HTTPAddr:         sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:         sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:        sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:  shutdownTimeout,
		RemoteBaseURL:    strings.TrimRight(os.Getenv("REMOTE_BASE_URL"), "/"),
		RemoteToken:      os.Getenv("REMOTE_TOKEN"),
		RemoteTimeout:    remoteTimeout,
		RemoteCacheSize:  remoteCacheSize,
	}

	if cfg.OutputPath == "" {
		return nil, errors.New("OUTPUT_PATH is required")
	}
	if cfg.KafkaEnabled() && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_BROKERS is set but KAFKA_TOPIC is empty")
	}

	return cfg, nil
}

// resolveArchives splits an explicit comma list, or globs dir for the
// default archive pattern when the list is empty. Globbed names are sorted.
func resolveArchives(dir, list string) ([]string, error) {
	if list != "" {
		var names []string
		for _, name := range strings.Split(list, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
		return names, nil
	}

	matches, err := filepath.Glob(filepath.Join(dir, ArchivePattern))
	if err != nil {
		return nil, fmt.Errorf("glob MSG1_ARCHIVE_DIR: %w", err)
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, filepath.Base(m))
	}
	slices.Sort(names)
	return names, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer, got %q", key, s)
	}
	return n, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %q", key, s)
	}
	return b, nil
}
