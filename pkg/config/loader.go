package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// configCache stores parsed configurations keyed by type name.
type configCache struct {
	mu     sync.RWMutex
	values map[string]any
	onces  map[string]*sync.Once
}

var (
	globalCache = &configCache{
		values: make(map[string]any),
		onces:  make(map[string]*sync.Once),
	}

	defaultEnvLoaded sync.Once
)

// Load parses environment variables into v once per configuration type and
// returns the cached copy on later calls.
//
// The default .env file is read on first use when it exists.
//
// Example:
//
//	type RedisConfig struct {
//		URL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
//	}
//
//	var cfg RedisConfig
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T) error {
	defaultEnvLoaded.Do(func() {
		_ = godotenv.Load()
	})
	if v == nil {
		return ErrNilPointer
	}

	typeName := getTypeName[T]()

	globalCache.mu.RLock()
	if cached, ok := globalCache.values[typeName]; ok {
		*v = cached.(T)
		globalCache.mu.RUnlock()
		return nil
	}
	globalCache.mu.RUnlock()

	globalCache.mu.Lock()
	once, exists := globalCache.onces[typeName]
	if !exists {
		once = new(sync.Once)
		globalCache.onces[typeName] = once
	}
	globalCache.mu.Unlock()

	var err error
	once.Do(func() {
		if parseErr := env.Parse(v); parseErr != nil {
			err = errors.Join(ErrParsingConfig, parseErr)
			return
		}

		globalCache.mu.Lock()
		globalCache.values[typeName] = *v
		globalCache.mu.Unlock()
	})
	if err != nil {
		// Allow a retry once the environment is fixed.
		globalCache.mu.Lock()
		delete(globalCache.onces, typeName)
		globalCache.mu.Unlock()
		return err
	}

	globalCache.mu.RLock()
	defer globalCache.mu.RUnlock()
	if cached, ok := globalCache.values[typeName]; ok {
		*v = cached.(T)
		return nil
	}
	return ErrConfigNotLoaded
}

// MustLoad works like Load but panics on failure.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

// ResetCache forgets every cached configuration.
func ResetCache() {
	globalCache.mu.Lock()
	defer globalCache.mu.Unlock()
	globalCache.values = make(map[string]any)
	globalCache.onces = make(map[string]*sync.Once)
}

// LoadEnv reads the given .env files into the process environment.
// Variables that are already set are not overridden.
func LoadEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil {
		return errors.Join(ErrLoadingEnvFile, err)
	}
	return nil
}

// Option configures Parse.
type Option func(*parseOptions)

type parseOptions struct {
	prefix   string
	envFiles []string
	yamlFile string
	environ  map[string]string
}

// WithPrefix prepends prefix to every env key, e.g. "TRACKS_".
func WithPrefix(prefix string) Option {
	return func(o *parseOptions) { o.prefix = prefix }
}

// WithEnvFiles loads .env files before parsing.
func WithEnvFiles(paths ...string) Option {
	return func(o *parseOptions) { o.envFiles = append(o.envFiles, paths...) }
}

// WithYAMLFile reads a YAML file before applying environment variables.
// An empty path is ignored.
func WithYAMLFile(path string) Option {
	return func(o *parseOptions) { o.yamlFile = path }
}

// WithEnvironment replaces the process environment, mostly for tests.
func WithEnvironment(environ map[string]string) Option {
	return func(o *parseOptions) { o.environ = environ }
}

// Parse fills v without caching.
//
// Precedence, lowest first: envDefault tags, the YAML file, environment
// variables. Fields marked required must be present in the environment.
func Parse[T any](v *T, opts ...Option) error {
	if v == nil {
		return ErrNilPointer
	}

	o := &parseOptions{}
	for _, opt := range opts {
		opt(o)
	}

	if len(o.envFiles) > 0 {
		if err := LoadEnv(o.envFiles...); err != nil {
			return err
		}
	}

	envOpts := env.Options{Prefix: o.prefix, Environment: o.environ}
	if err := env.ParseWithOptions(v, envOpts); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	if o.yamlFile == "" {
		return nil
	}

	data, err := os.ReadFile(o.yamlFile)
	if err != nil {
		return errors.Join(ErrReadingFile, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return errors.Join(ErrParsingFile, err)
	}

	// Re-apply explicitly set variables on top of the file, without defaults.
	envOpts.DefaultValueTagName = "envDefaultDisabled"
	if err := env.ParseWithOptions(v, envOpts); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

func getTypeName[T any]() string {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		return fmt.Sprintf("%T", new(T))
	}
	return t.String()
}
