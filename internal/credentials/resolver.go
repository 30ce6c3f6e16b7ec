// Package credentials decides where the market-data API key comes from.
//
// A process without a host-assigned instance id is treated as a developer
// machine and reads the key from a local secrets file. Hosted processes read
// it from an environment variable.
package credentials

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// ErrConfigurationMissing is returned when the selected source has no key.
var ErrConfigurationMissing = errors.New("configuration missing")

// Origin names the source a key was resolved from.
type Origin string

const (
	OriginLocal  Origin = "local"
	OriginHosted Origin = "hosted"
)

// Source is a keyed lookup over some configuration store.
type Source interface {
	Lookup(key string) (string, bool)
}

// EnvSource looks keys up in the process environment.
type EnvSource struct{}

func (EnvSource) Lookup(key string) (string, bool) { return os.LookupEnv(key) }

// MapSource is a fixed set of values.
type MapSource map[string]string

func (m MapSource) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// SecretsFile reads a dotenv-formatted file on every lookup. The values are
// never exported into the process environment.
type SecretsFile struct {
	Path string
}

func (f SecretsFile) Lookup(key string) (string, bool) {
	values, err := f.read()
	if err != nil {
		return "", false
	}
	v, ok := values[key]
	return v, ok
}

// Load parses the file once and returns its values.
func (f SecretsFile) Load() (MapSource, error) {
	values, err := f.read()
	if err != nil {
		return nil, err
	}
	return MapSource(values), nil
}

func (f SecretsFile) read() (map[string]string, error) {
	if f.Path == "" {
		return nil, fmt.Errorf("secrets file path is empty")
	}
	return godotenv.Read(f.Path)
}

// Loader is a Source that can be read in full, so a resolution parses it once
// and can report why it could not be read.
type Loader interface {
	Source
	Load() (MapSource, error)
}

// Config names the keys and files the resolver consults.
type Config struct {
	InstanceIDVar string // set by the host, absent on developer machines
	SecretsFile   string
	SecretKey     string // key inside the secrets file
	EnvVar        string // env variable holding the key when hosted
}

// Resolver picks the credential source for the current environment.
type Resolver struct {
	cfg     Config
	env     Source
	secrets Source
}

// NewResolver returns a resolver backed by the process environment and the
// configured secrets file.
func NewResolver(cfg Config) *Resolver {
	return &Resolver{
		cfg:     cfg,
		env:     EnvSource{},
		secrets: SecretsFile{Path: cfg.SecretsFile},
	}
}

// NewResolverWithSources is NewResolver with explicit lookups, used by tests
// and embedding hosts.
func NewResolverWithSources(cfg Config, env, secrets Source) *Resolver {
	return &Resolver{cfg: cfg, env: env, secrets: secrets}
}

// Hosted reports whether the host instance id is present.
func (r *Resolver) Hosted() bool {
	if r.cfg.InstanceIDVar == "" {
		return false
	}
	v, ok := r.env.Lookup(r.cfg.InstanceIDVar)
	return ok && strings.TrimSpace(v) != ""
}

// Resolve returns a non-empty API key and where it came from.
func (r *Resolver) Resolve() (string, Origin, error) {
	if r.Hosted() {
		key, err := lookupRequired(r.env, r.cfg.EnvVar, "environment variable")
		return key, OriginHosted, err
	}
	secrets := r.secrets
	if l, ok := secrets.(Loader); ok {
		values, err := l.Load()
		if err != nil {
			return "", OriginLocal, fmt.Errorf("%w: read secrets: %v", ErrConfigurationMissing, err)
		}
		secrets = values
	}
	key, err := lookupRequired(secrets, r.cfg.SecretKey, "secrets file key")
	return key, OriginLocal, err
}

func lookupRequired(src Source, key, what string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: no %s name configured", ErrConfigurationMissing, what)
	}
	v, ok := src.Lookup(key)
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s %q is not set", ErrConfigurationMissing, what, key)
	}
	return v, nil
}
