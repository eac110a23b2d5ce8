// Package application wires registries, query fixtures, and the dispatch
// executor into full topology comparison experiments.
package application

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-switchboard/internal/domain"
)

//go:embed default_registry.yaml
var defaultRegistryYAML []byte

// RegistryLoader provides YAML parsing, validation, and caching for domain
// registries, transforming declarative registry files into immutable
// Registry values ready for topology construction.
// Use RegistryLoader to load registries from files or readers while
// benefiting from SHA256-based caching and comprehensive validation.
type RegistryLoader struct {
	// validator performs struct field validation and custom validation
	// rules for registry configurations.
	validator *validator.Validate
	// cache stores built registries indexed by SHA256 hash of the
	// normalized source config to avoid rebuilding identical registries.
	cache map[string]*domain.Registry
	// cacheMu provides thread-safe access to the cache map.
	cacheMu sync.RWMutex
	// sf prevents duplicate registry construction when multiple
	// goroutines request the same registry simultaneously.
	sf singleflight.Group
}

// NewRegistryLoader creates a registry loader with validation capabilities
// and an empty cache.
// NewRegistryLoader returns an error if validator registration fails.
func NewRegistryLoader() (*RegistryLoader, error) {
	v := validator.New()

	if err := registerCustomValidators(v); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	return &RegistryLoader{
		validator: v,
		cache:     make(map[string]*domain.Registry),
	}, nil
}

// LoadDefault builds the registry embedded in the binary: the full
// organizational domain set the comparison harness ships with.
func (rl *RegistryLoader) LoadDefault() (*domain.Registry, error) {
	return rl.load(defaultRegistryYAML)
}

// LoadFromFile loads and builds a domain registry from a YAML file,
// utilizing SHA256-based caching to avoid rebuilding identical files.
// LoadFromFile returns an error if file reading, parsing, validation,
// or registry construction fails.
func (rl *RegistryLoader) LoadFromFile(path string) (*domain.Registry, error) {
	// Clean the path to prevent directory traversal attacks.
	cleanPath := filepath.Clean(path)

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return rl.load(data)
}

// LoadFromReader loads and builds a domain registry from an io.Reader,
// supporting any source that implements the Reader interface.
// LoadFromReader returns an error if reading, parsing, validation,
// or registry construction fails.
func (rl *RegistryLoader) LoadFromReader(r io.Reader) (*domain.Registry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}

	return rl.load(data)
}

// load is the common implementation for building registries from byte
// data, utilizing singleflight to prevent duplicate construction and
// SHA256-based caching for efficiency. Cached registries are shared;
// they are immutable by construction so sharing is safe.
func (rl *RegistryLoader) load(data []byte) (*domain.Registry, error) {
	// Parse YAML first to normalize it before hashing.
	config, err := rl.parseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	hash, err := rl.calculateConfigHash(config)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate hash: %w", err)
	}

	v, err, _ := rl.sf.Do(hash, func() (any, error) {
		// Check cache inside singleflight to handle the race between a
		// cache check and group execution.
		if reg, ok := rl.getCachedRegistry(hash); ok {
			return reg, nil
		}

		if err := rl.validateConfig(config); err != nil {
			return nil, fmt.Errorf("validation failed: %w", err)
		}

		reg, err := domain.NewRegistry(config.Domains, config.SharedHandlers)
		if err != nil {
			return nil, fmt.Errorf("failed to build registry: %w", err)
		}

		rl.cacheRegistry(hash, reg)

		return reg, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Registry), nil
}

// parseYAML unmarshals YAML byte data into a structured RegistryConfig.
// parseYAML uses strict decoding to detect unknown fields, preventing
// registry typos from being silently ignored.
func (rl *RegistryLoader) parseYAML(data []byte) (*RegistryConfig, error) {
	var config RegistryConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Strict mode - fail on unknown fields.

	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("YAML decode failed: %w", err)
	}
	return &config, nil
}

// validateConfig performs comprehensive validation on a parsed registry
// configuration, including both struct field validation and semantic
// validation of relationships between configuration elements.
func (rl *RegistryLoader) validateConfig(config *RegistryConfig) error {
	if err := rl.validator.Struct(config); err != nil {
		return fmt.Errorf("struct validation failed: %w", err)
	}

	if err := rl.validateSemantics(config); err != nil {
		return fmt.Errorf("semantic validation failed: %w", err)
	}

	return nil
}

// validateSemantics performs registry-specific validation rules that
// cannot be expressed through struct tags: domain name uniqueness,
// per-domain leaf handler uniqueness, and override reference integrity.
// Leaf handlers without any description are deliberately legal; they
// receive placeholder descriptions at lookup time.
func (rl *RegistryLoader) validateSemantics(config *RegistryConfig) error {
	domainNames := make(map[string]struct{}, len(config.Domains))

	for _, d := range config.Domains {
		if _, exists := domainNames[d.Name]; exists {
			return fmt.Errorf("duplicate domain %q", d.Name)
		}
		domainNames[d.Name] = struct{}{}

		leafNames := make(map[string]struct{}, len(d.LeafHandlers))
		for _, leaf := range d.LeafHandlers {
			if _, exists := leafNames[leaf]; exists {
				return fmt.Errorf("domain %q repeats leaf handler %q", d.Name, leaf)
			}
			leafNames[leaf] = struct{}{}
		}

		for leaf := range d.Handlers {
			if _, exists := leafNames[leaf]; !exists {
				return fmt.Errorf("domain %q overrides unknown leaf handler %q", d.Name, leaf)
			}
		}
	}

	return nil
}

// calculateConfigHash computes the SHA256 hash of a normalized
// RegistryConfig for cache indexing, ensuring semantically identical
// configurations produce the same hash regardless of whitespace or key
// ordering differences.
func (rl *RegistryLoader) calculateConfigHash(config *RegistryConfig) (string, error) {
	// Normalize the config by re-encoding it with consistent formatting.
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(config); err != nil {
		return "", fmt.Errorf("failed to encode config for hashing: %w", err)
	}

	hash := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(hash[:]), nil
}

// getCachedRegistry attempts to retrieve a previously built registry from
// the cache using its SHA256 hash as the lookup key.
// getCachedRegistry is safe for concurrent use.
func (rl *RegistryLoader) getCachedRegistry(hash string) (*domain.Registry, bool) {
	rl.cacheMu.RLock()
	defer rl.cacheMu.RUnlock()

	reg, ok := rl.cache[hash]
	return reg, ok
}

// cacheRegistry stores a built registry in the cache indexed by its
// source config's SHA256 hash.
// cacheRegistry is safe for concurrent use.
func (rl *RegistryLoader) cacheRegistry(hash string, reg *domain.Registry) {
	rl.cacheMu.Lock()
	defer rl.cacheMu.Unlock()

	rl.cache[hash] = reg
}

// ClearCache removes all cached registries, forcing subsequent loads to
// rebuild from source.
// ClearCache is safe for concurrent use.
func (rl *RegistryLoader) ClearCache() {
	rl.cacheMu.Lock()
	defer rl.cacheMu.Unlock()

	rl.cache = make(map[string]*domain.Registry)
}

// registerCustomValidators registers domain-specific validation functions
// with the validator instance, including semantic version validation and
// experiment-specific rules.
func registerCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("semver", validateSemver); err != nil {
		return fmt.Errorf("failed to register semver validator: %w", err)
	}

	if err := RegisterExperimentValidators(v); err != nil {
		return fmt.Errorf("failed to register experiment validators: %w", err)
	}

	return nil
}

// validateSemver validates that a string follows semantic versioning
// format (X.Y.Z where X, Y, Z are non-negative integers).
func validateSemver(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	var major, minor, patch int
	n, err := fmt.Sscanf(value, "%d.%d.%d", &major, &minor, &patch)
	return err == nil && n == 3
}
