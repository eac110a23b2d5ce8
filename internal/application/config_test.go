package application

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-switchboard/internal/topology"
)

// TestDefaultExperimentConfig verifies the default configuration passes its
// own validation rules and selects every topology.
func TestDefaultExperimentConfig(t *testing.T) {
	config := DefaultExperimentConfig()

	v := validator.New()
	require.NoError(t, RegisterExperimentValidators(v))
	require.NoError(t, v.Struct(config))

	kinds, err := config.Kinds()
	require.NoError(t, err)
	assert.Equal(t, []topology.Kind{topology.FlatDomain, topology.TwoLevel, topology.FlatLeaf}, kinds)
	assert.Equal(t, 1, config.Runs)
	assert.Equal(t, 120*time.Second, config.QueryTimeout())
}

// TestExperimentConfig_Validation exercises the struct rules on
// ExperimentConfig.
func TestExperimentConfig_Validation(t *testing.T) {
	v := validator.New()
	require.NoError(t, RegisterExperimentValidators(v))

	tests := []struct {
		name    string
		mutate  func(c *ExperimentConfig)
		wantErr bool
	}{
		{
			name:    "default is valid",
			mutate:  func(c *ExperimentConfig) {},
			wantErr: false,
		},
		{
			name:    "unknown topology",
			mutate:  func(c *ExperimentConfig) { c.Topologies = []string{"ring"} },
			wantErr: true,
		},
		{
			name:    "no topologies",
			mutate:  func(c *ExperimentConfig) { c.Topologies = nil },
			wantErr: true,
		},
		{
			name:    "zero runs",
			mutate:  func(c *ExperimentConfig) { c.Runs = 0 },
			wantErr: true,
		},
		{
			name:    "excessive runs",
			mutate:  func(c *ExperimentConfig) { c.Runs = 500 },
			wantErr: true,
		},
		{
			name:    "unknown provider",
			mutate:  func(c *ExperimentConfig) { c.Provider = "acme" },
			wantErr: true,
		},
		{
			name:    "empty provider allowed",
			mutate:  func(c *ExperimentConfig) { c.Provider = "" },
			wantErr: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultExperimentConfig()
			tt.mutate(&config)

			err := v.Struct(config)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestExperimentConfig_QueryTimeout verifies the duration fallback.
func TestExperimentConfig_QueryTimeout(t *testing.T) {
	config := ExperimentConfig{}
	assert.Equal(t, 120*time.Second, config.QueryTimeout())

	config.QueryTimeoutSeconds = 30
	assert.Equal(t, 30*time.Second, config.QueryTimeout())
}

// TestLoadExperimentConfigFromFile verifies the YAML overlay keeps
// defaults for absent keys.
func TestLoadExperimentConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "experiment.yaml")
	content := "topologies:\n  - flat_domain\nruns: 3\nprovider: openai\nsession_seed: exp42\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	config, err := LoadExperimentConfigFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"flat_domain"}, config.Topologies)
	assert.Equal(t, 3, config.Runs)
	assert.Equal(t, "openai", config.Provider)
	assert.Equal(t, "exp42", config.SessionSeed)
	assert.Equal(t, "results", config.OutputDir, "absent keys keep defaults")
	assert.Equal(t, 120*time.Second, config.QueryTimeout(), "absent timeout keeps default")
	assert.NoError(t, config.Validate())
}

func TestLoadExperimentConfigFromFile_UnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "experiment.yaml")
	require.NoError(t, os.WriteFile(path, []byte("runz: 3\n"), 0o600))

	_, err := LoadExperimentConfigFromFile(path)
	assert.Error(t, err, "unknown fields must be rejected")
}

func TestLoadExperimentConfigFromFile_MissingFile(t *testing.T) {
	_, err := LoadExperimentConfigFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err, "missing file must surface an error")
}

// TestExperimentConfig_Validate covers the method the CLI calls on the
// merged configuration.
func TestExperimentConfig_Validate(t *testing.T) {
	config := DefaultExperimentConfig()
	assert.NoError(t, config.Validate())

	config.Topologies = []string{"ring"}
	assert.Error(t, config.Validate(), "unknown topology kind must fail validation")
}
