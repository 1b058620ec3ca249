package config

import (
	"os"
	"strconv"
	"strings"

	"relpi/domain/sef"
	"relpi/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Pipeline PipelineConfig
	Database DatabaseConfig
	Server   ServerConfig
	Paths    PathConfig
}

// PipelineConfig holds every tunable of the numeric core. It is passed
// explicitly through the stages; nothing reads process-wide state.
type PipelineConfig struct {
	MinSampleSize        int
	NormalityThreshold   float64 // p-value-equivalent score a sample must reach
	AxiomThreshold       float64 // default; overridden per run by the eta optimizer
	SEFNumerator         sef.NumeratorVariant
	BootstrapIterations  int
	ConvergenceTolerance float64   // CV threshold for sample-size convergence
	OutlierIQRMultiples  []float64 // trimming thresholds for robustness sweep
	NoiseLevels          []float64 // relative noise magnitudes for robustness sweep
	EtaGridPoints        int
	PermutationCount     int
	StabilityTolerance   float64 // cross-group CV bound for temporal stability
	RobustnessTolerance  float64 // std/|mean| bound for robustness sweeps
	SensitivityTolerance float64 // normalized SEF range bound for κ/ρ sweeps
	SignificanceAlpha    float64
	RandomSeed           int64
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	OpsPort string
	GinMode string
}

// PathConfig holds file system paths
type PathConfig struct {
	DatasetFile string
	ReportDir   string
}

// DefaultPipeline returns the pipeline defaults used when no env overrides
// are present. These mirror the tolerances the validation battery was tuned
// against.
func DefaultPipeline() PipelineConfig {
	return PipelineConfig{
		MinSampleSize:        10,
		NormalityThreshold:   0.05,
		AxiomThreshold:       0.5,
		SEFNumerator:         sef.NumeratorOnePlusKappa,
		BootstrapIterations:  1000,
		ConvergenceTolerance: 0.1,
		OutlierIQRMultiples:  []float64{1.5, 2.0, 2.5, 3.0},
		NoiseLevels:          []float64{0.01, 0.05, 0.1, 0.2},
		EtaGridPoints:        100,
		PermutationCount:     1000,
		StabilityTolerance:   0.3,
		RobustnessTolerance:  0.2,
		SensitivityTolerance: 2.0,
		SignificanceAlpha:    0.05,
		RandomSeed:           42,
	}
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Pipeline: DefaultPipeline(),
		Database: DatabaseConfig{URL: os.Getenv("DATABASE_URL")},
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			OpsPort: getEnvOrDefault("OPS_PORT", "8081"),
			GinMode: getEnvOrDefault("GIN_MODE", "release"),
		},
		Paths: PathConfig{
			DatasetFile: os.Getenv("DATASET_FILE"),
			ReportDir:   getEnvOrDefault("REPORT_DIR", "reports"),
		},
	}

	cfg.Pipeline.MinSampleSize = getEnvIntOrDefault("MIN_SAMPLE_SIZE", cfg.Pipeline.MinSampleSize)
	cfg.Pipeline.NormalityThreshold = getEnvFloatOrDefault("NORMALITY_THRESHOLD", cfg.Pipeline.NormalityThreshold)
	cfg.Pipeline.AxiomThreshold = getEnvFloatOrDefault("AXIOM_THRESHOLD", cfg.Pipeline.AxiomThreshold)
	cfg.Pipeline.BootstrapIterations = getEnvIntOrDefault("BOOTSTRAP_ITERATIONS", cfg.Pipeline.BootstrapIterations)
	cfg.Pipeline.ConvergenceTolerance = getEnvFloatOrDefault("CONVERGENCE_TOLERANCE", cfg.Pipeline.ConvergenceTolerance)
	cfg.Pipeline.PermutationCount = getEnvIntOrDefault("PERMUTATION_COUNT", cfg.Pipeline.PermutationCount)
	cfg.Pipeline.RandomSeed = int64(getEnvIntOrDefault("RANDOM_SEED", int(cfg.Pipeline.RandomSeed)))

	if v := os.Getenv("SEF_NUMERATOR"); v != "" {
		switch sef.NumeratorVariant(strings.ToLower(v)) {
		case sef.NumeratorOnePlusKappa, sef.NumeratorOne:
			cfg.Pipeline.SEFNumerator = sef.NumeratorVariant(strings.ToLower(v))
		default:
			return nil, errors.ConfigInvalid("SEF_NUMERATOR must be one_plus_kappa or one")
		}
	}

	if err := cfg.Pipeline.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

// Validate rejects contradictory pipeline settings up front
func (p PipelineConfig) Validate() error {
	if p.MinSampleSize < 3 {
		return errors.ConfigInvalid("MIN_SAMPLE_SIZE must be at least 3")
	}
	if p.NormalityThreshold <= 0 || p.NormalityThreshold >= 1 {
		return errors.ConfigInvalid("NORMALITY_THRESHOLD must be in (0,1)")
	}
	if p.AxiomThreshold <= 0 || p.AxiomThreshold > 1 {
		return errors.ConfigInvalid("AXIOM_THRESHOLD must be in (0,1]")
	}
	if p.BootstrapIterations < 100 {
		return errors.ConfigInvalid("BOOTSTRAP_ITERATIONS must be at least 100")
	}
	if p.ConvergenceTolerance <= 0 {
		return errors.ConfigInvalid("CONVERGENCE_TOLERANCE must be positive")
	}
	if p.EtaGridPoints < 2 {
		return errors.ConfigInvalid("eta grid needs at least 2 points")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
