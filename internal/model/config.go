package model

import "time"

// Config is the full runtime configuration.
// Hierarchy: CLI flags > HREC_* env vars > ~/.hrec/config.yaml > defaults.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Match     MatchConfig     `yaml:"match" mapstructure:"match"`
	Validate  ValidateConfig  `yaml:"validate" mapstructure:"validate"`
	Citations CitationsConfig `yaml:"citations" mapstructure:"citations"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
}

// StoreConfig describes the canonical CSV layout
type StoreConfig struct {
	KeyColumn       string   `yaml:"key_column" mapstructure:"key_column"`
	FreeTextColumns []string `yaml:"free_text_columns" mapstructure:"free_text_columns"`
	// Columns the cross-reference adapter is allowed to import from an
	// archive file. Everything else in the archive is ignored.
	ImportColumns []string `yaml:"import_columns" mapstructure:"import_columns"`
}

// MatchConfig controls fuzzy name resolution
type MatchConfig struct {
	// Minimum token-overlap similarity for a fuzzy match. Below this the
	// adapter reports an ambiguity instead of guessing.
	Threshold float64 `yaml:"threshold" mapstructure:"threshold"`
	// How many near-miss suggestions to attach to each ambiguity
	MaxSuggestions int `yaml:"max_suggestions" mapstructure:"max_suggestions"`
}

// ValidateConfig bounds the plausible historical window for dates
type ValidateConfig struct {
	// Earliest acceptable date. Two of the tracked soldiers fell in the
	// July 2014 operation, so the window opens well before October 2023.
	EarliestDate string `yaml:"earliest_date" mapstructure:"earliest_date"`
}

// CitationsConfig controls the link verification pass
type CitationsConfig struct {
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Workers        int           `yaml:"workers" mapstructure:"workers"`
	RatePerSecond  float64       `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	RateBurst      int           `yaml:"rate_burst" mapstructure:"rate_burst"`
	UserAgent      string        `yaml:"user_agent" mapstructure:"user_agent"`
	CacheEnabled   bool          `yaml:"cache_enabled" mapstructure:"cache_enabled"`
	CacheDir       string        `yaml:"cache_dir" mapstructure:"cache_dir"`
	CacheTTL       time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
	RespectRobots  bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy      string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy     string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy        string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			KeyColumn: ColName,
			FreeTextColumns: []string{
				ColDescShort,
				ColDescLong,
				ColKidnapSumm,
			},
			ImportColumns: []string{
				ColDeathDate,
				ColDeathContext,
				ColReleaseDate,
				ColCircumstances,
				ColCountries,
			},
		},
		Match: MatchConfig{
			Threshold:      0.7,
			MaxSuggestions: 3,
		},
		Validate: ValidateConfig{
			EarliestDate: "2014-07-20",
		},
		Citations: CitationsConfig{
			Timeout:       10 * time.Second,
			Workers:       8,
			RatePerSecond: 2,
			RateBurst:     5,
			UserAgent:     "hrec/0.3 (+https://github.com/raolev/hostage-records)",
			CacheEnabled:  true,
			CacheTTL:      24 * time.Hour,
			RespectRobots: false,
		},
		Output: OutputConfig{
			Verbose: false,
		},
	}
}
