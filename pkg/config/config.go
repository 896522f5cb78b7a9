package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds every knob of a cutout run. It is built once in main and passed
// down to the pipeline; nothing reads it from package state.
type Config struct {
	// BufferTimes are the days added before the window start and after the window
	// end. One panel is drawn per entry, top to bottom.
	BufferTimes []float64 `yaml:"buffer_times" validate:"min=1,dive,gt=0"`

	WriteFigures  bool `yaml:"write_figures"`
	WriteTCEFiles bool `yaml:"write_tce_files"`
	Weighting     bool `yaml:"weighting"`
	Plot          bool `yaml:"plot"`
	Titles        bool `yaml:"titles"`

	CatalogDir    string `yaml:"catalog_dir" validate:"required"`
	LightCurveDir string `yaml:"light_curve_dir" validate:"required"`
	SyntheticDir  string `yaml:"synthetic_dir" validate:"required"`
	OutputDir     string `yaml:"output_dir" validate:"required"`

	Extension  string `yaml:"extension" validate:"required"`
	TimeColumn string `yaml:"time_column" validate:"required"`
	FluxColumn string `yaml:"flux_column" validate:"required"`

	Image  ImageConfig  `yaml:"image"`
	Viewer ViewerConfig `yaml:"viewer"`
	Log    LogConfig    `yaml:"log"`
	Ledger LedgerConfig `yaml:"ledger"`
}

// ImageConfig sets the figure geometry in inches and the raster resolution.
type ImageConfig struct {
	Width       float64 `yaml:"width" validate:"gt=0"`
	PanelHeight float64 `yaml:"panel_height" validate:"gt=0"`
	DPI         int     `yaml:"dpi" validate:"gt=0,lte=600"`
}

// ViewerConfig selects how figures are shown when they are not written.
// Mode "window" opens a desktop window per figure; "command" hands a temporary
// PNG to Command and waits for Enter on stdin.
type ViewerConfig struct {
	Mode    string   `yaml:"mode" validate:"oneof=window command"`
	Command []string `yaml:"command"`
}

// LogConfig mirrors logging.Options.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

// LedgerConfig controls the SQLite record of rendered cutouts. An empty Path disables it.
type LedgerConfig struct {
	Path      string `yaml:"path"`
	BatchSize int    `yaml:"batch_size" validate:"gte=1"`
}

// Default returns the settings the cutouts were originally produced with.
func Default() *Config {
	return &Config{
		BufferTimes:   []float64{0.5, 1.5, 5},
		WriteFigures:  true,
		WriteTCEFiles: true,
		Weighting:     true,
		Plot:          true,
		CatalogDir:    ".",
		LightCurveDir: "lightcurvedata",
		SyntheticDir:  "Mdwarfsynthetics",
		OutputDir:     "round2cutouts",
		Extension:     "LIGHTCURVE",
		TimeColumn:    "TIME",
		FluxColumn:    "PDCSAP_FLUX",
		Image: ImageConfig{
			Width:       10,
			PanelHeight: 5,
			DPI:         100,
		},
		Viewer: ViewerConfig{
			Mode: "window",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Ledger: LedgerConfig{
			Path:      filepath.Join("round2cutouts", "cutouts.db"),
			BatchSize: 50,
		},
	}
}

// Load reads a YAML file over Default and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// WeightName is the catalog filename infix selected by Weighting.
func (c *Config) WeightName() string {
	if c.Weighting {
		return "weighted"
	}
	return "nonweighted"
}

// MDwarfCatalog is the path of the real-target TCE catalog.
func (c *Config) MDwarfCatalog() string {
	return filepath.Join(c.CatalogDir, "allmdwarf"+c.WeightName()+"tce.dat")
}

// SyntheticCatalog is the path of the synthetic TCE catalog.
func (c *Config) SyntheticCatalog() string {
	return filepath.Join(c.CatalogDir, "syn"+c.WeightName()+"tce.dat")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and reports every failing field at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (%v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
