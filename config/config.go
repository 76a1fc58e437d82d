package config

import (
	"encoding/json"
	"os"
	"time"
)

// Region is an inclusive pixel rectangle excluded from target colour scanning.
type Region struct {
	X0 int `json:"x0"`
	Y0 int `json:"y0"`
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
}

// Config holds runtime configuration for every workflow stage.
// Fields may be loaded from a JSON file and overridden by environment variables.
type Config struct {
	Debug     bool   `json:"debug"`
	LogFormat string `json:"log_format"`

	// Dataset layout
	SourceDir      string `json:"source_dir"`
	ImageExt       string `json:"image_ext"`
	RecordExt      string `json:"record_ext"`
	TargetMarker   string `json:"target_marker"`
	NoTargetMarker string `json:"no_target_marker"`

	// Labeling
	WindowName string `json:"window_name"`
	Seed       int64  `json:"seed"`
	EnemyColor string `json:"enemy_color"`
	AllyColor  string `json:"ally_color"`
	BaseColor  string `json:"base_color"`
	TextColor  string `json:"text_color"`

	// Triage
	FramesDir      string   `json:"frames_dir"`
	TargetColor    string   `json:"target_color"`
	ColorTolerance float64  `json:"color_tolerance"`
	IgnoredRegions []Region `json:"ignored_regions"`
	TriageWorkers  int      `json:"triage_workers"`

	// Packaging
	DatasetDir  string `json:"dataset_dir"`
	DatasetPath string `json:"dataset_path"`
	ImageSize   int    `json:"image_size"`

	// Training
	TrainerBin string `json:"trainer_bin"`
	BaseModel  string `json:"base_model"`
	Epochs     int    `json:"epochs"`

	// Inference
	ModelPath     string  `json:"model_path"`
	ConfThreshold float64 `json:"conf_threshold"`
	NMSThreshold  float64 `json:"nms_threshold"`

	// Capture
	RecordDir      string  `json:"record_dir"`
	RecordInterval float64 `json:"record_interval_seconds"`
	SaveDir        string  `json:"save_dir"`
	SaveThreshold  float64 `json:"save_threshold"`
	LiveFPS        int     `json:"live_fps"`
}

// DefaultIgnoredRegions are the HUD areas of a 2560x1440 frame that carry
// health-bar colours without containing an enemy.
func DefaultIgnoredRegions() []Region {
	return []Region{
		{X0: 0, Y0: 0, X1: 339, Y1: 346},        // friendly team members
		{X0: 691, Y0: 0, X1: 1869, Y1: 100},     // game status
		{X0: 2178, Y0: 0, X1: 2560, Y1: 352},    // enemy team members
		{X0: 0, Y0: 1216, X1: 564, Y1: 1440},    // health bar
		{X0: 2079, Y0: 960, X1: 2560, Y1: 1440}, // minimap
	}
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug:          false,
		LogFormat:      "json",
		SourceDir:      "data/processed_frames",
		ImageExt:       ".png",
		RecordExt:      ".json",
		TargetMarker:   "target",
		NoTargetMarker: "no_targets",
		WindowName:     "image",
		Seed:           0,
		EnemyColor:     "#ff0000",
		AllyColor:      "#00ff00",
		BaseColor:      "#0000ff",
		TextColor:      "#ff0000",
		FramesDir:      "data/frames",
		TargetColor:    "#de231c",
		ColorTolerance: 0.10,
		IgnoredRegions: DefaultIgnoredRegions(),
		TriageWorkers:  4,
		DatasetDir:     "data/yaml_dataset",
		DatasetPath:    "../hit-detector/data/yaml_dataset",
		ImageSize:      640,
		TrainerBin:     "yolo",
		BaseModel:      "yolov5s.pt",
		Epochs:         20,
		ModelPath:      "best.onnx",
		ConfThreshold:  0.25,
		NMSThreshold:   0.45,
		RecordDir:      "data/frames",
		RecordInterval: 1.0,
		SaveDir:        "data/uncertain_predictions",
		SaveThreshold:  0.30,
		LiveFPS:        60,
	}
}

// Validate clamps/normalizes values to safe ranges.
func (c *Config) Validate() error {
	d := DefaultConfig()
	if c.LogFormat != "text" && c.LogFormat != "json" {
		c.LogFormat = d.LogFormat
	}
	if c.SourceDir == "" {
		c.SourceDir = d.SourceDir
	}
	if c.ImageExt == "" {
		c.ImageExt = d.ImageExt
	}
	if c.RecordExt == "" || c.RecordExt == c.ImageExt {
		c.RecordExt = d.RecordExt
	}
	if c.TargetMarker == "" {
		c.TargetMarker = d.TargetMarker
	}
	if c.NoTargetMarker == "" {
		c.NoTargetMarker = d.NoTargetMarker
	}
	if c.WindowName == "" {
		c.WindowName = d.WindowName
	}
	if c.ColorTolerance <= 0 || c.ColorTolerance >= 1 {
		c.ColorTolerance = d.ColorTolerance
	}
	if c.TriageWorkers <= 0 {
		c.TriageWorkers = d.TriageWorkers
	}
	if c.ImageSize <= 0 {
		c.ImageSize = d.ImageSize
	}
	if c.Epochs <= 0 {
		c.Epochs = d.Epochs
	}
	if c.ConfThreshold <= 0 || c.ConfThreshold > 1 {
		c.ConfThreshold = d.ConfThreshold
	}
	if c.NMSThreshold <= 0 || c.NMSThreshold > 1 {
		c.NMSThreshold = d.NMSThreshold
	}
	if c.SaveThreshold < 0 || c.SaveThreshold > 1 {
		c.SaveThreshold = d.SaveThreshold
	}
	if c.RecordInterval <= 0 {
		c.RecordInterval = d.RecordInterval
	}
	if c.LiveFPS <= 0 {
		c.LiveFPS = d.LiveFPS
	}
	return nil
}

// RecordEvery returns the recorder interval as a duration.
func (c *Config) RecordEvery() time.Duration {
	return time.Duration(c.RecordInterval * float64(time.Second))
}

// FrameBudget returns the time allotted to one live frame.
func (c *Config) FrameBudget() time.Duration {
	if c.LiveFPS <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(c.LiveFPS)
}

// Load attempts to read configuration from the given JSON file path. If the file does not
// exist it returns DefaultConfig(). On JSON error it returns defaults with the error.
// Environment overrides are applied after the file in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		f, err := os.Open(path)
		switch {
		case err == nil:
			defer f.Close()
			dec := json.NewDecoder(f)
			if err := dec.Decode(cfg); err != nil {
				return DefaultConfig(), err
			}
		case !os.IsNotExist(err):
			return cfg, err
		}
	}
	applyEnv(cfg)
	_ = cfg.Validate()
	return cfg, nil
}

// Save writes the configuration to the given path in JSON format.
func (c *Config) Save(path string) error {
	_ = c.Validate()
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
