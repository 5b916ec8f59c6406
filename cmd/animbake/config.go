package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Carmen-Shannon/oxy-anim/engine/animation/mixer"
)

// ActionConfig schedules one clip on the baked asset.
type ActionConfig struct {
	Clip        string  `mapstructure:"clip"`
	Weight      float64 `mapstructure:"weight"`
	TimeScale   float64 `mapstructure:"timeScale"`
	Loop        string  `mapstructure:"loop"`
	Repetitions int     `mapstructure:"repetitions"`
	Clamp       bool    `mapstructure:"clampWhenFinished"`
	Blend       string  `mapstructure:"blend"`
	// Start is the mixer time the action is played at, rounded up to the next frame.
	Start  float64 `mapstructure:"start"`
	FadeIn float64 `mapstructure:"fadeIn"`
	// FadeFrom names a clip whose action is crossfaded out over FadeIn seconds when this one starts.
	FadeFrom string `mapstructure:"fadeFrom"`
	Warp     bool   `mapstructure:"warp"`
}

// Config holds the settings of one bake run.
type Config struct {
	Input       string         `mapstructure:"input"`
	Library     string         `mapstructure:"library"`
	Import      bool           `mapstructure:"import"`
	Optimize    bool           `mapstructure:"optimize"`
	Rate        float64        `mapstructure:"rate"`
	Duration    float64        `mapstructure:"duration"`
	Output      string         `mapstructure:"output"`
	Tracks      []string       `mapstructure:"tracks"`
	Actions     []ActionConfig `mapstructure:"actions"`
	LogLevel    string         `mapstructure:"logLevel"`
	Profile     string         `mapstructure:"profile"`
	ProfilePath string         `mapstructure:"profilePath"`
}

// loadConfig reads the configuration from the file named by --config, ANIMBAKE_* environment
// variables and flags, in increasing order of precedence.
func loadConfig(args []string) (Config, error) {
	fs := pflag.NewFlagSet("animbake", pflag.ContinueOnError)
	configFile := fs.StringP("config", "c", "", "YAML or JSON configuration file")
	fs.StringP("input", "i", "", "glTF asset to animate (.gltf or .glb)")
	fs.String("library", "", "SQLite clip library to read missing clips from")
	fs.Bool("import", false, "save the clips of the input asset into the library")
	fs.Bool("optimize", false, "drop redundant keys from imported clips")
	fs.Float64P("rate", "r", 30, "samples per second")
	fs.Float64P("duration", "d", 0, "baked seconds, 0 for the longest played clip")
	fs.StringP("output", "o", "-", "output YAML file, - for stdout")
	fs.StringSlice("track", nil, "track to sample, repeatable; defaults to every track of the played clips")
	fs.StringSlice("play", nil, "clip to play with default settings, repeatable")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("profile", "", "write a cpu or mem profile")
	fs.String("profile-path", ".", "directory for profile output")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetDefault("rate", 30)
	v.SetDefault("duration", 0)
	v.SetDefault("output", "-")
	v.SetDefault("logLevel", "info")
	v.SetDefault("profilePath", ".")
	v.SetDefault("input", "")
	v.SetDefault("library", "")
	v.SetDefault("import", false)
	v.SetDefault("optimize", false)
	v.SetDefault("profile", "")

	if *configFile != "" {
		v.SetConfigFile(*configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("ANIMBAKE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindings := map[string]string{
		"input":       "input",
		"library":     "library",
		"import":      "import",
		"optimize":    "optimize",
		"rate":        "rate",
		"duration":    "duration",
		"output":      "output",
		"tracks":      "track",
		"logLevel":    "log-level",
		"profile":     "profile",
		"profilePath": "profile-path",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return Config{}, fmt.Errorf("binding flag %q: %w", flag, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}

	played, _ := fs.GetStringSlice("play")
	for _, clip := range played {
		cfg.Actions = append(cfg.Actions, ActionConfig{Clip: clip})
	}
	for i := range cfg.Actions {
		applyActionDefaults(&cfg.Actions[i])
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyActionDefaults(a *ActionConfig) {
	if a.Weight == 0 {
		a.Weight = 1
	}
	if a.TimeScale == 0 {
		a.TimeScale = 1
	}
	if a.Loop == "" {
		a.Loop = "repeat"
	}
	if a.Blend == "" {
		a.Blend = "normal"
	}
}

func (c Config) validate() error {
	var errs []error
	if c.Input == "" {
		errs = append(errs, errors.New("input is required"))
	}
	if c.Import && c.Library == "" {
		errs = append(errs, errors.New("import requires a library"))
	}
	if c.Rate <= 0 {
		errs = append(errs, fmt.Errorf("rate must be positive, got %v", c.Rate))
	}
	if c.Duration < 0 {
		errs = append(errs, fmt.Errorf("duration must not be negative, got %v", c.Duration))
	}
	if len(c.Actions) == 0 {
		errs = append(errs, errors.New("at least one action is required"))
	}
	switch c.Profile {
	case "", "cpu", "mem":
	default:
		errs = append(errs, fmt.Errorf("unknown profile %q", c.Profile))
	}
	for i, a := range c.Actions {
		if a.Clip == "" {
			errs = append(errs, fmt.Errorf("action %d: clip is required", i))
		}
		if _, ok := mixer.ParseLoopMode(a.Loop); !ok {
			errs = append(errs, fmt.Errorf("action %d: unknown loop mode %q", i, a.Loop))
		}
		if a.Blend != "normal" && a.Blend != "additive" {
			errs = append(errs, fmt.Errorf("action %d: unknown blend mode %q", i, a.Blend))
		}
		if a.Start < 0 || a.FadeIn < 0 {
			errs = append(errs, fmt.Errorf("action %d: start and fadeIn must not be negative", i))
		}
	}
	return errors.Join(errs...)
}
