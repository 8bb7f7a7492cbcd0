package livemd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig mirrors the optional YAML config file. All fields are pointers
// so an absent key is distinguishable from a zero value.
type FileConfig struct {
	Theme              *string  `yaml:"theme"`
	ThemeFile          *string  `yaml:"theme_file"`
	Delay              *float64 `yaml:"delay"`
	ChunkSize          *int     `yaml:"chunk_size"`
	StripBoxes         *bool    `yaml:"strip_boxes"`
	LLMCommand         *string  `yaml:"llm_cmd"`
	InjectMarkdownHint *bool    `yaml:"inject_md_instruction"`
}

// Overrides carries explicitly set command-line values. Nil fields fall
// through to the config file, then to built-in defaults.
type Overrides struct {
	Theme              *string
	ThemeFile          *string
	Delay              *time.Duration
	ChunkSize          *int
	StripBoxes         *bool
	LLMCommand         *string
	InjectMarkdownHint *bool
	Width              int
}

// ConfigPath returns the YAML config file location under the user config
// directory.
func ConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config path: %w", err)
	}
	return filepath.Join(dir, "livemd", "config.yaml"), nil
}

// LoadFileConfig parses the YAML config at path. A missing file is not an
// error and yields an empty config.
func LoadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &FileConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &fc, nil
}

// DefaultThemeFile returns the path of the user's default theme file if it
// exists, or "" when no such file is present.
func DefaultThemeFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(dir, "livemd", "themes", "default.json")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// ResolveConfig merges command-line overrides with the file config and
// built-in defaults, flags first. It never fails: unusable theme sources
// degrade to the dark preset and are reported as warnings.
func ResolveConfig(over Overrides, file *FileConfig) (Config, []string) {
	if file == nil {
		file = &FileConfig{}
	}
	cfg := Config{
		ChunkSize:          DefaultChunkSize,
		Delay:              DefaultDelay,
		InjectMarkdownHint: true,
		Width:              over.Width,
	}
	var warnings []string

	if file.ChunkSize != nil {
		cfg.ChunkSize = *file.ChunkSize
	}
	if over.ChunkSize != nil {
		cfg.ChunkSize = *over.ChunkSize
	}
	if file.Delay != nil {
		cfg.Delay = time.Duration(*file.Delay * float64(time.Second))
	}
	if over.Delay != nil {
		cfg.Delay = *over.Delay
	}
	if file.StripBoxes != nil {
		cfg.StripBoxes = *file.StripBoxes
	}
	if over.StripBoxes != nil {
		cfg.StripBoxes = *over.StripBoxes
	}
	if file.LLMCommand != nil {
		cfg.LLMCommand = *file.LLMCommand
	}
	if over.LLMCommand != nil {
		cfg.LLMCommand = *over.LLMCommand
	}
	if file.InjectMarkdownHint != nil {
		cfg.InjectMarkdownHint = *file.InjectMarkdownHint
	}
	if over.InjectMarkdownHint != nil {
		cfg.InjectMarkdownHint = *over.InjectMarkdownHint
	}

	cfg.Theme, warnings = resolveTheme(over, file, warnings)
	return cfg, warnings
}

// resolveTheme picks the first usable theme source in precedence order:
// flag theme file, flag preset, config theme file, config preset, the
// user's default theme file, then the dark preset.
func resolveTheme(over Overrides, file *FileConfig, warnings []string) (*Theme, []string) {
	if over.ThemeFile != nil {
		t, err := LoadTheme(*over.ThemeFile)
		if err == nil {
			return t, warnings
		}
		warnings = append(warnings, fmt.Sprintf("theme file %s: %v", *over.ThemeFile, err))
	}
	if over.Theme != nil {
		if t, ok := ThemeByName(*over.Theme); ok {
			return t, warnings
		}
		warnings = append(warnings, fmt.Sprintf("unknown theme %q", *over.Theme))
	}
	if file.ThemeFile != nil {
		t, err := LoadTheme(*file.ThemeFile)
		if err == nil {
			return t, warnings
		}
		warnings = append(warnings, fmt.Sprintf("theme file %s: %v", *file.ThemeFile, err))
	}
	if file.Theme != nil {
		if t, ok := ThemeByName(*file.Theme); ok {
			return t, warnings
		}
		warnings = append(warnings, fmt.Sprintf("unknown theme %q", *file.Theme))
	}
	if path := DefaultThemeFile(); path != "" {
		t, err := LoadTheme(path)
		if err == nil {
			return t, warnings
		}
		warnings = append(warnings, fmt.Sprintf("theme file %s: %v", path, err))
	}
	return DefaultTheme(), warnings
}
