package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"hdrtoc/internal/extractor"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed defaults/header.txt
var defaultHeader string

//go:embed defaults/docs.txt
var defaultDocs string

type Config struct {
	// Target is the header rewritten in place.
	Target string `yaml:"target"`

	// Header and Docs are the static blocks placed around the table of contents.
	// The *_file variants are read relative to the config file and win over inline text.
	Header     string `yaml:"header"`
	HeaderFile string `yaml:"header_file"`
	Docs       string `yaml:"docs"`
	DocsFile   string `yaml:"docs_file"`

	Scan  ScanConfig  `yaml:"scan"`
	Guard GuardConfig `yaml:"guard"`
	TOC   TOCConfig   `yaml:"toc"`
	Watch WatchConfig `yaml:"watch"`

	// Settle re-indexes the rendered output so offsets refer to the written file.
	Settle bool `yaml:"settle"`
	// RequireClean refuses to rewrite a target with uncommitted git changes.
	RequireClean bool `yaml:"require_clean"`
}

type ScanConfig struct {
	Marker        string `yaml:"marker"`
	Closer        string `yaml:"closer"`
	NameOffset    int    `yaml:"name_offset"`
	ContentOffset int    `yaml:"content_offset"`
	SkipLines     int    `yaml:"skip_lines"`
}

type GuardConfig struct {
	Sentinel string `yaml:"sentinel"`
	Locator  string `yaml:"locator"` // "text" or "syntax"
}

type TOCConfig struct {
	Title            string `yaml:"title"`
	DeclarationLabel string `yaml:"declaration_label"`
	DefinitionLabel  string `yaml:"definition_label"`
}

type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Default returns the configuration for rapidstring.h.
func Default() *Config {
	conv := extractor.DefaultConvention()
	return &Config{
		Target: "include/rapidstring.h",
		Header: defaultHeader,
		Docs:   defaultDocs,
		Scan: ScanConfig{
			Marker:        conv.Marker,
			Closer:        conv.Closer,
			NameOffset:    conv.NameOffset,
			ContentOffset: conv.ContentOffset,
			SkipLines:     conv.SkipLines,
		},
		Guard: GuardConfig{
			Sentinel: "#ifndef",
			Locator:  "text",
		},
		TOC: TOCConfig{
			Title:            "TABLE OF CONTENTS",
			DeclarationLabel: "Declarations",
			DefinitionLabel:  "Definitions",
		},
		Watch: WatchConfig{
			Debounce: 300 * time.Millisecond,
		},
	}
}

// LoadConfig reads the YAML file at path on top of Default. A missing file
// is not an error; the defaults are used as-is.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config
	file, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if err := cfg.loadTextFiles(filepath.Dir(path)); err != nil {
			return nil, err
		}
	}

	// 3. Override with Environment Variables if present
	if target := os.Getenv("HDRTOC_TARGET"); target != "" {
		cfg.Target = target
	}
	if locator := os.Getenv("HDRTOC_LOCATOR"); locator != "" {
		cfg.Guard.Locator = locator
	}
	if settle := os.Getenv("HDRTOC_SETTLE"); settle != "" {
		v, err := strconv.ParseBool(settle)
		if err != nil {
			return nil, fmt.Errorf("invalid HDRTOC_SETTLE: %w", err)
		}
		cfg.Settle = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadTextFiles(dir string) error {
	read := func(name string) (string, error) {
		if !filepath.IsAbs(name) {
			name = filepath.Join(dir, name)
		}
		b, err := os.ReadFile(name)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", name, err)
		}
		return string(b), nil
	}

	if c.HeaderFile != "" {
		s, err := read(c.HeaderFile)
		if err != nil {
			return err
		}
		c.Header = s
	}
	if c.DocsFile != "" {
		s, err := read(c.DocsFile)
		if err != nil {
			return err
		}
		c.Docs = s
	}
	return nil
}

// Validate checks that the scan convention and guard settings are usable.
func (c *Config) Validate() error {
	switch {
	case c.Scan.Marker == "":
		return errors.New("scan.marker must not be empty")
	case c.Scan.Closer == "":
		return errors.New("scan.closer must not be empty")
	case c.Scan.NameOffset < 1:
		return fmt.Errorf("scan.name_offset must be positive, got %d", c.Scan.NameOffset)
	case c.Scan.SkipLines < 0:
		return fmt.Errorf("scan.skip_lines must not be negative, got %d", c.Scan.SkipLines)
	case c.Guard.Sentinel == "":
		return errors.New("guard.sentinel must not be empty")
	}
	if c.Guard.Locator != "text" && c.Guard.Locator != "syntax" {
		return fmt.Errorf("guard.locator must be text or syntax, got %q", c.Guard.Locator)
	}
	return nil
}

// Convention returns the indexer convention described by the scan settings.
func (c *Config) Convention() extractor.Convention {
	return extractor.Convention{
		Marker:        c.Scan.Marker,
		Closer:        c.Scan.Closer,
		NameOffset:    c.Scan.NameOffset,
		ContentOffset: c.Scan.ContentOffset,
		SkipLines:     c.Scan.SkipLines,
	}
}
