// Package config loads the crxpack.yaml pipeline configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	perrors "github.com/dosanma1/crxpack/internal/errors"
	"github.com/dosanma1/crxpack/pkg/xos"
)

// FileName is the config file looked up from the working directory upwards.
const FileName = "crxpack.yaml"

// Source classes.
const (
	ClassScripts  = "scripts"
	ClassStyles   = "styles"
	ClassHTML     = "html"
	ClassManifest = "manifest"
	ClassImages   = "images"
	ClassLocales  = "locales"
)

// CopyClasses are copied verbatim from the source root to the output root.
var CopyClasses = []string{ClassManifest, ClassImages, ClassHTML, ClassLocales}

// namePattern matches valid kebab-case names.
var namePattern = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)

// Config represents the crxpack.yaml configuration file.
type Config struct {
	// Product is the artifact name prefix.
	Product string `yaml:"product"`

	Paths    PathsConfig   `yaml:"paths"`
	Sources  SourcesConfig `yaml:"sources"`
	Plan     PlanConfig    `yaml:"plan"`
	Usemin   UseminConfig  `yaml:"usemin"`
	Lint     LintConfig    `yaml:"lint"`
	Clean    CleanConfig   `yaml:"clean"`
	Revision bool          `yaml:"revision"`
	Watch    WatchConfig   `yaml:"watch"`

	// File is the path the config was read from. Empty when defaults are used.
	File string `yaml:"-"`

	// BaseDir anchors every relative path.
	BaseDir string `yaml:"-"`
}

// PathsConfig holds the symbolic path roots.
type PathsConfig struct {
	App     string `yaml:"app"`
	Dist    string `yaml:"dist"`
	Package string `yaml:"package"`
}

// SourcesConfig holds the glob classes evaluated against the app root.
type SourcesConfig struct {
	Scripts  []string `yaml:"scripts"`
	Styles   []string `yaml:"styles"`
	HTML     []string `yaml:"html"`
	Manifest []string `yaml:"manifest"`
	Images   []string `yaml:"images"`
	Locales  []string `yaml:"locales"`
}

// PlanConfig lists the HTML files scanned for build blocks.
type PlanConfig struct {
	HTML []string `yaml:"html"`
}

// UseminConfig lists the output files whose references get rewritten.
type UseminConfig struct {
	HTML []string `yaml:"html"`
	CSS  []string `yaml:"css"`
}

// LintConfig holds static analysis settings.
type LintConfig struct {
	Report  string   `yaml:"report"`
	Globals []string `yaml:"globals"`
}

// CleanConfig holds workspace reset settings.
type CleanConfig struct {
	Keep []string `yaml:"keep"`
}

// WatchConfig holds watch mode settings.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Default returns the configuration used when no crxpack.yaml exists.
func Default(baseDir string) *Config {
	return &Config{
		Product: "caturday",
		Paths: PathsConfig{
			App:     "app",
			Dist:    "dist",
			Package: "package",
		},
		Sources: SourcesConfig{
			Scripts:  []string{"scripts/{,*/}*.js"},
			Styles:   []string{"styles/{,*/}*.css"},
			HTML:     []string{"{,*/}*.html"},
			Manifest: []string{"manifest.json"},
			Images:   []string{"images/{,*/}*.{webp,gif,png}"},
			Locales:  []string{"_locales/{,*/}*.json"},
		},
		Plan: PlanConfig{
			HTML: []string{"popup.html"},
		},
		Usemin: UseminConfig{
			HTML: []string{"{,*/}*.html"},
			CSS:  []string{"styles/{,*/}*.css"},
		},
		Lint: LintConfig{
			Report: "lint-report.txt",
		},
		Clean: CleanConfig{
			Keep: []string{".git*"},
		},
		Watch: WatchConfig{
			Debounce: 100 * time.Millisecond,
		},
		BaseDir: baseDir,
	}
}

// Load reads and parses a crxpack.yaml file. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, perrors.ConfigLoadFailed(path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, perrors.ConfigLoadFailed(path, err)
	}

	config := Default(filepath.Dir(abs))
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, perrors.ConfigLoadFailed(path, err)
	}
	config.File = abs

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Resolve loads the config at explicit when given. Otherwise it searches from
// dir upwards for crxpack.yaml and falls back to defaults anchored at dir.
func Resolve(explicit, dir string) (*Config, error) {
	if explicit != "" {
		return Load(explicit)
	}

	path, err := Find(dir)
	if err == nil {
		return Load(path)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, perrors.ConfigLoadFailed(dir, err)
	}
	config := Default(abs)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save writes the config to a file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := xos.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Product == "" {
		return perrors.ConfigInvalid("product", "required")
	}
	if !namePattern.MatchString(c.Product) {
		return perrors.ConfigInvalid("product", "must be kebab-case")
	}

	roots := map[string]string{
		"paths.app":     c.Paths.App,
		"paths.dist":    c.Paths.Dist,
		"paths.package": c.Paths.Package,
	}
	seen := make(map[string]string)
	for field, value := range roots {
		if value == "" {
			return perrors.ConfigInvalid(field, "required")
		}
		clean := filepath.Clean(c.resolve(value))
		if other, ok := seen[clean]; ok {
			return perrors.ConfigInvalid(field, fmt.Sprintf("must differ from %s", other))
		}
		seen[clean] = field
	}
	if c.Lint.Report == "" {
		return perrors.ConfigInvalid("lint.report", "required")
	}

	for class, patterns := range c.Classes() {
		if err := validatePatterns("sources."+class, patterns); err != nil {
			return err
		}
	}
	if err := validatePatterns("plan.html", c.Plan.HTML); err != nil {
		return err
	}
	if err := validatePatterns("usemin.html", c.Usemin.HTML); err != nil {
		return err
	}
	if err := validatePatterns("usemin.css", c.Usemin.CSS); err != nil {
		return err
	}
	for _, keep := range c.Clean.Keep {
		if _, err := filepath.Match(keep, ""); err != nil {
			return perrors.BadPattern(keep, err).WithContext("field", "clean.keep")
		}
	}

	if c.Watch.Debounce < 0 {
		return perrors.ConfigInvalid("watch.debounce", "must not be negative")
	}

	return nil
}

// applyDefaults sets default values for fields the file left empty.
func (c *Config) applyDefaults() {
	if c.Lint.Report == "" {
		c.Lint.Report = "lint-report.txt"
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = 100 * time.Millisecond
	}
}

// Classes returns the source glob classes keyed by class name.
func (c *Config) Classes() map[string][]string {
	return map[string][]string{
		ClassScripts:  c.Sources.Scripts,
		ClassStyles:   c.Sources.Styles,
		ClassHTML:     c.Sources.HTML,
		ClassManifest: c.Sources.Manifest,
		ClassImages:   c.Sources.Images,
		ClassLocales:  c.Sources.Locales,
	}
}

// AppDir returns the absolute source root.
func (c *Config) AppDir() string { return c.resolve(c.Paths.App) }

// DistDir returns the absolute output root.
func (c *Config) DistDir() string { return c.resolve(c.Paths.Dist) }

// PackageDir returns the absolute artifact directory.
func (c *Config) PackageDir() string { return c.resolve(c.Paths.Package) }

// ReportPath returns the absolute lint report path.
func (c *Config) ReportPath() string { return c.resolve(c.Lint.Report) }

// ManifestPath returns the source manifest path: the first manifest pattern
// taken as a literal path under the app root.
func (c *Config) ManifestPath() string {
	name := "manifest.json"
	if len(c.Sources.Manifest) > 0 {
		name = c.Sources.Manifest[0]
	}
	return filepath.Join(c.AppDir(), filepath.FromSlash(name))
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

func validatePatterns(field string, patterns []string) error {
	for _, p := range patterns {
		if p == "" || !doublestar.ValidatePattern(p) {
			return perrors.BadPattern(p, doublestar.ErrBadPattern).WithContext("field", field)
		}
	}
	return nil
}
