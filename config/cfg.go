package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"ebh/common"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	// PresentationConfig holds sizing and color values injected into the
	// output document. All size values carry CSS units and are validated
	// before conversion starts.
	PresentationConfig struct {
		BaseFontSize        string `yaml:"base_font_size" validate:"required"`
		BaseFontFamily      string `yaml:"base_font_family" validate:"required"`
		MonospaceFontFamily string `yaml:"monospace_font_family" validate:"required"`
		MinFontSize         string `yaml:"min_font_size" validate:"required"`
		MaxWidth            string `yaml:"max_width" validate:"required"`
		MinLineHeight       string `yaml:"min_line_height" validate:"required"`
		MarginWhenWide      string `yaml:"inside_margin_when_wide" validate:"required"`
		MarginWhenNarrow    string `yaml:"inside_margin_when_narrow" validate:"required"`
		OutsideBGColor      string `yaml:"outside_bgcolor"`
		InsideBGColor       string `yaml:"inside_bgcolor"`
		// Per-channel RGB distance under which an author background color is
		// considered "same as ours" and removed. 0 never removes, 1 always.
		BGColorSimilarityThreshold float64 `yaml:"inside_bgcolor_similarity_threshold" validate:"gte=0.0,lte=1.0"`
	}

	FontsConfig struct {
		ReplaceSerifAndSansSerif common.ReplacementMode `yaml:"replace_serif_and_sans_serif"`
		ReplaceMonospace         common.ReplacementMode `yaml:"replace_monospace"`
	}

	CoverConfig struct {
		Resize common.ImageResizeMode `yaml:"resize"`
		Width  int                    `yaml:"width" validate:"min=0"`
		Height int                    `yaml:"height" validate:"min=0"`
	}

	ImagesConfig struct {
		ScaleFactor  float64     `yaml:"scale_factor" validate:"gte=0.0"`
		JPEGQuality  int         `yaml:"jpeg_quality_level" validate:"min=40,max=100"`
		RasterizeSVG bool        `yaml:"rasterize_svg"`
		Cover        CoverConfig `yaml:"cover"`
	}

	// CSPConfig lists extra space-separated sources appended to the
	// corresponding Content-Security-Policy directives.
	CSPConfig struct {
		DefaultSrc string `yaml:"default_src"`
		FontSrc    string `yaml:"font_src"`
		ImgSrc     string `yaml:"img_src"`
		StyleSrc   string `yaml:"style_src"`
		MediaSrc   string `yaml:"media_src"`
		ScriptSrc  string `yaml:"script_src"`
		ObjectSrc  string `yaml:"object_src"`
	}

	ConverterConfig struct {
		// Path to the Calibre ebook-convert executable.
		Path string `yaml:"path" validate:"required"`
	}

	DocumentConfig struct {
		RemoveSourceExt bool `yaml:"remove_source_ext"`
		TitleAsFileName bool `yaml:"title_as_file_name"`
		// Advisory threshold in bytes. A larger inlined document produces a
		// warning, never a failure. Zero disables the check.
		SizeWarnThreshold int64                `yaml:"size_warn_threshold" validate:"min=0"`
		AppendHead        string               `yaml:"append_head"`
		Polyfill          common.PolyfillMode  `yaml:"text_fragments_polyfill"`
		Presentation      PresentationConfig   `yaml:"presentation"`
		Fonts             FontsConfig          `yaml:"fonts"`
		Images            ImagesConfig         `yaml:"images"`
		CSP               CSPConfig            `yaml:"csp"`
		Converter         ConverterConfig      `yaml:"converter"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Document  DocumentConfig `yaml:"document"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
		// CSS values cannot be checked with struct tags alone
		if err := cfg.Document.Presentation.check(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// check rejects malformed CSS lengths and colors before they reach the
// conversion core.
func (p *PresentationConfig) check() error {
	for name, value := range map[string]string{
		"base_font_size":            p.BaseFontSize,
		"min_font_size":             p.MinFontSize,
		"max_width":                 p.MaxWidth,
		"inside_margin_when_wide":   p.MarginWhenWide,
		"inside_margin_when_narrow": p.MarginWhenNarrow,
	} {
		if err := ValidateCSSLength(value); err != nil {
			return fmt.Errorf("configuration value %s is not a valid CSS length: %w", name, err)
		}
	}
	if err := ValidateCSSLineHeight(p.MinLineHeight); err != nil {
		return fmt.Errorf("configuration value min_line_height is not valid: %w", err)
	}
	for name, value := range map[string]string{
		"outside_bgcolor": p.OutsideBGColor,
		"inside_bgcolor":  p.InsideBGColor,
	} {
		if err := ValidateCSSColor(value); err != nil {
			return fmt.Errorf("configuration value %s is not a valid CSS color: %w", name, err)
		}
	}
	return nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
