package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the project config file name.
const FileName = ".phrasekit.yaml"

// fileSchema is the on-disk shape of .phrasekit.yaml. Durations are written
// as strings ("30s") so the file stays readable.
type fileSchema struct {
	Provider       string `yaml:"provider"`
	Model          string `yaml:"model,omitempty"`
	BaseURL        string `yaml:"base_url,omitempty"`
	Proxy          string `yaml:"proxy,omitempty"`
	Timeout        string `yaml:"timeout,omitempty"`
	TargetLanguage string `yaml:"target_language,omitempty"`
	Tone           string `yaml:"tone"`
	MaxLength      int    `yaml:"max_length,omitempty"`
	SystemPrompt   string `yaml:"system_prompt,omitempty"`
}

const fileHeader = `# phrasekit configuration.
# Values here are overridden by PHRASEKIT_* environment variables and flags.
# API keys do not belong here: use 'phrasekit auth login' or OPENAI_API_KEY.
`

// Marshal renders cfg as .phrasekit.yaml content.
func Marshal(cfg Config) ([]byte, error) {
	fs := fileSchema{
		Provider:       cfg.Provider,
		Model:          cfg.Model,
		BaseURL:        cfg.BaseURL,
		Proxy:          cfg.Proxy,
		TargetLanguage: cfg.TargetLanguage,
		Tone:           cfg.Tone,
		MaxLength:      cfg.MaxLength,
		SystemPrompt:   cfg.SystemPrompt,
	}
	if cfg.Timeout > 0 {
		fs.Timeout = cfg.Timeout.String()
	}

	var buf bytes.Buffer
	buf.WriteString(fileHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fs); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteDefault writes cfg to path. It refuses to overwrite an existing file.
func WriteDefault(path string, cfg Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking %s: %w", path, err)
	}

	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
