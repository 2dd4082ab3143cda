// Package config loads the project description: module layout and raw
// properties. Values are kept as strings and interpreted by the consumers.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FileNames are the configuration files looked up in a project base directory, in order.
var FileNames = []string{"sourcescan.yaml", "sourcescan.yml", "sourcescan.toml"}

// Config is a loaded project description.
type Config struct {
	// Path of the file the configuration was read from, empty for defaults.
	Path    string
	Project ModuleDefinition
}

// ModuleDefinition describes one module and its children.
type ModuleDefinition struct {
	Key        string
	Name       string
	BaseDir    string
	Properties Properties
	Modules    []ModuleDefinition
}

type rawModule struct {
	Key        string         `yaml:"key" toml:"key"`
	Name       string         `yaml:"name" toml:"name"`
	BaseDir    string         `yaml:"baseDir" toml:"baseDir"`
	Properties map[string]any `yaml:"properties" toml:"properties"`
	Modules    []rawModule    `yaml:"modules" toml:"modules"`
}

// Default returns the configuration used when a project has no file: the
// base directory itself is the single module.
func Default(baseDir string) *Config {
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		absBase = baseDir
	}
	return &Config{
		Project: ModuleDefinition{
			Key:        filepath.Base(absBase),
			BaseDir:    absBase,
			Properties: Properties{},
		},
	}
}

// Load reads the configuration of the project rooted at baseDir. An explicit
// file path may be given; otherwise FileNames are looked up in baseDir and
// defaults are used when none exists.
func Load(baseDir string, file string) (*Config, error) {
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolving base directory: %w", err)
	}

	if file == "" {
		file = findConfigFile(absBase)
		if file == "" {
			return Default(absBase), nil
		}
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var raw rawModule
	switch strings.ToLower(filepath.Ext(file)) {
	case ".toml":
		err = toml.Unmarshal(data, &raw)
	default:
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", file, err)
	}

	if raw.BaseDir == "" {
		raw.BaseDir = absBase
	} else if !filepath.IsAbs(raw.BaseDir) {
		raw.BaseDir = filepath.Join(absBase, raw.BaseDir)
	}
	if raw.Key == "" {
		raw.Key = filepath.Base(raw.BaseDir)
	}

	project, err := convertModule(raw)
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", file, err)
	}
	return &Config{Path: file, Project: project}, nil
}

func findConfigFile(baseDir string) string {
	for _, name := range FileNames {
		candidate := filepath.Join(baseDir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

func convertModule(raw rawModule) (ModuleDefinition, error) {
	if raw.Key == "" {
		return ModuleDefinition{}, errors.New("module without key")
	}
	def := ModuleDefinition{
		Key:        raw.Key,
		Name:       raw.Name,
		BaseDir:    raw.BaseDir,
		Properties: make(Properties, len(raw.Properties)),
	}
	for k, v := range raw.Properties {
		s, err := stringValue(v)
		if err != nil {
			return ModuleDefinition{}, fmt.Errorf("module %s, property %s: %w", raw.Key, k, err)
		}
		def.Properties[k] = s
	}
	for _, child := range raw.Modules {
		converted, err := convertModule(child)
		if err != nil {
			return ModuleDefinition{}, err
		}
		def.Modules = append(def.Modules, converted)
	}
	return def, nil
}

// stringValue flattens YAML/TOML scalars and lists into the comma separated form.
func stringValue(v any) (string, error) {
	switch value := v.(type) {
	case nil:
		return "", nil
	case string:
		return value, nil
	case bool:
		return strconv.FormatBool(value), nil
	case int:
		return strconv.Itoa(value), nil
	case int64:
		return strconv.FormatInt(value, 10), nil
	case uint64:
		return strconv.FormatUint(value, 10), nil
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64), nil
	case []any:
		items := make([]string, 0, len(value))
		for _, item := range value {
			s, err := stringValue(item)
			if err != nil {
				return "", err
			}
			items = append(items, s)
		}
		return JoinValues(items), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

// Override sets project level properties, typically from the command line,
// given as "key=value" pairs.
func (c *Config) Override(pairs []string) error {
	if c.Project.Properties == nil {
		c.Project.Properties = Properties{}
	}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return fmt.Errorf("invalid property %q, expected key=value", pair)
		}
		c.Project.Properties[strings.TrimSpace(key)] = value
	}
	return nil
}

// ModuleKeys returns every module key of the configuration, sorted.
func (c *Config) ModuleKeys() []string {
	var keys []string
	var walk func(ModuleDefinition)
	walk = func(m ModuleDefinition) {
		keys = append(keys, m.Key)
		for _, child := range m.Modules {
			walk(child)
		}
	}
	walk(c.Project)
	sort.Strings(keys)
	return keys
}
