package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no config file is given explicitly. A missing
// default file is not an error.
var DefaultPath = "/etc/valet/config.yaml"

var validate = validator.New()

var phpVersionRegex = regexp.MustCompile(`^\d+\.\d+$`)

type Config struct {
	// User is the real user PHP-FPM runs as. Under sudo this is SUDO_USER.
	User string `yaml:"user" validate:"required"`
	// HomePath is the valet home directory, e.g. /home/alice/.valet.
	HomePath string `yaml:"home_path" validate:"required,startswith=/"`
	LogDir   string `yaml:"log_dir" validate:"required,startswith=/"`

	// PHPVersion pins the runtime version instead of asking `php -v`.
	PHPVersion string `yaml:"php_version" validate:"omitempty,phpversion"`
	// FPMTemplate overrides the built-in pool template.
	FPMTemplate string `yaml:"fpm_template" validate:"omitempty,startswith=/"`

	PackageManager string `yaml:"package_manager" validate:"oneof=auto apt dnf"`
	ServiceManager string `yaml:"service_manager" validate:"oneof=auto systemd sysv direct"`

	// MetricsTextfile, when set, receives operation metrics in the
	// node_exporter textfile format.
	MetricsTextfile string `yaml:"metrics_textfile" validate:"omitempty,startswith=/"`

	LogLevel string `yaml:"log_level"`
}

func init() {
	validate.RegisterValidation("phpversion", func(fl validator.FieldLevel) bool {
		return phpVersionRegex.MatchString(fl.Field().String())
	})
}

// Load builds the configuration from an optional YAML file with environment
// variables layered on top. An empty path means DefaultPath.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.User = getEnv("VALET_USER", cfg.User)
	if cfg.User == "" {
		cfg.User = invokingUser()
	}
	cfg.HomePath = getEnv("VALET_HOME_PATH", cfg.HomePath)
	if cfg.HomePath == "" && cfg.User != "" {
		home, err := homeDir(cfg.User)
		if err != nil {
			return nil, err
		}
		cfg.HomePath = filepath.Join(home, ".valet")
	}
	cfg.LogDir = getEnv("VALET_LOG_DIR", orDefault(cfg.LogDir, "/var/log"))
	cfg.PHPVersion = getEnv("VALET_PHP_VERSION", cfg.PHPVersion)
	cfg.FPMTemplate = getEnv("VALET_FPM_TEMPLATE", cfg.FPMTemplate)
	cfg.PackageManager = getEnv("VALET_PACKAGE_MANAGER", orDefault(cfg.PackageManager, "auto"))
	cfg.ServiceManager = getEnv("VALET_SERVICE_MANAGER", orDefault(cfg.ServiceManager, "auto"))
	cfg.MetricsTextfile = getEnv("VALET_METRICS_TEXTFILE", cfg.MetricsTextfile)
	cfg.LogLevel = getEnv("LOG_LEVEL", orDefault(cfg.LogLevel, "info"))

	return cfg, nil
}

// Validate checks the loaded configuration and names every offending
// setting by its environment variable.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validation error: %w", err)
	}

	var missing []string
	for _, fe := range verrs {
		missing = append(missing, fmt.Sprintf("%s (%s)", envNames[fe.Field()], fe.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(missing, ", "))
}

var envNames = map[string]string{
	"User":            "VALET_USER",
	"HomePath":        "VALET_HOME_PATH",
	"LogDir":          "VALET_LOG_DIR",
	"PHPVersion":      "VALET_PHP_VERSION",
	"FPMTemplate":     "VALET_FPM_TEMPLATE",
	"PackageManager":  "VALET_PACKAGE_MANAGER",
	"ServiceManager":  "VALET_SERVICE_MANAGER",
	"MetricsTextfile": "VALET_METRICS_TEXTFILE",
}

// invokingUser returns the user behind sudo, falling back to the process
// owner.
func invokingUser() string {
	if u := os.Getenv("SUDO_USER"); u != "" {
		return u
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return ""
}

func homeDir(name string) (string, error) {
	u, err := user.Lookup(name)
	if err != nil {
		return "", fmt.Errorf("lookup home directory of %s: %w", name, err)
	}
	return u.HomeDir, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func orDefault(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
