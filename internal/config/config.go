package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/shibukawa/configdir"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const logsDirectory = "logs"
const configName = "arena"
const envPrefix = "ARENA"

const VendorName = "six78"
const ApplicationName = "arena"

const UserColor = lipgloss.Color("#7D56F4")
const ForegroundShadeColor = lipgloss.Color("#555555")

const (
	TransportWebsocket = "websocket"
	TransportPolling   = "polling"
)

var Logger = zap.NewNop()
var LogFilePath string

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Transport TransportConfig `mapstructure:"transport"`
	Reconnect ReconnectConfig `mapstructure:"reconnect"`
	Identity  IdentityConfig  `mapstructure:"identity"`
	Log       LogConfig       `mapstructure:"log"`
	DevServer DevServerConfig `mapstructure:"devserver"`
}

type ServerConfig struct {
	URL string `mapstructure:"url"`
}

type TransportConfig struct {
	// Primary is either "websocket" or "polling"
	Primary     string        `mapstructure:"primary"`
	Fallback    bool          `mapstructure:"fallback"`
	PollTimeout time.Duration `mapstructure:"poll_timeout"`
}

type ReconnectConfig struct {
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	// MaxElapsedTime of 0 retries forever
	MaxElapsedTime time.Duration `mapstructure:"max_elapsed_time"`
}

type IdentityConfig struct {
	UserID string `mapstructure:"user_id"`
	Name   string `mapstructure:"name"`
	Color  string `mapstructure:"color"`
	Token  string `mapstructure:"token"`
}

type LogConfig struct {
	Debug  bool `mapstructure:"debug"`
	Stdout bool `mapstructure:"stdout"`
}

type DevServerConfig struct {
	Addr string `mapstructure:"addr"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL: "http://localhost:8080",
		},
		Transport: TransportConfig{
			Primary:     TransportWebsocket,
			Fallback:    true,
			PollTimeout: 25 * time.Second,
		},
		Reconnect: ReconnectConfig{
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     30 * time.Second,
		},
		Identity: IdentityConfig{
			Color: string(UserColor),
		},
		DevServer: DevServerConfig{
			Addr: ":8080",
		},
	}
}

func SetDefaults() {
	defaults := Default()

	viper.SetDefault("server.url", defaults.Server.URL)
	viper.SetDefault("transport.primary", defaults.Transport.Primary)
	viper.SetDefault("transport.fallback", defaults.Transport.Fallback)
	viper.SetDefault("transport.poll_timeout", defaults.Transport.PollTimeout)
	viper.SetDefault("reconnect.initial_interval", defaults.Reconnect.InitialInterval)
	viper.SetDefault("reconnect.max_interval", defaults.Reconnect.MaxInterval)
	viper.SetDefault("reconnect.max_elapsed_time", defaults.Reconnect.MaxElapsedTime)
	viper.SetDefault("identity.user_id", defaults.Identity.UserID)
	viper.SetDefault("identity.name", defaults.Identity.Name)
	viper.SetDefault("identity.color", defaults.Identity.Color)
	viper.SetDefault("identity.token", defaults.Identity.Token)
	viper.SetDefault("log.debug", defaults.Log.Debug)
	viper.SetDefault("log.stdout", defaults.Log.Stdout)
	viper.SetDefault("devserver.addr", defaults.DevServer.Addr)
}

// Init prepares the global viper instance: defaults, optional .env file,
// environment overrides and an optional arena.yaml.
func Init(configFile string) error {
	SetDefaults()

	// .env is optional
	_ = godotenv.Load()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(configName)
		viper.SetConfigType("yaml")
		viper.AddConfigPath(Dir())
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) && configFile == "" {
		return nil
	}
	return errors.Wrap(err, "failed to read config")
}

func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Transport.Primary {
	case TransportWebsocket, TransportPolling:
	default:
		return errors.Errorf("unknown transport '%s'", c.Transport.Primary)
	}
	if c.Server.URL == "" {
		return errors.New("server url is empty")
	}
	if c.Reconnect.InitialInterval <= 0 {
		return errors.New("reconnect initial interval must be positive")
	}
	if c.Reconnect.MaxInterval < c.Reconnect.InitialInterval {
		return errors.New("reconnect max interval is less than initial interval")
	}
	return nil
}

// Dir returns the global config folder of the application
func Dir() string {
	configDirs := configdir.New(VendorName, ApplicationName)
	folders := configDirs.QueryFolders(configdir.Global)
	return folders[0].Path
}

func SetupLogger(c LogConfig) error {
	var zc zap.Config
	if c.Debug {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}

	if c.Stdout {
		zc.OutputPaths = []string{"stderr"}
	} else {
		path, err := createLogFile()
		if err != nil {
			return err
		}
		LogFilePath = path
		zc.OutputPaths = []string{LogFilePath}
	}

	zc.Development = false
	logger, err := zc.Build()
	if err != nil {
		return errors.Wrap(err, "failed to build logger")
	}
	Logger = logger
	return nil
}

func createLogFile() (string, error) {
	name := fmt.Sprintf("arena-%s.log", time.Now().UTC().Format(time.RFC3339))
	name = strings.Replace(name, ":", "-", -1)
	path := filepath.Join(Dir(), logsDirectory, name)

	if err := os.MkdirAll(filepath.Dir(path), 0770); err != nil {
		return "", errors.Wrap(err, "failed to create logs directory")
	}

	file, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "failed to create log file")
	}
	_ = file.Close()

	return path, nil
}
