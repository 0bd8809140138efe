package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	App struct {
		Env string
	} `mapstructure:"app"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	Storage struct {
		Driver string
	} `mapstructure:"storage"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`

	SQLite struct {
		Path string
	} `mapstructure:"sqlite"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Telegram struct {
		Token       string
		AdminChatID int64         `mapstructure:"admin_chat_id"`
		Recipients  []int64       `mapstructure:"recipients"`
		SendTimeout time.Duration `mapstructure:"send_timeout"`
	} `mapstructure:"telegram"`

	Reconcile struct {
		Compensate bool
		AlertLimit int `mapstructure:"alert_limit"`
	} `mapstructure:"reconcile"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("app.env", "prod")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("storage.driver", DriverMemory)
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("sqlite.path", "ledger.db")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_chat_id", 0)
	v.SetDefault("telegram.recipients", []int64{})
	v.SetDefault("telegram.send_timeout", 5*time.Second)
	v.SetDefault("reconcile.compensate", true)
	v.SetDefault("reconcile.alert_limit", 20)
}

// Load читает .env (если есть), затем YAML по path. Пустой path: только
// значения по умолчанию и переменные окружения APP_* (APP_POSTGRES_DSN и т.п.).
func Load(path string) (Config, error) {
	var c Config
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return c, err
	}

	v := viper.New()
	defaults(v)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return c, err
		}
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Postgres.DSN == "" {
			return errors.New("config: postgres.dsn is required for storage.driver=postgres")
		}
	case DriverSQLite:
		if c.SQLite.Path == "" {
			return errors.New("config: sqlite.path is required for storage.driver=sqlite")
		}
	default:
		return errors.New("config: unknown storage.driver " + c.Storage.Driver)
	}
	if c.Telegram.SendTimeout < 0 {
		return errors.New("config: telegram.send_timeout must be >= 0")
	}
	if c.Reconcile.AlertLimit < 0 {
		return errors.New("config: reconcile.alert_limit must be >= 0")
	}
	return nil
}
