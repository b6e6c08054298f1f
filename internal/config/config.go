package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// NewViper returns a viper instance with env overrides enabled
// (dots in config keys map to underscores in env names).
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("")
	v.AutomaticEnv()
	return v
}

// Load fills c after giving configure a chance to register defaults.
func Load[T any](c *T, configure func(v *viper.Viper)) (*T, error) {
	v := NewViper()
	configure(v)
	return c, v.Unmarshal(c)
}

// App carries process-wide settings shared by every binary.
type App struct {
	LogConfigFile   string        `mapstructure:"log_config_file"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func Setup(v *viper.Viper, prefix string) {
	p := func(key string) string { return prefix + "." + key }

	v.SetDefault(p("log_config_file"), "")
	v.SetDefault(p("shutdown_timeout"), "10s")
}
