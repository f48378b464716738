package server

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/weft-sh/weft/pkg/logger"
)

// LoadConfig reads in a config file and ENV variables if set. Used by CLI
// tools that do not go through pkg/app.
func LoadConfig(cfg string, defaultName string) {
	if cfg != "" {
		viper.SetConfigFile(cfg)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath(filepath.Join(homeDir(), ".weft"))
		viper.AddConfigPath("/etc/weft")
		viper.SetConfigName(defaultName)
	}

	viper.SetConfigType("yaml")
	viper.AutomaticEnv()
	viper.SetEnvPrefix("WEFT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			logger.Warn("WARNING: viper failed to discover and load the configuration file: %s", err.Error())
		}
	}
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
