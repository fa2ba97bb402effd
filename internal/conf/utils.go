package conf

import (
	"os"
	"path/filepath"

	"github.com/tphakala/faunagram-go/internal/errors"
)

const appDirName = "faunagram"

// GetDefaultConfigPaths returns the directories searched for config.yaml,
// most specific first.
func GetDefaultConfigPaths() ([]string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "get-config-directory").
			Build()
	}

	return []string{
		".",
		filepath.Join(configDir, appDirName),
	}, nil
}

// defaultTokenFile places the session token next to the user config.
func defaultTokenFile() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "."+appDirName+"-token.yaml")
	}
	return filepath.Join(configDir, appDirName, "session.yaml")
}
