package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

const envTemplate = `API_URL=https://t00000.example.com/api
AUTH_HOST=
CLIENT_ID=
CLIENT_SECRET=
CATALOG_PAIRS='[{"source":5,"destination":7},{"source":6,"destination":8}]'
SITE_PAIRS='[{"source":10,"destination":20}]'
PRIME_CATALOG=
MASTER_CATALOG=
# stripped from category codes and merchandising rules
CODE_PREFIX_PATTERN=KW-(EN|AR)-

# required for sync-content, download, clear and publish
SOURCE_TENANT=
SOURCE_SITE=
SOURCE_SITE_PREFIX_LOCALE=en-xx
SOURCE_CATEGORY_PREFIX=
TARGET_TENANT=
TARGET_SITE=
TARGET_SITE_PREFIX_LOCALE=en-xx

# optional
#REDIS_URL=redis://localhost:6379/0
#MONGODB_URI=mongodb://localhost:27017
#STATUS_ADDR=:9090
`

// ErrEnvExists is returned by WriteEnvTemplate when the file is already present.
var ErrEnvExists = errors.New("env file already exists")

// WriteEnvTemplate writes an empty settings file to path.
func WriteEnvTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s: %w", path, ErrEnvExists)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to stat %s: %w", path, err)
		}
	}
	if err := os.WriteFile(path, []byte(envTemplate), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
