package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
)

// DotEnvLookup layers values read from a .env file underneath base.
// A missing file is not an error.
func DotEnvLookup(path string, base LookupFunc) (LookupFunc, error) {
	if base == nil {
		return nil, fmt.Errorf("base lookup is required")
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return base, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return func(key string) (string, bool) {
		if value, ok := base(key); ok {
			return value, true
		}
		value, ok := values[key]
		return value, ok
	}, nil
}
