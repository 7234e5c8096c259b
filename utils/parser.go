package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/circularprotocol/cep/types"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Supported configuration formats.
const (
	FormatYAML = "yaml"
	FormatTOML = "toml"
	FormatJSON = "json"
)

// ParseConfig decodes a configuration document on top of the defaults and
// validates the result.
func ParseConfig(data []byte, format string) (*types.Config, error) {
	config := types.DefaultConfig()

	var err error
	switch strings.ToLower(format) {
	case FormatYAML, "yml":
		err = yaml.Unmarshal(data, &config)
	case FormatTOML:
		err = toml.Unmarshal(data, &config)
	case FormatJSON:
		err = json.Unmarshal(data, &config)
	default:
		return nil, types.NewError(types.ErrConfigError, "unsupported config format: %s", format)
	}
	if err != nil {
		return nil, &types.CEPError{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("failed to parse %s config", format),
			Err:     err,
		}
	}

	if err := ValidateConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadConfig reads a configuration file, picking the format from its extension.
func LoadConfig(path string) (*types.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.WrapError(types.ErrConfigError, err, "failed to read config %s", path)
	}
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	return ParseConfig(data, format)
}

// ValidateConfig checks a Config using its struct tags.
func ValidateConfig(config *types.Config) error {
	if err := validate.Struct(config); err != nil {
		return types.WrapError(types.ErrConfigError, err, "validation failed")
	}
	return nil
}

// ValidateTransaction checks a transaction record before it is posted.
func ValidateTransaction(tx *types.Transaction) error {
	if err := validate.Struct(tx); err != nil {
		return types.WrapError(types.ErrInvalidRequest, err, "invalid transaction")
	}
	return nil
}
