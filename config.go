package lumen

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultMaxEnvironmentSize matches the common maxTextureDimension2D limit.
const DefaultMaxEnvironmentSize = 8192

var ErrInvalidConfig = errors.New("lumen: invalid config")

type Config struct {
	LogPrefix string
	Debug     bool
	// ValidateBVH re-checks every finished tree. It costs one extra pass over
	// the nodes.
	ValidateBVH bool
	// Profile records per stage timings, see Preparer.Stats.
	Profile bool
	// MaxEnvironmentSize bounds both environment image dimensions.
	MaxEnvironmentSize uint32
}

func DefaultConfig() Config {
	return Config{
		LogPrefix:          "lumen",
		Debug:              false,
		ValidateBVH:        true,
		Profile:            true,
		MaxEnvironmentSize: DefaultMaxEnvironmentSize,
	}
}

func (c Config) Validate() error {
	if strings.ContainsAny(c.LogPrefix, "[]\r\n") {
		return fmt.Errorf("%w: log prefix %q contains brackets or line breaks", ErrInvalidConfig, c.LogPrefix)
	}
	if c.MaxEnvironmentSize == 0 {
		return fmt.Errorf("%w: max environment size must be positive", ErrInvalidConfig)
	}
	return nil
}
