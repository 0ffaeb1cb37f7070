// Package config holds the runtime configuration shared by all truecopy commands.
package config

import (
	"fmt"
	"image"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Stamp configures the true-copy stamp graphic.
type Stamp struct {
	// Path to the stamp PNG (alpha channel required)
	Path string `validate:"required"`
	// Size to resize the stamp to, as WxH. "0x0" keeps the asset size.
	Size string `validate:"required"`
	// Position used for square base images, as X,Y
	Position string `validate:"required"`
}

// PDF configures rasterization of PDF documents.
type PDF struct {
	DPI float64 `validate:"gt=0"`
}

// Archive configures the password-protected zip written by the encryptor.
type Archive struct {
	Level  int    `validate:"min=0,max=9"`
	Method string `validate:"oneof=aes256 standard"`
}

// Config represents the application configuration.
type Config struct {
	// Root of the media storage that record file names are relative to
	MediaRoot string `mapstructure:"media-root" validate:"required"`
	// SQLite database holding the upload records
	Database string `validate:"required"`
	// File holding the archive password
	KeyFile string `mapstructure:"key-file" validate:"required"`

	Stamp   Stamp
	PDF     PDF `mapstructure:"pdf"`
	Archive Archive

	Parallel int `validate:"min=1"`
	Quiet    bool
	Stats    bool
	Dry      bool
	LogLevel string `mapstructure:"log-level" validate:"oneof=debug info warn error"`

	// Selection of records to operate on
	Subject string `validate:"exclusive=All"`
	All     bool

	// Registration of new uploads
	UploadTo    string `mapstructure:"upload-to"`
	Include     []string
	Exclude     []string
	IncludeFrom string `mapstructure:"include-from"`
	ExcludeFrom string `mapstructure:"exclude-from"`

	// Positional arguments
	Args []string
}

// Validate validates the configuration against the struct tags
// and checks the stamp geometry parses.
func (c *Config) Validate() error {
	validate := validator.New()

	if err := registerExclusive(validate); err != nil {
		return err
	}

	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validating configuration: %w", err)
	}

	if _, err := c.StampSize(); err != nil {
		return err
	}

	if _, err := c.StampPosition(); err != nil {
		return err
	}

	return nil
}

// StampSize returns the configured stamp size.
func (c *Config) StampSize() (image.Point, error) {
	return parsePair(c.Stamp.Size, "x", "stamp size")
}

// StampPosition returns the position used for square images.
func (c *Config) StampPosition() (image.Point, error) {
	return parsePair(c.Stamp.Position, ",", "stamp position")
}

// Level returns the slog level matching LogLevel.
func (c *Config) Level() slog.Level {
	var level slog.Level

	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}

	return level
}

func parsePair(value, sep, what string) (image.Point, error) {
	const parts = 2

	fields := strings.SplitN(value, sep, parts)
	if len(fields) != parts {
		return image.Point{}, fmt.Errorf("invalid %s %q: expected two values separated by %q", what, value, sep)
	}

	x, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return image.Point{}, fmt.Errorf("invalid %s %q: %w", what, value, err)
	}

	y, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return image.Point{}, fmt.Errorf("invalid %s %q: %w", what, value, err)
	}

	if x < 0 || y < 0 {
		return image.Point{}, fmt.Errorf("invalid %s %q: values must not be negative", what, value)
	}

	return image.Pt(x, y), nil
}
