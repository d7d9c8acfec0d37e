package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/absfs/vidcrypt"
	"github.com/absfs/vidcrypt/video"
	yaml "gopkg.in/yaml.v2"
)

type Config struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	FPS       int    `yaml:"fps"`
	Profile   string `yaml:"profile"`
	Codec     string `yaml:"codec"`
	Format    string `yaml:"format"`
	Extension string `yaml:"extension"`
	Workers   int    `yaml:"workers"`
	FFmpeg    string `yaml:"ffmpeg"`
}

var defaultConfig = Config{
	Width:     300,
	Height:    300,
	FPS:       vidcrypt.DefaultFPS,
	Profile:   vidcrypt.ProfileRGBA.String(),
	Codec:     video.DefaultCodec,
	Format:    video.DefaultFormat,
	Extension: video.DefaultExtension,
	Workers:   0,
	FFmpeg:    video.DefaultFFmpeg,
}

// ParseConfigFile reads filename. A missing file yields the defaults.
func ParseConfigFile(filename string) (*Config, error) {
	buf, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return ParseConfig(nil)
	} else if err != nil {
		return nil, err
	}
	return ParseConfig(buf)
}

func ParseConfig(buf []byte) (*Config, error) {
	conf := defaultConfig
	if err := yaml.Unmarshal(buf, &conf); err != nil {
		return nil, err
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

func (c *Config) Validate() error {
	if err := vidcrypt.ValidateResolution(c.Resolution()); err != nil {
		return err
	}
	if err := vidcrypt.ValidateFPS(c.FPS); err != nil {
		return err
	}
	if _, err := vidcrypt.ParseProfile(c.Profile); err != nil {
		return err
	}
	if c.Codec == "" {
		return errors.New("codec cannot be empty")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers cannot be negative, got %d", c.Workers)
	}
	return nil
}

func (c *Config) Resolution() vidcrypt.Resolution {
	return vidcrypt.Resolution{Width: c.Width, Height: c.Height}
}

func (c *Config) VideoOptions() video.Options {
	return video.Options{
		FPS:    c.FPS,
		Codec:  c.Codec,
		Format: c.Format,
		FFmpeg: c.FFmpeg,
	}
}
