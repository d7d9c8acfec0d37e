package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/absfs/vidcrypt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllDefaults(t *testing.T) {
	conf, err := ParseConfig([]byte(""))
	require.NoError(t, err)

	assert.Equal(t, Config{
		Width:     300,
		Height:    300,
		FPS:       30,
		Profile:   "rgba",
		Codec:     "ffv1",
		Format:    "bgra",
		Extension: ".mkv",
		Workers:   0,
		FFmpeg:    "ffmpeg",
	}, *conf)
}

func TestAllSet(t *testing.T) {
	config := []byte(`
width: 640
height: 480
fps: 24
profile: rgb
codec: libx264rgb
format: rgb24
extension: .mp4
workers: 3
ffmpeg: /opt/ffmpeg/bin/ffmpeg
`)

	conf, err := ParseConfig(config)
	require.NoError(t, err)

	assert.Equal(t, Config{
		Width:     640,
		Height:    480,
		FPS:       24,
		Profile:   "rgb",
		Codec:     "libx264rgb",
		Format:    "rgb24",
		Extension: ".mp4",
		Workers:   3,
		FFmpeg:    "/opt/ffmpeg/bin/ffmpeg",
	}, *conf)
	assert.Equal(t, vidcrypt.Resolution{Width: 640, Height: 480}, conf.Resolution())
}

func TestInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		err  error
	}{
		{"width too large", "width: 1921", vidcrypt.ErrInvalidResolution},
		{"zero height", "height: 0", vidcrypt.ErrInvalidResolution},
		{"fps too large", "fps: 61", vidcrypt.ErrInvalidFPS},
		{"unknown profile", "profile: cmyk", vidcrypt.ErrUnsupportedProfile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			assert.ErrorIs(t, err, tt.err)
		})
	}

	_, err := ParseConfig([]byte("workers: -1"))
	assert.Error(t, err)

	_, err = ParseConfig([]byte("codec: ''"))
	assert.Error(t, err)
}

func TestParseConfigFile(t *testing.T) {
	conf, err := ParseConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, defaultConfig, *conf)

	path := filepath.Join(t.TempDir(), "vidcrypt.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fps: 60\n"), 0600))
	conf, err = ParseConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, 60, conf.FPS)
}
