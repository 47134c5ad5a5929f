// Package config loads nobg settings from a TOML file.
//
// Every key is optional; missing keys keep the values from Default.
//
//	threshold = 240
//	feather = false
//	workers = 0
//
//	[input]
//	dir = "."
//	extensions = [".png"]
//
//	[output]
//	dir = "no_bg"
//	max_size = 0
//	trim = false
//	skip_transparent = false
//
//	[server]
//	addr = ":8080"
//	max_upload_mb = 20
//
//	[watch]
//	schedule = "@every 30s"
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/chaos-io/nobg/matte"
)

const (
	DefaultOutputDir = "no_bg"
	DefaultAddr      = ":8080"
	DefaultSchedule  = "@every 30s"
	DefaultUploadMB  = 20
)

type Config struct {
	Threshold int  `toml:"threshold"`
	Feather   bool `toml:"feather"`

	// Workers bounds how many images are processed at once; 0 means one per CPU.
	Workers int `toml:"workers"`

	Input  Input  `toml:"input"`
	Output Output `toml:"output"`
	Server Server `toml:"server"`
	Watch  Watch  `toml:"watch"`
}

type Input struct {
	Dir        string   `toml:"dir"`
	Extensions []string `toml:"extensions"`
}

type Output struct {
	Dir             string `toml:"dir"`
	MaxSize         int    `toml:"max_size"`
	Trim            bool   `toml:"trim"`
	SkipTransparent bool   `toml:"skip_transparent"`
}

type Server struct {
	Addr        string `toml:"addr"`
	MaxUploadMB int    `toml:"max_upload_mb"`
}

type Watch struct {
	Schedule string `toml:"schedule"`
}

func Default() Config {
	return Config{
		Threshold: matte.DefaultThreshold,
		Input: Input{
			Dir:        ".",
			Extensions: []string{".png"},
		},
		Output: Output{Dir: DefaultOutputDir},
		Server: Server{Addr: DefaultAddr, MaxUploadMB: DefaultUploadMB},
		Watch:  Watch{Schedule: DefaultSchedule},
	}
}

// Load reads path on top of Default. An empty path returns Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}

	cfg.Normalize()
	return cfg, cfg.Validate()
}

// Normalize clamps the threshold and canonicalizes extensions to a
// lowercase, dot-prefixed form.
func (c *Config) Normalize() {
	c.Threshold = matte.ClampThreshold(c.Threshold)

	exts := make([]string, 0, len(c.Input.Extensions))
	for _, e := range c.Input.Extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	c.Input.Extensions = exts
}

func (c *Config) Validate() error {
	var errs []error
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers: must be >= 0, got %d", c.Workers))
	}
	if len(c.Input.Extensions) == 0 {
		errs = append(errs, errors.New("input.extensions: at least one extension required"))
	}
	if c.Output.Dir == "" {
		errs = append(errs, errors.New("output.dir: must not be empty"))
	}
	if c.Output.MaxSize < 0 {
		errs = append(errs, fmt.Errorf("output.max_size: must be >= 0, got %d", c.Output.MaxSize))
	}
	if c.Server.MaxUploadMB <= 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_mb: must be > 0, got %d", c.Server.MaxUploadMB))
	}
	return errors.Join(errs...)
}

// Matte returns the transform parameters.
func (c Config) Matte() matte.Config {
	return matte.Config{Threshold: c.Threshold, Feather: c.Feather}
}

// Preprocessor builds the image pipeline described by c.
func (c Config) Preprocessor() *matte.Preprocessor {
	p := matte.NewPreprocessor(c.Matte())
	p.MaxSize = c.Output.MaxSize
	p.Trim = c.Output.Trim
	p.SkipTransparent = c.Output.SkipTransparent
	return p
}
