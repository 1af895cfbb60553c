package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

type SourceType string

const (
	SourceWebcam SourceType = "Web-Camera"
	SourceLocal  SourceType = "Local"

	DefaultConfigPath string = "config.json"
	DefaultServerURL  string = "http://localhost:8000"
	PredictPath       string = "/predict-emotion"

	EnvPrefix = "EMOTION"
)

var SourcesList = [...]string{
	string(SourceWebcam),
	string(SourceLocal),
}

type LocalConfig struct {
	Path string `mapstructure:"path"`
}

type WebcamConfig struct {
	DeviceID string `mapstructure:"device_id"`
}

// Config is the effective configuration: defaults, then the file, then
// EMOTION_* overrides. Save writes the file values plus setter edits back;
// overrides never reach the file.
type Config struct {
	mu sync.RWMutex

	// store holds defaults and file values plus GUI edits, never overrides
	store *viper.Viper

	ServerURL    string     `mapstructure:"server_url"`
	ActiveSource SourceType `mapstructure:"active_source"`
	TargetFPS    uint       `mapstructure:"target_fps"`
	ScaledWidth  int        `mapstructure:"scaled_width"`
	ScaledHeight int        `mapstructure:"scaled_height"`
	JPEGQuality  int        `mapstructure:"jpeg_quality"`
	LogMode      string     `mapstructure:"log_mode"`

	Local  LocalConfig  `mapstructure:"local"`
	Webcam WebcamConfig `mapstructure:"webcam"`
}

func (c *Config) GetFPS() uint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.TargetFPS
}

func (c *Config) SetFPS(fps uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.TargetFPS = fps
	c.store.Set("target_fps", fps)
}

func (c *Config) GetWidth() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ScaledWidth
}

func (c *Config) SetWidth(width int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ScaledWidth = width
	c.store.Set("scaled_width", width)
}

func (c *Config) GetHeight() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ScaledHeight
}

func (c *Config) SetHeight(height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ScaledHeight = height
	c.store.Set("scaled_height", height)
}

func (c *Config) GetSource() SourceType {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ActiveSource
}

func (c *Config) SetSource(source SourceType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ActiveSource = source
	c.store.Set("active_source", string(source))
}

func (c *Config) GetDeviceID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Webcam.DeviceID
}

func (c *Config) SetDeviceID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Webcam.DeviceID = id
	c.store.Set("webcam.device_id", id)
}

func (c *Config) GetLocalPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Local.Path
}

func (c *Config) SetLocalPath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Local.Path = path
	c.store.Set("local.path", path)
}

func (c *Config) GetJPEGQuality() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.JPEGQuality
}

// SetServerURL overrides the endpoint for this run only; Save keeps the file's value.
func (c *Config) SetServerURL(u string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ServerURL = u
}

// PredictURL is the full emotion endpoint derived from ServerURL.
func (c *Config) PredictURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return strings.TrimRight(c.ServerURL, "/") + PredictPath
}

func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("server_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server_url must be http or https, got %q", c.ServerURL)
	}

	switch c.ActiveSource {
	case SourceWebcam, SourceLocal:
	default:
		return fmt.Errorf("unknown active_source: %s", c.ActiveSource)
	}

	if c.TargetFPS == 0 {
		return errors.New("target_fps must be positive")
	}
	if c.ScaledWidth <= 0 || c.ScaledHeight <= 0 {
		return errors.New("scaled_width and scaled_height must be positive")
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return errors.New("jpeg_quality must be between 1 and 100")
	}

	return nil
}

func (c *Config) Save(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Load reads path on top of the defaults. A missing file is not an error.
// EMOTION_* environment variables override both.
func Load(path string) (*Config, error) {
	store := newStore()
	v := newStore()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		for _, vp := range []*viper.Viper{store, v} {
			vp.SetConfigFile(path)
			if err := vp.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	cfg := &Config{store: store}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

func newStore() *viper.Viper {
	v := viper.New()
	v.SetConfigType("json")
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	d := defaultConfig()

	v.SetDefault("server_url", d.ServerURL)
	v.SetDefault("active_source", string(d.ActiveSource))
	v.SetDefault("target_fps", d.TargetFPS)
	v.SetDefault("scaled_width", d.ScaledWidth)
	v.SetDefault("scaled_height", d.ScaledHeight)
	v.SetDefault("jpeg_quality", d.JPEGQuality)
	v.SetDefault("log_mode", d.LogMode)
	v.SetDefault("local.path", d.Local.Path)
	v.SetDefault("webcam.device_id", d.Webcam.DeviceID)
}

func NewDefaultConfig() *Config {
	cfg := defaultConfig()
	cfg.store = newStore()
	return cfg
}

func defaultConfig() *Config {
	return &Config{
		ServerURL:    DefaultServerURL,
		ActiveSource: SourceWebcam,
		Local:        LocalConfig{Path: ""},
		Webcam:       WebcamConfig{DeviceID: defaultDevice()},
		TargetFPS:    24,
		ScaledWidth:  640,
		ScaledHeight: 480,
		JPEGQuality:  92,
		LogMode:      "debug",
	}
}
