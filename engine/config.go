package engine

import (
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/vibe/engine/math"
	"github.com/spaghettifunk/vibe/engine/renderer/components"
)

const (
	DEFAULT_WINDOW_TITLE    = "Vulkan Vibe"
	DEFAULT_WINDOW_WIDTH    = 800
	DEFAULT_WINDOW_HEIGHT   = 600
	DEFAULT_DISC_SEGMENTS   = 32
	DEFAULT_SHADER_DIR      = "shaders"
	DEFAULT_VERTEX_SHADER   = "shaders/vert.spv"
	DEFAULT_FRAGMENT_SHADER = "shaders/frag.spv"
)

type ApplicationConfig struct {
	// The application name used in windowing, if applicable.
	Name string `toml:"name"`
	// Window starting position x axis, if applicable.
	StartPosX uint32 `toml:"start_pos_x"`
	// Window starting position y axis, if applicable.
	StartPosY uint32 `toml:"start_pos_y"`
	// Window starting width, if applicable.
	StartWidth uint32 `toml:"start_width"`
	// Window starting height, if applicable.
	StartHeight uint32 `toml:"start_height"`
	// Optional PNG or BMP file used as the window icon.
	Icon     string `toml:"icon"`
	LogLevel string `toml:"log_level"`
	// Enables the validation layer and the debug report callback.
	Debug bool `toml:"debug"`

	Shaders ShaderConfig `toml:"shaders"`
	Disc    DiscConfig   `toml:"disc"`
}

type ShaderConfig struct {
	// Watched for changes; a change rebuilds the pipeline.
	Dir      string `toml:"dir"`
	Vertex   string `toml:"vertex"`
	Fragment string `toml:"fragment"`
}

type DiscConfig struct {
	Radius   float32    `toml:"radius"`
	Segments uint32     `toml:"segments"`
	Velocity [2]float32 `toml:"velocity"`
	// RGBA, each channel in [0, 1].
	ClearColor [4]float32 `toml:"clear_color"`
}

func DefaultApplicationConfig() *ApplicationConfig {
	return &ApplicationConfig{
		Name:        DEFAULT_WINDOW_TITLE,
		StartPosX:   100,
		StartPosY:   100,
		StartWidth:  DEFAULT_WINDOW_WIDTH,
		StartHeight: DEFAULT_WINDOW_HEIGHT,
		LogLevel:    "info",
		Shaders: ShaderConfig{
			Dir:      DEFAULT_SHADER_DIR,
			Vertex:   DEFAULT_VERTEX_SHADER,
			Fragment: DEFAULT_FRAGMENT_SHADER,
		},
		Disc: DiscConfig{
			Radius:     components.DEFAULT_BOUNCER_RADIUS,
			Segments:   DEFAULT_DISC_SEGMENTS,
			Velocity:   [2]float32{components.DefaultBouncerVelocity.X, components.DefaultBouncerVelocity.Y},
			ClearColor: [4]float32{0, 0, 0, 1},
		},
	}
}

// LoadApplicationConfig reads a TOML file on top of the defaults. A missing
// file is not an error: the defaults are returned.
func LoadApplicationConfig(path string) (*ApplicationConfig, error) {
	config := DefaultApplicationConfig()
	if path == "" {
		return config, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config, nil
		}
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return config, nil
}

func (c *ApplicationConfig) Validate() error {
	if c.StartWidth == 0 || c.StartHeight == 0 {
		return errors.Errorf("window size %dx%d must not be zero", c.StartWidth, c.StartHeight)
	}
	if c.Disc.Radius <= 0 {
		return errors.Errorf("disc radius %f must be positive", c.Disc.Radius)
	}
	if c.Disc.Segments < 3 {
		return errors.Errorf("disc needs at least 3 segments, got %d", c.Disc.Segments)
	}
	if c.Shaders.Vertex == "" || c.Shaders.Fragment == "" {
		return errors.New("both shader paths are required")
	}
	return nil
}

func (c *ApplicationConfig) Velocity() math.Vec2 {
	return math.NewVec2(c.Disc.Velocity[0], c.Disc.Velocity[1])
}

// VertexCount is the center, one vertex per segment and the closing one.
func (c *ApplicationConfig) VertexCount() uint32 {
	return c.Disc.Segments + 2
}
