package gstack

import(
	"fmt"
	"io/ioutil"
	"log"

	"gopkg.in/yaml.v2"

	"github.com/aherbert/gdsc-align/pkg/align"
)

// Config drives a stack alignment run. It can come from a yaml file,
// with command line flags overriding individual fields.
type Config struct {
	Verbosity     int
	Window        string  // none | hanning | cosine | tukey
	Normalized    bool
	SubPixel      string  // none | cubic | gaussian
	Interpolation string  // none | linear | cubic
	ClipOutput    bool
	Workers       int
	OutputDir     string

	// Optional explicit search bounds; nil means the half-max default.
	Bounds        *BoundsConfig

	// Offsets found by a previous run, keyed by filename. A slice with
	// an entry here is translated directly instead of re-aligned.
	Offsets       map[string][2]float64
}

type BoundsConfig struct {
	MinX, MaxX int
	MinY, MaxY int
}

func NewConfig() Config {
	return Config{
		Window:        "tukey",
		Normalized:    true,
		SubPixel:      "none",
		Interpolation: "none",
		Workers:       1,
		Offsets:       map[string][2]float64{},
	}
}

func newConfigFromYaml(b []byte) (Config, error) {
	c := NewConfig()
	err := yaml.Unmarshal(b, &c)
	return c, err
}

func (c Config)AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		log.Fatalf("Can't marshal config yaml: %v\n", err)
	}
	return string(b)
}

// engineOptions parses the string-typed config fields into engine
// enums, so a bad config fails before any image work.
func (c Config)engineOptions() (align.WindowKind, align.AlignOptions, error) {
	kind, err := align.ParseWindowKind(c.Window)
	if err != nil {
		return kind, align.AlignOptions{}, err
	}

	sub, err := align.ParseSubPixelMethod(c.SubPixel)
	if err != nil {
		return kind, align.AlignOptions{}, err
	}

	interp, err := align.ParseInterpolation(c.Interpolation)
	if err != nil {
		return kind, align.AlignOptions{}, err
	}

	opt := align.AlignOptions{
		SubPixel:      sub,
		Interpolation: interp,
		ClipOutput:    c.ClipOutput,
	}
	if c.Bounds != nil {
		opt.Bounds = &align.Bounds{
			MinX: c.Bounds.MinX, MaxX: c.Bounds.MaxX,
			MinY: c.Bounds.MinY, MaxY: c.Bounds.MaxY,
		}
	}
	return kind, opt, nil
}

func loadConfig(filename string) (Config, error) {
	contents, err := ioutil.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("config read %s: %v", filename, err)
	}
	return newConfigFromYaml(contents)
}

// WriteOffsets persists the discovered offsets as yaml, in a form Load
// accepts back as configuration for a later run.
func (c Config)WriteOffsets(filename string) error {
	out := struct {
		Offsets map[string][2]float64
	}{Offsets: c.Offsets}

	b, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshal offsets: %v", err)
	}
	return ioutil.WriteFile(filename, b, 0644)
}
