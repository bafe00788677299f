package gstack

import(
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/skypies/util/histogram"
	_ "golang.org/x/image/tiff"

	_ "github.com/mdouchement/hdr/codec/rgbe"

	"github.com/aherbert/gdsc-align/pkg/gmath"
)

// A Slice is one loaded image of the stack: the first slice loaded is
// the reference, the rest are targets.
type Slice struct {
	Filename string
	Grid     gmath.FloatGrid
}

func (s Slice)String() string {
	return fmt.Sprintf("%s %s", filepath.Base(s.Filename), s.Grid.Stats())
}

// Load walks the given files and directories, reading yaml files as
// configuration and everything image-shaped as a slice. The first image
// becomes the reference.
func (s *Stack)Load(args ...string) error {
	for _, arg := range args {
		item, err := os.Stat(arg)

		switch {

		case err != nil:
			return fmt.Errorf("load %s: %v", arg, err)

		case item.IsDir():
			contents, err := ioutil.ReadDir(arg)
			if err != nil {
				return fmt.Errorf("readdir %s: %v", arg, err)
			}
			for _, content := range contents {
				if err := s.Load(filepath.Join(arg, content.Name())); err != nil {
					return fmt.Errorf("load %s: %v", arg, err)
				}
			}

		default:
			if err := s.loadFile(arg); err != nil {
				return fmt.Errorf("loadfile %s: %v", arg, err)
			}
		}
	}

	return nil
}

func (s *Stack)loadFile(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {

	case ".yaml":
		cfg, err := loadConfig(filename)
		if err != nil {
			return fmt.Errorf("loading %s as config YAML failed: %v", filename, err)
		}
		s.Config = cfg
		log.Printf("Loaded base configuration from %s\n", filename)
		return nil

	case ".png", ".tif", ".tiff", ".jpg", ".jpeg", ".hdr":
		slice, err := loadSlice(filename)
		if err != nil {
			return err
		}
		if s.Verbosity > 0 {
			s.logSliceStats(slice)
			if ext != ".png" && ext != ".hdr" {
				logExposure(filename)
			}
		}
		s.AddSlice(slice)
		return nil
	}

	// Silently skip anything else, so a whole directory can be pointed
	// at without curation.
	return nil
}

func loadSlice(filename string) (Slice, error) {
	reader, err := os.Open(filename)
	if err != nil {
		return Slice{}, fmt.Errorf("open+r img '%s': %v", filename, err)
	}
	defer reader.Close()

	img, _, err := image.Decode(reader)
	if err != nil {
		return Slice{}, fmt.Errorf("decoding '%s': %v", filename, err)
	}

	return Slice{
		Filename: filename,
		Grid:     gmath.NewFloatGridFromImage(img),
	}, nil
}

// logSliceStats accumulates an intensity histogram for the slice and
// logs it, a quick sanity check that an input isn't flat or clipped.
func (s *Stack)logSliceStats(slice Slice) {
	hist := histogram.Histogram{NumBuckets: 256, ValMin: 0, ValMax: 65536}
	for y:=0; y<slice.Grid.Dy(); y++ {
		for x:=0; x<slice.Grid.Dx(); x++ {
			hist.Add(histogram.ScalarVal(int(slice.Grid.Get(x, y))))
		}
	}
	log.Printf("loaded %s; intensity %v\n", slice, hist)
}

// logExposure pulls exposure metadata out of EXIF when present. Purely
// informational; inputs without EXIF are fine.
func logExposure(filename string) {
	reader, err := os.Open(filename)
	if err != nil {
		return
	}
	defer reader.Close()

	ex, err := exif.Decode(reader)
	if err != nil {
		return
	}

	iso := int64(0)
	if tag, err := ex.Get(exif.ISOSpeedRatings); err == nil {
		iso, _ = tag.Int64(0)
	}
	if tag, err := ex.Get(exif.ExposureTime); err == nil {
		if num, denom, err := tag.Rat2(0); err == nil {
			log.Printf("  exif: exposure %d/%ds, ISO %d\n", num, denom, iso)
		}
	}
}

// WritePNG writes an image out as PNG.
func WritePNG(img image.Image, filename string) error {
	if writer, err := os.Create(filename); err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	} else {
		defer writer.Close()
		return png.Encode(writer, img)
	}
}
