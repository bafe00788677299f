package main

import(
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/aherbert/gdsc-align/pkg/gstack"
)

var(
	fVerbosity int
	fWindow string
	fSubPixel string
	fInterpolation string
	fNormalized bool
	fClipOutput bool
	fWorkers int
	fOutputDir string
	fOffsetsOut string
)

func init() {
	flag.IntVar(&fVerbosity, "v", 0, "how verbose to get")
	flag.StringVar(&fWindow, "window", "tukey", "edge taper: none|hanning|cosine|tukey")
	flag.StringVar(&fSubPixel, "subpixel", "none", "sub-pixel refinement: none|cubic|gaussian")
	flag.StringVar(&fInterpolation, "interp", "none", "translation interpolation: none|linear|cubic")
	flag.BoolVar(&fNormalized, "normalized", true, "normalize correlation scores against local reference energy")
	flag.BoolVar(&fClipOutput, "clip", false, "clamp translated output to the input value range")
	flag.IntVar(&fWorkers, "workers", 1, "how many slices to align concurrently")
	flag.StringVar(&fOutputDir, "o", ".", "directory for aligned output images")
	flag.StringVar(&fOffsetsOut, "offsets", "offsets.yaml", "where to write the discovered offsets")
	flag.Parse()

	log.Printf("gdsc-align starting\n")
}

func main() {
	s := gstack.NewStack()
	if err := s.Load(flag.Args()...); err != nil {
		log.Fatal(err)
	}

	// Override the config file with command line args, if relevant
	if fWindow != "" { s.Window = fWindow }
	if fSubPixel != "" { s.SubPixel = fSubPixel }
	if fInterpolation != "" { s.Interpolation = fInterpolation }
	if fOutputDir != "" { s.OutputDir = fOutputDir }
	if fWorkers > 0 { s.Workers = fWorkers }

	// Just set the bool vars
	s.Normalized = fNormalized
	s.ClipOutput = fClipOutput
	s.Verbosity = fVerbosity

	if s.Verbosity > 0 {
		log.Printf("Final configuration:-\n\n%s\n", s.AsYaml())
	}

	// A ctrl-c stops between slices, keeping what's already aligned.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := s.Run(ctx); err != nil {
		log.Fatalf("alignment run failed: %v\n", err)
	}

	if fOffsetsOut != "" {
		if err := s.WriteOffsets(fOffsetsOut); err != nil {
			log.Fatalf("writing %s: %v\n", fOffsetsOut, err)
		}
		log.Printf("offsets written to %s\n", fOffsetsOut)
	}
}
