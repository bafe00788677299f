// Package gstack aligns a stack of images against its first slice,
// fanning the per-slice work out over a worker pool. The engine's
// reference context is computed once and shared read-only; each job
// owns all of its scratch state, so any worker count is safe.
package gstack

import(
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"github.com/codahale/hdrhistogram"

	"github.com/aherbert/gdsc-align/pkg/align"
	"github.com/aherbert/gdsc-align/pkg/gmath"
)

// A Stack of images to be registered. Slices[0] is the reference; every
// other slice gets aligned to it.
type Stack struct {
	Config
	Slices []Slice
}

func NewStack() Stack {
	return Stack{
		Config: NewConfig(),
		Slices: []Slice{},
	}
}

func (s Stack)String() string {
	str := "Stack[\n"
	for _, sl := range s.Slices {
		str += fmt.Sprintf("  %s\n", sl)
	}
	return str + "]\n"
}

func (s *Stack)AddSlice(slice Slice) {
	s.Slices = append(s.Slices, slice)
}

type alignJob struct {
	Slice    Slice

	// Outputs
	Res      align.Result
	Err      error
	Skipped  bool // cancelled before this slice started
	Reused   bool // offset came from config, no alignment run
}

// Run aligns every slice after the first against the reference,
// translating each by its discovered offset and recording the offsets
// in the config map. Cancellation is cooperative: it is checked between
// slices, and results already produced are kept.
func (s *Stack)Run(ctx context.Context) error {
	if len(s.Slices) < 2 {
		return fmt.Errorf("stack has %d slice(s), need a reference and at least one target", len(s.Slices))
	}

	kind, baseOpt, err := s.Config.engineOptions()
	if err != nil {
		return err
	}

	ref := s.Slices[0]
	log.Printf("Building reference context from %s\n", ref)
	rc, err := align.NewRefContext(ref.Grid, kind, s.Normalized)
	if err != nil {
		return fmt.Errorf("reference %s: %v", ref.Filename, err)
	}

	nWorkers := s.Workers
	if nWorkers < 1 { nWorkers = 1 }
	if nWorkers > len(s.Slices)-1 { nWorkers = len(s.Slices) - 1 }

	var wg sync.WaitGroup
	jobsChan := make(chan alignJob, len(s.Slices)-1)
	resultsChan := make(chan alignJob, len(s.Slices)-1)

	for i:=0; i<nWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobsChan {
				if ctx.Err() != nil {
					job.Skipped = true
					resultsChan <- job
					continue
				}
				job.Res, job.Err, job.Reused = s.alignOne(rc, baseOpt, job.Slice)
				resultsChan <- job
			}
		}()
	}

	for _, slice := range s.Slices[1:] {
		jobsChan <- alignJob{Slice: slice}
	}
	close(jobsChan)
	wg.Wait()
	close(resultsChan)

	// Scores over the whole run, in milli-units so the histogram can
	// bucket them.
	scores := hdrhistogram.New(-1100, 1100, 3)

	nErr := 0
	for job := range resultsChan {
		name := filepath.Base(job.Slice.Filename)
		switch {
		case job.Skipped:
			log.Printf("%s: skipped (cancelled)\n", name)
		case job.Err != nil:
			nErr++
			log.Printf("%s: alignment failed: %v\n", name, job.Err)
		default:
			s.Offsets[name] = [2]float64{job.Res.DX, job.Res.DY}
			if !job.Reused && s.Normalized {
				// Normalized scores sit in [-1.1, 1.1], so milli-units
				// always fit the histogram range.
				scores.RecordValue(int64(job.Res.Score * 1000.0))
			}
			log.Printf("%s: offset (%.3f, %.3f) score %.4f\n", name, job.Res.DX, job.Res.DY, job.Res.Score)

			if s.OutputDir != "" {
				out := filepath.Join(s.OutputDir, "aligned-"+strings.TrimSuffix(name, filepath.Ext(name))+".png")
				if err := WritePNG(job.Res.Translated.ToGray(), out); err != nil {
					log.Printf("%s: write failed: %v\n", out, err)
				}
			}
		}
	}

	if scores.TotalCount() > 0 {
		log.Printf("scores (milli): mean %.0f, p50 %d, p99 %d, max %d over %d slices\n",
			scores.Mean(), scores.ValueAtQuantile(50), scores.ValueAtQuantile(99),
			scores.Max(), scores.TotalCount())
	}

	if nErr > 0 {
		return fmt.Errorf("%d slice(s) failed to align", nErr)
	}
	return ctx.Err()
}

// alignOne registers a single slice, or reuses a previously discovered
// offset when the config carries one for this filename.
func (s *Stack)alignOne(rc *align.RefContext, opt align.AlignOptions, slice Slice) (align.Result, error, bool) {
	name := filepath.Base(slice.Filename)

	if off, exists := s.Offsets[name]; exists {
		log.Printf("%s: using offset from config (%.3f, %.3f)\n", name, off[0], off[1])
		res := align.Result{
			DX: off[0],
			DY: off[1],
			Translated: align.Translate(&slice.Grid, off[0], off[1], opt.Interpolation, opt.ClipOutput),
		}
		return res, nil, true
	}

	if s.Verbosity > 1 && s.Workers <= 1 {
		base := strings.TrimSuffix(name, filepath.Ext(name))
		opt.OnIntermediate = func(bufName string, fg gmath.FloatGrid) {
			out := filepath.Join(s.OutputDir, fmt.Sprintf("dump-%s-%s.png", base, bufName))
			var err error
			if strings.Contains(bufName, "correlation") {
				err = fg.ToHeatImg(bufName, out)
			} else {
				err = fg.ToImg(bufName, out)
			}
			if err != nil {
				log.Printf("debug dump %s: %v\n", out, err)
			}
		}
	}

	res, err := rc.Align(slice.Grid, opt)
	return res, err, false
}
