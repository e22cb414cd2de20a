// Package render draws camera samples for every pixel of an image, in
// parallel, into a resumable sample database.
package render

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sync"

	"github.com/golang/glog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"pathtrace/pixel"
	"pathtrace/rgbimage"
	"pathtrace/scene"
	"pathtrace/vmath/vec3"
)

const (
	DefaultSamples = 500

	// Spacing between the RNG seeds of adjacent rows.
	rowSeedStride = 1000003
)

type Shading int

const (
	ShadingPath Shading = iota
	ShadingNormals
)

func (s Shading) String() string {
	switch s {
	case ShadingPath:
		return "path"
	case ShadingNormals:
		return "normals"
	}
	return fmt.Sprintf("Shading(%d)", int(s))
}

func ParseShading(name string) (Shading, error) {
	switch name {
	case "path":
		return ShadingPath, nil
	case "normals":
		return ShadingNormals, nil
	}
	return 0, fmt.Errorf("unknown shading mode %q", name)
}

type Options struct {
	// Samples is the number of samples each pixel should end up with.  Zero
	// means DefaultSamples.
	Samples int

	// MaxDepth is the bounce limit.  Zero is a valid limit (only direct
	// background hits contribute); negative means scene.DefaultMaxDepth.
	MaxDepth int

	// Parallelism bounds the number of rows rendered at once.  Zero means
	// runtime.NumCPU().
	Parallelism int

	Seed    int64
	Shading Shading

	// NoJitter places every sample at the lower-left corner of its pixel.
	NoJitter bool
}

func (o Options) withDefaults() Options {
	if o.Samples <= 0 {
		o.Samples = DefaultSamples
	}
	if o.MaxDepth < 0 {
		o.MaxDepth = scene.DefaultMaxDepth
	}
	if o.Parallelism <= 0 {
		o.Parallelism = runtime.NumCPU()
	}
	return o
}

// ProgressFunction receives the number of new samples drawn so far and the
// number the render will draw in total.  Calls are serialized.
type ProgressFunction func(cur, total int)

// rowWorker tops up one row.  chunk is the row's private copy of the sample
// database; the caller pastes it back when the worker is done.
type rowWorker struct {
	scene *scene.Scene
	opts  Options

	chunk      *rgbimage.SampleImage
	out        *rgbimage.Image
	row, nRows int
	rng        *rand.Rand
}

func (w *rowWorker) sample(s, t float64) vec3.T {
	r := w.scene.Camera.ImageToRay(s, t, w.rng)
	if w.opts.Shading == ShadingNormals {
		return w.scene.NormalRay(r)
	}
	return w.scene.SampleRay(r, w.rng, w.opts.MaxDepth)
}

func (w *rowWorker) jitter() float64 {
	if w.opts.NoJitter {
		return 0
	}
	return w.rng.Float64()
}

// render returns the number of new samples drawn.
func (w *rowWorker) render() int {
	rows := float64(w.nRows)
	cols := float64(w.chunk.ColSize)
	target := uint64(w.opts.Samples)

	drawn := 0
	for c := 0; c < w.chunk.ColSize; c++ {
		acc := w.chunk.Accumulator(0, c)
		for ; acc.N < target; drawn++ {
			s := (float64(c) + w.jitter()) / cols
			t := (float64(w.nRows-1-w.row) + w.jitter()) / rows
			acc.Add(pixel.FromVec(w.sample(s, t)))
		}
		w.chunk.Store(0, c, acc)
		w.out.Set(w.row, c, acc.Resolve())
	}
	return drawn
}

// resolve fills the output row without drawing anything.
func (w *rowWorker) resolve() {
	for c := 0; c < w.chunk.ColSize; c++ {
		acc := w.chunk.Accumulator(0, c)
		w.out.Set(w.row, c, acc.Resolve())
	}
}

// Render tops every pixel of db up to opts.Samples samples of sc and returns
// the resolved image.  db may already hold samples from an earlier render;
// only the missing ones are drawn.  For fixed options and db contents the
// result does not depend on opts.Parallelism.
//
// sc must be crushed.
func Render(ctx context.Context, sc *scene.Scene, opts Options, db *rgbimage.SampleImage, progress ProgressFunction) (*rgbimage.Image, error) {
	tracer := otel.Tracer("pathtrace/render")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "Render")
	defer span.End()

	if db == nil {
		err := fmt.Errorf("no sample database")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	opts = opts.withDefaults()

	span.SetAttributes(
		attribute.Int64("rows", int64(db.RowSize)),
		attribute.Int64("cols", int64(db.ColSize)),
		attribute.Int64("samples", int64(opts.Samples)),
		attribute.Int64("parallelism", int64(opts.Parallelism)),
		attribute.String("shading", opts.Shading.String()),
	)

	out, err := render(ctx, sc, opts, db, progress)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return out, nil
}

func render(ctx context.Context, sc *scene.Scene, opts Options, db *rgbimage.SampleImage, progress ProgressFunction) (*rgbimage.Image, error) {
	if sc.Camera == nil {
		return nil, fmt.Errorf("scene has no camera")
	}
	if sc.QueryAccelerator == nil {
		return nil, fmt.Errorf("scene has not been crushed")
	}

	out := rgbimage.New(db.RowSize, db.ColSize)

	// Count the samples this render will add, for progress reporting.
	total := 0
	for _, n := range db.Counts {
		if int(n) < opts.Samples {
			total += opts.Samples - int(n)
		}
	}

	// progressMutex guards cur and serializes calls to progress.
	progressMutex := sync.Mutex{}
	cur := 0

	eg, ctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(opts.Parallelism))

	for row := 0; row < db.RowSize; row++ {
		row := row

		if err := sem.Acquire(ctx, 1); err != nil {
			// Drain the workers already started before reporting.
			eg.Wait()
			return nil, fmt.Errorf("while acquiring concurrency limiter semaphore: %w", err)
		}

		eg.Go(func() error {
			defer sem.Release(1)

			if err := ctx.Err(); err != nil {
				return fmt.Errorf("while rendering row %d: %w", row, err)
			}

			// Workers own disjoint rows of db, so each one samples into a
			// private copy of its row and pastes it back.
			chunk := db.Cut(row, row+1)

			w := &rowWorker{
				scene: sc,
				opts:  opts,
				chunk: chunk,
				out:   out,
				row:   row,
				nRows: db.RowSize,
			}

			drawn := 0
			if chunk.MinCount(0) >= uint64(opts.Samples) {
				w.resolve()
			} else {
				// Seeding from the samples already present keeps a resumed
				// render from repeating the choices of the first one.
				existing := uint64(0)
				for _, n := range chunk.Counts {
					existing += n
				}
				w.rng = rand.New(rand.NewSource(opts.Seed + int64(row)*rowSeedStride + int64(existing)))

				drawn = w.render()
				if err := db.Paste(chunk, row); err != nil {
					return fmt.Errorf("while storing row %d: %w", row, err)
				}
			}

			recordRow(ctx, opts.Shading, drawn)
			glog.V(1).Infof("Rendered row %d with %d new samples", row, drawn)

			if progress != nil {
				progressMutex.Lock()
				defer progressMutex.Unlock()
				cur += drawn
				progress(cur, total)
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("while waiting for completion of errgroup: %w", err)
	}

	return out, nil
}
