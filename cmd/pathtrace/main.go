// pathtrace renders the built-in scenes with a Monte-Carlo path tracer.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"go.opencensus.io/stats/view"
	"golang.org/x/term"
	"golang.org/x/time/rate"

	"pathtrace/render"
	"pathtrace/rgbimage"
	"pathtrace/scenepack"
	"pathtrace/vmath/vec3"
)

var cmdRoot = &cobra.Command{
	Use:           "pathtrace",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	sceneName   string
	imageWidth  int
	imageHeight int
	samples     int
	maxDepth    int
	seed        int64
	parallelism int
	shading     string
	noJitter    bool

	meshFile    string
	meshScale   float64
	meshRotateY float64
	meshOffset  [3]float64

	outputFile     string
	checkpointFile string
	cpuProfile     string
	logMetrics     bool
)

func init() {
	cmdRender.Flags().StringVar(&sceneName, "scene", "two-spheres", "Scene to render (see the scenes command)")
	cmdRender.Flags().IntVar(&imageWidth, "width", 200, "Output image columns")
	cmdRender.Flags().IntVar(&imageHeight, "height", 100, "Output image rows")
	cmdRender.Flags().IntVar(&samples, "samples", render.DefaultSamples, "Samples to collect for each pixel")
	cmdRender.Flags().IntVar(&maxDepth, "max-depth", 50, "Maximum number of bounces to follow")
	cmdRender.Flags().Int64Var(&seed, "seed", 0, "Seed for scene layout and sampling")
	cmdRender.Flags().IntVar(&parallelism, "parallelism", 0, "Rows to render at once (0 for one per CPU)")
	cmdRender.Flags().StringVar(&shading, "shading", "path", "Shading mode: path or normals")
	cmdRender.Flags().BoolVar(&noJitter, "no-jitter", false, "Sample every pixel at its corner instead of at random positions")

	cmdRender.Flags().StringVar(&meshFile, "mesh", "", "OBJ file for the mesh scene")
	cmdRender.Flags().Float64Var(&meshScale, "mesh-scale", 1.0, "Uniform scale applied to the mesh")
	cmdRender.Flags().Float64Var(&meshRotateY, "mesh-rotate-y", 0.0, "Rotation of the mesh about Y, in degrees")
	cmdRender.Flags().Float64Var(&meshOffset[0], "mesh-offset-x", 0.0, "Translation of the mesh along X")
	cmdRender.Flags().Float64Var(&meshOffset[1], "mesh-offset-y", 0.0, "Translation of the mesh along Y")
	cmdRender.Flags().Float64Var(&meshOffset[2], "mesh-offset-z", 0.0, "Translation of the mesh along Z")

	cmdRender.Flags().StringVar(&outputFile, "output", "output.png", "Output image (.png or .ppm)")
	cmdRender.Flags().StringVar(&checkpointFile, "checkpoint", "", "Sample database to resume from and save to")
	cmdRender.Flags().StringVar(&cpuProfile, "cpuprofile", "", "Write a CPU profile to this file")
	cmdRender.Flags().BoolVar(&logMetrics, "metrics", false, "Log render metrics at exit")

	cmdConvert.Flags().StringVar(&checkpointFile, "checkpoint", "", "Sample database to read")
	cmdConvert.Flags().StringVar(&outputFile, "output", "output.png", "Output image (.png or .ppm)")
}

var cmdRender = &cobra.Command{
	Use:   "render",
	Short: "Render a scene",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		if cpuProfile != "" {
			f, err := os.Create(cpuProfile)
			if err != nil {
				return fmt.Errorf("while creating CPU profile: %w", err)
			}
			defer f.Close()
			if err := pprof.StartCPUProfile(f); err != nil {
				return fmt.Errorf("while starting CPU profile: %w", err)
			}
			defer pprof.StopCPUProfile()
		}

		if logMetrics {
			if err := render.RegisterViews(); err != nil {
				return fmt.Errorf("while registering metric views: %w", err)
			}
			defer logViews()
		}

		return doRender(ctx)
	},
}

func doRender(ctx context.Context) error {
	if imageWidth <= 0 || imageHeight <= 0 {
		return fmt.Errorf("bad image size %dx%d", imageWidth, imageHeight)
	}

	shadingMode, err := render.ParseShading(shading)
	if err != nil {
		return err
	}

	sc, err := scenepack.Build(ctx, scenepack.Config{
		Name:        sceneName,
		Aspect:      float64(imageWidth) / float64(imageHeight),
		Seed:        seed,
		MeshPath:    meshFile,
		MeshScale:   meshScale,
		MeshRotateY: meshRotateY,
		MeshOffset:  vec3.T(meshOffset),
	})
	if err != nil {
		return fmt.Errorf("while building scene: %w", err)
	}

	db, err := loadSampleDB()
	if err != nil {
		return err
	}

	opts := render.Options{
		Samples:     samples,
		MaxDepth:    maxDepth,
		Parallelism: parallelism,
		Seed:        seed,
		Shading:     shadingMode,
		NoJitter:    noJitter,
	}
	glog.Infof("Rendering %q at %dx%d, %d samples, max depth %d", sceneName, imageWidth, imageHeight, samples, maxDepth)

	start := time.Now()
	im, renderErr := render.Render(ctx, sc, opts, db, progressPrinter())
	if term.IsTerminal(int(os.Stderr.Fd())) {
		fmt.Fprintf(os.Stderr, "\n")
	}

	// Completed pixels are kept even when the render is interrupted.
	if checkpointFile != "" {
		if err := rgbimage.WriteSampleImageToFile(db, checkpointFile); err != nil {
			return fmt.Errorf("while writing checkpoint: %w", err)
		}
		glog.Infof("Wrote checkpoint %s", checkpointFile)
	}

	if renderErr != nil {
		return fmt.Errorf("while rendering: %w", renderErr)
	}
	glog.Infof("Rendered in %v", time.Since(start))

	if err := im.WriteFile(outputFile); err != nil {
		return fmt.Errorf("while writing output image: %w", err)
	}
	glog.Infof("Wrote %s", outputFile)

	return nil
}

// loadSampleDB resumes from the checkpoint file if it exists.
func loadSampleDB() (*rgbimage.SampleImage, error) {
	if checkpointFile == "" {
		return rgbimage.NewSampleImage(imageHeight, imageWidth), nil
	}

	db, err := rgbimage.ReadSampleImageFromFile(checkpointFile)
	if errors.Is(err, os.ErrNotExist) {
		return rgbimage.NewSampleImage(imageHeight, imageWidth), nil
	}
	if err != nil {
		return nil, fmt.Errorf("while loading checkpoint: %w", err)
	}

	if db.RowSize != imageHeight || db.ColSize != imageWidth {
		return nil, fmt.Errorf("checkpoint is %dx%d, but the requested image is %dx%d", db.ColSize, db.RowSize, imageWidth, imageHeight)
	}

	glog.Infof("Resuming from checkpoint %s", checkpointFile)
	return db, nil
}

// progressPrinter redraws a progress line on stderr at most ten times a
// second, and only when stderr is a terminal.
func progressPrinter() render.ProgressFunction {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return nil
	}

	limiter := rate.NewLimiter(rate.Every(100*time.Millisecond), 1)
	return func(cur, tot int) {
		if cur != tot && !limiter.Allow() {
			return
		}
		pct := 100
		if tot != 0 {
			pct = 100 * cur / tot
		}
		fmt.Fprintf(os.Stderr, "\r%d/%d %d%%", cur, tot, pct)
	}
}

func logViews() {
	for _, v := range []*view.View{render.SamplesView, render.RowsView} {
		rows, err := view.RetrieveData(v.Name)
		if err != nil {
			glog.Errorf("Error while retrieving view %s: %v", v.Name, err)
			continue
		}
		for _, row := range rows {
			glog.Infof("Metric %s: %v", v.Name, row)
		}
	}
}

var cmdConvert = &cobra.Command{
	Use:   "convert",
	Short: "Resolve a checkpoint into an image",
	RunE: func(cmd *cobra.Command, args []string) error {
		if checkpointFile == "" {
			return fmt.Errorf("--checkpoint is required")
		}

		db, err := rgbimage.ReadSampleImageFromFile(checkpointFile)
		if err != nil {
			return fmt.Errorf("while loading checkpoint: %w", err)
		}

		if err := db.Resolve().WriteFile(outputFile); err != nil {
			return fmt.Errorf("while writing output image: %w", err)
		}
		return nil
	},
}

var cmdScenes = &cobra.Command{
	Use:   "scenes",
	Short: "List the built-in scenes",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, n := range scenepack.Names() {
			fmt.Println(n)
		}
		return nil
	},
}

func main() {
	// glog registers its flags on the standard flag set.
	cmdRoot.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	flag.CommandLine.Parse([]string{})

	glog.CopyStandardLogTo("INFO")
	defer glog.Flush()

	cmdRoot.AddCommand(cmdRender, cmdConvert, cmdScenes)

	if err := cmdRoot.Execute(); err != nil {
		glog.Exitf("Error: %v", err)
	}
}
