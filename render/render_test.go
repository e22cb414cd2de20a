package render

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.opencensus.io/stats/view"

	"pathtrace/pixel"
	"pathtrace/rgbimage"
	"pathtrace/scene"
	"pathtrace/scenepack"
)

func twoSpheres(t *testing.T) *scene.Scene {
	t.Helper()
	sc, err := scenepack.Build(context.Background(), scenepack.Config{Name: "two-spheres", Aspect: 2})
	if err != nil {
		t.Fatalf("Error while building scene: %v", err)
	}
	return sc
}

func TestNormalsNoJitter(t *testing.T) {
	sc := twoSpheres(t)
	db := rgbimage.NewSampleImage(10, 20)

	im, err := Render(context.Background(), sc, Options{
		Samples:  1,
		Shading:  ShadingNormals,
		NoJitter: true,
	}, db, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for r := 0; r < 10; r++ {
		for c := 0; c < 20; c++ {
			ray := sc.Camera.ImageToRay(float64(c)/20, float64(10-1-r)/10, nil)
			want := pixel.Gamma(pixel.FromVec(sc.NormalRay(ray)))
			if diff := cmp.Diff(im.Get(r, c), want); diff != "" {
				t.Fatalf("Pixel (%d, %d); diff (-got +want)\n%s", r, c, diff)
			}
		}
	}

	// Row 0 is the top of the picture, which is sky.  The bottom row is
	// ground.
	top := im.Get(0, 0)
	bottom := im.Get(9, 0)
	if top == bottom {
		t.Errorf("Top and bottom rows are both %v", top)
	}
}

func TestDeterministic(t *testing.T) {
	sc := twoSpheres(t)

	var images []*rgbimage.Image
	for _, parallelism := range []int{1, 3, 8} {
		im, err := Render(context.Background(), sc, Options{
			Samples:     4,
			MaxDepth:    5,
			Parallelism: parallelism,
			Seed:        42,
		}, rgbimage.NewSampleImage(8, 16), nil)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		images = append(images, im)
	}

	for i := 1; i < len(images); i++ {
		if diff := cmp.Diff(images[i], images[0]); diff != "" {
			t.Errorf("Render depends on parallelism; diff (-got +want)\n%s", diff)
		}
	}
}

func TestSeedMatters(t *testing.T) {
	sc := twoSpheres(t)

	draw := func(seed int64) *rgbimage.Image {
		im, err := Render(context.Background(), sc, Options{Samples: 2, Seed: seed}, rgbimage.NewSampleImage(8, 16), nil)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		return im
	}

	if cmp.Equal(draw(1), draw(2)) {
		t.Errorf("Different seeds gave identical images")
	}
}

func TestResume(t *testing.T) {
	sc := twoSpheres(t)
	db := rgbimage.NewSampleImage(4, 8)

	if _, err := Render(context.Background(), sc, Options{Samples: 2}, db, nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for i, n := range db.Counts {
		if n != 2 {
			t.Fatalf("Pixel %d has %d samples, want 2", i, n)
		}
	}

	var lastCur, lastTotal int
	progress := func(cur, total int) {
		lastCur, lastTotal = cur, total
	}
	if _, err := Render(context.Background(), sc, Options{Samples: 5}, db, progress); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for i, n := range db.Counts {
		if n != 5 {
			t.Fatalf("Pixel %d has %d samples, want 5", i, n)
		}
	}
	if lastCur != 4*8*3 || lastTotal != 4*8*3 {
		t.Errorf("Final progress %d/%d, want %d/%d", lastCur, lastTotal, 4*8*3, 4*8*3)
	}

	// Asking for fewer samples than already present draws nothing and
	// resolves the database as it stands.
	before := append([]uint64(nil), db.Sums...)
	im, err := Render(context.Background(), sc, Options{Samples: 3}, db, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if diff := cmp.Diff(db.Sums, before); diff != "" {
		t.Errorf("Sums changed; diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(im, db.Resolve()); diff != "" {
		t.Errorf("diff (-got +want)\n%s", diff)
	}
}

func TestRenderFillsOnlyShortRows(t *testing.T) {
	sc := twoSpheres(t)

	full := rgbimage.NewSampleImage(4, 8)
	if _, err := Render(context.Background(), sc, Options{Samples: 3, Seed: 2}, full, nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Rows 0 and 2 are complete; rows 1 and 3 start empty.
	db := rgbimage.NewSampleImage(4, 8)
	for _, r := range []int{0, 2} {
		if err := db.Paste(full.Cut(r, r+1), r); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	if _, err := Render(context.Background(), sc, Options{Samples: 3, Seed: 2, Parallelism: 4}, db, nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for _, r := range []int{0, 2} {
		if diff := cmp.Diff(db.Cut(r, r+1), full.Cut(r, r+1)); diff != "" {
			t.Errorf("Complete row %d changed; diff (-got +want)\n%s", r, diff)
		}
	}
	for _, r := range []int{1, 3} {
		if got := db.MinCount(r); got != 3 {
			t.Errorf("Row %d has a pixel with %d samples, want 3", r, got)
		}
	}
}

func TestResumeFromCheckpoint(t *testing.T) {
	sc := twoSpheres(t)
	db := rgbimage.NewSampleImage(4, 8)

	if _, err := Render(context.Background(), sc, Options{Samples: 3, Seed: 7}, db, nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "render.samples")
	if err := rgbimage.WriteSampleImageToFile(db, path); err != nil {
		t.Fatalf("Error while writing checkpoint: %v", err)
	}
	loaded, err := rgbimage.ReadSampleImageFromFile(path)
	if err != nil {
		t.Fatalf("Error while reading checkpoint: %v", err)
	}

	want, err := Render(context.Background(), sc, Options{Samples: 6, Seed: 7}, db, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	got, err := Render(context.Background(), sc, Options{Samples: 6, Seed: 7}, loaded, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Resuming from disk differs from resuming in memory; diff (-got +want)\n%s", diff)
	}
}

func TestErrors(t *testing.T) {
	t.Run("uncrushed scene", func(t *testing.T) {
		sc := twoSpheres(t)
		sc.QueryAccelerator = nil
		if _, err := Render(context.Background(), sc, Options{}, rgbimage.NewSampleImage(2, 2), nil); err == nil {
			t.Errorf("Expected an error")
		}
	})

	t.Run("no sample database", func(t *testing.T) {
		if _, err := Render(context.Background(), twoSpheres(t), Options{}, nil, nil); err == nil {
			t.Errorf("Expected an error")
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := Render(ctx, twoSpheres(t), Options{Samples: 1}, rgbimage.NewSampleImage(16, 16), nil); err == nil {
			t.Errorf("Expected an error")
		}
	})
}

func TestParseShading(t *testing.T) {
	for _, s := range []Shading{ShadingPath, ShadingNormals} {
		got, err := ParseShading(s.String())
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if got != s {
			t.Errorf("ParseShading(%q) = %v, want %v", s.String(), got, s)
		}
	}
	if _, err := ParseShading("wireframe"); err == nil {
		t.Errorf("Expected an error")
	}
}

func TestMetrics(t *testing.T) {
	if err := RegisterViews(); err != nil {
		t.Fatalf("Error while registering views: %v", err)
	}
	defer view.Unregister(SamplesView, RowsView)

	sc := twoSpheres(t)
	if _, err := Render(context.Background(), sc, Options{Samples: 2, Shading: ShadingNormals}, rgbimage.NewSampleImage(5, 3), nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	rows, err := view.RetrieveData(RowsView.Name)
	if err != nil {
		t.Fatalf("Error while retrieving rows view: %v", err)
	}
	count := int64(0)
	for _, row := range rows {
		count += row.Data.(*view.CountData).Value
	}
	if count != 5 {
		t.Errorf("Rows counted = %d, want 5", count)
	}

	samples, err := view.RetrieveData(SamplesView.Name)
	if err != nil {
		t.Fatalf("Error while retrieving samples view: %v", err)
	}
	sum := 0.0
	for _, row := range samples {
		sum += row.Data.(*view.SumData).Value
	}
	if sum != 5*3*2 {
		t.Errorf("Samples summed = %v, want %v", sum, 5*3*2)
	}
}

func TestWithDefaults(t *testing.T) {
	got := Options{MaxDepth: -1}.withDefaults()
	if got.Samples != DefaultSamples || got.MaxDepth != scene.DefaultMaxDepth || got.Parallelism <= 0 {
		t.Errorf("Wrong defaults: %+v", got)
	}
	if got := (Options{MaxDepth: 0}).withDefaults().MaxDepth; got != 0 {
		t.Errorf("MaxDepth 0 became %d", got)
	}
}

