package render

import (
	"context"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	shadingKey = tag.MustNewKey("shading")

	samplesMeasure = stats.Int64("pathtrace/samples", "Camera samples drawn", stats.UnitDimensionless)
	rowsMeasure    = stats.Int64("pathtrace/rows", "Image rows completed", stats.UnitDimensionless)

	SamplesView = &view.View{
		Name:        "pathtrace/samples",
		Description: "Total of camera samples drawn",

		TagKeys: []tag.Key{shadingKey},

		Measure:     samplesMeasure,
		Aggregation: view.Sum(),
	}

	RowsView = &view.View{
		Name:        "pathtrace/rows",
		Description: "Counter of image rows that have been rendered",

		TagKeys: []tag.Key{shadingKey},

		Measure:     rowsMeasure,
		Aggregation: view.Count(),
	}
)

// RegisterViews starts collecting render metrics.
func RegisterViews() error {
	return view.Register(SamplesView, RowsView)
}

func recordRow(ctx context.Context, shading Shading, drawn int) {
	stats.RecordWithOptions(
		ctx,
		stats.WithTags(tag.Insert(shadingKey, shading.String())),
		stats.WithMeasurements(samplesMeasure.M(int64(drawn)), rowsMeasure.M(1)))
}
