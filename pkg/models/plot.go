package models

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/ekaya-inc/ekaya-askdb/pkg/jsonutil"
)

// PlotCode is plotting code produced by the model.
type PlotCode struct {
	Language string `json:"language"`
	Code     string `json:"code"`
	// Rewritten is true when an inlined data literal was replaced by the df reference.
	Rewritten bool `json:"rewritten"`
	// Image holds a PNG when the code was executed.
	Image []byte `json:"image,omitempty"`
}

// Chart kinds.
const (
	ChartBar       = "bar"
	ChartLine      = "line"
	ChartScatter   = "scatter"
	ChartHistogram = "histogram"
	ChartHeatmap   = "heatmap"
	ChartBox       = "box"
)

// Aggregations.
const (
	AggNone  = "none"
	AggSum   = "sum"
	AggAvg   = "avg"
	AggCount = "count"
	AggMin   = "min"
	AggMax   = "max"
)

var (
	ChartKinds   = []string{ChartBar, ChartLine, ChartScatter, ChartHistogram, ChartHeatmap, ChartBox}
	Aggregations = []string{AggNone, AggSum, AggAvg, AggCount, AggMin, AggMax}
)

// ChartSpec is a declarative chart description a front end can render
// without executing generated code.
type ChartSpec struct {
	Kind        string `json:"kind"`
	X           string `json:"x"`
	Y           string `json:"y,omitempty"`
	Aggregation string `json:"aggregation,omitempty"`
	Title       string `json:"title,omitempty"`
}

// UnmarshalJSON accepts model output where a field is null, a number or a
// boolean instead of a string ("x": 2023 names a column called 2023).
// Kind and aggregation are lower-cased.
func (c *ChartSpec) UnmarshalJSON(data []byte) error {
	var raw struct {
		Kind        json.RawMessage `json:"kind"`
		X           json.RawMessage `json:"x"`
		Y           json.RawMessage `json:"y"`
		Aggregation json.RawMessage `json:"aggregation"`
		Title       json.RawMessage `json:"title"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = ChartSpec{
		Kind:        strings.ToLower(strings.TrimSpace(jsonutil.FlexibleStringValue(raw.Kind))),
		X:           jsonutil.FlexibleStringValue(raw.X),
		Y:           jsonutil.FlexibleStringValue(raw.Y),
		Aggregation: strings.ToLower(strings.TrimSpace(jsonutil.FlexibleStringValue(raw.Aggregation))),
		Title:       jsonutil.FlexibleStringValue(raw.Title),
	}
	return nil
}

// Validate checks the spec against the closed vocabularies and the columns
// of the result it will be drawn from.
func (c *ChartSpec) Validate(result *ResultTable) error {
	if !slices.Contains(ChartKinds, c.Kind) {
		return fmt.Errorf("unknown chart kind %q", c.Kind)
	}
	if c.Aggregation == "" {
		c.Aggregation = AggNone
	}
	if !slices.Contains(Aggregations, c.Aggregation) {
		return fmt.Errorf("unknown aggregation %q", c.Aggregation)
	}
	if c.X == "" {
		return fmt.Errorf("x column is required")
	}
	if !result.HasColumn(c.X) {
		return fmt.Errorf("x column %q is not in the result", c.X)
	}
	if c.Y == "" && c.Kind != ChartHistogram && c.Aggregation != AggCount {
		return fmt.Errorf("y column is required for %s charts", c.Kind)
	}
	if c.Y != "" && !result.HasColumn(c.Y) {
		return fmt.Errorf("y column %q is not in the result", c.Y)
	}
	return nil
}
