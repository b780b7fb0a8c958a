package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-askdb/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-askdb/pkg/llm"
	"github.com/ekaya-inc/ekaya-askdb/pkg/metrics"
	"github.com/ekaya-inc/ekaya-askdb/pkg/models"
	"github.com/ekaya-inc/ekaya-askdb/pkg/prompts"
	"github.com/ekaya-inc/ekaya-askdb/pkg/sandbox"
	"github.com/ekaya-inc/ekaya-askdb/pkg/telemetry"
)

// Plot output formats.
const (
	PlotFormatCode = "code"
	PlotFormatSpec = "spec"
)

// PlotService asks the model how to chart a query result.
type PlotService interface {
	// GenerateCode returns python plotting code for result. The code
	// expects the data in a DataFrame named df. When execution is enabled
	// the rendered PNG is attached.
	GenerateCode(ctx context.Context, result *models.ResultTable, instructions string) (*models.PlotCode, error)

	// GenerateSpec returns a declarative chart description validated
	// against the result's columns.
	GenerateSpec(ctx context.Context, result *models.ResultTable, instructions string) (*models.ChartSpec, error)
}

// PlotOptions configures plot generation.
type PlotOptions struct {
	SampleRows  int
	Temperature float64
	// Runner executes generated code; nil leaves code unexecuted.
	Runner sandbox.Runner
}

type plotService struct {
	llm    llm.LLMClient
	opts   PlotOptions
	logger *zap.Logger
}

func NewPlotService(client llm.LLMClient, opts PlotOptions, logger *zap.Logger) PlotService {
	if opts.SampleRows <= 0 {
		opts.SampleRows = prompts.DefaultPlotSampleRows
	}
	return &plotService{
		llm:    client,
		opts:   opts,
		logger: logger.Named("plot"),
	}
}

var (
	// inlineDataStart finds a dict literal assigned to dados or data. The
	// model sometimes copies the sample rows into the code instead of using
	// df; the whole literal is replaced by a reference to df.
	inlineDataStart = regexp.MustCompile(`\b(?:dados|data)\s*=\s*\{`)
	// frameFromInlinePattern matches a DataFrame built from that literal.
	frameFromInlinePattern = regexp.MustCompile(`(?m)^[ \t]*df\s*=\s*(?:pd\.)?DataFrame\(\s*(?:dados|data)\s*\)[ \t]*\r?\n?`)
	showPattern            = regexp.MustCompile(`(?m)^[ \t]*plt\.show\(\s*\)[ \t]*;?[ \t]*\r?\n?|plt\.show\(\s*\)`)
)

// RewritePlotCode points inlined data at df and removes plt.show() calls.
// It reports whether an inlined data literal was found.
func RewritePlotCode(code string) (string, bool) {
	code, rewritten := replaceInlineData(code)
	if rewritten {
		code = frameFromInlinePattern.ReplaceAllString(code, "")
	}
	code = showPattern.ReplaceAllString(code, "")
	return strings.TrimSpace(code), rewritten
}

// replaceInlineData swaps each balanced dados/data literal for "df = df".
// An unterminated literal is left as written.
func replaceInlineData(code string) (string, bool) {
	var b strings.Builder
	found := false
	for {
		loc := inlineDataStart.FindStringIndex(code)
		if loc == nil {
			break
		}
		end, ok := closingBracket(code, loc[1]-1)
		if !ok {
			break
		}
		b.WriteString(code[:loc[0]])
		b.WriteString("df = df")
		code = code[end+1:]
		found = true
	}
	b.WriteString(code)
	return b.String(), found
}

// closingBracket returns the index of the bracket closing the one at open,
// skipping brackets inside Python string literals.
func closingBracket(s string, open int) (int, bool) {
	depth := 0
	var quote byte
	for i := open; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '{', '[', '(':
			depth++
		case '}', ']', ')':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

func (s *plotService) GenerateCode(ctx context.Context, result *models.ResultTable, instructions string) (plot *models.PlotCode, err error) {
	defer func() { metrics.ObservePlot(PlotFormatCode, err) }()

	ctx, span := telemetry.StartSpan(ctx, "plot.code")
	defer span.End()
	defer func() { telemetry.RecordError(span, err) }()

	reply, err := s.generate(llm.WithPurpose(ctx, llm.PurposePlot), result,
		prompts.BuildPlotPrompt(result, instructions, s.opts.SampleRows), prompts.PlotSystemPrompt)
	if err != nil {
		return nil, err
	}

	code, ok := llm.ExtractCodeBlock(reply, "python")
	if !ok || code == "" {
		s.logger.Warn("No code block in plot reply", zap.Int("reply_len", len(reply)))
		return nil, apperrors.ErrNoCodeFound
	}

	code, rewritten := RewritePlotCode(code)
	plot = &models.PlotCode{Language: "python", Code: code, Rewritten: rewritten}

	if s.opts.Runner != nil {
		img, err := s.opts.Runner.Run(ctx, code, result)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, apperrors.ErrPlotFailed)
		}
		plot.Image = img
	}

	return plot, nil
}

func (s *plotService) GenerateSpec(ctx context.Context, result *models.ResultTable, instructions string) (spec *models.ChartSpec, err error) {
	defer func() { metrics.ObservePlot(PlotFormatSpec, err) }()

	ctx, span := telemetry.StartSpan(ctx, "plot.spec")
	defer span.End()
	defer func() { telemetry.RecordError(span, err) }()

	reply, err := s.generate(llm.WithPurpose(ctx, llm.PurposeChart), result,
		prompts.BuildChartSpecPrompt(result, instructions, s.opts.SampleRows), prompts.ChartSpecSystemPrompt)
	if err != nil {
		return nil, err
	}

	parsed, err := llm.ParseJSONResponse[models.ChartSpec](reply)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, apperrors.ErrInvalidChartSpec)
	}
	if err := parsed.Validate(result); err != nil {
		return nil, fmt.Errorf("%v: %w", err, apperrors.ErrInvalidChartSpec)
	}
	return &parsed, nil
}

// generate checks the inputs and returns the model's non-empty reply.
func (s *plotService) generate(ctx context.Context, result *models.ResultTable, prompt, system string) (string, error) {
	if result == nil || len(result.Columns) == 0 {
		return "", fmt.Errorf("no result to plot: %w", apperrors.ErrInvalidRequest)
	}
	if llm.IsDisabled(s.llm) {
		return "", fmt.Errorf("model client disabled: %w", apperrors.ErrServiceUnavailable)
	}

	resp, err := s.llm.GenerateResponse(ctx, prompt, system, s.opts.Temperature)
	if err != nil {
		s.logger.Error("Plot generation failed", zap.Error(err))
		return "", err
	}
	if strings.TrimSpace(resp.Content) == "" {
		return "", fmt.Errorf("empty model reply: %w", apperrors.ErrServiceUnavailable)
	}
	return resp.Content, nil
}

// IsPlotFailure reports whether err means no usable plot was produced.
func IsPlotFailure(err error) bool {
	return errors.Is(err, apperrors.ErrNoCodeFound) ||
		errors.Is(err, apperrors.ErrPlotFailed) ||
		errors.Is(err, apperrors.ErrInvalidChartSpec)
}
