// Package sandbox runs model-generated plotting code in a python
// subprocess. The code is untrusted: it gets a fresh temp directory, an
// environment with nothing but PATH and the Agg backend, and a hard timeout.
// This is containment against accidents, not a security boundary.
package sandbox

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-askdb/pkg/models"
	"github.com/ekaya-inc/ekaya-askdb/pkg/prompts"
)

const (
	DefaultPython  = "python3"
	DefaultTimeout = 30 * time.Second

	dataFile   = "data.csv"
	imageFile  = "plot.png"
	scriptFile = "plot.py"

	// maxStderr bounds how much interpreter output is kept for errors.
	maxStderr = 4096
)

var ErrNoImage = errors.New("plot code did not produce a figure")

// Config controls the interpreter.
type Config struct {
	Python  string
	Timeout time.Duration
}

// Runner executes plotting code.
type Runner interface {
	Run(ctx context.Context, code string, data *models.ResultTable) ([]byte, error)
}

// PythonRunner runs code with a local python interpreter that has pandas,
// matplotlib and seaborn installed.
type PythonRunner struct {
	python  string
	timeout time.Duration
	logger  *zap.Logger
}

func NewPythonRunner(cfg Config, logger *zap.Logger) *PythonRunner {
	if cfg.Python == "" {
		cfg.Python = DefaultPython
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &PythonRunner{
		python:  cfg.Python,
		timeout: cfg.Timeout,
		logger:  logger.Named("sandbox"),
	}
}

// prelude loads the result into df; epilogue saves the figure the code
// named fig, falling back to the current pyplot figure.
const prelude = `import warnings
warnings.filterwarnings("ignore")
import matplotlib
matplotlib.use("Agg")
import matplotlib.pyplot as plt
import pandas as pd
import numpy as np
try:
    import seaborn as sns
except ImportError:
    sns = None
df = pd.read_csv("` + dataFile + `")
`

const epilogue = `
_fig = globals().get("fig")
if _fig is None or not hasattr(_fig, "savefig"):
    _fig = plt.gcf()
_fig.savefig("` + imageFile + `", format="png", bbox_inches="tight")
`

// Run executes code against data and returns the PNG it saved.
func (r *PythonRunner) Run(ctx context.Context, code string, data *models.ResultTable) ([]byte, error) {
	dir, err := os.MkdirTemp("", "askdb-plot-*")
	if err != nil {
		return nil, fmt.Errorf("create sandbox dir: %w", err)
	}
	defer os.RemoveAll(dir)

	if err := writeCSV(filepath.Join(dir, dataFile), data); err != nil {
		return nil, err
	}

	script := prelude + "\n" + code + "\n" + epilogue
	if err := os.WriteFile(filepath.Join(dir, scriptFile), []byte(script), 0o600); err != nil {
		return nil, fmt.Errorf("write plot script: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.python, "-I", scriptFile)
	cmd.Dir = dir
	cmd.Env = []string{
		"PATH=" + os.Getenv("PATH"),
		"HOME=" + dir,
		"MPLBACKEND=Agg",
		"MPLCONFIGDIR=" + dir,
	}
	var stderr bytes.Buffer
	cmd.Stderr = &limitedWriter{buf: &stderr, max: maxStderr}

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	if ctx.Err() == context.DeadlineExceeded {
		r.logger.Warn("Plot code timed out", zap.Duration("timeout", r.timeout))
		return nil, fmt.Errorf("plot code timed out after %s", r.timeout)
	}
	if runErr != nil {
		r.logger.Warn("Plot code failed",
			zap.Duration("elapsed", elapsed),
			zap.String("stderr", stderr.String()),
			zap.Error(runErr))
		return nil, fmt.Errorf("plot code failed: %w: %s", runErr, lastLine(stderr.String()))
	}

	img, err := os.ReadFile(filepath.Join(dir, imageFile))
	if err != nil || len(img) == 0 {
		return nil, ErrNoImage
	}

	r.logger.Debug("Plot rendered", zap.Duration("elapsed", elapsed), zap.Int("bytes", len(img)))
	return img, nil
}

// writeCSV writes the result with a header row. Values use the same
// rendering as the prompts, without truncation.
func writeCSV(path string, data *models.ResultTable) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create data file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(data.ColumnNames()); err != nil {
		return fmt.Errorf("write data header: %w", err)
	}
	record := make([]string, len(data.Columns))
	for _, row := range data.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) && row[i] != nil {
				record[i] = prompts.FormatValue(row[i])
			}
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write data row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write data file: %w", err)
	}
	return nil
}

type limitedWriter struct {
	buf *bytes.Buffer
	max int
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	if room := w.max - w.buf.Len(); room > 0 {
		if len(p) > room {
			w.buf.Write(p[:room])
		} else {
			w.buf.Write(p)
		}
	}
	return len(p), nil
}

func lastLine(s string) string {
	s = string(bytes.TrimSpace([]byte(s)))
	if i := bytes.LastIndexByte([]byte(s), '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
