// Package batch runs an extraction prompt over every image in the input
// directory. Per-image failures never abort the run; each image yields a
// result record and the run ends with a summary plus a JSONL results file
// in the output directory.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/bytedance/sonic"
	"github.com/charlievieth/fastwalk"
	"go.uber.org/zap"

	"github.com/fieldlens/backend/internal/domain/prompt"
	"github.com/fieldlens/backend/internal/domain/registry"
	"github.com/fieldlens/backend/internal/infrastructure/monitoring"
	"github.com/fieldlens/backend/internal/logging"
	"github.com/fieldlens/backend/internal/shared/id"
	"github.com/fieldlens/backend/internal/shared/paths"
)

// Runner is the inference collaborator. The model itself lives behind this
// interface; the backend never loads or executes it in-process.
type Runner interface {
	Infer(ctx context.Context, req prompt.FormattedPrompt) (prompt.ExtractionResult, error)
}

// Status values for ImageResult.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ImageResult is the outcome for one image, also the JSONL record shape.
type ImageResult struct {
	RunID      string         `json:"run_id"`
	RequestID  string         `json:"request_id"`
	Status     string         `json:"status"`
	Filename   string         `json:"filename"`
	Fields     map[string]any `json:"fields,omitempty"`
	Confidence float64        `json:"confidence,omitempty"`
	Error      string         `json:"error,omitempty"`
	DurationMS int64          `json:"duration_ms"`
}

// Summary describes a completed run.
type Summary struct {
	RunID      string
	Prompt     string
	Total      int
	Succeeded  int
	Failed     int
	OutputFile string
}

// Options configures a Processor.
type Options struct {
	Registry  *registry.Registry
	Loader    *prompt.Loader
	Formatter *prompt.Formatter
	Runner    Runner
	Logger    *logging.Logger
	Metrics   *monitoring.Metrics
	// IncludePatterns are doublestar patterns matched against file names
	// relative to the input directory. Default: *.jpg, *.jpeg, *.png.
	IncludePatterns []string
	// Workers is the number of concurrent inference calls. Default 1.
	Workers int
}

// Processor drives batch extraction runs.
type Processor struct {
	reg       *registry.Registry
	loader    *prompt.Loader
	formatter *prompt.Formatter
	runner    Runner
	log       *logging.Logger
	metrics   *monitoring.Metrics
	patterns  []string
	workers   int
}

// New creates a processor.
func New(opts Options) (*Processor, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if opts.Loader == nil {
		return nil, fmt.Errorf("prompt loader is required")
	}
	if opts.Runner == nil {
		return nil, fmt.Errorf("runner is required")
	}
	if opts.Formatter == nil {
		opts.Formatter = prompt.NewFormatter(0)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if len(opts.IncludePatterns) == 0 {
		opts.IncludePatterns = []string{"*.jpg", "*.jpeg", "*.png"}
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Processor{
		reg:       opts.Registry,
		loader:    opts.Loader,
		formatter: opts.Formatter,
		runner:    opts.Runner,
		log:       opts.Logger.Named("batch"),
		metrics:   opts.Metrics,
		patterns:  opts.IncludePatterns,
		workers:   opts.Workers,
	}, nil
}

// Discover walks the input directory and returns matching image paths in
// sorted order.
func (p *Processor) Discover(ctx context.Context) ([]string, error) {
	inputDir, err := p.reg.GetPath(paths.DataInput)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		matches []string
	)
	conf := fastwalk.Config{Follow: false}
	err = fastwalk.Walk(&conf, inputDir, func(path string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err != nil || d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(inputDir, path)
		if err != nil {
			return nil
		}
		if p.matchesInclude(filepath.ToSlash(rel)) {
			mu.Lock()
			matches = append(matches, path)
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to discover images in %s: %w", inputDir, err)
	}
	sort.Strings(matches)
	return matches, nil
}

func (p *Processor) matchesInclude(rel string) bool {
	name := filepath.Base(rel)
	for _, pattern := range p.patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

// Process loads the named template, discovers images, and streams one
// ImageResult per image on the returned channel. The channel closes when
// every image has been processed or the context is cancelled.
func (p *Processor) Process(ctx context.Context, promptName string) (<-chan ImageResult, string, error) {
	tpl, err := p.loader.Load(promptName)
	if err != nil {
		return nil, "", err
	}
	images, err := p.Discover(ctx)
	if err != nil {
		return nil, "", err
	}

	runID := id.NewRunID().String()
	p.log.Info("starting batch run",
		zap.String("run_id", runID),
		zap.String("prompt", promptName),
		zap.Int("images", len(images)))

	jobs := make(chan string)
	results := make(chan ImageResult)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for image := range jobs {
				// The consumer may stop reading mid-run; a plain send would
				// park this worker forever.
				select {
				case results <- p.processOne(ctx, runID, tpl, image):
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, image := range images {
			select {
			case <-ctx.Done():
				return
			case jobs <- image:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	return results, runID, nil
}

func (p *Processor) processOne(ctx context.Context, runID string, tpl *prompt.Template, image string) ImageResult {
	start := time.Now()
	res := ImageResult{
		RunID:     runID,
		RequestID: id.NewRequestID().String(),
		Filename:  filepath.Base(image),
	}

	formatted, err := p.formatter.Format(tpl, image)
	if err != nil {
		return p.finish(res, start, err)
	}

	extraction, err := p.runner.Infer(ctx, formatted)
	if err != nil {
		return p.finish(res, start, err)
	}
	if err := prompt.ValidateResult(extraction, formatted.Rules); err != nil {
		return p.finish(res, start, fmt.Errorf("result validation failed: %w", err))
	}

	res.Status = StatusSuccess
	res.Fields = extraction.Fields
	res.Confidence = extraction.Confidence
	return p.finish(res, start, nil)
}

func (p *Processor) finish(res ImageResult, start time.Time, err error) ImageResult {
	elapsed := time.Since(start)
	res.DurationMS = elapsed.Milliseconds()
	if err != nil {
		res.Status = StatusError
		res.Error = err.Error()
		p.log.Error("image failed",
			zap.String("run_id", res.RunID),
			zap.String("filename", res.Filename),
			zap.Error(err))
	}
	if p.metrics != nil {
		p.metrics.ObserveBatchImage(res.Status, elapsed)
	}
	return res
}

// Run executes a full batch: process every image and append each result as
// a JSON line to <data.output>/<runID>.jsonl.
func (p *Processor) Run(ctx context.Context, promptName string) (*Summary, error) {
	// Returning early (a results-file write error) must release the
	// workers, so they run under a context this function owns.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	outputDir, err := p.reg.GetPath(paths.DataOutput)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	results, runID, err := p.Process(ctx, promptName)
	if err != nil {
		return nil, err
	}

	outputFile := filepath.Join(outputDir, runID+".jsonl")
	out, err := os.Create(outputFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create results file: %w", err)
	}
	defer out.Close()

	summary := &Summary{RunID: runID, Prompt: promptName, OutputFile: outputFile}
	for res := range results {
		summary.Total++
		if res.Status == StatusSuccess {
			summary.Succeeded++
		} else {
			summary.Failed++
		}

		line, err := sonic.Marshal(res)
		if err != nil {
			p.log.Error("failed to encode result", zap.Error(err))
			continue
		}
		if _, err := out.Write(append(line, '\n')); err != nil {
			return summary, fmt.Errorf("failed to write results file: %w", err)
		}
	}

	p.log.Info("batch run finished",
		zap.String("run_id", runID),
		zap.Int("total", summary.Total),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.String("output", outputFile))
	return summary, ctx.Err()
}
