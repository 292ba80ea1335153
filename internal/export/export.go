// Package export renders claim dashboards to files through the worker pool.
package export

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/claimview/internal/dashboard"
	"github.com/ppiankov/claimview/internal/logging"
	"github.com/ppiankov/claimview/internal/render"
	"github.com/ppiankov/claimview/internal/worker"
	"go.uber.org/zap"
)

// ViewBuilder builds the dashboard of one claim
type ViewBuilder interface {
	BuildByID(ctx context.Context, claimID string) (*dashboard.View, error)
}

// Result is the outcome of exporting one claim
type Result struct {
	ClaimID string
	Path    string
	Error   error
}

// Exporter renders claim dashboards to files concurrently
type Exporter struct {
	builder     ViewBuilder
	format      render.Format
	outputDir   string
	concurrency int
	log         *zap.Logger
}

// NewExporter creates an exporter writing one file per claim into outputDir
func NewExporter(builder ViewBuilder, f render.Format, outputDir string, concurrency int, logger *zap.Logger) *Exporter {
	return &Exporter{
		builder:     builder,
		format:      f,
		outputDir:   outputDir,
		concurrency: concurrency,
		log:         logging.OrNop(logger).Named("export"),
	}
}

// ExportClaims exports every claim; results keep the order of claimIDs
func (e *Exporter) ExportClaims(ctx context.Context, claimIDs []string) ([]Result, error) {
	if len(claimIDs) == 0 {
		return []Result{}, nil
	}
	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	pool := worker.NewPool[Result](ctx, e.concurrency)
	pool.Start()

	for _, id := range claimIDs {
		if !pool.Submit(func(ctx context.Context) Result { return e.exportOne(ctx, id) }) {
			break
		}
	}

	done := pool.Wait()

	// Claims never run because of cancellation still get a result
	results := make([]Result, len(claimIDs))
	for i, id := range claimIDs {
		if i < len(done) && done[i].ClaimID != "" {
			results[i] = done[i]
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		results[i] = Result{ClaimID: id, Error: err}
	}
	return results, nil
}

// ExportFile reads claim ids from a file and exports them
func (e *Exporter) ExportFile(ctx context.Context, filePath string) ([]Result, error) {
	ids, err := ReadClaimIDsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read claim ids: %w", err)
	}
	return e.ExportClaims(ctx, ids)
}

func (e *Exporter) exportOne(ctx context.Context, claimID string) Result {
	res := Result{ClaimID: claimID}

	v, err := e.builder.BuildByID(ctx, claimID)
	if err != nil {
		res.Error = fmt.Errorf("build %s: %w", claimID, err)
		return res
	}

	var buf bytes.Buffer
	if err := render.New(&buf, e.format).View(v); err != nil {
		res.Error = fmt.Errorf("render %s: %w", claimID, err)
		return res
	}

	res.Path = filepath.Join(e.outputDir, FileName(claimID)+e.format.Extension())
	if err := writeFileAtomic(res.Path, buf.Bytes()); err != nil {
		res.Error = err
		res.Path = ""
		return res
	}

	e.log.Debug("exported claim", zap.String("claim_id", claimID), zap.String("path", res.Path))
	return res
}

// FileName maps a claim id to a safe file name stem
func FileName(claimID string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, claimID)
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// ReadClaimIDsFromFile reads claim ids from a file (one per line). Blank
// lines and # comments are skipped; duplicates are dropped.
func ReadClaimIDsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var ids []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			ids = append(ids, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return ids, nil
}
