package web

// workspace.go owns the on-disk lifecycle of uploaded workbooks and
// comparison artifacts. Every upload and every comparison result lives in
// its own directory under the workspace root, keyed by a uuid, and is
// removed by the janitor once its TTL passes. Nothing here is
// process-global: the Workspace is created by the server and torn down
// with it.

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"xlsxdiff/internal/config"
)

// Upload is a stored workbook awaiting comparison.
type Upload struct {
	ID           string
	OriginalName string
	Path         string
	added        time.Time
}

// Run is the working directory of one comparison: the report and the two
// annotated workbooks are written into Dir.
type Run struct {
	ID  string
	Dir string

	// LeftName/RightName are the original upload names, used for
	// download file names.
	LeftName  string
	RightName string

	// HasMarked records whether the annotated workbooks were produced.
	HasMarked bool

	added time.Time
}

// ReportPath returns the location of the run's text report.
func (r *Run) ReportPath() string { return filepath.Join(r.Dir, "report.txt") }

// MarkedPath returns the location of annotated workbook n (1 or 2).
func (r *Run) MarkedPath(n int) string {
	return filepath.Join(r.Dir, fmt.Sprintf("marked%d.xlsx", n))
}

// Workspace stores uploads and comparison runs on disk with a TTL.
type Workspace struct {
	root  string
	owned bool // remove root on Close when we created it
	ttl   time.Duration

	mu      sync.Mutex
	uploads map[string]*Upload
	runs    map[string]*Run

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewWorkspace creates the workspace root (under the OS temp dir when
// cfg.Dir is empty) and starts the janitor.
func NewWorkspace(cfg config.WorkspaceConfig) (*Workspace, error) {
	root := cfg.Dir
	owned := false
	if root == "" {
		dir, err := os.MkdirTemp("", "xlsxdiff-workspace-")
		if err != nil {
			return nil, fmt.Errorf("create workspace: %w", err)
		}
		root = dir
		owned = true
	} else if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace %s: %w", root, err)
	}

	w := &Workspace{
		root:    root,
		owned:   owned,
		ttl:     cfg.TTL,
		uploads: make(map[string]*Upload),
		runs:    make(map[string]*Run),
		stop:    make(chan struct{}),
	}

	w.wg.Add(1)
	go w.janitor(cfg.SweepInterval)

	return w, nil
}

// SaveUpload stores an uploaded workbook and returns its entry.
func (w *Workspace) SaveUpload(src io.Reader, originalName string) (*Upload, error) {
	id := uuid.NewString()
	dir := filepath.Join(w.root, "uploads")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	path := filepath.Join(dir, id+".xlsx")
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, err
	}

	up := &Upload{ID: id, OriginalName: originalName, Path: path, added: time.Now()}
	w.mu.Lock()
	w.uploads[id] = up
	w.mu.Unlock()
	return up, nil
}

// Upload looks up a stored workbook by id.
func (w *Workspace) Upload(id string) (*Upload, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	up, ok := w.uploads[id]
	return up, ok
}

// RemoveUpload deletes a stored workbook, e.g. when it turns out not to
// be readable as a spreadsheet.
func (w *Workspace) RemoveUpload(id string) {
	w.mu.Lock()
	up, ok := w.uploads[id]
	delete(w.uploads, id)
	w.mu.Unlock()
	if ok {
		os.Remove(up.Path)
	}
}

// NewRun creates a fresh working directory for one comparison.
func (w *Workspace) NewRun(leftName, rightName string) (*Run, error) {
	id := uuid.NewString()
	dir := filepath.Join(w.root, "results", id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	run := &Run{
		ID:        id,
		Dir:       dir,
		LeftName:  leftName,
		RightName: rightName,
		added:     time.Now(),
	}
	w.mu.Lock()
	w.runs[id] = run
	w.mu.Unlock()
	return run, nil
}

// Run looks up a comparison run by id.
func (w *Workspace) Run(id string) (*Run, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	run, ok := w.runs[id]
	return run, ok
}

// janitor removes expired uploads and runs until Close.
func (w *Workspace) janitor(interval time.Duration) {
	defer w.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			w.sweep(time.Now())
		}
	}
}

// sweep removes every entry older than the TTL.
func (w *Workspace) sweep(now time.Time) {
	var expiredUploads []*Upload
	var expiredRuns []*Run

	w.mu.Lock()
	for id, up := range w.uploads {
		if now.Sub(up.added) > w.ttl {
			expiredUploads = append(expiredUploads, up)
			delete(w.uploads, id)
		}
	}
	for id, run := range w.runs {
		if now.Sub(run.added) > w.ttl {
			expiredRuns = append(expiredRuns, run)
			delete(w.runs, id)
		}
	}
	w.mu.Unlock()

	for _, up := range expiredUploads {
		os.Remove(up.Path)
	}
	for _, run := range expiredRuns {
		os.RemoveAll(run.Dir)
	}
}

// Close stops the janitor and, when the workspace owns its root
// directory, removes it with everything inside.
func (w *Workspace) Close() error {
	close(w.stop)
	w.wg.Wait()
	if w.owned {
		return os.RemoveAll(w.root)
	}
	return nil
}
