package web

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"xlsxdiff/internal/engine"
	"xlsxdiff/internal/logging"
	"xlsxdiff/internal/xlsx"
)

// handleIndex serves the single-page UI.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "page unavailable")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// uploadResponse is the discovery payload returned after an upload:
// everything the UI needs to let the user pick sheets and key columns
// before triggering the comparison.
type uploadResponse struct {
	FileID       string           `json:"file_id"`
	OriginalName string           `json:"original_name"`
	Sheets       []xlsx.SheetInfo `json:"sheets"`
}

// handleUpload stores an uploaded workbook and returns its sheets and
// columns. A file that cannot be read as a spreadsheet is removed again
// and rejected.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)

	if err := r.ParseMultipartForm(s.cfg.Upload.MaxFileSize); err != nil {
		writeError(w, r, http.StatusBadRequest, "file too large or invalid form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	up, err := s.workspace.SaveUpload(file, header.Filename)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to store file")
		return
	}

	infos, err := xlsx.Info(up.Path)
	if err != nil {
		s.workspace.RemoveUpload(up.ID)
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("not a readable workbook: %v", err))
		return
	}

	logging.FromContext(r.Context()).Info("workbook uploaded",
		"file_id", up.ID,
		"name", up.OriginalName,
		"sheets", len(infos),
	)

	writeJSON(w, uploadResponse{
		FileID:       up.ID,
		OriginalName: up.OriginalName,
		Sheets:       infos,
	})
}

// compareRequest selects the two uploaded workbooks, their sheets, and
// the key columns for one comparison run.
type compareRequest struct {
	File1ID string   `json:"file1_id"`
	File2ID string   `json:"file2_id"`
	Sheet1  string   `json:"sheet1"`
	Sheet2  string   `json:"sheet2"`
	Keys    []string `json:"keys"`
}

type compareResponse struct {
	ResultID       string `json:"result_id"`
	Report         string `json:"report"`
	HasMarkedFiles bool   `json:"has_marked_files"`
}

// handleCompare runs the full comparison and writes the report plus the
// two annotated workbooks into a run directory.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.File1ID == "" || req.File2ID == "" || req.Sheet1 == "" || req.Sheet2 == "" || len(req.Keys) == 0 {
		writeError(w, r, http.StatusBadRequest, "file1_id, file2_id, sheet1, sheet2 and keys are required")
		return
	}

	up1, ok := s.workspace.Upload(req.File1ID)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "file 1 not found; upload it again")
		return
	}
	up2, ok := s.workspace.Upload(req.File2ID)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "file 2 not found; upload it again")
		return
	}

	left, err := xlsx.LoadTable(up1.Path, req.Sheet1)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	right, err := xlsx.LoadTable(up2.Path, req.Sheet2)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	res, err := engine.Compare(left, right, req.Keys)
	if err != nil {
		status := http.StatusInternalServerError
		var mce *engine.MissingColumnError
		if errors.As(err, &mce) {
			status = http.StatusBadRequest
		}
		writeError(w, r, status, err.Error())
		return
	}

	run, err := s.workspace.NewRun(up1.OriginalName, up2.OriginalName)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to create result directory")
		return
	}

	logger := logging.WithFields(r.Context(), "result_id", run.ID)

	report := engine.BuildReport(res, engine.ReportOptions{
		LeftName:  fmt.Sprintf("%s [%s]", up1.OriginalName, req.Sheet1),
		RightName: fmt.Sprintf("%s [%s]", up2.OriginalName, req.Sheet2),
		Now:       time.Now(),
	})
	if err := os.WriteFile(run.ReportPath(), []byte(report), 0o644); err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to write report")
		return
	}

	// Annotated copies are best-effort: a workbook the writer cannot
	// reproduce still gets a text report.
	run.HasMarked = true
	if err := xlsx.WriteAnnotated(up1.Path, req.Sheet1, engine.Annotate(res, engine.SideLeft), run.MarkedPath(1)); err != nil {
		logger.Warn("annotated copy failed", "side", "left", "error", err)
		run.HasMarked = false
	}
	if run.HasMarked {
		if err := xlsx.WriteAnnotated(up2.Path, req.Sheet2, engine.Annotate(res, engine.SideRight), run.MarkedPath(2)); err != nil {
			logger.Warn("annotated copy failed", "side", "right", "error", err)
			run.HasMarked = false
		}
	}

	logger.Info("comparison complete",
		"only_left", len(res.Partition.OnlyLeft),
		"only_right", len(res.Partition.OnlyRight),
		"common", len(res.Partition.Common),
		"cell_diffs", len(res.Diffs),
	)

	writeJSON(w, compareResponse{
		ResultID:       run.ID,
		Report:         report,
		HasMarkedFiles: run.HasMarked,
	})
}

// handleDownloadReport serves a run's text report as an attachment.
func (s *Server) handleDownloadReport(w http.ResponseWriter, r *http.Request) {
	run, ok := s.workspace.Run(chi.URLParam(r, "resultID"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "result not found")
		return
	}

	name := fmt.Sprintf("compare_result_%s.txt", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	http.ServeFile(w, r, run.ReportPath())
}

// handleDownloadMarked serves annotated workbook 1 or 2 of a run.
func (s *Server) handleDownloadMarked(w http.ResponseWriter, r *http.Request) {
	run, ok := s.workspace.Run(chi.URLParam(r, "resultID"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "result not found")
		return
	}

	var n int
	switch chi.URLParam(r, "fileNum") {
	case "1":
		n = 1
	case "2":
		n = 2
	default:
		writeError(w, r, http.StatusBadRequest, "file number must be 1 or 2")
		return
	}
	if !run.HasMarked {
		writeError(w, r, http.StatusNotFound, "no annotated files for this result")
		return
	}

	orig := run.LeftName
	if n == 2 {
		orig = run.RightName
	}
	name := strings.TrimSuffix(strings.TrimSuffix(orig, ".xlsx"), ".xls") + "-annotated.xlsx"
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(name)))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	http.ServeFile(w, r, run.MarkedPath(n))
}
