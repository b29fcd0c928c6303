package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"

	"github.com/scanforge/scanforge/internal/pdfdoc"
	"github.com/scanforge/scanforge/internal/pipeline"
	"github.com/scanforge/scanforge/internal/storage"
	"github.com/scanforge/scanforge/internal/version"
)

// healthResponse is the /health body.
type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Time    string `json:"time"`
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

// processImageHandler accepts a multipart upload under "image" and
// returns the document result. With storage enabled, the result is
// persisted and the record id is included.
func (s *Server) processImageHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	file, header, err := s.openUpload(w, r, "image")
	if err != nil {
		processRequestsTotal.WithLabelValues("image", "error").Inc()
		return
	}
	defer func() { _ = file.Close() }()

	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		processRequestsTotal.WithLabelValues("image", "error").Inc()
		s.writeError(w, fmt.Sprintf("decoding image: %v", err), http.StatusBadRequest)
		return
	}

	res, err := s.pipeline.ProcessImage(r.Context(), img)
	if err != nil {
		processRequestsTotal.WithLabelValues("image", "error").Inc()
		s.writeError(w, fmt.Sprintf("processing image: %v", err), http.StatusInternalServerError)
		return
	}

	recordID := s.persist(r, header.Filename, "image", res)

	processRequestsTotal.WithLabelValues("image", "ok").Inc()
	processDuration.WithLabelValues("image").Observe(time.Since(start).Seconds())
	extractedFields.WithLabelValues("image").Observe(float64(len(res.Fields)))

	s.writeJSON(w, http.StatusOK, processResponse{Result: res, RecordID: recordID})
}

// processPDFHandler accepts a multipart upload under "pdf" plus an
// optional "pages" form value.
func (s *Server) processPDFHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	file, header, err := s.openUpload(w, r, "pdf")
	if err != nil {
		processRequestsTotal.WithLabelValues("pdf", "error").Inc()
		return
	}
	defer func() { _ = file.Close() }()

	// pdfcpu extraction is file-based, so spool the upload to disk.
	tempFile, err := os.CreateTemp("", "scanforge-upload-*.pdf")
	if err != nil {
		processRequestsTotal.WithLabelValues("pdf", "error").Inc()
		s.writeError(w, "storing upload", http.StatusInternalServerError)
		return
	}
	tempPath := tempFile.Name()
	defer func() { _ = os.Remove(tempPath) }()

	if _, err := io.Copy(tempFile, file); err != nil {
		_ = tempFile.Close()
		processRequestsTotal.WithLabelValues("pdf", "error").Inc()
		s.writeError(w, "storing upload", http.StatusInternalServerError)
		return
	}
	_ = tempFile.Close()

	res, err := s.pipeline.ProcessPDF(r.Context(), tempPath, r.FormValue("pages"))
	if err != nil {
		processRequestsTotal.WithLabelValues("pdf", "error").Inc()
		s.writePDFError(w, err)
		return
	}
	res.Path = header.Filename

	var recordID string
	if s.store != nil {
		recordID = s.persist(r, header.Filename, "pdf", &pipeline.DocumentResult{
			Text:         res.Text,
			Confidence:   res.Confidence,
			DocumentType: res.DocumentType,
			Fields:       res.Fields,
		})
	}

	processRequestsTotal.WithLabelValues("pdf", "ok").Inc()
	processDuration.WithLabelValues("pdf").Observe(time.Since(start).Seconds())
	extractedFields.WithLabelValues("pdf").Observe(float64(len(res.Fields)))

	s.writeJSON(w, http.StatusOK, pdfResponse{Result: res, RecordID: recordID})
}

// textRequest is the /v1/process/text body.
type textRequest struct {
	Text string `json:"text"`
}

// textResponse carries the extraction outcome for raw text.
type textResponse struct {
	DocumentType string      `json:"document_type"`
	Fields       interface{} `json:"fields"`
}

// processTextHandler runs normalization and field extraction on raw text
// that was recognized elsewhere.
func (s *Server) processTextHandler(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		processRequestsTotal.WithLabelValues("text", "error").Inc()
		s.writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		processRequestsTotal.WithLabelValues("text", "error").Inc()
		s.writeError(w, "empty text", http.StatusBadRequest)
		return
	}

	docType, extracted := s.pipeline.ExtractFields(req.Text)
	processRequestsTotal.WithLabelValues("text", "ok").Inc()
	extractedFields.WithLabelValues("text").Observe(float64(len(extracted)))

	s.writeJSON(w, http.StatusOK, textResponse{
		DocumentType: docType.String(),
		Fields:       extracted,
	})
}

func (s *Server) listScansHandler(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, "listing scans", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"scans": records,
		"count": len(records),
	})
}

func (s *Server) getScanHandler(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		s.writeError(w, "scan not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.writeError(w, "loading scan", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) deleteScanHandler(w http.ResponseWriter, r *http.Request) {
	err := s.store.Delete(r.Context(), r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		s.writeError(w, "scan not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.writeError(w, "deleting scan", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// processResponse wraps an image result with the storage record id when
// persistence is enabled.
type processResponse struct {
	Result   *pipeline.DocumentResult `json:"result"`
	RecordID string                   `json:"record_id,omitempty"`
}

type pdfResponse struct {
	Result   *pipeline.PDFResult `json:"result"`
	RecordID string              `json:"record_id,omitempty"`
}

// openUpload parses the multipart form and returns the named file. On
// failure it writes the error response itself.
func (s *Server) openUpload(w http.ResponseWriter, r *http.Request, field string) (io.ReadCloser, *multipartHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadMB<<20)
	if err := r.ParseMultipartForm(s.maxUploadMB << 20); err != nil {
		s.writeError(w, "upload too large or malformed", http.StatusBadRequest)
		return nil, nil, err
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		s.writeError(w, fmt.Sprintf("missing %q upload", field), http.StatusBadRequest)
		return nil, nil, err
	}
	uploadSizeBytes.Observe(float64(header.Size))
	return file, &multipartHeader{Filename: filepath.Base(header.Filename), Size: header.Size}, nil
}

// multipartHeader carries the upload metadata the handlers need.
type multipartHeader struct {
	Filename string
	Size     int64
}

// persist stores a processed result when the store is configured and
// returns the record id, or "" when persistence is off or failed.
func (s *Server) persist(r *http.Request, filename, fileType string, res *pipeline.DocumentResult) string {
	if s.store == nil {
		return ""
	}
	rec := &storage.ScanRecord{
		FileName:      filename,
		FileType:      fileType,
		ExtractedText: res.Text,
		Confidence:    res.Confidence,
		Fields:        res.Fields,
	}
	if err := s.store.Save(r.Context(), rec); err != nil {
		slog.Error("failed to persist scan", "file", filename, "error", err)
		return ""
	}
	return rec.ID
}

// writePDFError maps pdfdoc's typed errors onto HTTP statuses.
func (s *Server) writePDFError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pdfdoc.ErrPasswordProtected):
		s.writeError(w, "pdf is password protected", http.StatusUnprocessableEntity)
	case errors.Is(err, pdfdoc.ErrCorruptDocument):
		s.writeError(w, "pdf is corrupt or not a pdf", http.StatusBadRequest)
	case errors.Is(err, pdfdoc.ErrDocumentNotFound):
		s.writeError(w, "pdf not found", http.StatusNotFound)
	default:
		s.writeError(w, fmt.Sprintf("processing pdf: %v", err), http.StatusInternalServerError)
	}
}
