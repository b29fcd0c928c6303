package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/scanforge/scanforge/internal/classify"
	"github.com/scanforge/scanforge/internal/fields"
	"github.com/scanforge/scanforge/internal/pipeline"
	"github.com/scanforge/scanforge/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPipeline implements documentPipeline with canned results.
type stubPipeline struct {
	imageResult *pipeline.DocumentResult
	imageErr    error
	pdfResult   *pipeline.PDFResult
	pdfErr      error
}

func (p *stubPipeline) ProcessImage(context.Context, image.Image) (*pipeline.DocumentResult, error) {
	return p.imageResult, p.imageErr
}

func (p *stubPipeline) ProcessPDF(context.Context, string, string) (*pipeline.PDFResult, error) {
	return p.pdfResult, p.pdfErr
}

func (p *stubPipeline) ExtractFields(text string) (classify.DocumentType, []fields.Field) {
	if strings.Contains(strings.ToLower(text), "invoice") {
		return classify.InvoiceOrReceipt, []fields.Field{
			{Label: "Invoice Number", Value: "A-1", Confidence: 90},
		}
	}
	return classify.Generic, nil
}

func sampleDocResult() *pipeline.DocumentResult {
	return &pipeline.DocumentResult{
		Text:         "Card Number 12345678",
		Confidence:   91,
		DocumentType: classify.LicenseOrID,
		Fields: []fields.Field{
			{Label: "Card Number", Value: "12345678", Confidence: 90},
		},
	}
}

func newTestServer(t *testing.T, pl documentPipeline, withStore bool) (*Server, *storage.Store) {
	t.Helper()
	var store *storage.Store
	if withStore {
		var err error
		store, err = storage.Open(filepath.Join(t.TempDir(), "scans.db"), nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
	}
	return New(Config{Host: "localhost", Port: 0}, pl, store), store
}

func pngUpload(t *testing.T, field, filename string) (*bytes.Buffer, string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	var imgBuf bytes.Buffer
	require.NoError(t, png.Encode(&imgBuf, img))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(imgBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &stubPipeline{}, false)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Version)
}

func TestProcessImage(t *testing.T) {
	srv, _ := newTestServer(t, &stubPipeline{imageResult: sampleDocResult()}, false)

	body, contentType := pngUpload(t, "image", "scan.png")
	req := httptest.NewRequest(http.MethodPost, "/v1/process/image", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp processResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Card Number 12345678", resp.Result.Text)
	assert.Empty(t, resp.RecordID, "no store configured")
}

func TestProcessImageMissingUpload(t *testing.T) {
	srv, _ := newTestServer(t, &stubPipeline{imageResult: sampleDocResult()}, false)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/process/image", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProcessImagePersistsWithStore(t *testing.T) {
	srv, store := newTestServer(t, &stubPipeline{imageResult: sampleDocResult()}, true)

	body, contentType := pngUpload(t, "image", "scan.png")
	req := httptest.NewRequest(http.MethodPost, "/v1/process/image", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp processResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.RecordID)

	saved, err := store.Get(context.Background(), resp.RecordID)
	require.NoError(t, err)
	assert.Equal(t, "scan.png", saved.FileName)
	assert.Equal(t, "Card Number 12345678", saved.ExtractedText)
}

func TestProcessText(t *testing.T) {
	srv, _ := newTestServer(t, &stubPipeline{}, false)

	body := strings.NewReader(`{"text": "Invoice Number: A-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/process/text", body)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp textResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invoice_or_receipt", resp.DocumentType)
}

func TestProcessTextEmpty(t *testing.T) {
	srv, _ := newTestServer(t, &stubPipeline{}, false)

	req := httptest.NewRequest(http.MethodPost, "/v1/process/text", strings.NewReader(`{"text": ""}`))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScanEndpoints(t *testing.T) {
	srv, store := newTestServer(t, &stubPipeline{}, true)
	ctx := context.Background()

	rec1 := &storage.ScanRecord{FileName: "a.png", FileType: "image"}
	require.NoError(t, store.Save(ctx, rec1))

	// List.
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/scans", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "a.png")

	// Get by id.
	rec = httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/scans/"+rec1.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	// Get missing.
	rec = httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/scans/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Delete.
	rec = httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/scans/"+rec1.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/scans/"+rec1.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScanEndpointsAbsentWithoutStore(t *testing.T) {
	srv, _ := newTestServer(t, &stubPipeline{}, false)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/scans", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &stubPipeline{}, false)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
