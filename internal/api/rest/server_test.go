package rest

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"

	app "healtrack/internal/application"
	"healtrack/internal/domain/entity"
	"healtrack/internal/infrastructure/metrics"
	"healtrack/internal/infrastructure/vision"
)

type fakeAnalyzer struct {
	report *entity.AnalysisReport
	err    error
	got    app.AnalysisRequest
}

func (f *fakeAnalyzer) AnalyzeContext(_ context.Context, req app.AnalysisRequest) (*entity.AnalysisReport, error) {
	f.got = req
	return f.report, f.err
}

func sampleReport() *entity.AnalysisReport {
	return &entity.AnalysisReport{
		Success:           true,
		InflammationScore: 24.944,
		SwellingScore:     0,
		ClosureScore:      99.96,
		OverallStatus:     entity.StatusGood,
		Recommendations:   []string{"Healing appears to be progressing normally."},
		Confidence:        0.8761,
		Timestamp:         time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		PatientID:         "p-1",
		Notes:             "day 5",
		Region:            entity.RegionStats{WoundArea: 1000, TotalPixels: 4000},
	}
}

func testInfo() ModelInfo {
	return ModelInfo{Name: "healtrack", Version: "test", Backend: "native", MaxImageBytes: 1 << 20, MinImageSide: 32, MaxImageSide: 1024}
}

func newTestServer(a Analyzer) (*Server, *metrics.Metrics) {
	m := metrics.New()
	return NewServer(a, m, testInfo(), time.Second), m
}

func do(t *testing.T, srv *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func jsonRequest(t *testing.T, path string, body any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAnalyzeWoundJSON(t *testing.T) {
	fake := &fakeAnalyzer{report: sampleReport()}
	srv, m := newTestServer(fake)

	rec := do(t, srv, jsonRequest(t, "/api/analyze-wound", map[string]string{
		"image_data": "aGVsbG8=",
		"patient_id": "p-1",
		"notes":      "day 5",
	}))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp AnalysisResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, 24.9, resp.InflammationScore)
	require.Equal(t, 100.0, resp.ClosureScore)
	require.Equal(t, 0.88, resp.Confidence)
	require.Equal(t, "good", resp.OverallStatus)
	require.Equal(t, "2026-03-14T09:30:00Z", resp.Timestamp)
	require.Equal(t, 1000, resp.ProcessedRegions.WoundArea)

	require.Equal(t, "aGVsbG8=", fake.got.Payload)
	require.Equal(t, "p-1", fake.got.PatientID)
	require.Equal(t, "day 5", fake.got.Notes)
	require.EqualValues(t, 1, m.Snapshot().Successful)
}

func TestAnalyzeWoundAcceptsImageAlias(t *testing.T) {
	fake := &fakeAnalyzer{report: sampleReport()}
	srv, _ := newTestServer(fake)

	rec := do(t, srv, jsonRequest(t, "/api/analyze-wound", map[string]string{"image": "aGVsbG8="}))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "aGVsbG8=", fake.got.Payload)
}

func TestAnalyzeWoundCBOR(t *testing.T) {
	srv, _ := newTestServer(&fakeAnalyzer{report: sampleReport()})

	req := jsonRequest(t, "/api/analyze-wound", map[string]string{"image_data": "aGVsbG8="})
	req.Header.Set("Accept", "application/cbor")
	rec := do(t, srv, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/cbor", rec.Header().Get("Content-Type"))

	var resp AnalysisResponse
	require.NoError(t, cbor.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, "good", resp.OverallStatus)
}

func TestAnalyzeWoundErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"invalid", &entity.InvalidImageError{Reason: "image is too small (1x1)"}, http.StatusBadRequest, entity.KindInvalidImage},
		{"processing", &entity.ProcessingError{Stage: "segment", Cause: errors.New("boom")}, http.StatusInternalServerError, entity.KindProcessingError},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout, kindTimeout},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newTestServer(&fakeAnalyzer{err: tc.err})
			rec := do(t, srv, jsonRequest(t, "/api/analyze-wound", map[string]string{"image_data": "aGVsbG8="}))
			require.Equal(t, tc.status, rec.Code)

			var resp map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.Equal(t, false, resp["success"])
			require.Equal(t, tc.kind, resp["error_kind"])
			require.NotContains(t, resp, "inflammation_score")
		})
	}
}

func TestProcessingErrorDetailsAreHidden(t *testing.T) {
	srv, _ := newTestServer(&fakeAnalyzer{err: &entity.ProcessingError{Stage: "segment", Cause: errors.New("secret internals")}})
	rec := do(t, srv, jsonRequest(t, "/api/analyze-wound", map[string]string{"image_data": "aGVsbG8="}))
	require.NotContains(t, rec.Body.String(), "secret internals")
}

func TestAnalyzeWoundBadRequests(t *testing.T) {
	srv, _ := newTestServer(&fakeAnalyzer{report: sampleReport()})

	rec := do(t, srv, jsonRequest(t, "/api/analyze-wound", map[string]string{"notes": "no image"}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), kindInvalidRequest)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze-wound", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec = do(t, srv, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/analyze-wound", strings.NewReader("x"))
	req.Header.Set("Content-Type", "text/plain")
	rec = do(t, srv, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, httptest.NewRequest(http.MethodGet, "/api/analyze-wound", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestWrongMethodIsNotAllowed(t *testing.T) {
	srv, _ := newTestServer(&fakeAnalyzer{report: sampleReport()})

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/health"},
		{http.MethodGet, "/api/analyze-wound"},
		{http.MethodGet, "/api/upload-image"},
		{http.MethodPost, "/api/model-info"},
		{http.MethodDelete, "/api/metrics"},
	}
	for _, tt := range tests {
		rec := do(t, srv, httptest.NewRequest(tt.method, tt.path, nil))
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code, "%s %s", tt.method, tt.path)
	}

	rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func multipartUpload(t *testing.T, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "wound.png")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload-image", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadImage(t *testing.T) {
	fake := &fakeAnalyzer{report: sampleReport()}
	srv, _ := newTestServer(fake)

	rec := do(t, srv, multipartUpload(t, []byte("raw image bytes"), map[string]string{"patient_id": "p-9", "notes": "upload"}))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []byte("raw image bytes"), fake.got.Image)
	require.Equal(t, "p-9", fake.got.PatientID)
	require.Equal(t, "upload", fake.got.Notes)
}

func TestUploadImageTooLarge(t *testing.T) {
	fake := &fakeAnalyzer{report: sampleReport()}
	srv, m := newTestServer(fake)

	rec := do(t, srv, multipartUpload(t, make([]byte, (1<<20)+10), nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), entity.KindInvalidImage)
	require.Nil(t, fake.got.Image)
	require.EqualValues(t, 1, m.Snapshot().InvalidImages)
}

func TestUploadImageMissingFile(t *testing.T) {
	srv, _ := newTestServer(&fakeAnalyzer{report: sampleReport()})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("notes", "nothing"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/upload-image", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := do(t, srv, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), kindInvalidRequest)
}

func TestHealthAndInfo(t *testing.T) {
	srv, _ := newTestServer(&fakeAnalyzer{})
	srv.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	require.Equal(t, "healthy", health.Status)
	require.Equal(t, "2026-01-02T03:04:05Z", health.Timestamp)

	rec = do(t, srv, httptest.NewRequest(http.MethodGet, "/api/model-info", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var info ModelInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	require.Equal(t, "native", info.Backend)
	require.Equal(t, 1<<20, info.MaxImageBytes)

	rec = do(t, srv, httptest.NewRequest(http.MethodGet, "/api/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "total_requests")
}

func TestWantsCBOR(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	require.False(t, wantsCBOR(req))

	req.Header.Set("Accept", "application/json, application/cbor;q=0.9")
	require.True(t, wantsCBOR(req))
}

func TestAnalyzeWoundEndToEnd(t *testing.T) {
	backend := vision.NewNativeBackend()
	svc := app.NewAnalysisService(
		app.NewIngestor(app.DefaultIngestConfig()),
		app.NewQualityGate(app.DefaultQualityConfig(), backend),
		app.NewRegionSegmenter(app.DefaultSegmenterConfig(), backend),
		app.Detectors{
			Inflammation: app.NewInflammationDetector(app.DefaultInflammationConfig(), backend, nil),
			Swelling:     app.NewSwellingDetector(app.DefaultSwellingConfig(), backend),
			Closure:      app.NewClosureDetector(app.DefaultClosureConfig(), backend, backend, backend),
		},
		app.NewAggregator(app.DefaultAggregatorConfig()),
	)
	srv, _ := newTestServer(svc)

	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	rec := do(t, srv, jsonRequest(t, "/api/analyze-wound", map[string]string{
		"image_data": "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
	}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "too small")
}
