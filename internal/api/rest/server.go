package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/gorilla/mux"

	app "healtrack/internal/application"
	"healtrack/internal/domain/entity"
	"healtrack/internal/infrastructure/metrics"
)

const (
	contentTypeJSON = "application/json"
	contentTypeCBOR = "application/cbor"

	kindInvalidRequest = "invalid_request"
	kindTimeout        = "timeout"
)

// Analyzer конвейер анализа с ограничением по времени.
type Analyzer interface {
	AnalyzeContext(ctx context.Context, req app.AnalysisRequest) (*entity.AnalysisReport, error)
}

// Server HTTP-адаптер над конвейером. Изображения и отчёты не сохраняет.
type Server struct {
	analyzer Analyzer
	metrics  *metrics.Metrics
	info     ModelInfo
	timeout  time.Duration
	maxBytes int
	now      func() time.Time
}

func NewServer(analyzer Analyzer, m *metrics.Metrics, info ModelInfo, timeout time.Duration) *Server {
	return &Server{
		analyzer: analyzer,
		metrics:  m,
		info:     info,
		timeout:  timeout,
		maxBytes: info.MaxImageBytes,
		now:      time.Now,
	}
}

// Router собирает маршруты.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(logRequests)

	// Все маршруты на корневом роутере: несовпадение метода даёт 405, а не 404.
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/analyze-wound", s.handleAnalyze).Methods(http.MethodPost)
	r.HandleFunc("/api/upload-image", s.handleUpload).Methods(http.MethodPost)
	r.HandleFunc("/api/model-info", s.handleModelInfo).Methods(http.MethodGet)
	r.HandleFunc("/api/metrics", s.handleMetrics).Methods(http.MethodGet)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: s.now().UTC().Format(time.RFC3339),
		Backend:   s.info.Backend,
	})
}

func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, http.StatusOK, s.info)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, http.StatusOK, s.metrics.Snapshot())
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		if media, _, err := mime.ParseMediaType(ct); err != nil || media != contentTypeJSON {
			s.reject(w, r, kindInvalidRequest, "content type must be application/json", http.StatusBadRequest)
			return
		}
	}

	// base64 раздувает данные на треть
	limit := int64(s.maxBytes)*4/3 + 64<<10
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.reject(w, r, entity.KindInvalidImage, fmt.Sprintf("payload exceeds %d bytes", s.maxBytes), http.StatusBadRequest)
			return
		}
		s.reject(w, r, kindInvalidRequest, "malformed JSON body", http.StatusBadRequest)
		return
	}

	payload := req.ImageData
	if payload == "" {
		payload = req.Image
	}
	if payload == "" {
		s.reject(w, r, kindInvalidRequest, "image_data is required", http.StatusBadRequest)
		return
	}

	s.analyze(w, r, app.AnalysisRequest{
		Payload:   payload,
		PatientID: req.PatientID,
		Notes:     req.Notes,
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(s.maxBytes)+1<<20)
	if err := r.ParseMultipartForm(int64(s.maxBytes)); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.reject(w, r, entity.KindInvalidImage, fmt.Sprintf("file exceeds %d bytes", s.maxBytes), http.StatusBadRequest)
			return
		}
		s.reject(w, r, kindInvalidRequest, "expected multipart/form-data", http.StatusBadRequest)
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.reject(w, r, kindInvalidRequest, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if ct := header.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") && ct != "application/octet-stream" {
		s.reject(w, r, entity.KindInvalidImage, "file must be an image", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, int64(s.maxBytes)+1))
	if err != nil {
		s.reject(w, r, kindInvalidRequest, "failed to read file", http.StatusBadRequest)
		return
	}
	if len(data) > s.maxBytes {
		s.reject(w, r, entity.KindInvalidImage, fmt.Sprintf("file exceeds %d bytes", s.maxBytes), http.StatusBadRequest)
		return
	}

	s.analyze(w, r, app.AnalysisRequest{
		Image:     data,
		PatientID: r.FormValue("patient_id"),
		Notes:     r.FormValue("notes"),
	})
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request, req app.AnalysisRequest) {
	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := time.Now()
	report, err := s.analyzer.AnalyzeContext(ctx, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.metrics.RecordSuccess(report.OverallStatus, time.Since(started))
	s.respond(w, r, http.StatusOK, newAnalysisResponse(report))
}

// fail переводит ошибку конвейера в ответ. Детали внутренних сбоев наружу не уходят.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		s.metrics.RecordTimeout()
		s.respond(w, r, http.StatusGatewayTimeout, ErrorResponse{ErrorKind: kindTimeout, Message: "analysis timed out"})
	case errors.Is(err, context.Canceled):
		// клиент ушёл, отвечать некому
		log.Printf("analysis cancelled by client")
	case entity.ErrorKind(err) == entity.KindInvalidImage:
		s.metrics.RecordError(entity.KindInvalidImage)
		s.respond(w, r, http.StatusBadRequest, ErrorResponse{ErrorKind: entity.KindInvalidImage, Message: err.Error()})
	default:
		s.metrics.RecordError(entity.KindProcessingError)
		s.respond(w, r, http.StatusInternalServerError, ErrorResponse{ErrorKind: entity.KindProcessingError, Message: "image processing failed"})
	}
}

func (s *Server) reject(w http.ResponseWriter, r *http.Request, kind, message string, status int) {
	if kind == entity.KindInvalidImage {
		s.metrics.RecordError(kind)
	}
	s.respond(w, r, status, ErrorResponse{ErrorKind: kind, Message: message})
}

// respond кодирует ответ в CBOR, если клиент его просит, иначе в JSON.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	if wantsCBOR(r) {
		body, err := cbor.Marshal(v)
		if err != nil {
			log.Printf("Error encoding cbor response: %v", err)
			http.Error(w, "encoding failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", contentTypeCBOR)
		w.WriteHeader(status)
		_, _ = w.Write(body)
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding json response: %v", err)
	}
}

func wantsCBOR(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		media, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && media == contentTypeCBOR {
			return true
		}
	}
	return false
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(started))
	})
}
