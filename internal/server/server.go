// Package server exposes a trained forest over HTTP: a JSON prediction
// endpoint, a health check, and Prometheus metrics.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/epsilon-ml/rf/forest"
)

// Server serves predictions from a loaded model.
type Server struct {
	clf *forest.Classifier
	log zerolog.Logger
}

// New returns a server around a trained classifier.
func New(clf *forest.Classifier, log zerolog.Logger) *Server {
	return &Server{clf: clf, log: log}
}

// Router builds the HTTP routes with logging and metrics middleware.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logging, metricsMiddleware)

	r.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	r.Handle("/metrics", MetricsHandler()).Methods("GET")

	api := r.PathPrefix("/rf/v1").Subrouter()
	api.HandleFunc("/predict", s.handlePredict).Methods("POST")
	api.HandleFunc("/predict/batch", s.handlePredictBatch).Methods("POST")

	return r
}

type predictRequest struct {
	Sample []float32 `json:"sample"`
}

type predictResponse struct {
	Prediction int32 `json:"prediction"`
}

type predictBatchRequest struct {
	Samples [][]float32 `json:"samples"`
}

type predictBatchResponse struct {
	Predictions []int32 `json:"predictions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Sample == nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	pred, err := s.clf.Predict(req.Sample)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	recordPrediction(pred)
	writeJSON(w, http.StatusOK, predictResponse{Prediction: pred})
}

func (s *Server) handlePredictBatch(w http.ResponseWriter, r *http.Request) {
	var req predictBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Samples == nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	preds := make([]int32, len(req.Samples))
	for i, sample := range req.Samples {
		pred, err := s.clf.Predict(sample)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		preds[i] = pred
		recordPrediction(pred)
	}

	writeJSON(w, http.StatusOK, predictBatchResponse{Predictions: preds})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps validation failures to 400 and everything else to 500.
func statusFor(err error) int {
	if errors.Is(err, forest.ErrInvalidShape) || errors.Is(err, forest.ErrNonFinite) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// logging writes one request line per call.
func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Msg("request")
	})
}
