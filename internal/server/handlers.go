package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/resumechat/internal/config"
	"github.com/hyperjump/resumechat/internal/models"
	"github.com/hyperjump/resumechat/internal/retrieval"
	"github.com/hyperjump/resumechat/internal/storage"
)

const serviceName = "RAG Assistant"

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("chat request", zap.String("question", req.Question))
	resp, err := s.chat.Answer(r.Context(), req.Question)
	if err != nil {
		s.logger.Error("chat failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"generator": s.config.LLM.Provider,
		"service":   serviceName,
	})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	resume := s.config.Resume
	if resume.FileName == "" || name != resume.FileName {
		s.respondError(w, http.StatusNotFound, "file not found")
		return
	}
	info, err := os.Stat(resume.Path)
	if err != nil || !info.Mode().IsRegular() {
		s.respondError(w, http.StatusNotFound, "file not found")
		return
	}
	if strings.EqualFold(resume.Type, "pdf") {
		w.Header().Set("Content-Type", "application/pdf")
	}
	s.serveFile(w, r, resume.Path)
}

func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	var req models.RetrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(s.config.Retrieval.TopK); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	start := time.Now()
	results, err := s.index.RetrieveScored(r.Context(), req.Question, req.TopK)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, retrieval.ErrIndexUnavailable) {
			status = http.StatusServiceUnavailable
		}
		s.logger.Error("retrieve failed", zap.Error(err))
		s.respondError(w, status, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, models.RetrieveResponse{
		Question:  req.Question,
		Results:   results,
		Total:     len(results),
		QueryTime: time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, CollectStatus(r.Context(), s.index, s.catalog, s.config, s.logger))
}

// recentBuilds caps the build history included in a status report.
const recentBuilds = 5

// CollectStatus reports on the loaded index, artifact sizes and the catalog's
// build history. catalog may be nil. Lookup failures are logged, not returned.
func CollectStatus(ctx context.Context, index IndexService, catalog storage.Catalog, cfg *config.Config, logger *zap.Logger) *models.StatusResponse {
	if logger == nil {
		logger = zap.NewNop()
	}
	stats := index.Stats()
	resp := &models.StatusResponse{
		Loaded:       stats.Loaded,
		IndexType:    stats.IndexType,
		IndexSize:    stats.IndexSize,
		MetadataSize: stats.MetadataSize,
		Dimensions:   stats.Dimensions,
		Embedder:     index.EmbedderName(),
	}

	st := cfg.Storage
	if n, err := storage.DiskUsageBytes(st.IndexPath, st.MetadataPath, st.CatalogPath); err == nil {
		resp.DiskUsage = n
	} else {
		logger.Warn("status: disk usage failed", zap.Error(err))
	}

	if catalog != nil {
		latest, err := catalog.LatestBuild(ctx)
		switch {
		case err == nil:
			resp.LatestBuild = latest
		case !errors.Is(err, storage.ErrNoBuilds):
			logger.Warn("status: catalog lookup failed", zap.Error(err))
		}
		if n, err := catalog.CountBuilds(ctx); err == nil {
			resp.BuildCount = n
		} else {
			logger.Warn("status: build count failed", zap.Error(err))
		}
		if resp.BuildCount > 0 {
			builds, err := catalog.ListBuilds(ctx, recentBuilds)
			if err != nil {
				logger.Warn("status: build history failed", zap.Error(err))
			}
			resp.RecentBuilds = builds
		}
	}
	return resp
}

// handleStatic serves the single-page frontend. Unknown paths get index.html
// so client-side routes work; API-looking paths get a JSON 404.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(r.URL.Path, "/")
	for _, prefix := range []string{"chat", "health", "api"} {
		if strings.HasPrefix(rel, prefix) {
			s.respondError(w, http.StatusNotFound, "not found")
			return
		}
	}
	root := s.config.Server.StaticDir
	if root == "" || (r.Method != http.MethodGet && r.Method != http.MethodHead) {
		s.respondError(w, http.StatusNotFound, "not found")
		return
	}

	target := filepath.Join(root, filepath.FromSlash(path.Clean("/"+rel)))
	if info, err := os.Stat(target); err == nil && !info.IsDir() {
		s.serveFile(w, r, target)
		return
	}
	index := filepath.Join(root, "index.html")
	if _, err := os.Stat(index); err != nil {
		s.respondError(w, http.StatusNotFound, "not found")
		return
	}
	s.serveFile(w, r, index)
}

// serveFile writes the file at name regardless of the request path.
func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, name string) {
	f, err := os.Open(name)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "file not found")
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
