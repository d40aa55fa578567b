package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"descant/internal/logging"
	"descant/internal/services"
	"descant/internal/store"
)

type statusResponse struct {
	Service string `json:"service"`
	Status  string `json:"status"`
}

type analyzeResponse struct {
	Status      string `json:"status"`
	TotalScenes int    `json:"total_scenes"`
}

type updateSceneRequest struct {
	Description string `json:"description"`
}

type updateSceneResponse struct {
	Status   string  `json:"status"`
	Duration float64 `json:"duration"`
}

type exportResponse struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Scenes  []store.Scene `json:"scenes"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, statusResponse{Service: "descant", Status: "ok"})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "read upload: "+err.Error())
		return
	}

	projectID := store.NewProjectID()
	videoPath, err := s.storage.SaveVideo(projectID, header.Filename, data)
	if err != nil {
		s.logger.Error("upload write failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "store uploaded video")
		return
	}
	project, err := s.store.CreateProjectWithID(r.Context(), projectID, videoPath, header.Filename)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.logger.Info("video uploaded",
		logging.String("project_id", project.ID),
		logging.String("filename", project.OriginalFilename),
		logging.Int("bytes", len(data)))
	if s.notifier != nil {
		if err := s.notifier.NotifyUploadReceived(r.Context(), project.OriginalFilename); err != nil {
			s.logger.Warn("upload notification failed", logging.Error(err))
		}
	}
	s.writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	projectID := pathTail(r.URL.Path, "/api/analyze/")
	if projectID == "" {
		s.writeError(w, http.StatusNotFound, "project not found")
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), projectID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, analyzeResponse{Status: "success", TotalScenes: result.TotalScenes})
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	projects, err := s.store.ListProjects(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if projects == nil {
		projects = []*store.Project{}
	}
	s.writeJSON(w, http.StatusOK, projects)
}

// handleProjectSubtree serves /api/projects/{id} and /api/projects/{id}/scenes.
func (s *Server) handleProjectSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/projects/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	switch {
	case len(parts) == 1 && parts[0] != "":
		s.handleProjectByID(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "scenes":
		s.handleProjectScenes(w, r, parts[0])
	default:
		s.writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) handleProjectByID(w http.ResponseWriter, r *http.Request, projectID string) {
	switch r.Method {
	case http.MethodGet:
		project, err := s.store.GetProject(r.Context(), projectID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, project)
	case http.MethodDelete:
		if err := s.store.DeleteProject(r.Context(), projectID); err != nil {
			s.writeServiceError(w, err)
			return
		}
		if err := s.storage.RemoveProject(projectID); err != nil {
			s.logger.Warn("asset cleanup failed",
				logging.String("project_id", projectID),
				logging.Error(err))
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleProjectScenes(w http.ResponseWriter, r *http.Request, projectID string) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if _, err := s.store.GetProject(r.Context(), projectID); err != nil {
		s.writeServiceError(w, err)
		return
	}
	scenes, err := s.store.ScenesForProject(r.Context(), projectID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if scenes == nil {
		scenes = []store.Scene{}
	}
	s.writeJSON(w, http.StatusOK, scenes)
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sceneID := pathTail(r.URL.Path, "/api/scenes/")
	if sceneID == "" {
		s.writeError(w, http.StatusNotFound, "scene not found")
		return
	}

	var req updateSceneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	scene, err := s.analyzer.UpdateScene(r.Context(), sceneID, req.Description)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updateSceneResponse{Status: "success", Duration: scene.Duration})
}

// handleAsset serves project-scoped binary files: /api/<kind>/{project}/{file}.
func (s *Server) handleAsset(kind, contentType string) http.HandlerFunc {
	prefix := "/api/" + kind + "/"
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		rest := strings.TrimPrefix(r.URL.Path, prefix)
		parts := strings.Split(strings.Trim(rest, "/"), "/")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			s.writeError(w, http.StatusNotFound, kind+" not found")
			return
		}

		file, err := s.storage.Open(parts[0], parts[1])
		if err != nil {
			s.writeError(w, http.StatusNotFound, kind+" not found")
			return
		}
		defer file.Close()

		w.Header().Set("Content-Type", contentType)
		if _, err := io.Copy(w, file); err != nil {
			s.logger.Warn("asset stream interrupted", logging.Error(err))
		}
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	projectID := pathTail(r.URL.Path, "/api/export/")
	if projectID == "" {
		s.writeError(w, http.StatusNotFound, "project not found")
		return
	}

	result, err := s.analyzer.Export(r.Context(), projectID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, exportResponse{
		Status:  "success",
		Message: "Video export data prepared",
		Scenes:  result.Scenes,
	})
}

// pathTail extracts the single trailing path element after prefix, or ""
// when the remainder is empty or nested.
func pathTail(path, prefix string) string {
	tail := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if tail == "" || strings.Contains(tail, "/") {
		return ""
	}
	return tail
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps the error taxonomy onto HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	status := services.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", logging.Error(err))
	}
	s.writeError(w, status, err.Error())
}
