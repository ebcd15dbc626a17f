package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/boristopalov/rlplayground/pkg/core"
	"github.com/boristopalov/rlplayground/pkg/environment"
	"github.com/boristopalov/rlplayground/pkg/history"
	"github.com/boristopalov/rlplayground/pkg/messaging"
	"github.com/boristopalov/rlplayground/pkg/session"
)

type trainRequest struct {
	Algorithm   string          `json:"algorithm"`
	Environment string          `json:"environment"`
	Parameters  core.Parameters `json:"parameters"`
	Episodes    int             `json:"episodes"`
	Seed        *int64          `json:"seed"`
}

type sessionResponse struct {
	Session      session.Info   `json:"session"`
	LearningData map[string]any `json:"learning_data"`
}

func (s *Server) handleAlgorithms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"algorithms": s.algorithms.Available()})
}

func (s *Server) handleEnvironments(w http.ResponseWriter, r *http.Request) {
	names := s.environments.Available()
	infos := make([]environment.Info, 0, len(names))
	for _, name := range names {
		info, err := s.environments.Describe(name)
		if err != nil {
			writeError(w, err)
			return
		}
		infos = append(infos, info)
	}
	writeJSON(w, http.StatusOK, map[string]any{"environments": infos})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	frame, err := s.environments.Preview(name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"environment": name, "frame": frame})
}

func (s *Server) handleParameters(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("algorithm")
	env := r.URL.Query().Get("environment")
	schema, err := s.algorithms.ParameterSchema(name, env)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"algorithm":   name,
		"environment": env,
		"parameters":  schema,
	})
}

// handleTrain creates a session. Training itself runs on the stream endpoint.
func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	var req trainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if req.Episodes < 1 {
		writeError(w, core.ErrInvalidEpisodeCount)
		return
	}

	id, err := s.coord.CreateSession(r.Context(), req.Algorithm, req.Environment, req.Parameters, req.Seed)
	if err != nil {
		writeError(w, err)
		return
	}
	s.setPending(id, req.Episodes)

	info, _ := s.coord.GetSession(id)
	if s.journal != nil {
		err := s.journal.RecordSession(r.Context(), history.SessionRecord{
			ID:          id,
			Algorithm:   info.AlgorithmName,
			Environment: info.EnvironmentName,
			Parameters:  info.Parameters,
			Seed:        info.Seed,
			CreatedAt:   info.CreatedAt,
		})
		if err != nil {
			s.logger.Warn("failed to journal session", "session_id", id, "error", err)
		}
	}
	s.publish(messaging.Message{
		Type:      messaging.SessionCreated,
		SessionID: id,
		Data:      map[string]any{"algorithm": req.Algorithm, "environment": req.Environment, "episodes": req.Episodes},
	})

	writeJSON(w, http.StatusOK, map[string]string{"session_id": id})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sessions": s.coord.Sessions()})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	info, ok := s.coord.GetSession(id)
	if !ok {
		writeError(w, &core.SessionNotFoundError{ID: id})
		return
	}
	data, err := s.coord.LearningData(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: info, LearningData: data})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	n := len(s.coord.Sessions())
	err := s.coord.ResetAll()

	s.mu.Lock()
	clear(s.pending)
	s.mu.Unlock()

	s.publish(messaging.Message{Type: messaging.SessionsReset, Data: map[string]any{"sessions": n}})
	if err != nil {
		s.logger.Error("reset closed environments with errors", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"status": "reset", "sessions": n, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "reset", "sessions": n})
}

// statusFor maps coordinator errors to HTTP status codes
func statusFor(err error) int {
	var (
		notFound   *core.SessionNotFoundError
		notTrained *core.SessionNotTrainedError
		unknownAlg *core.UnknownAlgorithmError
		unknownEnv *core.UnknownEnvironmentError
		badParam   *core.ConfigurationError
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &notTrained):
		return http.StatusConflict
	case errors.As(err, &unknownAlg), errors.As(err, &unknownEnv), errors.As(err, &badParam),
		errors.Is(err, core.ErrInvalidEpisodeCount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
