package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/boristopalov/rlplayground/pkg/core"
	"github.com/boristopalov/rlplayground/pkg/history"
	"github.com/boristopalov/rlplayground/pkg/messaging"
)

const (
	statusTraining = "training"
	statusComplete = "complete"
	statusError    = "error"
)

type trainingUpdate struct {
	Status string `json:"status"`
	core.EpisodeUpdate
}

// stream writes unnamed SSE messages, the form EventSource.onmessage receives
type stream struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func startStream(w http.ResponseWriter) (*stream, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	return &stream{w: w, flusher: flusher}, true
}

func (st *stream) send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(st.w, "data: %s\n\n", data); err != nil {
		return err
	}
	st.flusher.Flush()
	return nil
}

func (st *stream) fail(err error) {
	st.send(map[string]string{"status": statusError, "message": err.Error()})
}

// handleTrainStream trains a session and streams one message per episode.
// The episode count comes from POST /api/train or the episodes query parameter.
func (s *Server) handleTrainStream(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.coord.SessionExists(id) {
		writeError(w, &core.SessionNotFoundError{ID: id})
		return
	}
	var override int
	if q := r.URL.Query().Get("episodes"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "episodes must be an integer"})
			return
		}
		override = n
	}
	if !s.acquire(id) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": fmt.Sprintf("session %q is busy", id)})
		return
	}
	defer s.release(id)

	episodes, ok := s.takePending(id)
	if override != 0 {
		episodes, ok = override, true
	}
	if !ok || episodes < 1 {
		writeError(w, core.ErrInvalidEpisodeCount)
		return
	}

	st, ok := startStream(w)
	if !ok {
		return
	}

	ctx := r.Context()
	logger := s.logger.With("session_id", id)
	err := s.coord.Train(ctx, id, episodes, func(u core.EpisodeUpdate) error {
		if s.journal != nil {
			rec := history.EpisodeRecord{SessionID: id, Episode: u.Episode, Reward: u.Reward, Steps: u.Steps}
			if err := s.journal.RecordEpisode(ctx, rec); err != nil {
				logger.Warn("failed to journal episode", "episode", u.Episode, "error", err)
			}
		}
		s.publish(messaging.Message{
			Type:      messaging.TrainingEpisode,
			SessionID: id,
			Data:      map[string]any{"episode": u.Episode, "reward": u.Reward, "steps": u.Steps},
		})
		return st.send(trainingUpdate{Status: statusTraining, EpisodeUpdate: u})
	})
	if err != nil {
		logger.Warn("training stream failed", "error", err)
		s.publish(messaging.Message{Type: messaging.TrainingFailed, SessionID: id, Data: map[string]any{"error": err.Error()}})
		st.fail(err)
		return
	}

	info, _ := s.coord.GetSession(id)
	s.publish(messaging.Message{
		Type:      messaging.TrainingCompleted,
		SessionID: id,
		Data:      map[string]any{"episodes": episodes, "episodes_total": info.EpisodesTrained},
	})
	st.send(map[string]any{"status": statusComplete, "episodes": episodes, "session": info})
}

// handlePlayStream replays the learned policy and sends every frame at once
func (s *Server) handlePlayStream(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.coord.SessionExists(id) {
		writeError(w, &core.SessionNotFoundError{ID: id})
		return
	}
	if !s.acquire(id) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": fmt.Sprintf("session %q is busy", id)})
		return
	}
	defer s.release(id)

	st, ok := startStream(w)
	if !ok {
		return
	}

	frames, err := s.coord.PlayPolicy(r.Context(), id, nil)
	if err != nil {
		s.logger.Warn("playback failed", "session_id", id, "error", err)
		st.fail(err)
		return
	}
	s.publish(messaging.Message{Type: messaging.PlaybackCompleted, SessionID: id, Data: map[string]any{"frames": len(frames)}})
	st.send(map[string]any{"status": statusComplete, "frames": frames})
}

// handleEvents streams broker lifecycle events as named SSE events
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	subscriberID := uuid.NewString()
	ch := make(chan messaging.Message, 64)
	if err := s.broker.Subscribe(subscriberID, ch); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer s.broker.Unsubscribe(subscriberID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	// initial comment so EventSource fires onopen
	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		case msg := <-ch:
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Type, data)
			flusher.Flush()
		}
	}
}
