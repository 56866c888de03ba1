package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"followarr/models"
	"followarr/services/pipeline"
)

// maxPayloadBytes caps webhook bodies; Plex thumb attachments stay well under
// this.
const maxPayloadBytes = 10 << 20

type episodePipeline interface {
	Process(ctx context.Context, event models.NewEpisodeEvent) (pipeline.State, error)
}

var _ episodePipeline = (*pipeline.Service)(nil)

// WebhookHandler accepts provider webhook calls, validates and normalizes
// them, and hands episode-added events to the pipeline. Validation failures
// are answered with a clean 400 so the provider does not retry forever;
// irrelevant events are acknowledged and dropped.
type WebhookHandler struct {
	Pipeline episodePipeline
	Thumbs   *ThumbnailStore // optional; nil disables attachment handling
}

// NewWebhookHandler creates the webhook ingress handler.
func NewWebhookHandler(p episodePipeline, thumbs *ThumbnailStore) *WebhookHandler {
	return &WebhookHandler{Pipeline: p, Thumbs: thumbs}
}

// Tautulli handles POST /webhook/tautulli (flat JSON).
func (h *WebhookHandler) Tautulli(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		h.reject(w, "failed to read request body")
		return
	}

	var payload TautulliEpisodeAdded
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Printf("[webhook] tautulli: invalid JSON: %v", err)
		h.reject(w, "invalid JSON payload")
		return
	}

	if !payload.Relevant() {
		log.Printf("[webhook] tautulli: ignoring event %q media type %q", payload.Event, payload.MediaType)
		h.respond(w, http.StatusOK, "ignored")
		return
	}
	if missing := payload.MissingFields(); len(missing) > 0 {
		log.Printf("[webhook] tautulli: missing required fields: %s", strings.Join(missing, ", "))
		h.reject(w, "missing required fields: "+strings.Join(missing, ", "))
		return
	}

	h.process(w, r, payload.NormalizedEvent())
}

// Plex handles POST /webhook/plex (multipart form with a JSON "payload" field
// and an optional thumbnail attachment; bare JSON is accepted too).
func (h *WebhookHandler) Plex(w http.ResponseWriter, r *http.Request) {
	payloadBytes, thumbRef, err := h.readPlexBody(r)
	if err != nil {
		log.Printf("[webhook] plex: %v", err)
		h.reject(w, err.Error())
		return
	}

	var payload PlexEpisodeAdded
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		log.Printf("[webhook] plex: invalid JSON: %v", err)
		h.reject(w, "invalid JSON payload")
		return
	}

	if !payload.Relevant() {
		log.Printf("[webhook] plex: ignoring event %q media type %q", payload.Event, payload.Metadata.Type)
		h.respond(w, http.StatusOK, "ignored")
		return
	}
	if missing := payload.MissingFields(); len(missing) > 0 {
		log.Printf("[webhook] plex: missing required fields: %s", strings.Join(missing, ", "))
		h.reject(w, "missing required fields: "+strings.Join(missing, ", "))
		return
	}

	event := payload.NormalizedEvent()
	if thumbRef != "" {
		event.ThumbnailRef = thumbRef
	}
	h.process(w, r, event)
}

// readPlexBody extracts the JSON payload and, when present, stores the
// thumbnail attachment, returning its reference.
func (h *WebhookHandler) readPlexBody(r *http.Request) (payload []byte, thumbRef string, err error) {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/") {
		body, readErr := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
		if readErr != nil {
			return nil, "", readErr
		}
		return body, "", nil
	}

	if err := r.ParseMultipartForm(maxPayloadBytes); err != nil {
		return nil, "", err
	}
	raw := r.FormValue("payload")
	if raw == "" {
		return nil, "", errMissingPayloadField
	}

	if h.Thumbs != nil {
		if file, header, ferr := r.FormFile("thumb"); ferr == nil {
			defer file.Close()
			ref, serr := h.Thumbs.Store(file)
			if serr != nil {
				// The thumbnail only decorates the notification.
				log.Printf("[webhook] plex: could not store thumbnail %q: %v", header.Filename, serr)
			} else {
				thumbRef = ref
			}
		}
	}
	return []byte(raw), thumbRef, nil
}

func (h *WebhookHandler) process(w http.ResponseWriter, r *http.Request, event models.NewEpisodeEvent) {
	state, err := h.Pipeline.Process(r.Context(), event)
	if err != nil {
		log.Printf("[webhook] pipeline error for %q %s: %v", event.ShowTitle, event.EpisodeCode(), err)
		h.respond(w, http.StatusInternalServerError, "error")
		return
	}
	log.Printf("[webhook] processed %q %s: %s", event.ShowTitle, event.EpisodeCode(), state)
	// Success regardless of delivery outcomes; providers must not retry.
	h.respond(w, http.StatusOK, "success")
}

func (h *WebhookHandler) reject(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(map[string]string{"status": "error", "message": message})
}

func (h *WebhookHandler) respond(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}
