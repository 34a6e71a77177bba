package httpapi

import (
	"net/http"

	"github.com/hirewire/hirewire/internal/service"
)

type openThreadRequest struct {
	ParticipantID string `json:"participantId"`
}

func (a *API) handleOpenThread(w http.ResponseWriter, r *http.Request) {
	var req openThreadRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	actor := actorFrom(r)
	thread, err := a.messaging.GetOrCreateThread(r.Context(), actor.ID, req.ParticipantID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewThread(thread, 0))
}

func (a *API) handleListThreads(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	summaries, err := a.messaging.ListThreads(r.Context(), actor.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"threads": viewThreadSummaries(summaries)})
}

func (a *API) handleListMessages(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	messages, err := a.messaging.ListMessages(r.Context(), actor.ID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": viewMessages(messages)})
}

func (a *API) handleMarkThreadRead(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	if err := a.messaging.MarkThreadRead(r.Context(), actor.ID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sendMessageRequest struct {
	ThreadID    string `json:"threadId"`
	RecipientID string `json:"recipientId"`
	Body        string `json:"body"`
	JobID       string `json:"jobId"`
}

func (a *API) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	actor := actorFrom(r)
	sent, err := a.messaging.SendMessage(r.Context(), actor.ID, service.SendMessageInput{
		ThreadID:    req.ThreadID,
		RecipientID: req.RecipientID,
		Body:        req.Body,
		JobID:       req.JobID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewMessage(sent))
}
