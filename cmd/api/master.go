package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"reddit-growth-bot/internal/adapters/repo"
	"reddit-growth-bot/internal/domain"
	"reddit-growth-bot/internal/usecase/master"
)

type masterKeywordResponse struct {
	ID          int64  `json:"id"`
	Keyword     string `json:"keyword"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

type masterSubredditResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

type masterPersonaResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Backstory string `json:"backstory"`
	ToneStyle string `json:"tone_style"`
	IsActive  bool   `json:"is_active"`
}

func renderMasterKeyword(k domain.MasterKeyword) masterKeywordResponse {
	return masterKeywordResponse{ID: k.ID, Keyword: k.Keyword, Description: k.Description, IsActive: k.IsActive}
}

func renderMasterSubreddit(s domain.MasterSubreddit) masterSubredditResponse {
	return masterSubredditResponse{ID: s.ID, Name: s.Name, Description: s.Description, IsActive: s.IsActive}
}

func renderMasterPersona(p domain.MasterPersona) masterPersonaResponse {
	return masterPersonaResponse{ID: p.ID, Username: p.Username, Backstory: p.Backstory, ToneStyle: p.ToneStyle, IsActive: p.IsActive}
}

func (a *app) masterError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, master.ErrEmptyKeyword),
		errors.Is(err, master.ErrEmptySubreddit),
		errors.Is(err, master.ErrEmptyPersona):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repo.ErrMasterItemNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		a.log.Error().Err(err).Str("action", action).Msg("api: мастер-справочник")
		writeError(w, http.StatusInternalServerError, "операция со справочником не удалась")
	}
}

func (a *app) listMasterKeywords(w http.ResponseWriter, r *http.Request) {
	items, err := a.master.ListKeywords(r.Context())
	if err != nil {
		a.masterError(w, err, "list_keywords")
		return
	}
	out := make([]masterKeywordResponse, 0, len(items))
	for _, item := range items {
		out = append(out, renderMasterKeyword(item))
	}
	writeJSON(w, http.StatusOK, out)
}

type masterKeywordRequest struct {
	Keyword     *string `json:"keyword"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

func (a *app) createMasterKeyword(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req masterKeywordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "некорректное тело запроса")
		return
	}
	var keyword, description string
	if req.Keyword != nil {
		keyword = *req.Keyword
	}
	if req.Description != nil {
		description = *req.Description
	}
	created, err := a.master.CreateKeyword(r.Context(), keyword, description)
	if err != nil {
		a.masterError(w, err, "create_keyword")
		return
	}
	writeJSON(w, http.StatusCreated, renderMasterKeyword(created))
}

func (a *app) updateMasterKeyword(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "некорректный идентификатор")
		return
	}
	defer r.Body.Close()
	var req masterKeywordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "некорректное тело запроса")
		return
	}
	updated, err := a.master.UpdateKeyword(r.Context(), id, req.Keyword, req.Description, req.IsActive)
	if err != nil {
		a.masterError(w, err, "update_keyword")
		return
	}
	writeJSON(w, http.StatusOK, renderMasterKeyword(updated))
}

func (a *app) deleteMasterKeyword(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "некорректный идентификатор")
		return
	}
	if err := a.master.DeleteKeyword(r.Context(), id); err != nil {
		a.masterError(w, err, "delete_keyword")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *app) listMasterSubreddits(w http.ResponseWriter, r *http.Request) {
	items, err := a.master.ListSubreddits(r.Context())
	if err != nil {
		a.masterError(w, err, "list_subreddits")
		return
	}
	out := make([]masterSubredditResponse, 0, len(items))
	for _, item := range items {
		out = append(out, renderMasterSubreddit(item))
	}
	writeJSON(w, http.StatusOK, out)
}

type masterSubredditRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

func (a *app) createMasterSubreddit(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req masterSubredditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "некорректное тело запроса")
		return
	}
	var name, description string
	if req.Name != nil {
		name = *req.Name
	}
	if req.Description != nil {
		description = *req.Description
	}
	created, err := a.master.CreateSubreddit(r.Context(), name, description)
	if err != nil {
		a.masterError(w, err, "create_subreddit")
		return
	}
	writeJSON(w, http.StatusCreated, renderMasterSubreddit(created))
}

func (a *app) updateMasterSubreddit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "некорректный идентификатор")
		return
	}
	defer r.Body.Close()
	var req masterSubredditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "некорректное тело запроса")
		return
	}
	updated, err := a.master.UpdateSubreddit(r.Context(), id, req.Name, req.Description, req.IsActive)
	if err != nil {
		a.masterError(w, err, "update_subreddit")
		return
	}
	writeJSON(w, http.StatusOK, renderMasterSubreddit(updated))
}

func (a *app) deleteMasterSubreddit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "некорректный идентификатор")
		return
	}
	if err := a.master.DeleteSubreddit(r.Context(), id); err != nil {
		a.masterError(w, err, "delete_subreddit")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *app) listMasterPersonas(w http.ResponseWriter, r *http.Request) {
	items, err := a.master.ListPersonas(r.Context())
	if err != nil {
		a.masterError(w, err, "list_personas")
		return
	}
	out := make([]masterPersonaResponse, 0, len(items))
	for _, item := range items {
		out = append(out, renderMasterPersona(item))
	}
	writeJSON(w, http.StatusOK, out)
}

type masterPersonaRequest struct {
	Username  *string `json:"username"`
	Backstory *string `json:"backstory"`
	ToneStyle *string `json:"tone_style"`
	IsActive  *bool   `json:"is_active"`
}

func (a *app) createMasterPersona(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req masterPersonaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "некорректное тело запроса")
		return
	}
	var username, backstory, toneStyle string
	if req.Username != nil {
		username = *req.Username
	}
	if req.Backstory != nil {
		backstory = *req.Backstory
	}
	if req.ToneStyle != nil {
		toneStyle = *req.ToneStyle
	}
	created, err := a.master.CreatePersona(r.Context(), username, backstory, toneStyle)
	if err != nil {
		a.masterError(w, err, "create_persona")
		return
	}
	writeJSON(w, http.StatusCreated, renderMasterPersona(created))
}

func (a *app) updateMasterPersona(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "некорректный идентификатор")
		return
	}
	defer r.Body.Close()
	var req masterPersonaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "некорректное тело запроса")
		return
	}
	updated, err := a.master.UpdatePersona(r.Context(), id, req.Username, req.Backstory, req.ToneStyle, req.IsActive)
	if err != nil {
		a.masterError(w, err, "update_persona")
		return
	}
	writeJSON(w, http.StatusOK, renderMasterPersona(updated))
}

func (a *app) deleteMasterPersona(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "некорректный идентификатор")
		return
	}
	if err := a.master.DeletePersona(r.Context(), id); err != nil {
		a.masterError(w, err, "delete_persona")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
