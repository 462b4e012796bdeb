// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"strconv"

	"github.com/blessed-dialekt/calmunity/dictionary"
	"github.com/blessed-dialekt/calmunity/middleware"
)

type entriesResponse struct {
	Entries []dictionary.Entry `json:"entries"`
	Count   int                `json:"count"`
}

type layoutsResponse struct {
	Layouts []dictionary.KeyboardLayout `json:"layouts"`
	Count   int                         `json:"count"`
}

func newEntriesResponse(entries []dictionary.Entry) entriesResponse {
	if entries == nil {
		entries = []dictionary.Entry{}
	}
	return entriesResponse{Entries: entries, Count: len(entries)}
}

// DictionaryHandler serves the read-only dictionary. A nil dictionary means
// none was configured and every endpoint answers 503.
type DictionaryHandler struct {
	dict *dictionary.Dictionary
}

func NewDictionaryHandler(dict *dictionary.Dictionary) *DictionaryHandler {
	return &DictionaryHandler{dict: dict}
}

func (h *DictionaryHandler) loaded(w http.ResponseWriter) bool {
	if h.dict == nil {
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Dictionary not loaded")
		return false
	}
	return true
}

// ListWords handles GET /dictionary/words
func (h *DictionaryHandler) ListWords(w http.ResponseWriter, r *http.Request) {
	if !h.loaded(w) {
		return
	}
	middleware.JSONResponse(w, http.StatusOK, newEntriesResponse(h.dict.Words()))
}

// ListPhrases handles GET /dictionary/phrases
func (h *DictionaryHandler) ListPhrases(w http.ResponseWriter, r *http.Request) {
	if !h.loaded(w) {
		return
	}
	middleware.JSONResponse(w, http.StatusOK, newEntriesResponse(h.dict.Phrases()))
}

// GetEntry handles GET /dictionary/entries/{id}
func (h *DictionaryHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	if !h.loaded(w) {
		return
	}

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "id must be a positive integer")
		return
	}

	entry, ok := h.dict.ByID(id)
	if !ok {
		middleware.ErrorResponse(w, http.StatusNotFound, "Entry not found")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, entry)
}

// ListByLetter handles GET /dictionary/letters/{letter}
func (h *DictionaryHandler) ListByLetter(w http.ResponseWriter, r *http.Request) {
	if !h.loaded(w) {
		return
	}

	letter := r.PathValue("letter")
	if len(letter) != 1 || !isASCIILetter(letter[0]) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "letter must be a single A-Z letter")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, newEntriesResponse(h.dict.ByLetter(letter)))
}

func isASCIILetter(c byte) bool {
	return ('A' <= c && c <= 'Z') || ('a' <= c && c <= 'z')
}

// ListLayouts handles GET /keyboard-layouts. ?tag= filters.
func (h *DictionaryHandler) ListLayouts(w http.ResponseWriter, r *http.Request) {
	if !h.loaded(w) {
		return
	}

	layouts := h.dict.Layouts()
	if tag := r.URL.Query().Get("tag"); tag != "" {
		layouts = h.dict.LayoutsByTag(tag)
	}
	if layouts == nil {
		layouts = []dictionary.KeyboardLayout{}
	}
	middleware.JSONResponse(w, http.StatusOK, layoutsResponse{Layouts: layouts, Count: len(layouts)})
}

// GetLayout handles GET /keyboard-layouts/{id}
func (h *DictionaryHandler) GetLayout(w http.ResponseWriter, r *http.Request) {
	if !h.loaded(w) {
		return
	}

	layout, ok := h.dict.LayoutByID(r.PathValue("id"))
	if !ok {
		middleware.ErrorResponse(w, http.StatusNotFound, "Keyboard layout not found")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, layout)
}
