// Package httpapi serves the word list document API that the remote store talks to.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/eslsoft/vocsync/internal/infrastructure/docstore"
)

const (
	// Collection is the path segment word list documents are served under.
	Collection = "words"
	// PartitionField names the document field and query parameter holding the partition key.
	PartitionField = "languageCode"

	maxBodyBytes = 1 << 20
)

// Handler serves documents for authenticated users.
type Handler struct {
	store  docstore.Store
	logger logrus.FieldLogger
}

// NewHandler creates a document handler over store.
func NewHandler(store docstore.Store, logger logrus.FieldLogger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Register mounts the document routes on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/"+Collection, h.list).Methods(http.MethodGet)
	r.HandleFunc("/"+Collection, h.deletePartition).Methods(http.MethodDelete)
	r.HandleFunc("/"+Collection+"/{id}", h.create).Methods(http.MethodPost)
	r.HandleFunc("/"+Collection+"/{id}", h.replace).Methods(http.MethodPut)
	r.HandleFunc("/"+Collection+"/{id}", h.get).Methods(http.MethodGet)
	r.HandleFunc("/"+Collection+"/{id}", h.delete).Methods(http.MethodDelete)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.readDocument(w, r)
	if !ok {
		return
	}
	userID := UserFromContext(r.Context())
	if _, err := h.store.Get(r.Context(), userID, Collection, doc.ID); err == nil {
		writeError(w, http.StatusConflict, "document already exists")
		return
	} else if !errors.Is(err, docstore.ErrNotFound) {
		h.internalError(w, r, err)
		return
	}
	if _, err := h.store.Put(r.Context(), userID, Collection, doc); err != nil {
		h.internalError(w, r, err)
		return
	}
	writeRaw(w, http.StatusCreated, doc.Body)
}

func (h *Handler) replace(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.readDocument(w, r)
	if !ok {
		return
	}
	if _, err := h.store.Put(r.Context(), UserFromContext(r.Context()), Collection, doc); err != nil {
		h.internalError(w, r, err)
		return
	}
	writeRaw(w, http.StatusOK, doc.Body)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.store.Get(r.Context(), UserFromContext(r.Context()), Collection, mux.Vars(r)["id"])
	if errors.Is(err, docstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeRaw(w, http.StatusOK, doc.Body)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	partition := strings.TrimSpace(r.URL.Query().Get(PartitionField))
	if partition == "" {
		writeError(w, http.StatusBadRequest, PartitionField+" query parameter is required")
		return
	}
	docs, err := h.store.List(r.Context(), UserFromContext(r.Context()), Collection, partition)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	items := make([]map[string]json.RawMessage, 0, len(docs))
	for _, doc := range docs {
		items = append(items, map[string]json.RawMessage{"body": doc.Body})
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	err := h.store.Delete(r.Context(), UserFromContext(r.Context()), Collection, mux.Vars(r)["id"])
	if errors.Is(err, docstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": 1})
}

func (h *Handler) deletePartition(w http.ResponseWriter, r *http.Request) {
	partition := strings.TrimSpace(r.URL.Query().Get(PartitionField))
	if partition == "" {
		writeError(w, http.StatusBadRequest, PartitionField+" query parameter is required")
		return
	}
	n, err := h.store.DeletePartition(r.Context(), UserFromContext(r.Context()), Collection, partition)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

// readDocument validates the request body and extracts its partition key.
func (h *Handler) readDocument(w http.ResponseWriter, r *http.Request) (docstore.Document, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return docstore.Document{}, false
	}
	if len(body) > maxBodyBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "document too large")
		return docstore.Document{}, false
	}
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		writeError(w, http.StatusBadRequest, "body must be a JSON object")
		return docstore.Document{}, false
	}
	partition := strings.TrimSpace(gjson.GetBytes(body, PartitionField).String())
	if partition == "" {
		writeError(w, http.StatusBadRequest, PartitionField+" is required")
		return docstore.Document{}, false
	}
	return docstore.Document{
		ID:        mux.Vars(r)["id"],
		Partition: partition,
		Body:      json.RawMessage(body),
	}, true
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.WithError(err).WithField("path", r.URL.Path).Error("document store failure")
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
