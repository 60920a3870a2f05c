package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/questlog-app/questlog/internal/logger"
	"github.com/questlog-app/questlog/internal/utils"
	"github.com/questlog-app/questlog/models"
)

func (h *Handler) fetchRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.fetchRecords").Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusBadRequest)
		return
	}

	table := chi.URLParam(r, "table")

	var since *time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			log.Err(err).Str("func", "*Handler.fetchRecords").Msg("invalid since parameter")
			http.Error(w, "invalid since parameter", http.StatusBadRequest)
			return
		}
		since = &parsed
	}

	records, err := h.services.RecordService.FetchSince(ctx, userID, table, since)
	if err != nil {
		log.Err(err).Str("func", "*Handler.fetchRecords").Msg("error fetching records")
		http.Error(w, "error fetching records", statusFromError(err))
		return
	}

	if records == nil {
		records = []models.Record{}
	}

	utils.WriteJSON(w, records, http.StatusOK)
}

func (h *Handler) upsertRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.upsertRecord").Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusBadRequest)
		return
	}

	table := chi.URLParam(r, "table")

	var rec models.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		log.Err(err).Str("func", "*Handler.upsertRecord").Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	persisted, err := h.services.RecordService.Upsert(ctx, userID, table, rec)
	if err != nil {
		log.Err(err).Str("func", "*Handler.upsertRecord").Msg("error upserting record")
		http.Error(w, "error upserting record", statusFromError(err))
		return
	}

	utils.WriteJSON(w, persisted, http.StatusOK)
}

func (h *Handler) deleteRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.deleteRecord").Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusBadRequest)
		return
	}

	table := chi.URLParam(r, "table")
	id := chi.URLParam(r, "id")

	deleted, err := h.services.RecordService.Delete(ctx, userID, table, id)
	if err != nil {
		log.Err(err).Str("func", "*Handler.deleteRecord").Msg("error deleting record")
		http.Error(w, "error deleting record", statusFromError(err))
		return
	}

	utils.WriteJSON(w, models.DeleteResponse{Deleted: deleted}, http.StatusOK)
}

func (h *Handler) ping(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
