package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bayarwoi/wallet/realtime"
)

// StreamChanges streams change notifications for one entity
// @Summary      Stream changes
// @Description  Server-sent events feed of change notifications for the user's rows in one entity. Events carry no row data; reload the list on each one.
// @Tags         stream
// @Produce      text/event-stream
// @Param        entity  path  string  true  "Entity to watch (accounts or transactions)"
// @Success      200
// @Failure      400  {object}  Response{error=string}
// @Router       /stream/{entity} [get]
// @Security     BearerAuth
func (api *API) StreamChanges(w http.ResponseWriter, r *http.Request) {
	entity := realtime.Entity(chi.URLParam(r, "entity"))
	switch entity {
	case realtime.EntityAccounts, realtime.EntityTransactions:
	default:
		writeError(w, http.StatusBadRequest, "entity must be one of: accounts, transactions")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	sub := api.Hub.Subscribe(entity, userID(r))
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
