package main

import "net/http"

func (a *api) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := a.store.kv.Ping(r.Context()); err != nil {
		writeError(w, 503, "storage unavailable")
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true, "blob_driver": a.store.blobs.Driver()})
}
