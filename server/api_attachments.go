package main

import (
	"io"
	"net/http"
)

const maxAttachmentBytes = 25 << 20

// handleUploadAttachment accepts one multipart file field named "file",
// stores the payload, then records the metadata on the card.
func (a *api) handleUploadAttachment(w http.ResponseWriter, r *http.Request) {
	cardID := r.PathValue("id")
	r.Body = http.MaxBytesReader(w, r.Body, maxAttachmentBytes)
	if err := r.ParseMultipartForm(4 << 20); err != nil {
		writeError(w, 400, "invalid multipart payload")
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, 400, "missing file field")
		return
	}
	defer f.Close()

	contentType := hdr.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	att, err := a.store.AddAttachment(r.Context(), cardID, hdr.Filename, contentType, hdr.Size, f)
	if err != nil {
		a.fail(w, "upload attachment", err)
		return
	}
	writeJSON(w, 201, att)
	if _, _, b, _, err := a.store.CardByID(cardID); err == nil {
		a.bus.Publish(Event{Type: "attachment.created", Entity: "attachment", BoardID: b.ID, Payload: att})
	}
}

func (a *api) handleDownloadAttachment(w http.ResponseWriter, r *http.Request) {
	rc, contentType, err := a.store.OpenAttachment(r.Context(), r.PathValue("id"))
	if err != nil {
		a.fail(w, "download attachment", err)
		return
	}
	defer rc.Close()
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if n, err := io.Copy(w, rc); err != nil {
		a.log.Error("stream attachment", "copied", n, "err", err)
	}
}

func (a *api) handleDeleteAttachment(w http.ResponseWriter, r *http.Request) {
	cardID, attID := r.PathValue("id"), r.PathValue("att")
	if err := a.store.DeleteAttachment(r.Context(), cardID, attID); err != nil {
		a.fail(w, "delete attachment", err)
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true})
	if _, _, b, _, err := a.store.CardByID(cardID); err == nil {
		a.bus.Publish(Event{Type: "attachment.deleted", Entity: "attachment", BoardID: b.ID, Payload: map[string]any{"id": attID}})
	}
}
