package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"quickdrop/internal/app/storage"
	"quickdrop/internal/pkg/errs"
	"quickdrop/internal/pkg/resp"
)

// voiceURLTTL is the validity window for presigned voice downloads; each
// playback request gets a fresh URL.
const voiceURLTTL = 5 * time.Minute

// HandleVoiceDownload resolves a voice reference broadcast by the relay.
// Filesystem blobs are served directly; S3 blobs redirect to a presigned URL.
func HandleVoiceDownload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		if key == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if fsStore, ok := deps.Store.(*storage.FSStore); ok {
			path, err := fsStore.BlobPath(key)
			if err != nil {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
				return
			}

			http.ServeFile(w, r, path)
			return
		}

		url, err := deps.Store.DownloadURL(r.Context(), key, voiceURLTTL)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrVoiceStorageFailed))
			return
		}

		http.Redirect(w, r, url, http.StatusFound)
	}
}
