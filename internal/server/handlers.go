package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	"github.com/minibucket/minibucket/internal/files"
)

// multipartMemory is the in-memory buffer for multipart parsing; larger
// parts spill to temp files.
const multipartMemory = 32 << 20

type itemsResponse struct {
	Items []*files.File `json:"items"`
}

type countResponse struct {
	Count int `json:"count"`
}

func uploadFile(fileService *files.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				writeError(w, http.StatusRequestEntityTooLarge, codeTooLarge, "request body too large")
				return
			}
			respondError(w, files.ErrNoFile)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			respondError(w, files.ErrNoFile)
			return
		}
		defer file.Close()

		ttl, err := parseTTL(r.FormValue("exp"))
		if err != nil {
			respondError(w, err)
			return
		}

		result, err := fileService.Upload(&files.UploadRequest{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Content:     file,
			TTL:         ttl,
		})
		if err != nil {
			slog.Error("upload failed", "error", err, "filename", header.Filename)
			respondError(w, err)
			return
		}

		slog.Info("file uploaded",
			"file_id", result.ID,
			"filename", result.Name,
			"size", humanize.Bytes(uint64(result.Size)),
		)

		writeJSON(w, http.StatusCreated, result)
	}
}

// parseTTL converts the optional "exp" form value into a duration. An empty
// value means no expiry; anything that is not a non-negative integer number
// of seconds is rejected.
func parseTTL(raw string) (*time.Duration, error) {
	if raw == "" {
		return nil, nil
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return nil, files.ErrInvalidTTL
	}
	ttl := time.Duration(seconds) * time.Second
	return &ttl, nil
}

func listFiles(fileService *files.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := fileService.List()
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, itemsResponse{Items: items})
	}
}

func listFilesByName(fileService *files.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "filename")
		items, err := fileService.FindByName(name)
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, itemsResponse{Items: items})
	}
}

func downloadFile(fileService *files.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		file, content, err := fileService.Download(id)
		if err != nil {
			respondError(w, err)
			return
		}
		defer content.Close()
		streamFile(w, file, content)
	}
}

func downloadFileByName(fileService *files.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "filename")
		file, content, err := fileService.DownloadLatestByName(name)
		if err != nil {
			respondError(w, err)
			return
		}
		defer content.Close()
		streamFile(w, file, content)
	}
}

func deleteFile(fileService *files.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := fileService.Delete(id); err != nil {
			respondError(w, err)
			return
		}
		slog.Info("file deleted", "file_id", id)
		w.WriteHeader(http.StatusNoContent)
	}
}

func deleteFilesByName(fileService *files.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "filename")
		count, err := fileService.DeleteByName(name)
		if err != nil {
			respondError(w, err)
			return
		}
		slog.Info("files deleted by name", "filename", name, "count", count)
		writeJSON(w, http.StatusOK, countResponse{Count: count})
	}
}

func streamFile(w http.ResponseWriter, file *files.File, content io.Reader) {
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, content); err != nil {
		slog.Error("failed to stream file", "error", err, "file_id", file.ID)
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
