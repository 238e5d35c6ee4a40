package drive

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

// Handler exposes the Drive intake endpoints used to browse and pull
// register exports into the raw input directory.
type Handler struct {
	service *Service
	fetcher *Fetcher
	rawDir  string
}

func NewHandler(service *Service, fetcher *Fetcher, rawDir string) *Handler {
	return &Handler{
		service: service,
		fetcher: fetcher,
		rawDir:  rawDir,
	}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/drive/exports", h.ListExports).Methods("GET")
	router.HandleFunc("/api/drive/exports/download", h.DownloadExport).Methods("GET")
	router.HandleFunc("/api/drive/exports/fetch", h.FetchExports).Methods("POST")
}

func (h *Handler) ListExports(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	folderID := query.Get("folderId")
	folderPath := query.Get("path")

	var err error
	if folderPath != "" {
		folderID, err = h.service.FindFolderByPath(folderPath)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
	}

	files, err := h.service.ListExports(folderID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(files)
}

func (h *Handler) DownloadExport(w http.ResponseWriter, r *http.Request) {
	fileID := r.URL.Query().Get("fileId")
	if fileID == "" {
		http.Error(w, "fileId parameter is required", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=export.csv")

	if err := h.service.DownloadExport(fileID, w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// FetchExports pulls every CSV/XLSX export in a Drive folder into the
// raw input directory so a subsequent pipeline run can process them.
func (h *Handler) FetchExports(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	folderID := query.Get("folderId")
	folderPath := query.Get("path")

	var err error
	if folderPath != "" {
		folderID, err = h.service.FindFolderByPath(folderPath)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
	}

	paths, err := h.fetcher.FetchExports(r.Context(), FetchOptions{
		FolderID: folderID,
		DestDir:  h.rawDir,
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("fetch failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "success",
		"files":  paths,
	})
}
