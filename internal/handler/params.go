package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"dscatalog/internal/model"
	"dscatalog/pkg/apierror"
)

const maxBodyBytes = 1 << 20

func pathID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apierror.New("BAD_REQUEST", "id must be a positive integer", "id", http.StatusBadRequest)
	}
	return id, nil
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierror.New("BAD_REQUEST", key+" must be an integer", key, http.StatusBadRequest)
	}
	return value, nil
}

// pageRequest reads page, linesPerPage, orderBy and direction. Missing
// values are filled by the service defaults.
func pageRequest(r *http.Request) (model.PageRequest, error) {
	page, err := queryInt(r, "page", 0)
	if err != nil {
		return model.PageRequest{}, err
	}
	if page > model.MaxPage {
		return model.PageRequest{}, apierror.New("BAD_REQUEST", "page is out of range", "page", http.StatusBadRequest)
	}
	size, err := queryInt(r, "linesPerPage", model.DefaultPageSize)
	if err != nil {
		return model.PageRequest{}, err
	}

	q := r.URL.Query()
	return model.PageRequest{
		Page:      page,
		Size:      size,
		OrderBy:   strings.TrimSpace(q.Get("orderBy")),
		Direction: strings.TrimSpace(q.Get("direction")),
	}, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	defer r.Body.Close()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apierror.New("BAD_REQUEST", "request body is required", "", http.StatusBadRequest)
		}
		return apierror.New("BAD_REQUEST", "invalid JSON body", err.Error(), http.StatusBadRequest)
	}
	return nil
}

func location(r *http.Request, id int64) string {
	return strings.TrimSuffix(r.URL.Path, "/") + "/" + strconv.FormatInt(id, 10)
}
