package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"speechcoach/internal/models"
	"speechcoach/internal/repository"
)

// parseID reads a positive integer URL parameter
func parseID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s", models.ErrValidation, ErrInvalidID)
	}
	return id, nil
}

// queryInt reads an optional non-negative integer query parameter
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", models.ErrValidation, name)
	}
	return n, nil
}

func listOptions(r *http.Request) (repository.ListOptions, error) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		return repository.ListOptions{}, err
	}
	return repository.ListOptions{Sort: r.URL.Query().Get("sort"), Limit: limit}, nil
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.deps.MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %s: %v", models.ErrValidation, ErrInvalidJSON, err)
	}
	return nil
}

// readBody reads a raw request body bounded by the configured limit
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.deps.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: body exceeds %d bytes", models.ErrValidation, tooLarge.Limit)
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty body", models.ErrValidation)
	}
	return data, nil
}
