package server

import (
	"errors"
	"net/http"

	"github.com/etnz/finmon"
	"github.com/go-chi/render"
)

// errResponse is the body of a failed request.
type errResponse struct {
	status int
	Error  string `json:"error"`
}

func (e *errResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.status)
	return nil
}

func errBadRequest(err error) render.Renderer {
	return &errResponse{status: http.StatusBadRequest, Error: err.Error()}
}

// errQuery maps the caller errors of the engine to a status.
func errQuery(err error) render.Renderer {
	if errors.Is(err, finmon.ErrUnknownName) {
		return &errResponse{status: http.StatusNotFound, Error: err.Error()}
	}
	return errBadRequest(err)
}
