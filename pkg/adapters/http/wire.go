// Package http exposes tasks over a JSON/HTTP remote-call protocol. Server
// hosts tasks behind a chi router; Transport is the matching client and
// implements ports.Transport.
//
// Routes, relative to the endpoint registered in the naming directory:
//
//	GET  /health
//	GET  /tasks
//	GET  /tasks/{task}
//	GET  /tasks/{task}/state
//	POST /tasks/{task}/transitions/{transition}
//	GET  /tasks/{task}/ports[/{port}]
//	GET  /tasks/{task}/ports/{port}/sample
//	PUT  /tasks/{task}/ports/{port}/sample
//	GET  /tasks/{task}/attributes[/{attribute}]
//	GET  /tasks/{task}/attributes/{attribute}/value
//	PUT  /tasks/{task}/attributes/{attribute}/value
//	GET  /tasks/{task}/attributes/{attribute}/string
//	PUT  /tasks/{task}/attributes/{attribute}/string
//	GET  /tasks/{task}/operations
//	POST /tasks/{task}/operations/{operation}
//
// Failures are reported with a status code and an errorBody: 404 for unknown
// names, 409 for invalid transitions, 422 for type mismatches.
package http

import (
	"errors"
	"net/http"

	"github.com/aretw0/orocos/pkg/domain"
)

type taskInfo struct {
	Name  string `json:"name"`
	Model string `json:"model,omitempty"`
}

type stateBody struct {
	State string `json:"state"`
}

type transitionBody struct {
	OK bool `json:"ok"`
}

type sampleBody struct {
	Value any  `json:"value"`
	OK    bool `json:"ok"`
}

type valueBody struct {
	Value any `json:"value"`
}

type stringBody struct {
	Value string `json:"value"`
}

type callBody struct {
	Args []any `json:"args"`
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Name  string `json:"name,omitempty"`
}

// statusFor maps a task failure onto an HTTP status and its body.
func statusFor(err error) (int, errorBody) {
	body := errorBody{Error: err.Error()}
	var nf *domain.NotFoundError
	switch {
	case errors.As(err, &nf):
		body.Kind, body.Name = nf.Kind, nf.Name
		return http.StatusNotFound, body
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, body
	case errors.Is(err, domain.ErrStateTransition):
		return http.StatusConflict, body
	case errors.Is(err, domain.ErrTypeMismatch):
		return http.StatusUnprocessableEntity, body
	}
	return http.StatusInternalServerError, body
}
