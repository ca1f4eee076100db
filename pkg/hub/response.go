package hub

import (
	"fmt"
	"runtime/debug"

	"github.com/dikkadev/launchhub/pkg/apperr"
)

// Response is the uniform result of a boundary operation
type Response struct {
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
	Kind    string      `json:"kind,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Failure converts an error into a failed response
func Failure(err error) Response {
	return Response{
		Success: false,
		Error:   err.Error(),
		Kind:    apperr.KindOf(err).String(),
	}
}

// Respond runs fn and wraps its outcome. A panic in fn is logged and
// reported as a failed response.
func Respond(op string, fn func() (interface{}, error)) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("op", op).WithField("stack", string(debug.Stack())).Errorf("Recovered from panic: %v", r)
			resp = Failure(fmt.Errorf("%s: internal error: %v", op, r))
		}
	}()

	data, err := fn()
	if err != nil {
		log.WithError(err).WithField("op", op).Debug("Operation failed")
		return Failure(err)
	}
	return Response{Success: true, Data: data}
}
