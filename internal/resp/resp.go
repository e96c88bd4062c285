// Package resp renders the uniform response envelope every endpoint
// answers with:
//
//	{"code": 0, "message": "ok", "data": ...}
//
// A zero code means success; any other code is one of the bizerr codes and
// data is null.
package resp

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/SergeyParamoshkin/myblog/internal/bizerr"
)

// Resp is the response envelope.
type Resp struct {
	HTTPStatusCode int `json:"-"` // http response status code

	Code    int         `json:"code"`    // 0 on success, application error code otherwise
	Message string      `json:"message"` // user-level status message
	Data    interface{} `json:"data"`    // payload, null on error
}

// OK wraps data in a success envelope.
func OK(data interface{}) *Resp {
	return &Resp{
		HTTPStatusCode: http.StatusOK,
		Code:           0,
		Message:        "ok",
		Data:           data,
	}
}

// Err builds an error envelope. It is rendered with 400 Bad Request; use
// FromError to pick the status from the error kind.
func Err(code int, message string) *Resp {
	return &Resp{
		HTTPStatusCode: http.StatusBadRequest,
		Code:           code,
		Message:        message,
	}
}

// FromError maps err onto an error envelope. Errors that are not business
// errors are reported as internal errors so their text never reaches the
// client.
func FromError(err error) *Resp {
	be := bizerr.As(err)
	if be == nil {
		be = bizerr.Internal(nil)
	}

	rd := Err(be.Code(), be.Error())
	rd.HTTPStatusCode = be.Status()

	return rd
}

// NoRoute builds the envelope for a request no route accepts. status is
// 404 or 405.
func NoRoute(status int) *Resp {
	rd := Err(bizerr.CodeArgument, http.StatusText(status))
	rd.HTTPStatusCode = status

	return rd
}

// Render implements render.Renderer.
func (rd *Resp) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, rd.HTTPStatusCode)

	return nil
}

// Responder is installed as render.Respond so that a bare error handed to
// the render package still comes out as an envelope.
func Responder(w http.ResponseWriter, r *http.Request, v interface{}) {
	if err, ok := v.(error); ok {
		rd := FromError(err)
		render.Status(r, rd.HTTPStatusCode)
		render.DefaultResponder(w, r, rd)

		return
	}

	render.DefaultResponder(w, r, v)
}
