package response

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/alim-webecc/ha-tms/pkg/errorbank"
)

// Builder constructs the {ok:...} response envelope used by every endpoint.
// Success payloads carry their fields at the top level next to ok; errors
// render as {ok:false, error:{kind, message, details}}.
type Builder struct {
	ctx    echo.Context
	status int
	fields map[string]any
	err    error
}

// New instantiates a Builder for the provided request context.
func New(ctx echo.Context) *Builder {
	return &Builder{ctx: ctx, status: http.StatusOK}
}

// WithStatus overrides the response status code.
func (b *Builder) WithStatus(status int) *Builder {
	if status > 0 {
		b.status = status
	}
	return b
}

// WithField attaches a named success payload field ("items", "order", ...).
func (b *Builder) WithField(key string, value any) *Builder {
	if key == "" {
		return b
	}
	if b.fields == nil {
		b.fields = make(map[string]any)
	}
	b.fields[key] = value
	return b
}

// WithError records an error to be rendered.
func (b *Builder) WithError(err error) *Builder {
	b.err = err
	return b
}

// Build finalises and emits the HTTP response.
func (b *Builder) Build() error {
	if b.err != nil {
		return b.buildError()
	}
	return b.buildSuccess()
}

func (b *Builder) buildSuccess() error {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	payload := make(map[string]any, len(b.fields)+1)
	payload["ok"] = true
	for k, v := range b.fields {
		payload[k] = v
	}
	return b.ctx.JSON(b.status, payload)
}

func (b *Builder) buildError() error {
	appErr := errorbank.From(b.err)
	status := b.status
	if status < 400 {
		status = appErr.StatusCode()
	}
	payload := struct {
		OK    bool `json:"ok"`
		Error struct {
			Kind    string         `json:"kind"`
			Message string         `json:"message"`
			Details map[string]any `json:"details,omitempty"`
		} `json:"error"`
	}{}
	payload.Error.Kind = string(appErr.Kind())
	payload.Error.Message = appErr.Message()
	payload.Error.Details = appErr.Details()

	return b.ctx.JSON(status, payload)
}
