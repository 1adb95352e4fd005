// AngelaMos | 2026
// request.go

package core

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

// Bind decodes a JSON body into dst and validates it. On failure it writes
// the 400 response and returns false.
func Bind(
	w http.ResponseWriter,
	r *http.Request,
	dst any,
	validate *validator.Validate,
) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			BadRequest(w, "request body is required")
			return false
		}
		BadRequest(w, "invalid request body")
		return false
	}

	if err := validate.Struct(dst); err != nil {
		ValidationFailed(w, err)
		return false
	}

	return true
}

func QueryInt(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}

type PageParams struct {
	Page     int
	PageSize int
}

func PageFromRequest(r *http.Request) PageParams {
	p := PageParams{
		Page:     QueryInt(r, "page", 1),
		PageSize: QueryInt(r, "page_size", 20),
	}
	p.Normalize()
	return p
}

func (p *PageParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p PageParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}
