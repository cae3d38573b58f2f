package client

import (
	"errors"
	"io"
	"net/url"

	"github.com/go-resty/resty/v2"
)

// File is one multipart upload part.
type File struct {
	Field  string
	Name   string
	Reader io.Reader
}

// Body is the request payload for Post and Run. At most one of the four
// kinds may be set: raw bytes, form fields, multipart files, or a
// JSON-serializable value. The zero value sends no body.
type Body struct {
	Content []byte
	Form    url.Values
	Files   []File
	JSON    any
}

func (b Body) apply(req *resty.Request) error {
	kinds := 0
	if b.Content != nil {
		kinds++
	}
	if b.Form != nil {
		kinds++
	}
	if len(b.Files) > 0 {
		kinds++
	}
	if b.JSON != nil {
		kinds++
	}
	if kinds > 1 {
		return errors.New("at most one body kind may be set")
	}
	switch {
	case b.Content != nil:
		req.SetBody(b.Content)
	case b.Form != nil:
		req.SetFormDataFromValues(b.Form)
	case len(b.Files) > 0:
		for _, f := range b.Files {
			req.SetFileReader(f.Field, f.Name, f.Reader)
		}
	case b.JSON != nil:
		req.SetHeader("Content-Type", "application/json")
		req.SetBody(b.JSON)
	}
	return nil
}

// JSONBody is shorthand for a JSON payload.
func JSONBody(v any) Body { return Body{JSON: v} }
