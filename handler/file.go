package handler

import (
	"fmt"
	"mime"
	"net/http"
	"strconv"
)

type fileResponse struct {
	filename    string
	contentType string
	content     []byte
	inline      bool
}

func (f fileResponse) Render(w http.ResponseWriter, r *http.Request) error {
	disposition := "attachment"
	if f.inline {
		disposition = "inline"
	}
	w.Header().Set("Content-Type", f.contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(f.content)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": f.filename}))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(f.content); err != nil {
		return fmt.Errorf("write file response: %w", err)
	}
	return nil
}

// Attachment serves content as a download named filename.
func Attachment(filename, contentType string, content []byte) Response {
	return fileResponse{filename: filename, contentType: contentType, content: content}
}

// Inline serves content for display in the browser.
func Inline(filename, contentType string, content []byte) Response {
	return fileResponse{filename: filename, contentType: contentType, content: content, inline: true}
}

type emptyResponse struct {
	status int
}

func (e emptyResponse) Render(w http.ResponseWriter, r *http.Request) error {
	w.WriteHeader(e.status)
	return nil
}

// Empty responds with status and no body.
func Empty(status int) Response {
	return emptyResponse{status: status}
}
