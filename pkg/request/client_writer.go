package request

import "net/http"

// ClientWriter wraps a http.ResponseWriter and records the status code written to the client.
type ClientWriter struct {
	http.ResponseWriter
	statusCode int
}

// NewClientWriter creates a new ClientWriter. The status code defaults to 200 until WriteHeader is called.
func NewClientWriter(w http.ResponseWriter) *ClientWriter {
	return &ClientWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// WriteHeader records the status code before passing it on.
func (c *ClientWriter) WriteHeader(code int) {
	c.statusCode = code
	c.ResponseWriter.WriteHeader(code)
}

// StatusCode returns the status code sent to the client.
func (c *ClientWriter) StatusCode() int {
	return c.statusCode
}
