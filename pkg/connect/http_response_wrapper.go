package connect

import (
	"net/http"
)

// ResponseWriter wraps a http.ResponseWriter to capture the status code for logs and metrics.
type ResponseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

// NewResponseWriter wraps w; the status defaults to 200 until something is written.
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

// WriteHeader records the first status code written.
func (rw *ResponseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

// Write wraps the underlying ResponseWriter's Write method
func (rw *ResponseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.statusCode = http.StatusOK
		rw.written = true
	}

	return rw.ResponseWriter.Write(b)
}

// Status returns the captured status code.
func (rw *ResponseWriter) Status() int {
	return rw.statusCode
}

// Written reports whether a header or body has been sent.
func (rw *ResponseWriter) Written() bool {
	return rw.written
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *ResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
