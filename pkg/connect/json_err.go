package connect

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// ErrorHttp is the error envelope both services return: {"error": "<message>"}.
// The status code travels in the response header, not the body.
type ErrorHttp struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
}

func (e *ErrorHttp) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// SendJsonErr writes the error envelope with the error's status code.
func (e *ErrorHttp) SendJsonErr(w http.ResponseWriter) {
	WriteJson(w, e.StatusCode, e)
}

// WriteJson marshals v and writes it with the given status code.
// Marshalling happens before the header is written so a failure can still become a 500.
func WriteJson(w http.ResponseWriter, status int, v any) {

	body, err := json.Marshal(v)
	if err != nil {
		slog.Default().Error("failed to marshal json response", slog.String("err", err.Error()))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Internal Server Error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}
