package middleware

import (
	"log"
	"net/http"
	"strings"
	"time"
)

// stripNewlines removes CR/LF from user-supplied values before logging so a
// crafted path cannot forge log lines.
var stripNewlines = strings.NewReplacer("\n", "", "\r", "").Replace

// Logger logs one line per request: method, path, status, response size and
// duration.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		log.Printf(
			"%s %s %d %dB %s",
			stripNewlines(r.Method),
			stripNewlines(r.URL.Path),
			rec.status,
			rec.bytes,
			time.Since(start),
		)
	})
}

// statusRecorder captures the status code and body size written downstream.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += n
	return n, err
}
