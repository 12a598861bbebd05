package alerts

import (
	"fmt"
	"net/http"
)

// sseStream writes Server-Sent Events frames, flushing after each so events
// reach the browser as they happen.
type sseStream struct {
	w http.ResponseWriter
	f http.Flusher
}

func newSSEStream(w http.ResponseWriter, f http.Flusher) *sseStream {
	return &sseStream{w: w, f: f}
}

func (s *sseStream) frame(format string, args ...any) error {
	if _, err := fmt.Fprintf(s.w, format, args...); err != nil {
		return err
	}
	s.f.Flush()
	return nil
}

// Event sends a named event with a data payload.
func (s *sseStream) Event(name, data string) error {
	return s.frame("event: %s\ndata: %s\n\n", name, data)
}

// Comment sends a comment frame. Clients ignore it; used as keepalive.
func (s *sseStream) Comment(text string) error {
	return s.frame(": %s\n\n", text)
}

// Retry advises the client how long to wait before reconnecting.
func (s *sseStream) Retry(ms int) error {
	return s.frame("retry: %d\n\n", ms)
}
