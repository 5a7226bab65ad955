package titlechan

import (
	"sync"
	"time"

	"github.com/nihmadev/Axion/internal/webpage"
)

// DefaultRestoreDelay is how long a frame occupies the title before the
// original title is put back.
const DefaultRestoreDelay = 50 * time.Millisecond

// Sender writes frames to one document's title. A frame occupies the channel
// for the restore window; sends arriving inside that window queue FIFO behind
// it, so per-document ordering is preserved and nothing is dropped on the
// sending side. Senders of different documents are fully independent.
type Sender struct {
	mu           sync.Mutex
	doc          *webpage.Document
	restoreDelay time.Duration
	queue        []string
	busy         bool
	saved        string
}

// NewSender returns a sender for the document. A non-positive restoreDelay
// selects DefaultRestoreDelay.
func NewSender(doc *webpage.Document, restoreDelay time.Duration) *Sender {
	if restoreDelay <= 0 {
		restoreDelay = DefaultRestoreDelay
	}
	return &Sender{doc: doc, restoreDelay: restoreDelay}
}

// Send frames the payload and writes it to the document title, queueing
// behind any in-flight frame.
func (s *Sender) Send(typ MessageType, payload any) error {
	frame, err := Encode(typ, payload)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.busy {
		s.queue = append(s.queue, frame)
		s.mu.Unlock()
		return nil
	}
	s.busy = true
	s.mu.Unlock()

	s.write(frame)
	return nil
}

// write publishes one frame and schedules the restore. Caller must have
// claimed the busy flag.
func (s *Sender) write(frame string) {
	s.mu.Lock()
	s.saved = s.doc.Title()
	s.mu.Unlock()

	s.doc.SetTitle(frame)
	time.AfterFunc(s.restoreDelay, s.restore)
}

func (s *Sender) restore() {
	s.mu.Lock()
	saved := s.saved
	s.mu.Unlock()

	// The original title always comes back, even when another frame is
	// queued right behind it.
	s.doc.SetTitle(saved)

	s.mu.Lock()
	if len(s.queue) == 0 {
		s.busy = false
		s.mu.Unlock()
		return
	}
	next := s.queue[0]
	s.queue = s.queue[1:]
	s.mu.Unlock()

	s.write(next)
}

// Idle reports whether no frame is in flight and the queue is empty.
func (s *Sender) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.busy && len(s.queue) == 0
}
