package mail

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Message is one recorded outbound mail.
type Message struct {
	To      string
	Kind    string    // "verification", "hint" or "login"
	User    uuid.UUID // set for verification mail only
	Payload string    // code, hint text or source IP
}

// MemoryMailer records messages instead of sending them. It doubles as the
// no-SMTP fallback for local development and as the test double.
type MemoryMailer struct {
	mu       sync.Mutex
	messages []Message
}

func NewMemoryMailer() *MemoryMailer {
	return &MemoryMailer{}
}

func (m *MemoryMailer) SendVerification(_ context.Context, to string, user uuid.UUID, code string) error {
	m.record(Message{To: to, Kind: "verification", User: user, Payload: code})
	return nil
}

func (m *MemoryMailer) SendPasswordHint(_ context.Context, to, hint string) error {
	m.record(Message{To: to, Kind: "hint", Payload: hint})
	return nil
}

func (m *MemoryMailer) SendLoginNotification(_ context.Context, to, ip string) error {
	m.record(Message{To: to, Kind: "login", Payload: ip})
	return nil
}

func (m *MemoryMailer) record(msg Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

// Messages returns a copy of everything recorded so far.
func (m *MemoryMailer) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Last returns the most recent message sent to the address, if any.
func (m *MemoryMailer) Last(to string) (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].To == to {
			return m.messages[i], true
		}
	}
	return Message{}, false
}
