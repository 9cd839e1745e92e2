package notification

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func TestRenderLabResultReady(t *testing.T) {
	engine := NewTemplateEngine()

	subject, body, err := engine.Render(TemplateLabResultReady, map[string]string{
		"requisition_id": "42",
		"patient_name":   "Ada Obi",
		"lab_test":       "Full Blood Count",
		"sample_id":      "348291",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if subject != "Lab Results Available - Requisition ID: 42" {
		t.Errorf("unexpected subject: %q", subject)
	}
	if !strings.Contains(body, "Ada Obi") {
		t.Errorf("expected patient name in body, got %q", body)
	}
	if !strings.Contains(body, "Full Blood Count") {
		t.Errorf("expected lab test in body, got %q", body)
	}
	if !strings.Contains(body, "348291") {
		t.Errorf("expected sample id in body, got %q", body)
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	engine := NewTemplateEngine()
	if _, _, err := engine.Render("no-such-template", nil); err == nil {
		t.Fatal("expected error for unknown template")
	}
}

func TestRenderLeavesUnknownKeys(t *testing.T) {
	engine := NewTemplateEngine()
	engine.RegisterTemplate(Template{ID: "t", Subject: "Hello {{name}}", Body: "{{missing}}"})

	subject, body, err := engine.Render("t", map[string]string{"name": "Ada"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subject != "Hello Ada" {
		t.Errorf("unexpected subject: %q", subject)
	}
	if body != "{{missing}}" {
		t.Errorf("expected unresolved placeholder to remain, got %q", body)
	}
}

// memOutbox is an in-memory OutboxRepo for dispatcher tests.
type memOutbox struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*Message
}

func newMemOutbox() *memOutbox {
	return &memOutbox{rows: make(map[uuid.UUID]*Message)}
}

func (m *memOutbox) Enqueue(_ context.Context, msg *Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	msg.Status = StatusPending
	msg.CreatedAt = time.Now()
	cp := *msg
	m.rows[msg.ID] = &cp
	return nil
}

func (m *memOutbox) Pending(_ context.Context, limit int) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Message
	for _, msg := range m.rows {
		if msg.Status == StatusPending {
			out = append(out, *msg)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memOutbox) MarkSent(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.rows[id]
	if !ok {
		return ErrMessageNotFound
	}
	msg.Status = StatusSent
	msg.Attempts++
	return nil
}

func (m *memOutbox) MarkFailed(_ context.Context, id uuid.UUID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.rows[id]
	if !ok {
		return ErrMessageNotFound
	}
	msg.Status = StatusFailed
	msg.LastError = reason
	msg.Attempts++
	return nil
}

func (m *memOutbox) GetByID(_ context.Context, id uuid.UUID) (*Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.rows[id]
	if !ok {
		return nil, ErrMessageNotFound
	}
	cp := *msg
	return &cp, nil
}

func testLogger() zerolog.Logger {
	return zerolog.New(os.Stderr)
}

func TestDispatchOnce_SendsPending(t *testing.T) {
	repo := newMemOutbox()
	sender := &MockEmailSender{}
	d := NewDispatcher(repo, sender, testLogger(), time.Minute)

	msg := &Message{
		Recipients: []string{"patient@example.com", "doctor@example.com"},
		Subject:    "Lab Results Available - Requisition ID: 7",
		Body:       "results ready",
	}
	if err := repo.Enqueue(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sent := d.DispatchOnce(context.Background())
	if sent != 1 {
		t.Fatalf("expected 1 sent, got %d", sent)
	}

	calls := sender.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 email call, got %d", len(calls))
	}
	if len(calls[0].To) != 2 {
		t.Errorf("expected 2 recipients, got %d", len(calls[0].To))
	}

	stored, err := repo.GetByID(context.Background(), msg.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Status != StatusSent {
		t.Errorf("expected status sent, got %s", stored.Status)
	}
}

func TestDispatchOnce_MarksFailedOnSendError(t *testing.T) {
	repo := newMemOutbox()
	sender := &MockEmailSender{ShouldFail: true, FailError: "smtp down"}
	d := NewDispatcher(repo, sender, testLogger(), time.Minute)

	msg := &Message{Recipients: []string{"patient@example.com"}, Subject: "s", Body: "b"}
	if err := repo.Enqueue(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sent := d.DispatchOnce(context.Background()); sent != 0 {
		t.Fatalf("expected 0 sent, got %d", sent)
	}

	stored, _ := repo.GetByID(context.Background(), msg.ID)
	if stored.Status != StatusFailed {
		t.Errorf("expected status failed, got %s", stored.Status)
	}
	if stored.LastError != "smtp down" {
		t.Errorf("expected last error recorded, got %q", stored.LastError)
	}
}

func TestDispatchOnce_FailsEmptyRecipients(t *testing.T) {
	repo := newMemOutbox()
	sender := &MockEmailSender{}
	d := NewDispatcher(repo, sender, testLogger(), time.Minute)

	msg := &Message{Recipients: nil, Subject: "s", Body: "b"}
	if err := repo.Enqueue(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sent := d.DispatchOnce(context.Background()); sent != 0 {
		t.Fatalf("expected 0 sent, got %d", sent)
	}
	if len(sender.Calls()) != 0 {
		t.Errorf("expected no email calls for empty recipients")
	}

	stored, _ := repo.GetByID(context.Background(), msg.ID)
	if stored.Status != StatusFailed {
		t.Errorf("expected status failed, got %s", stored.Status)
	}
}
