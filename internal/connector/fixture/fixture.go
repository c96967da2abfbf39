// Package fixture implements the one deterministic, wirable Connector
// (§6) this spec ships: a local JSON file of messages, used for
// integration tests and `pull` runs without real provider credentials
// (SPEC_FULL §6 "Connector (C8) reference implementation").
package fixture

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/ignite/inbox-agent/internal/connector"
	"github.com/ignite/inbox-agent/internal/domain"
)

// record is the on-disk shape of one fixture message; ExternalID is
// required, everything else defaults sensibly if omitted so hand-written
// fixture files stay short.
type record struct {
	ExternalID      string    `json:"external_id"`
	ThreadID        string    `json:"thread_id"`
	SenderAddress   string    `json:"sender_address"`
	SenderName      string    `json:"sender_name"`
	Recipients      []string  `json:"recipients"`
	Subject         string    `json:"subject"`
	BodyText        string    `json:"body_text"`
	SentAt          time.Time `json:"sent_at"`
	HasAttachments  bool      `json:"has_attachments"`
	AttachmentCount int       `json:"attachment_count"`
}

// Fixture is a deterministic in-memory Connector backed by a JSON file,
// satisfying connector.Connector. All mutating calls (MarkRead, Archive,
// ApplyLabels) are applied in memory only; nothing is written back to the
// fixture file.
type Fixture struct {
	mu       sync.Mutex
	messages []domain.Message
	read     map[string]bool
	archived map[string]bool
	labels   map[string]map[string]struct{}
	caps     connector.Capabilities
}

// Load reads a fixture file of records and builds a Fixture Connector.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}

	f := &Fixture{
		read:     map[string]bool{},
		archived: map[string]bool{},
		labels:   map[string]map[string]struct{}{},
		caps:     connector.Capabilities{SupportsPush: false, SupportsLabels: true},
	}
	for _, r := range records {
		f.messages = append(f.messages, recordToMessage(r))
		f.labels[r.ExternalID] = map[string]struct{}{}
	}
	return f, nil
}

func recordToMessage(r record) domain.Message {
	m := domain.NewMessage()
	m.ExternalID = r.ExternalID
	m.ThreadID = r.ThreadID
	m.Sender = domain.Address{Address: r.SenderAddress, DisplayName: r.SenderName}
	for _, addr := range r.Recipients {
		m.Recipients = append(m.Recipients, domain.Address{Address: addr})
	}
	m.Subject = r.Subject
	m.BodyText = r.BodyText
	m.SentAt = r.SentAt
	m.ReceivedAt = r.SentAt
	m.HasAttachments = r.HasAttachments
	m.AttachmentCount = r.AttachmentCount
	return m
}

// Authenticate always succeeds: the fixture has no real credentials to
// check.
func (f *Fixture) Authenticate(ctx context.Context) error { return nil }

// Pull returns every fixture message with SentAt strictly after since,
// ordered as they appear in the fixture file, and the latest SentAt among
// the returned messages as the next watermark.
func (f *Fixture) Pull(ctx context.Context, since time.Time) ([]domain.Message, time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.Message
	next := since
	for _, m := range f.messages {
		if m.SentAt.After(since) {
			out = append(out, m)
			if m.SentAt.After(next) {
				next = m.SentAt
			}
		}
	}
	return out, next, nil
}

func (f *Fixture) GetMessage(ctx context.Context, externalID string) (domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, m := range f.messages {
		if m.ExternalID == externalID {
			return m, nil
		}
	}
	return domain.Message{}, connector.ErrNotFound
}

func (f *Fixture) MarkRead(ctx context.Context, externalID string, read bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.read[externalID] = read
	return nil
}

func (f *Fixture) Archive(ctx context.Context, externalID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.archived[externalID] = true
	return nil
}

func (f *Fixture) ApplyLabels(ctx context.Context, externalID string, addLabels, removeLabels []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	set, ok := f.labels[externalID]
	if !ok {
		set = map[string]struct{}{}
		f.labels[externalID] = set
	}
	for _, l := range addLabels {
		set[l] = struct{}{}
	}
	for _, l := range removeLabels {
		delete(set, l)
	}
	return nil
}

func (f *Fixture) ListLabels(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	seen := map[string]struct{}{}
	for _, set := range f.labels {
		for l := range set {
			seen[l] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for l := range seen {
		out = append(out, l)
	}
	return out, nil
}

func (f *Fixture) Capabilities() connector.Capabilities { return f.caps }

// IsRead and IsArchived expose the fixture's in-memory mutation state for
// test assertions.
func (f *Fixture) IsRead(externalID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read[externalID]
}

func (f *Fixture) IsArchived(externalID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.archived[externalID]
}

func (f *Fixture) LabelsFor(externalID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	set := f.labels[externalID]
	out := make([]string, 0, len(set))
	for l := range set {
		out = append(out, l)
	}
	return out
}

var _ connector.Connector = (*Fixture)(nil)
