package domain

import "time"

// Address is an email participant: an address plus an optional display name.
type Address struct {
	Address     string `json:"address" db:"address"`
	DisplayName string `json:"display_name,omitempty" db:"display_name"`
}

// Message is the core per-email entity. It is created when a Connector
// emits it, mutated only by pipeline stages, and never destroyed — old
// messages soft-expire by age policy rather than being deleted.
type Message struct {
	ID          string `json:"id" db:"id"`
	ExternalID  string `json:"external_id" db:"external_id"`
	ThreadID    string `json:"thread_id" db:"thread_id"`

	Sender     Address   `json:"sender" db:"sender"`
	Recipients []Address `json:"recipients" db:"recipients"`

	Subject  string `json:"subject" db:"subject"`
	BodyText string `json:"body_text" db:"body_text"`
	BodyHTML string `json:"body_html,omitempty" db:"body_html"`

	SentAt     time.Time `json:"sent_at" db:"sent_at"`
	ReceivedAt time.Time `json:"received_at" db:"received_at"`

	IsRead    bool `json:"is_read" db:"is_read"`
	IsFlagged bool `json:"is_flagged" db:"is_flagged"`

	HasAttachments  bool `json:"has_attachments" db:"has_attachments"`
	AttachmentCount int  `json:"attachment_count" db:"attachment_count"`

	Category Category `json:"category" db:"category"`
	Priority Priority `json:"priority" db:"priority"`

	// CategoryInferred is set when Category was defaulted to PRIMARY rather
	// than supplied by the connector or a rule, per Design Notes (iii) — it
	// prevents the feedback learner from over-weighting inferred defaults.
	CategoryInferred bool `json:"category_inferred" db:"category_inferred"`

	Tags           map[string]struct{} `json:"-" db:"-"`
	ProviderLabels map[string]struct{} `json:"-" db:"-"`

	ProcessingStamps map[ProcessingStamp]struct{} `json:"-" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewMessage builds a Message with defaulted category/priority and empty
// set-valued fields, per the Message invariant that both are always set.
func NewMessage() Message {
	return Message{
		Category:         CategoryPrimary,
		Priority:         PriorityNormal,
		CategoryInferred: true,
		Tags:             map[string]struct{}{},
		ProviderLabels:   map[string]struct{}{},
		ProcessingStamps: map[ProcessingStamp]struct{}{},
	}
}

// HasStamp reports whether the given pipeline stage has completed.
func (m *Message) HasStamp(s ProcessingStamp) bool {
	if m.ProcessingStamps == nil {
		return false
	}
	_, ok := m.ProcessingStamps[s]
	return ok
}

// Stamp marks a pipeline stage complete. Stamps only ever accumulate.
func (m *Message) Stamp(s ProcessingStamp) {
	if m.ProcessingStamps == nil {
		m.ProcessingStamps = map[ProcessingStamp]struct{}{}
	}
	m.ProcessingStamps[s] = struct{}{}
}

// TagList returns the message's tags as an unsorted slice, for callers that
// don't need set semantics (e.g. JSON encoding, display).
func (m *Message) TagList() []string {
	out := make([]string, 0, len(m.Tags))
	for t := range m.Tags {
		out = append(out, t)
	}
	return out
}

// AddTags unions the given tags into the message's tag set.
func (m *Message) AddTags(tags ...string) {
	if m.Tags == nil {
		m.Tags = map[string]struct{}{}
	}
	for _, t := range tags {
		m.Tags[t] = struct{}{}
	}
}

// RemoveTags removes the given tags from the message's tag set.
func (m *Message) RemoveTags(tags ...string) {
	for _, t := range tags {
		delete(m.Tags, t)
	}
}

// HasTag reports whether the message carries the given tag.
func (m *Message) HasTag(tag string) bool {
	_, ok := m.Tags[tag]
	return ok
}

// SenderDomain returns the domain portion of the sender's address, or "" if
// the address has no "@".
func (m *Message) SenderDomain() string {
	return domainOf(m.Sender.Address)
}

func domainOf(address string) string {
	for i := len(address) - 1; i >= 0; i-- {
		if address[i] == '@' {
			return address[i+1:]
		}
	}
	return ""
}
