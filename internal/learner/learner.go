// Package learner observes user corrections (domain.Feedback) and updates
// the weights and patterns that feed back into future analysis (§4.6).
package learner

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ignite/inbox-agent/internal/domain"
	"github.com/ignite/inbox-agent/internal/store"
)

const (
	senderLearningRate      = 0.2
	tokenUrgencyIncrement   = 0.05
	tokenUrgencyWeightCap   = 1.0
	minTokenLength          = 3
)

// senderImportanceDelta is §4.6's per-bucket adjustment applied to a
// sender's learned weight, before the learning rate is applied.
var senderImportanceDelta = map[domain.Bucket]float64{
	domain.BucketPriorityInbox: 0.1,
	domain.BucketAutoArchive:   -0.1,
	domain.BucketSpamFolder:    -0.3,
	domain.BucketRegularInbox:  0,
}

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "that": {}, "this": {},
	"from": {}, "your": {}, "have": {}, "will": {}, "about": {},
}

// SenderOverridePublisher is the narrow slice of intelligence.Index the
// learner needs to push updated sender weights back into the read path,
// kept as a local interface so this package doesn't import
// internal/intelligence directly.
type SenderOverridePublisher interface {
	SetSenderOverrides(overrides map[string]float64)
}

// categoryTally counts how often a category's messages ended up PRIORITY
// vs AUTO_ARCHIVE, for §4.6's "category preference counters".
type categoryTally struct {
	priorityCount int
	archiveCount  int
}

// Learner accumulates feedback-derived weights in memory and persists only
// what §4.6 names as durable: LearnedPatterns and RulePerformance. Sender
// weight overrides, category tallies, token urgency weights, the
// false-positive dampening set, and hour-of-day histograms have no tables
// of their own: they live only in memory and start empty in each new
// process, since nothing replays Feedback history (Store.ListFeedback) into
// them.
type Learner struct {
	store store.Store

	mu               sync.Mutex
	senderWeights    map[string]float64
	categoryTallies  map[domain.Category]*categoryTally
	tokenUrgency     map[string]float64
	falsePositives   map[string]struct{}
	hourHistogram    map[int]*categoryTally // hour-of-day (0-23) -> priority/archive counts
}

func New(s store.Store) *Learner {
	return &Learner{
		store:           s,
		senderWeights:   map[string]float64{},
		categoryTallies: map[domain.Category]*categoryTally{},
		tokenUrgency:    map[string]float64{},
		falsePositives:  map[string]struct{}{},
		hourHistogram:   map[int]*categoryTally{},
	}
}

// OnFeedback implements §4.6's "On feedback" bullet in full. It mutates the
// learner's in-memory state and republishes sender overrides through
// publisher; it does not persist the Feedback record itself (the caller —
// the CLI's `feedback` command — owns that via Store.RecordFeedback, since
// the record must survive even if this call errors).
func (l *Learner) OnFeedback(ctx context.Context, fb domain.Feedback, message domain.Message, publisher SenderOverridePublisher) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.adjustSenderWeight(message.Sender.Address, fb.CorrectedBucket)
	l.recordCategoryTally(message.Category, fb.CorrectedBucket)
	l.recordHourHistogram(message.ReceivedAt, fb.CorrectedBucket)

	switch fb.CorrectedBucket {
	case domain.BucketPriorityInbox:
		for _, tok := range tokenize(message.BodyText) {
			l.bumpTokenUrgency(tok)
		}
	case domain.BucketAutoArchive:
		for _, tok := range tokenize(message.Subject + " " + message.BodyText) {
			if isUrgencyKeyword(tok) {
				l.falsePositives[tok] = struct{}{}
			}
		}
	}

	if publisher != nil {
		publisher.SetSenderOverrides(l.snapshotSenderWeights())
	}
}

func (l *Learner) adjustSenderWeight(address string, bucket domain.Bucket) {
	if address == "" {
		return
	}
	delta := senderImportanceDelta[bucket]
	current := l.senderWeights[address]
	updated := current + delta*senderLearningRate
	l.senderWeights[address] = domain.Clamp01(updated)
}

func (l *Learner) recordCategoryTally(category domain.Category, bucket domain.Bucket) {
	t, ok := l.categoryTallies[category]
	if !ok {
		t = &categoryTally{}
		l.categoryTallies[category] = t
	}
	switch bucket {
	case domain.BucketPriorityInbox:
		t.priorityCount++
	case domain.BucketAutoArchive:
		t.archiveCount++
	}
}

func (l *Learner) recordHourHistogram(receivedAt time.Time, bucket domain.Bucket) {
	hour := receivedAt.Hour()
	t, ok := l.hourHistogram[hour]
	if !ok {
		t = &categoryTally{}
		l.hourHistogram[hour] = t
	}
	switch bucket {
	case domain.BucketPriorityInbox:
		t.priorityCount++
	case domain.BucketAutoArchive:
		t.archiveCount++
	}
}

func (l *Learner) bumpTokenUrgency(token string) {
	updated := l.tokenUrgency[token] + tokenUrgencyIncrement
	if updated > tokenUrgencyWeightCap {
		updated = tokenUrgencyWeightCap
	}
	l.tokenUrgency[token] = updated
}

func (l *Learner) snapshotSenderWeights() map[string]float64 {
	out := make(map[string]float64, len(l.senderWeights))
	for k, v := range l.senderWeights {
		out[k] = v
	}
	return out
}

// TokenUrgencyWeight returns the learned urgency weight for a body token,
// for TriageAnalyzer's future consumption, or 0 if never observed.
func (l *Learner) TokenUrgencyWeight(token string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tokenUrgency[strings.ToLower(token)]
}

// IsFalsePositive reports whether a keyword has been flagged as a dampened
// false-positive urgency signal for this user.
func (l *Learner) IsFalsePositive(token string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.falsePositives[strings.ToLower(token)]
	return ok
}

// CategoryTendency reports how often a category's messages were corrected
// to PRIORITY vs AUTO_ARCHIVE.
func (l *Learner) CategoryTendency(category domain.Category) (priority, archive int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.categoryTallies[category]
	if !ok {
		return 0, 0
	}
	return t.priorityCount, t.archiveCount
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) <= minTokenLength {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}

var urgencyKeywords = map[string]struct{}{
	"urgent": {}, "asap": {}, "immediately": {}, "critical": {}, "deadline": {}, "emergency": {},
}

func isUrgencyKeyword(token string) bool {
	_, ok := urgencyKeywords[token]
	return ok
}
