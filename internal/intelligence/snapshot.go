// Package intelligence maintains the cross-message aggregates analyzers
// read (§4.4): a sender index, a thread index, and a contact graph. State
// is folded incrementally as messages are persisted and republished as an
// immutable snapshot under a single-writer lock, matching the teacher's
// BackpressureMonitor's RWMutex-guarded cached-probe idiom generalized to a
// whole-snapshot swap (SPEC_FULL §5).
package intelligence

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ignite/inbox-agent/internal/domain"
	"github.com/ignite/inbox-agent/internal/pkg/distlock"
	"github.com/ignite/inbox-agent/internal/pkg/logger"
	"github.com/ignite/inbox-agent/internal/store"
)

// Snapshot is the immutable, atomically-published view analyzers read
// (GLOSSARY "Snapshot"). Never mutated after publication — a refresh builds
// a new Snapshot and swaps it in.
type Snapshot struct {
	Senders  map[string]domain.SenderProfile
	Threads  map[string]domain.ThreadProfile
	Strength map[string]domain.ContactStrength

	// SenderOverrides holds FeedbackLearner-derived triage weight overrides
	// (SPEC_FULL §10 "learned pattern overrides"), keyed by sender address.
	SenderOverrides map[string]float64

	BuiltAt time.Time
}

func emptySnapshot() *Snapshot {
	return &Snapshot{
		Senders:         map[string]domain.SenderProfile{},
		Threads:         map[string]domain.ThreadProfile{},
		Strength:        map[string]domain.ContactStrength{},
		SenderOverrides: map[string]float64{},
	}
}

// Index maintains IntelligenceIndex's aggregates and publishes Snapshots.
// Refresh is single-writer (guarded by a distlock.DistLock so multiple
// scheduler processes don't race); reads are lock-free against the
// published snapshot (atomic.Value).
type Index struct {
	store store.Store
	lock  distlock.DistLock
	cache *RedisCache

	vip              map[string]struct{}
	strategicDomains map[string]domain.RelationshipClass
	internalDomains  map[string]struct{}

	current atomic.Value // holds *Snapshot
	writeMu sync.Mutex   // serializes local Refresh/FullRecompute calls
}

// Config carries IntelligenceIndex's policy-derived reference data
// (config.PolicyConfig's VIP list, strategic-domains map, internal-domains
// list).
type Config struct {
	VIPAddresses     []string
	StrategicDomains map[string]string // domain -> RelationshipClass name
	InternalDomains  []string
}

// NewIndex builds an Index with an empty snapshot published; callers should
// call WarmFromCache followed by FullRecompute (if the cache misses) once at
// startup to populate it from Store.
func NewIndex(s store.Store, lock distlock.DistLock, cache *RedisCache, cfg Config) *Index {
	idx := &Index{
		store:            s,
		lock:             lock,
		cache:            cache,
		vip:              toSet(cfg.VIPAddresses),
		strategicDomains: toRelationshipMap(cfg.StrategicDomains),
		internalDomains:  toSet(cfg.InternalDomains),
	}
	idx.current.Store(emptySnapshot())
	return idx
}

// WarmFromCache attempts to populate the index from a previously published
// Redis snapshot, avoiding a FullRecompute on a warm restart. Returns false
// on a cache miss.
func (idx *Index) WarmFromCache(ctx context.Context) bool {
	snap, ok := idx.cache.Load(ctx)
	if !ok {
		return false
	}
	idx.current.Store(snap)
	return true
}

func toSet(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, i := range items {
		out[i] = struct{}{}
	}
	return out
}

func toRelationshipMap(m map[string]string) map[string]domain.RelationshipClass {
	out := make(map[string]domain.RelationshipClass, len(m))
	for k, v := range m {
		out[k] = domain.RelationshipClass(v)
	}
	return out
}

func (idx *Index) snapshot() *Snapshot {
	return idx.current.Load().(*Snapshot)
}

// SenderProfile implements analyzers.IndexReader.
func (idx *Index) SenderProfile(address string) (domain.SenderProfile, bool) {
	p, ok := idx.snapshot().Senders[address]
	return p, ok
}

// ThreadProfile implements analyzers.IndexReader.
func (idx *Index) ThreadProfile(threadID string) (domain.ThreadProfile, bool) {
	p, ok := idx.snapshot().Threads[threadID]
	return p, ok
}

// ContactStrength implements analyzers.IndexReader.
func (idx *Index) ContactStrength(address string) domain.ContactStrength {
	if s, ok := idx.snapshot().Strength[address]; ok {
		return s
	}
	return domain.ContactNew
}

// SenderWeightOverride implements analyzers.IndexReader.
func (idx *Index) SenderWeightOverride(address string) (float64, bool) {
	w, ok := idx.snapshot().SenderOverrides[address]
	return w, ok
}

// SetSenderOverrides republishes the snapshot with the FeedbackLearner's
// latest triage weight overrides folded in, without touching sender/thread
// aggregates.
func (idx *Index) SetSenderOverrides(overrides map[string]float64) {
	idx.writeMu.Lock()
	defer idx.writeMu.Unlock()

	prev := idx.snapshot()
	next := &Snapshot{
		Senders:         prev.Senders,
		Threads:         prev.Threads,
		Strength:        prev.Strength,
		SenderOverrides: overrides,
		BuiltAt:         prev.BuiltAt,
	}
	idx.current.Store(next)
}

// Refresh folds a freshly-persisted batch of messages into the existing
// aggregates without re-reading history (§4.4 "Refresh policy ...
// incremental"). It acquires the single-writer lock for the duration of
// the fold and publish.
func (idx *Index) Refresh(ctx context.Context, batch []domain.Message) error {
	if len(batch) == 0 {
		return nil
	}
	if idx.lock != nil {
		acquired, err := idx.lock.Acquire(ctx)
		if err != nil {
			return err
		}
		if !acquired {
			logger.Info("intelligence: refresh lock held elsewhere, skipping this cycle")
			return nil
		}
		defer idx.lock.Release(ctx)
	}

	idx.writeMu.Lock()
	defer idx.writeMu.Unlock()

	prev := idx.snapshot()
	next := &Snapshot{
		Senders:         cloneSenders(prev.Senders),
		Threads:         cloneThreads(prev.Threads),
		Strength:        cloneStrength(prev.Strength),
		SenderOverrides: prev.SenderOverrides,
		BuiltAt:         time.Now().UTC(),
	}

	foldSenders(next, batch, idx.vip, idx.strategicDomains, idx.internalDomains)
	foldThreads(next, batch)
	foldContactGraph(next)

	idx.current.Store(next)
	idx.cache.Publish(ctx, next)
	return idx.persist(ctx, next, batch)
}

// FullRecompute rebuilds the entire index from Store history, for the
// operator-triggered rebuild §4.4 offers.
func (idx *Index) FullRecompute(ctx context.Context) error {
	if idx.lock != nil {
		acquired, err := idx.lock.Acquire(ctx)
		if err != nil {
			return err
		}
		if !acquired {
			return nil
		}
		defer idx.lock.Release(ctx)
	}

	idx.writeMu.Lock()
	defer idx.writeMu.Unlock()

	var all []domain.Message
	const pageSize = 500
	for offset := 0; ; offset += pageSize {
		page, err := idx.store.QueryMessages(ctx, store.MessageFilter{}, store.Pagination{Limit: pageSize, Offset: offset})
		if err != nil {
			return err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			break
		}
	}

	next := emptySnapshot()
	next.SenderOverrides = idx.snapshot().SenderOverrides
	next.BuiltAt = time.Now().UTC()

	foldSenders(next, all, idx.vip, idx.strategicDomains, idx.internalDomains)
	foldThreads(next, all)
	foldContactGraph(next)

	idx.current.Store(next)
	idx.cache.Publish(ctx, next)
	return idx.persist(ctx, next, nil)
}

// persist writes the sender/thread aggregates back to Store so they survive
// a restart without a full recompute (Postgres remains the source of
// truth; the in-process Snapshot is the fast read path).
func (idx *Index) persist(ctx context.Context, snap *Snapshot, changedBatch []domain.Message) error {
	touched := map[string]struct{}{}
	touchedThreads := map[string]struct{}{}
	if changedBatch == nil {
		for addr := range snap.Senders {
			touched[addr] = struct{}{}
		}
		for tid := range snap.Threads {
			touchedThreads[tid] = struct{}{}
		}
	} else {
		for _, m := range changedBatch {
			touched[m.Sender.Address] = struct{}{}
			if m.ThreadID != "" {
				touchedThreads[m.ThreadID] = struct{}{}
			}
		}
	}

	for addr := range touched {
		p := snap.Senders[addr]
		if err := idx.store.PutSenderProfile(ctx, &p); err != nil {
			return err
		}
	}
	for tid := range touchedThreads {
		p := snap.Threads[tid]
		if err := idx.store.PutThreadProfile(ctx, &p); err != nil {
			return err
		}
	}
	return nil
}

func cloneSenders(m map[string]domain.SenderProfile) map[string]domain.SenderProfile {
	out := make(map[string]domain.SenderProfile, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneThreads(m map[string]domain.ThreadProfile) map[string]domain.ThreadProfile {
	out := make(map[string]domain.ThreadProfile, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneStrength(m map[string]domain.ContactStrength) map[string]domain.ContactStrength {
	out := make(map[string]domain.ContactStrength, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
