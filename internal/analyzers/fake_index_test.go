package analyzers

import "github.com/ignite/inbox-agent/internal/domain"

type fakeIndex struct {
	senders   map[string]domain.SenderProfile
	threads   map[string]domain.ThreadProfile
	strength  map[string]domain.ContactStrength
	overrides map[string]float64
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{
		senders:   map[string]domain.SenderProfile{},
		threads:   map[string]domain.ThreadProfile{},
		strength:  map[string]domain.ContactStrength{},
		overrides: map[string]float64{},
	}
}

func (f *fakeIndex) SenderProfile(address string) (domain.SenderProfile, bool) {
	p, ok := f.senders[address]
	return p, ok
}

func (f *fakeIndex) ThreadProfile(threadID string) (domain.ThreadProfile, bool) {
	p, ok := f.threads[threadID]
	return p, ok
}

func (f *fakeIndex) ContactStrength(address string) domain.ContactStrength {
	if s, ok := f.strength[address]; ok {
		return s
	}
	return domain.ContactNew
}

func (f *fakeIndex) SenderWeightOverride(address string) (float64, bool) {
	w, ok := f.overrides[address]
	return w, ok
}
