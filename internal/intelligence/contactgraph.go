package intelligence

import "github.com/ignite/inbox-agent/internal/domain"

// foldContactGraph recomputes next.Strength from next.Senders' message
// counts (§4.4 "Contact graph"). Strength is a pure function of total
// message count, so a full pass over Senders is cheap and avoids needing
// separate incremental bookkeeping.
func foldContactGraph(next *Snapshot) {
	for addr, p := range next.Senders {
		next.Strength[addr] = domain.ContactStrengthFor(p.TotalMessages)
	}
}

// StrengthFor returns the contact strength tier for a sender address, or
// ContactNew when unseen.
func (idx *Index) StrengthFor(address string) domain.ContactStrength {
	return idx.ContactStrength(address)
}

// OpenCommitments rolls up OpenActions and WaitingFor across every thread in
// the current snapshot, whatever the thread's status (SPEC_FULL §10 "supplemented feature: commitment tracking", grounded on
// the original's commitment_tracker.py).
type Commitment struct {
	ThreadID string
	Action   string
	Kind     string // "open_action" or "waiting_for"
}

func (idx *Index) OpenCommitments() []Commitment {
	snap := idx.snapshot()
	var out []Commitment
	for threadID, p := range snap.Threads {
		for _, a := range p.OpenActions {
			out = append(out, Commitment{ThreadID: threadID, Action: a, Kind: "open_action"})
		}
		for _, w := range p.WaitingFor {
			out = append(out, Commitment{ThreadID: threadID, Action: w, Kind: "waiting_for"})
		}
	}
	return out
}
