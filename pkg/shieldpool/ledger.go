package shieldpool

import "sync"

// Ledger is a minimal in-memory stand-in for arbitrary host-ledger
// accounts that are not one of the pool's own PDAs (e.g. the
// withdraw recipient, or a swap's recipient associated token
// account). Real deployments route these credits through the host
// ledger's native transfer instruction; tests use this to assert
// conservation end to end.
type Ledger struct {
	mu       sync.Mutex
	balances map[Pubkey]uint64
}

func NewLedger() *Ledger {
	return &Ledger{balances: make(map[Pubkey]uint64)}
}

func (l *Ledger) Credit(account Pubkey, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] += amount
}

func (l *Ledger) Balance(account Pubkey) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account]
}

// debit reverses a Credit applied by an earlier leg of a batch that
// later failed. Unexported; ordinary withdraws never debit a
// recipient once credited.
func (l *Ledger) debit(account Pubkey, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] -= amount
}
