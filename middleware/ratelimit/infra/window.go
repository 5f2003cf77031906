package infra

import (
	"sync"
	"time"

	"wikidot-gateway/middleware/ratelimit/domain"
)

// WindowStore é o registro de janelas fixas do controle de admissão.
//
// Cada cliente tem no máximo um registro e no máximo uma expiração pendente.
// A expiração é armada na criação do registro e remove o registro interval
// depois (a janela não desliza com a atividade). Quando a cota estoura, a
// expiração pendente é cancelada e, com OverflowRearm, reagendada.
type WindowStore struct {
	mu       sync.Mutex
	records  map[domain.Key]*windowEntry
	interval time.Duration
	sched    domain.Scheduler
	policy   domain.OverflowPolicy
}

type windowEntry struct {
	domain.ClientRecord
	// gen identifica a expiração armada por último; callbacks de expirações
	// antigas que já estavam em voo não removem o registro.
	gen uint64
}

type WindowOption func(*WindowStore)

func WithScheduler(s domain.Scheduler) WindowOption {
	return func(w *WindowStore) { w.sched = s }
}

func WithOverflowPolicy(p domain.OverflowPolicy) WindowOption {
	return func(w *WindowStore) { w.policy = p }
}

func NewWindowStore(interval time.Duration, opts ...WindowOption) *WindowStore {
	w := &WindowStore{
		records:  make(map[domain.Key]*windowEntry),
		interval: interval,
		sched:    TimerScheduler{},
		policy:   domain.OverflowCancel,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *WindowStore) Interval() time.Duration        { return w.interval }
func (w *WindowStore) Policy() domain.OverflowPolicy { return w.policy }

// Hit implementa domain.WindowStore.
func (w *WindowStore) Hit(key domain.Key, limit int) (int, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ent, ok := w.records[key]
	if !ok {
		ent = &windowEntry{ClientRecord: domain.ClientRecord{Count: 1}}
		w.records[key] = ent
	} else {
		ent.Count++
	}

	if ent.Count > limit {
		if ent.Reset != nil {
			ent.Reset.Cancel()
			ent.Reset = nil
		}
		if w.policy == domain.OverflowRearm {
			w.arm(key, ent)
		}
		return ent.Count, false
	}

	if ent.Reset == nil {
		w.arm(key, ent)
	}
	return ent.Count, true
}

// arm exige w.mu.
func (w *WindowStore) arm(key domain.Key, ent *windowEntry) {
	ent.gen++
	gen := ent.gen
	ent.Reset = w.sched.AfterFunc(w.interval, func() { w.evict(key, ent, gen) })
}

func (w *WindowStore) evict(key domain.Key, ent *windowEntry, gen uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if cur, ok := w.records[key]; ok && cur == ent && ent.gen == gen {
		delete(w.records, key)
	}
}

// Record devolve uma cópia do registro atual da chave.
func (w *WindowStore) Record(key domain.Key) (domain.ClientRecord, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ent, ok := w.records[key]
	if !ok {
		return domain.ClientRecord{}, false
	}
	return ent.ClientRecord, true
}

func (w *WindowStore) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.records)
}

// Close cancela todas as expirações pendentes e esvazia o registro.
// Usado no shutdown do processo.
func (w *WindowStore) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for k, ent := range w.records {
		if ent.Reset != nil {
			ent.Reset.Cancel()
		}
		delete(w.records, k)
	}
}
