package subpub

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Leegeev/ebus/internal/metrics"
	"github.com/rs/zerolog"
)

// broker хранит состояние шины, общее для Bus и всех присоединённых хэндлов.
type broker[T any] struct {
	name     string
	log      zerolog.Logger
	metrics  *metrics.BusCollectors
	skipDead bool

	alive atomic.Bool   // false после Close
	seq   atomic.Uint64 // номер последнего опубликованного события

	delivered atomic.Uint64
	dropped   atomic.Uint64

	mu   sync.RWMutex       // защищает subs и gauge подписчиков
	subs []*subscription[T] // порядок присоединения
}

func newBroker[T any](name string, o options) *broker[T] {
	b := &broker[T]{
		name:     name,
		log:      o.logger.With().Str("bus", name).Logger(),
		metrics:  metrics.ForBus(name),
		skipDead: o.skipDead,
	}
	b.alive.Store(true)
	return b
}

func (b *broker[T]) isAlive() bool {
	return b.alive.Load()
}

// join добавляет sub в ростер. Живость шины не проверяется: подписчик
// мёртвой шины просто ничего не получит.
//
// Gauge общий для шин с одинаковым именем: он меняется только
// приращениями под локом ростера.
func (b *broker[T]) join(sub *subscription[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, sub)
	b.metrics.Subscribers.Inc()
}

// publish оборачивает v в одно событие и предлагает его каждому ящику ростера.
func (b *broker[T]) publish(from string, v T) {
	ev := &Event[T]{
		value:     v,
		seq:       b.seq.Add(1),
		publisher: from,
	}
	b.metrics.Published.Inc()

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if b.skipDead && !sub.isAlive() {
			continue
		}
		b.deliver(sub, ev)
	}
}

func (b *broker[T]) deliver(sub *subscription[T], ev *Event[T]) {
	err := sub.box.TryPush(ev)
	switch {
	case err == nil:
		b.delivered.Add(1)
		b.metrics.Delivered.Inc()
	case errors.Is(err, ErrMailboxFull):
		b.dropped.Add(1)
		b.metrics.DroppedFull.Inc()
		b.log.Error().
			Str("subscriber", sub.name).
			Uint64("seq", ev.seq).
			Msgf("event queue full for subscriber '%s' on bus '%s'.", sub.name, b.name)
	default:
		panic(fmt.Sprintf("subpub: unexpected enqueue error for subscriber '%s' on bus '%s': %v",
			sub.name, b.name, err))
	}
}

// collect убирает из ростера закрытых подписчиков и возвращает их число.
func (b *broker[T]) collect() int {
	b.mu.Lock()
	kept := make([]*subscription[T], 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.isAlive() {
			kept = append(kept, sub)
		}
	}
	removed := len(b.subs) - len(kept)
	b.subs = kept
	b.metrics.Subscribers.Sub(float64(removed))
	b.mu.Unlock()

	b.metrics.AddGCRemoved(removed)
	if removed > 0 {
		b.log.Debug().Int("removed", removed).Int("remaining", len(kept)).Msg("garbage collected subscribers")
	}
	return removed
}

// teardown помечает шину мёртвой и освобождает ростер. Повторный вызов
// только снимает тех, кто присоединился после закрытия.
func (b *broker[T]) teardown() {
	wasAlive := b.alive.Swap(false)

	b.mu.Lock()
	n := len(b.subs)
	b.subs = nil
	b.metrics.Subscribers.Sub(float64(n))
	b.mu.Unlock()

	if wasAlive {
		b.log.Debug().Int("released", n).Msg("bus closed")
	}
}

func (b *broker[T]) stats() Stats {
	b.mu.RLock()
	total := len(b.subs)
	live := 0
	for _, sub := range b.subs {
		if sub.isAlive() {
			live++
		}
	}
	b.mu.RUnlock()

	return Stats{
		Subscribers:     total,
		LiveSubscribers: live,
		Published:       b.seq.Load(),
		Delivered:       b.delivered.Load(),
		Dropped:         b.dropped.Load(),
	}
}
