package subpub

import (
	"runtime"
	"sync/atomic"
)

// subscription — запись подписчика в ростере. Её делят ростер и хэндл
// Subscriber, живёт она, пока на неё ссылается хоть один из них.
type subscription[T any] struct {
	bus   *broker[T]
	name  string
	box   *Mailbox[T] // персональная ограниченная очередь
	alive atomic.Bool // true до закрытия хэндла, обратно не сбрасывается
}

func newSubscription[T any](b *broker[T], name string, capacity int) *subscription[T] {
	s := &subscription[T]{
		bus:  b,
		name: name,
		box:  NewMailbox[T](capacity),
	}
	s.alive.Store(true)
	return s
}

func (s *subscription[T]) isAlive() bool {
	return s.alive.Load()
}

// Subscriber получает каждое событие, опубликованное на шине после его
// присоединения. *Subscriber можно делить между горутинами: все копии
// указателя читают один ящик.
type Subscriber[T any] struct {
	sub *subscription[T]
}

func newSubscriber[T any](sub *subscription[T]) *Subscriber[T] {
	s := &Subscriber[T]{sub: sub}
	// недостижимый хэндл считается закрытым
	runtime.AddCleanup(s, func(sub *subscription[T]) { sub.alive.Store(false) }, sub)
	return s
}

// Next без ожидания возвращает самое старое событие из буфера. Пустой ящик
// на живой шине — обычное состояние подписчика, который всё прочитал.
func (s *Subscriber[T]) Next() (*Event[T], bool) {
	if ev, ok := s.sub.box.TryPop(); ok {
		return ev, true
	}
	if !s.sub.bus.isAlive() {
		s.sub.bus.log.Warn().
			Str("subscriber", s.sub.name).
			Msgf("subscriber '%s' tried to receive event from dead bus '%s'", s.sub.name, s.sub.bus.name)
	}
	return nil, false
}

// Drain достаёт все события из буфера.
func (s *Subscriber[T]) Drain() []*Event[T] {
	var out []*Event[T]
	for {
		ev, ok := s.sub.box.TryPop()
		if !ok {
			return out
		}
		out = append(out, ev)
	}
}

// Close помечает подписчика мёртвым, и следующий GarbageCollect уберёт его
// из ростера. Уже буферизованные события остаются доступны через этот хэндл.
func (s *Subscriber[T]) Close() {
	s.sub.alive.Store(false)
}

// IsAlive сообщает, что Close ещё не вызывался.
func (s *Subscriber[T]) IsAlive() bool { return s.sub.isAlive() }

// IsBusAlive сообщает, открыта ли шина. Это только подсказка для выхода из
// цикла чтения: результат может устареть из-за конкурентного Bus.Close.
func (s *Subscriber[T]) IsBusAlive() bool { return s.sub.bus.isAlive() }

// Name возвращает отладочное имя подписчика.
func (s *Subscriber[T]) Name() string { return s.sub.name }

// Pending — число событий в буфере.
func (s *Subscriber[T]) Pending() int { return s.sub.box.Len() }

// Capacity — ёмкость ящика подписчика.
func (s *Subscriber[T]) Capacity() int { return s.sub.box.Cap() }
