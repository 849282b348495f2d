// Package subpub реализует внутрипроцессную широковещательную шину событий.
//
// Издатели и подписчики присоединяются к Bus. У каждого подписчика свой
// ограниченный Mailbox, в который попадает общая ссылка на каждое событие,
// опубликованное после его присоединения. Ни одна операция не блокируется:
// полный ящик теряет событие только для своего подписчика, а чтение из
// пустого ящика сразу возвращает управление.
//
// Закрытые подписчики остаются в ростере до вызова GarbageCollect, сами по
// себе они не собираются.
package subpub

import "runtime"

// Bus владеет состоянием шины. Close (или потеря последней ссылки на *Bus)
// останавливает доставку всем подписчикам.
type Bus[T any] struct {
	b *broker[T]
}

// Stats — снимок состояния шины.
type Stats struct {
	Subscribers     int // записи ростера, включая закрытые, но не собранные
	LiveSubscribers int
	Published       uint64
	Delivered       uint64
	Dropped         uint64 // потери из-за полного ящика
}

// New создаёт открытую шину. Имя используется только в диагностике.
//
// Издатели и подписчики не удерживают Bus: как только *Bus становится
// недостижимым, шина закрывается так же, как при Close.
func New[T any](name string, opts ...Option) *Bus[T] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	b := newBroker[T](name, o)
	bus := &Bus[T]{b: b}
	runtime.AddCleanup(bus, func(b *broker[T]) { b.teardown() }, b)
	return bus
}

// JoinAsSubscriber регистрирует подписчика с ящиком заданной ёмкости.
// Отрицательная ёмкость считается нулевой.
func (bus *Bus[T]) JoinAsSubscriber(name string, capacity int) *Subscriber[T] {
	if capacity < 0 {
		bus.b.log.Warn().Str("subscriber", name).Int("capacity", capacity).Msg("negative mailbox capacity, using 0")
		capacity = 0
	}
	sub := newSubscription(bus.b, name, capacity)
	bus.b.join(sub)
	return newSubscriber(sub)
}

// JoinAsPublisher возвращает издателя, привязанного к этой шине.
func (bus *Bus[T]) JoinAsPublisher(name string) *Publisher[T] {
	return &Publisher[T]{bus: bus.b, name: name}
}

// GarbageCollect убирает из ростера закрытых подписчиков вместе с их
// непрочитанными событиями и возвращает число удалённых.
func (bus *Bus[T]) GarbageCollect() int {
	return bus.b.collect()
}

// Close помечает шину мёртвой и освобождает ростер. Publish становится
// no-op, подписчики дочитывают то, что уже в буфере. Повторный Close безопасен.
func (bus *Bus[T]) Close() {
	bus.b.teardown()
}

// IsAlive сообщает, что Close ещё не вызывался.
func (bus *Bus[T]) IsAlive() bool { return bus.b.isAlive() }

// Name возвращает диагностическое имя шины. Имена не обязаны быть уникальными.
func (bus *Bus[T]) Name() string { return bus.b.name }

// Stats возвращает снимок ростера и счётчиков этой шины.
func (bus *Bus[T]) Stats() Stats { return bus.b.stats() }
