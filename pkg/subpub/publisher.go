package subpub

// Publisher публикует события в свою шину. Кроме имени состояния нет,
// один *Publisher можно делить между горутинами.
type Publisher[T any] struct {
	bus  *broker[T]
	name string
}

// Publish без ожидания предлагает v всем подписчикам. Подписчик с полным
// ящиком пропускает это событие, остальные его получают. На закрытой шине
// событие выбрасывается.
func (p *Publisher[T]) Publish(v T) {
	if !p.bus.isAlive() {
		p.bus.metrics.DroppedDeadBus.Inc()
		p.bus.log.Warn().
			Str("publisher", p.name).
			Msgf("publisher '%s' tried to publish to dead bus '%s'", p.name, p.bus.name)
		return
	}
	p.bus.publish(p.name, v)
}

// IsBusAlive сообщает, открыта ли ещё шина.
func (p *Publisher[T]) IsBusAlive() bool { return p.bus.isAlive() }

// Name возвращает отладочное имя издателя.
func (p *Publisher[T]) Name() string { return p.name }
