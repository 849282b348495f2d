package subpub

// Mailbox — ограниченная FIFO-очередь событий одного подписчика. Оба конца
// неблокирующие и безопасны для конкурентного использования.
//
// Ящик ёмкости 0 всегда полон для TryPush и всегда пуст для TryPop.
type Mailbox[T any] struct {
	ch chan *Event[T]
}

// NewMailbox создаёт ящик на capacity событий. Отрицательная ёмкость
// считается нулевой.
func NewMailbox[T any](capacity int) *Mailbox[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Mailbox[T]{ch: make(chan *Event[T], capacity)}
}

// TryPush кладёт ev без ожидания. Возвращает ErrMailboxFull, если места
// нет, и ErrMailboxDetached, если у ящика нет канала.
func (m *Mailbox[T]) TryPush(ev *Event[T]) error {
	if m == nil || m.ch == nil {
		return ErrMailboxDetached
	}
	// TryPop никогда не паркуется, поэтому небуферизованный канал тут всегда занят.
	select {
	case m.ch <- ev:
		return nil
	default:
		return ErrMailboxFull
	}
}

// TryPop без ожидания достаёт самое старое событие.
func (m *Mailbox[T]) TryPop() (*Event[T], bool) {
	if m == nil || m.ch == nil {
		return nil, false
	}
	select {
	case ev := <-m.ch:
		return ev, true
	default:
		return nil, false
	}
}

// Len — число событий в буфере.
func (m *Mailbox[T]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.ch)
}

// Cap — ёмкость ящика.
func (m *Mailbox[T]) Cap() int {
	if m == nil {
		return 0
	}
	return cap(m.ch)
}
