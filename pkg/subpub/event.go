package subpub

// Event — общая read-only обёртка над опубликованным значением. Все
// подписчики, получившие одну публикацию, видят один и тот же *Event.
type Event[T any] struct {
	value     T
	seq       uint64 // сквозной номер публикации на шине, с 1
	publisher string
}

// Value возвращает опубликованное значение.
func (e *Event[T]) Value() T { return e.value }

// Seq возвращает номер публикации на шине. Для одного издателя номера
// растут в порядке вызовов Publish; события конкурирующих издателей могут
// попасть в ящик не по порядку Seq.
func (e *Event[T]) Seq() uint64 { return e.seq }

// Publisher возвращает отладочное имя издателя.
func (e *Event[T]) Publisher() string { return e.publisher }
