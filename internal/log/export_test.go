package log

// reset forgets the current configuration so the next Configure applies.
func reset() {
	mu.Lock()
	configured = false
	mu.Unlock()
}
