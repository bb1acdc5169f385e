package analyzer

// patch resolves a forward-referenced name. Until the name is
// published the patch queues fix-up callbacks; publishing runs them in
// insertion order and every later callback runs immediately. The
// callbacks capture arena indices only, never arena references.
type patch[T any] struct {
	resolved bool
	value    T
	fixups   []func(T) error
}

// onResolve registers fn, invoking it at once when already resolved.
func (p *patch[T]) onResolve(fn func(T) error) error {
	if p.resolved {
		return fn(p.value)
	}
	p.fixups = append(p.fixups, fn)
	return nil
}

// publish transitions the patch to resolved and drains the queue.
// Callers must check resolved first; publishing twice is a duplicate
// definition in the source program.
func (p *patch[T]) publish(value T) error {
	p.resolved = true
	p.value = value
	fixups := p.fixups
	p.fixups = nil
	for _, fn := range fixups {
		if err := fn(value); err != nil {
			return err
		}
	}
	return nil
}
