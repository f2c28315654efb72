package sdb

// stoppoint is the interface a collection element must satisfy: a stable
// id, an address, a byte length for overlap checks, and the ability to be
// disabled before removal.
type stoppoint interface {
	ID() int
	Address() VirtAddr
	Length() int
	Enabled() bool
	Disable() error
}

// StoppointCollection is a generic, insertion-ordered container used for
// both the breakpoint-site and watchpoint collections. It rejects a new
// member whose address range overlaps that of any existing member, enabled
// or not. Ids are not checked by the collection.
type StoppointCollection[T stoppoint] struct {
	items []T
}

func overlaps(aAddr VirtAddr, aLen int, bAddr VirtAddr, bLen int) bool {
	aLo, aHi := uint64(aAddr), uint64(aAddr)+uint64(aLen)
	bLo, bHi := uint64(bAddr), uint64(bAddr)+uint64(bLen)
	return aLo < bHi && bLo < aHi
}

// Push inserts item, rejecting it if any existing (enabled or not — the
// address is reserved at creation time) member overlaps its address range.
func (c *StoppointCollection[T]) Push(item T) (T, error) {
	var zero T
	for _, existing := range c.items {
		if overlaps(existing.Address(), existing.Length(), item.Address(), item.Length()) {
			return zero, protocolErrorf("stoppoint already exists at address %s", item.Address())
		}
	}
	c.items = append(c.items, item)
	return item, nil
}

// ContainsID reports whether id is present.
func (c *StoppointCollection[T]) ContainsID(id int) bool {
	_, ok := c.find(func(t T) bool { return t.ID() == id })
	return ok
}

// ContainsAddress reports whether any member starts exactly at addr.
func (c *StoppointCollection[T]) ContainsAddress(addr VirtAddr) bool {
	_, ok := c.find(func(t T) bool { return t.Address() == addr })
	return ok
}

// GetByID returns the member with the given id.
func (c *StoppointCollection[T]) GetByID(id int) (T, bool) {
	return c.find(func(t T) bool { return t.ID() == id })
}

// GetByAddress returns the member that starts exactly at addr.
func (c *StoppointCollection[T]) GetByAddress(addr VirtAddr) (T, bool) {
	return c.find(func(t T) bool { return t.Address() == addr })
}

// RemoveByID disables and then removes the member with the given id. It is
// a no-op if no such member exists.
func (c *StoppointCollection[T]) RemoveByID(id int) error {
	for i, item := range c.items {
		if item.ID() == id {
			if err := item.Disable(); err != nil {
				return err
			}
			c.items = append(c.items[:i], c.items[i+1:]...)
			return nil
		}
	}
	return nil
}

// ForEach iterates every member in insertion order.
func (c *StoppointCollection[T]) ForEach(f func(T)) {
	for _, item := range c.items {
		f(item)
	}
}

// Size returns the number of members.
func (c *StoppointCollection[T]) Size() int { return len(c.items) }

// Empty reports whether the collection has no members.
func (c *StoppointCollection[T]) Empty() bool { return len(c.items) == 0 }

func (c *StoppointCollection[T]) find(pred func(T) bool) (T, bool) {
	for _, item := range c.items {
		if pred(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}
