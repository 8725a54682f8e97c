package regiongrowing

// frontier is a FIFO of candidate vertex ids. Duplicates are allowed; stale entries are
// dropped by the caller when popped.
type frontier struct {
	items []int
	head  int
}

func (f *frontier) push(v int) {
	f.items = append(f.items, v)
}

func (f *frontier) pop() (int, bool) {
	if f.head >= len(f.items) {
		return 0, false
	}
	v := f.items[f.head]
	f.head++
	// reclaim the consumed prefix once it dominates the buffer
	if f.head > 64 && f.head*2 > len(f.items) {
		n := copy(f.items, f.items[f.head:])
		f.items = f.items[:n]
		f.head = 0
	}
	return v, true
}

func (f *frontier) empty() bool {
	return f.head >= len(f.items)
}

func (f *frontier) len() int {
	return len(f.items) - f.head
}
