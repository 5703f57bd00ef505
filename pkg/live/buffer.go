package live

import "github.com/gtfisher/esp-collector/pkg/models"

// Buffer is a fixed-capacity ring of the most recent readings.
// It is not safe for concurrent use; State guards it.
type Buffer struct {
	items []models.Reading
	head  int // index of the oldest entry
	size  int
}

// NewBuffer creates a buffer holding at most capacity readings
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &Buffer{items: make([]models.Reading, capacity)}
}

// Cap returns the buffer capacity
func (b *Buffer) Cap() int {
	return len(b.items)
}

// Len returns the number of readings held
func (b *Buffer) Len() int {
	return b.size
}

// Push appends r, evicting the oldest reading when full
func (b *Buffer) Push(r models.Reading) {
	if b.size < len(b.items) {
		b.items[(b.head+b.size)%len(b.items)] = r
		b.size++
		return
	}
	b.items[b.head] = r
	b.head = (b.head + 1) % len(b.items)
}

// Latest returns the newest reading
func (b *Buffer) Latest() (models.Reading, bool) {
	if b.size == 0 {
		return models.Reading{}, false
	}
	return b.items[(b.head+b.size-1)%len(b.items)], true
}

// Recent returns up to n of the newest readings, oldest first. n <= 0 returns all.
func (b *Buffer) Recent(n int) []models.Reading {
	if n <= 0 || n > b.size {
		n = b.size
	}

	out := make([]models.Reading, n)
	start := b.head + b.size - n
	for i := 0; i < n; i++ {
		out[i] = b.items[(start+i)%len(b.items)]
	}
	return out
}
