package process

import "sync"

// outputTail keeps the last N output lines of a run.
type outputTail struct {
	mu    sync.Mutex
	lines []OutputLine
	size  int
	head  int
	count int
}

func newOutputTail(size int) *outputTail {
	if size <= 0 {
		size = 1
	}
	return &outputTail{lines: make([]OutputLine, size), size: size}
}

func (t *outputTail) add(line OutputLine) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lines[t.head] = line
	t.head = (t.head + 1) % t.size
	if t.count < t.size {
		t.count++
	}
}

// snapshot returns the buffered lines oldest first.
func (t *outputTail) snapshot() []OutputLine {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.count == 0 {
		return nil
	}

	result := make([]OutputLine, t.count)
	if t.count < t.size {
		copy(result, t.lines[:t.count])
		return result
	}
	n := copy(result, t.lines[t.head:])
	copy(result[n:], t.lines[:t.head])
	return result
}
