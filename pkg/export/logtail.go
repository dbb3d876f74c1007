package export

import "sync"

// logTailLimit bounds how many trailing engine log lines are kept for
// diagnostics when a run fails.
const logTailLimit = 24

type logTail struct {
	locker sync.Mutex
	lines  []string
	next   int
	filled bool
}

func newLogTail() *logTail {
	return &logTail{
		lines: make([]string, logTailLimit),
	}
}

func (t *logTail) append(line string) {
	t.locker.Lock()
	defer t.locker.Unlock()
	t.lines[t.next] = line
	t.next++
	if t.next == len(t.lines) {
		t.next = 0
		t.filled = true
	}
}

// Tail returns the retained lines in chronological order.
func (t *logTail) Tail() []string {
	t.locker.Lock()
	defer t.locker.Unlock()
	var result []string
	if t.filled {
		result = append(result, t.lines[t.next:]...)
	}
	return append(result, t.lines[:t.next]...)
}
