package mocks

import "sync"

// callLog records the methods invoked on a mock.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) record(method string) {
	l.mu.Lock()
	l.calls = append(l.calls, method)
	l.mu.Unlock()
}

// CallCount returns how many times method was called.
func (l *callLog) CallCount(method string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.calls {
		if c == method {
			n++
		}
	}
	return n
}

// Calls returns every recorded method name in call order.
func (l *callLog) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}
