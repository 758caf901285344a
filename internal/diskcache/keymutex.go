package diskcache

import "sync"

// keyMutex hands out one mutex per key so downloads of different URLs run
// concurrently while the same URL is downloaded at most once at a time.
// Same map-of-channels shape as a width-1 semaphore per key.
type keyMutex struct {
	mu   sync.Mutex
	keys map[string]chan struct{}
}

func newKeyMutex() *keyMutex {
	return &keyMutex{keys: make(map[string]chan struct{})}
}

// Lock blocks until the key's slot is free and returns the unlock func.
func (k *keyMutex) Lock(key string) func() {
	k.mu.Lock()
	ch, ok := k.keys[key]
	if !ok {
		ch = make(chan struct{}, 1)
		k.keys[key] = ch
	}
	k.mu.Unlock()
	ch <- struct{}{}
	return func() { <-ch }
}
