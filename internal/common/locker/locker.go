package locker

import "sync"

// Keyed hands out one mutex per key. Used to serialize all mutations of a
// single user document across the request path and the background sweep.
type Keyed struct {
	mus sync.Map
}

func New() *Keyed {
	return &Keyed{}
}

// Lock acquires the mutex for key and returns its unlock function.
func (k *Keyed) Lock(key string) func() {
	v, _ := k.mus.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
