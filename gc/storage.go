// ABOUTME: Storage providers backing heap allocations
// ABOUTME: LimitStorage caps the number of bytes the heap may reserve

package gc

// Storage is the underlying provider the allocator draws bytes from.
type Storage interface {
	// Reserve claims n bytes or returns ErrOutOfMemory.
	Reserve(n uint64) error
	// Release returns n previously reserved bytes.
	Release(n uint64)
}

// LimitStorage reserves bytes up to Limit. A zero Limit never fails.
type LimitStorage struct {
	Limit uint64
	used  uint64
}

// NewLimitStorage creates a storage provider capped at limit bytes.
func NewLimitStorage(limit uint64) *LimitStorage {
	return &LimitStorage{Limit: limit}
}

// Reserve claims n bytes.
func (s *LimitStorage) Reserve(n uint64) error {
	if s.Limit > 0 && s.used+n > s.Limit {
		return ErrOutOfMemory
	}
	s.used += n
	return nil
}

// Release returns n bytes.
func (s *LimitStorage) Release(n uint64) {
	if n > s.used {
		n = s.used
	}
	s.used -= n
}

// Used returns the bytes currently reserved.
func (s *LimitStorage) Used() uint64 { return s.used }
