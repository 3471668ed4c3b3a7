package minicask

// Iterator walks a point-in-time snapshot of the live keys in ascending
// order. Values are read lazily, so a pair removed after the iterator
// was created yields ErrKeyNotFound from Value.
type Iterator struct {
	store *Store
	keys  []string
	index int
}

// Iterator creates an iterator over the keys currently live in the
// store.
func (s *Store) Iterator() *Iterator {
	return &Iterator{
		store: s,
		keys:  s.Keys(),
		index: -1,
	}
}

// Next advances the iterator and reports whether a current key exists.
func (it *Iterator) Next() bool {
	it.index++
	return it.index < len(it.keys)
}

// Key returns the current key.
func (it *Iterator) Key() string {
	return it.keys[it.index]
}

// Value reads the value for the current key.
func (it *Iterator) Value() (string, error) {
	value, ok, err := it.store.Get(it.Key())
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrKeyNotFound
	}
	return value, nil
}
