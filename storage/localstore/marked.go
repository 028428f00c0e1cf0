package localstore

// MarkedSet is the client-local cache of event ids believed already confirmed
// present, persisted as a single JSON array under one key. Entries are added
// on successful marks and never explicitly deleted; stale entries are
// harmless since server reconciliation overrides the displayed status.
type MarkedSet struct {
	store *Store
}

func NewMarkedSet(store *Store) *MarkedSet {
	return &MarkedSet{store: store}
}

func (m *MarkedSet) All() ([]string, error) {
	var ids []string
	if err := m.store.Get(markedEventsKey, &ids); err != nil {
		if err == ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}
	return ids, nil
}

func (m *MarkedSet) Has(eventID string) bool {
	ids, err := m.All()
	if err != nil {
		return false
	}
	for _, id := range ids {
		if id == eventID {
			return true
		}
	}
	return false
}

func (m *MarkedSet) Add(eventID string) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	var ids []string
	if err := m.store.get(markedEventsKey, &ids); err != nil && err != ErrKeyNotFound {
		return err
	}
	for _, id := range ids {
		if id == eventID {
			return nil
		}
	}
	return m.store.set(markedEventsKey, append(ids, eventID))
}
