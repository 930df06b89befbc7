package kvstore

import "time"

// SetClock replaces the clock used for expiry.
func (m *MemoryKVStore) SetClock(now func() time.Time) {
	m.now = now
}

// SetClock replaces the clock used for expiry.
func (d *DynamoDBKVStore) SetClock(now func() time.Time) {
	d.now = now
}
