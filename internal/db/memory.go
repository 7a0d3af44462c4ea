package db

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"personnel-registry/internal/model"
	"personnel-registry/pkg/errors"

	"github.com/google/uuid"
)

type memoryEntry struct {
	seq    int64
	record model.Record
}

// MemoryRepository keeps records in process. It enforces the same identity
// uniqueness as the database backends.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	seq     int64
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

func (r *MemoryRepository) FindOne(ctx context.Context, filter model.IdentityFilter) (*model.Record, error) {
	found, err := r.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, errors.ErrNotFound
	}
	return &found[0], nil
}

func (r *MemoryRepository) Find(ctx context.Context, filter model.IdentityFilter) ([]model.Record, error) {
	if filter.Empty() {
		return nil, nil
	}
	return r.collect(func(rec model.Record) bool { return filter.Matches(rec) }), nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*model.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	rec := entry.record
	return &rec, nil
}

func (r *MemoryRepository) FindAll(ctx context.Context) ([]model.Record, error) {
	return r.collect(func(model.Record) bool { return true }), nil
}

func (r *MemoryRepository) Search(ctx context.Context, q string) ([]model.Record, error) {
	needle := strings.ToLower(q)
	return r.collect(func(rec model.Record) bool {
		return strings.Contains(strings.ToLower(rec.CodeNo), needle) ||
			strings.Contains(strings.ToLower(rec.AdhaarNo), needle)
	}), nil
}

// collect returns matching records newest first.
func (r *MemoryRepository) collect(match func(model.Record) bool) []model.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]*memoryEntry, 0, len(r.entries))
	for _, e := range r.entries {
		if match(e.record) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq > entries[j].seq })

	out := make([]model.Record, len(entries))
	for i, e := range entries {
		out[i] = e.record
	}
	return out
}

func (r *MemoryRepository) Insert(ctx context.Context, record *model.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.insertLocked(record)
}

func (r *MemoryRepository) insertLocked(record *model.Record) error {
	if r.conflictLocked(*record, "") {
		return errors.ErrDuplicate
	}

	now := r.now().UTC()
	record.ID = uuid.NewString()
	record.CreatedAt = now
	record.UpdatedAt = now

	r.seq++
	r.entries[record.ID] = &memoryEntry{seq: r.seq, record: *record}
	return nil
}

// InsertMany is all or nothing.
func (r *MemoryRepository) InsertMany(ctx context.Context, records []*model.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	inserted := make([]string, 0, len(records))
	for _, rec := range records {
		if err := r.insertLocked(rec); err != nil {
			for _, id := range inserted {
				delete(r.entries, id)
			}
			return err
		}
		inserted = append(inserted, rec.ID)
	}
	return nil
}

func (r *MemoryRepository) UpdateByID(ctx context.Context, id string, record *model.Record) (*model.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	if r.conflictLocked(*record, id) {
		return nil, errors.ErrDuplicate
	}

	updated := *record
	updated.ID = id
	updated.CreatedAt = entry.record.CreatedAt
	updated.UpdatedAt = r.now().UTC()
	entry.record = updated

	return &updated, nil
}

func (r *MemoryRepository) conflictLocked(record model.Record, excludeID string) bool {
	filter := model.IdentityFilter{
		CodeNoKey: record.CodeNoKey(),
		AdhaarNo:  record.AdhaarNo,
		ExcludeID: excludeID,
	}
	if filter.Empty() {
		return false
	}
	for _, e := range r.entries {
		if filter.Matches(e.record) {
			return true
		}
	}
	return false
}

func (r *MemoryRepository) DeleteByID(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; !ok {
		return errors.ErrNotFound
	}
	delete(r.entries, id)
	return nil
}

func (r *MemoryRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for _, id := range ids {
		if _, ok := r.entries[id]; ok {
			delete(r.entries, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *MemoryRepository) EnsureSchema(ctx context.Context) error {
	return nil
}

func (r *MemoryRepository) Close(ctx context.Context) error {
	return nil
}
