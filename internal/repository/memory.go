package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oceaneye/oceaneye/internal/model"
)

// MemoryRepository is an in-memory implementation of the report and user
// repositories. It backs tests and the CLI's dependency-free serve mode, and
// mirrors the Postgres behavior: inserts resolve the author name, listings
// are newest-first, analysis payloads round-trip through JSON.
type MemoryRepository struct {
	mu      sync.RWMutex
	users   map[string]model.User
	reports []memoryReport
	seq     int
}

type memoryReport struct {
	report model.Report
	seq    int
}

// NewMemoryRepository constructs an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users: make(map[string]model.User),
	}
}

// Insert mirrors ReportRepository.Insert: assigns id and timestamps and
// returns the stored report with the author name resolved.
func (m *MemoryRepository) Insert(_ context.Context, rep *model.Report) (*model.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	author, ok := m.users[rep.Author.ID]
	if !ok {
		return nil, fmt.Errorf("author %s: %w", rep.Author.ID, ErrNotFound)
	}
	now := time.Now().UTC()
	stored := *rep
	stored.ID = uuid.NewString()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	stored.Author = model.Author{ID: author.ID, Name: author.Name}
	if rep.AIAnalysis != nil {
		// Round-trip through JSON so stored values match what Postgres
		// would hand back from a JSONB column.
		data, err := json.Marshal(rep.AIAnalysis)
		if err != nil {
			return nil, fmt.Errorf("marshal analysis: %w", err)
		}
		var decoded model.AnalysisResult
		if err := json.Unmarshal(data, &decoded); err != nil {
			return nil, fmt.Errorf("decode analysis: %w", err)
		}
		stored.AIAnalysis = decoded
	}
	m.seq++
	m.reports = append(m.reports, memoryReport{report: stored, seq: m.seq})
	out := stored
	return &out, nil
}

// ListAll returns all reports newest-first; insertion order breaks ties
// between equal timestamps.
func (m *MemoryRepository) ListAll(_ context.Context) ([]model.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sorted := make([]memoryReport, len(m.reports))
	copy(sorted, m.reports)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].report.CreatedAt.Equal(sorted[j].report.CreatedAt) {
			return sorted[i].report.CreatedAt.After(sorted[j].report.CreatedAt)
		}
		return sorted[i].seq > sorted[j].seq
	})
	out := make([]model.Report, 0, len(sorted))
	for _, r := range sorted {
		out = append(out, r.report)
	}
	return out, nil
}

// Create inserts a user, assigning id and timestamps.
func (m *MemoryRepository) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	m.users[user.ID] = *user
	return nil
}

// GetByID returns a copy of the stored user.
func (m *MemoryRepository) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	out := user
	return &out, nil
}
