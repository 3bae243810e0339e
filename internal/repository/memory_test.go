package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceaneye/oceaneye/internal/model"
)

func seedUser(t *testing.T, repo *MemoryRepository, name string) *model.User {
	t.Helper()
	user := &model.User{Name: name, Email: name + "@example.com"}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestMemoryInsertResolvesAuthor(t *testing.T) {
	repo := NewMemoryRepository()
	alice := seedUser(t, repo, "Alice")

	stored, err := repo.Insert(context.Background(), &model.Report{
		Author:      model.Author{ID: alice.ID},
		Description: "rip current",
		Severity:    model.SeverityHighWaves,
		Location:    "Bondi",
		Lat:         -33.8,
		Lon:         151.2,
		MediaURL:    "http://host/uploads/a.jpg",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, stored.ID)
	assert.Equal(t, "Alice", stored.Author.Name)
	assert.False(t, stored.CreatedAt.IsZero())
	assert.Equal(t, stored.CreatedAt, stored.UpdatedAt)
}

func TestMemoryInsertRejectsUnknownAuthor(t *testing.T) {
	repo := NewMemoryRepository()
	_, err := repo.Insert(context.Background(), &model.Report{
		Author:   model.Author{ID: "ghost"},
		MediaURL: "http://host/uploads/a.jpg",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryListAllNewestFirst(t *testing.T) {
	repo := NewMemoryRepository()
	alice := seedUser(t, repo, "Alice")

	var ids []string
	for i := 0; i < 5; i++ {
		stored, err := repo.Insert(context.Background(), &model.Report{
			Author:      model.Author{ID: alice.ID},
			Description: "sighting",
			Severity:    model.SeverityModerate,
			Location:    "Bondi",
			MediaURL:    "http://host/uploads/a.jpg",
		})
		require.NoError(t, err)
		ids = append(ids, stored.ID)
	}

	reports, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 5)
	for i, rep := range reports {
		assert.Equal(t, ids[len(ids)-1-i], rep.ID, "position %d", i)
		assert.Equal(t, "Alice", rep.Author.Name, "author name always populated")
	}
	for i := 1; i < len(reports); i++ {
		assert.False(t, reports[i].CreatedAt.After(reports[i-1].CreatedAt), "created_at must be non-increasing")
	}
}

func TestMemoryAnalysisRoundTripsThroughJSON(t *testing.T) {
	repo := NewMemoryRepository()
	alice := seedUser(t, repo, "Alice")

	stored, err := repo.Insert(context.Background(), &model.Report{
		Author:   model.Author{ID: alice.ID},
		MediaURL: "http://host/uploads/a.jpg",
		AIAnalysis: model.AnalysisResult{
			"danger_zone": "🟢 Green Zone (Low Danger)",
			"score":       0.12,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "🟢 Green Zone (Low Danger)", stored.AIAnalysis.DangerZone())
	assert.Equal(t, 0.12, stored.AIAnalysis["score"], "numbers decode as float64, as with JSONB")
}

func TestMemoryGetByIDReturnsCopy(t *testing.T) {
	repo := NewMemoryRepository()
	alice := seedUser(t, repo, "Alice")

	got, err := repo.GetByID(context.Background(), alice.ID)
	require.NoError(t, err)
	got.Name = "Mallory"

	again, err := repo.GetByID(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", again.Name)
}
