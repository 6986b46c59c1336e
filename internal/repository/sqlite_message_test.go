package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avaldivia/cosecha/internal/domain"
	"github.com/avaldivia/cosecha/internal/repository"
	"github.com/avaldivia/cosecha/internal/testutil"
)

func TestListRecentReturnsChronologicalTail(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	producer := testutil.NewTestProducer("Rosa")
	require.NoError(t, repository.NewSQLiteProducerRepo(database).Create(ctx, producer))
	repo := repository.NewSQLiteMessageRepo(database)

	base := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 8; i++ {
		direction := domain.DirectionUser
		if i%2 == 1 {
			direction = domain.DirectionAssistant
		}
		require.NoError(t, repo.Create(ctx, &domain.Message{
			ID:         uuid.New().String(),
			ProducerID: producer.ID,
			Direction:  direction,
			Content:    fmt.Sprintf("m%d", i),
			Status:     "received",
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}

	msgs, err := repo.ListRecent(ctx, producer.ID, 5)
	require.NoError(t, err)
	require.Len(t, msgs, 5)

	// The limit keeps the newest messages, returned oldest-first.
	for i, m := range msgs {
		assert.Equal(t, fmt.Sprintf("m%d", i+3), m.Content)
	}
	assert.Equal(t, domain.DirectionAssistant, msgs[0].Direction)
}

func TestListRecentEmpty(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	producer := testutil.NewTestProducer("Rosa")
	require.NoError(t, repository.NewSQLiteProducerRepo(database).Create(ctx, producer))

	msgs, err := repository.NewSQLiteMessageRepo(database).ListRecent(ctx, producer.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
