package domain_test

import (
	"testing"
	"time"

	"github.com/hqhub/taskbank/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelForPoints(t *testing.T) {
	assert.Equal(t, 0, domain.LevelForPoints(0))
	assert.Equal(t, 0, domain.LevelForPoints(999))
	assert.Equal(t, 1, domain.LevelForPoints(1000))
	assert.Equal(t, 1, domain.LevelForPoints(1999))
	assert.Equal(t, 8, domain.LevelForPoints(8000))
	assert.Equal(t, 0, domain.LevelForPoints(-500), "negative totals clamp to level 0")
}

func TestClampPoints(t *testing.T) {
	assert.Equal(t, int64(0), domain.ClampPoints(-1))
	assert.Equal(t, int64(0), domain.ClampPoints(0))
	assert.Equal(t, int64(42), domain.ClampPoints(42))
}

func TestConfigForDifficulty(t *testing.T) {
	tests := []struct {
		difficulty domain.TaskDifficulty
		repReward  int64
		minLevel   int
		window     time.Duration
	}{
		{domain.DifficultyEasy, 100, 0, 0},
		{domain.DifficultyMedium, 250, 1, 2 * time.Hour},
		{domain.DifficultyHard, 500, 3, 0},
		{domain.DifficultyElite, 1000, 8, 30 * time.Minute},
	}

	for _, tt := range tests {
		cfg, err := domain.ConfigForDifficulty(tt.difficulty)
		require.NoError(t, err)
		assert.Equal(t, tt.repReward, cfg.RepRewardPoints, "rep reward for %s", tt.difficulty)
		assert.Equal(t, tt.minLevel, cfg.MinLevelRequired, "min level for %s", tt.difficulty)
		assert.Equal(t, tt.window, cfg.ApplyWindow, "window for %s", tt.difficulty)
	}

	_, err := domain.ConfigForDifficulty("LEGENDARY")
	assert.ErrorIs(t, err, domain.ErrInvalidDifficulty)
}

func TestDifficultyPolicyFlags(t *testing.T) {
	easy, _ := domain.ConfigForDifficulty(domain.DifficultyEasy)
	assert.True(t, easy.AutoAssignFirstCome)
	assert.False(t, easy.AutoPickHighestRepAfterWindow)
	assert.False(t, easy.ManualPickByCreator)

	medium, _ := domain.ConfigForDifficulty(domain.DifficultyMedium)
	assert.True(t, medium.AutoPickHighestRepAfterWindow)

	hard, _ := domain.ConfigForDifficulty(domain.DifficultyHard)
	assert.True(t, hard.ManualPickByCreator)
	assert.False(t, hard.AutoPickHighestRepAfterWindow)

	elite, _ := domain.ConfigForDifficulty(domain.DifficultyElite)
	assert.True(t, elite.AutoPickHighestRepAfterWindow)
}

func TestWindowEndsAt(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.Nil(t, domain.WindowEndsAt(domain.DifficultyEasy, now))
	assert.Nil(t, domain.WindowEndsAt(domain.DifficultyHard, now))

	medium := domain.WindowEndsAt(domain.DifficultyMedium, now)
	require.NotNil(t, medium)
	assert.Equal(t, now.Add(2*time.Hour), *medium)

	elite := domain.WindowEndsAt(domain.DifficultyElite, now)
	require.NotNil(t, elite)
	assert.Equal(t, now.Add(30*time.Minute), *elite)
}

func TestTaskStatusTerminal(t *testing.T) {
	assert.False(t, domain.TaskStatusOpen.IsTerminal())
	assert.False(t, domain.TaskStatusAssigned.IsTerminal())
	assert.True(t, domain.TaskStatusDone.IsTerminal())
	assert.True(t, domain.TaskStatusCancelled.IsTerminal())
}

func TestEntryDirectionOpposite(t *testing.T) {
	assert.Equal(t, domain.DirectionDebit, domain.DirectionCredit.Opposite())
	assert.Equal(t, domain.DirectionCredit, domain.DirectionDebit.Opposite())
}

func TestEntryTypeReversible(t *testing.T) {
	assert.True(t, domain.EntryTypePurchase.IsReversible())
	assert.True(t, domain.EntryTypeReward.IsReversible())
	assert.False(t, domain.EntryTypeReversal.IsReversible())
	assert.False(t, domain.EntryTypeTransfer.IsReversible())
	assert.False(t, domain.EntryTypeFee.IsReversible())
}

func TestTaskHelpers(t *testing.T) {
	executor := "user-2"
	task := &domain.Task{
		CreatorID:  "user-1",
		ExecutorID: &executor,
	}

	assert.True(t, task.IsCreatedBy("user-1"))
	assert.False(t, task.IsCreatedBy("user-2"))
	assert.True(t, task.IsExecutedBy("user-2"))
	assert.False(t, task.IsExecutedBy("user-1"))

	unassigned := &domain.Task{CreatorID: "user-1"}
	assert.False(t, unassigned.IsExecutedBy("user-2"))
}

func TestWindowElapsed(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	assert.True(t, (&domain.Task{ApplyWindowEndsAt: &past}).WindowElapsed(now))
	assert.False(t, (&domain.Task{ApplyWindowEndsAt: &future}).WindowElapsed(now))
	assert.False(t, (&domain.Task{}).WindowElapsed(now), "no window never elapses")
}

func TestReferenceIDs(t *testing.T) {
	assert.Equal(t, "bank:task_create:t1", domain.TaskCreateRef("t1"))
	assert.Equal(t, "bank:task_complete:t1", domain.TaskCompleteRef("t1"))
	assert.Equal(t, "bank:task_cancel:t1", domain.TaskCancelRef("t1"))
	assert.Equal(t, "rep:task_complete:t1", domain.RepTaskCompleteRef("t1"))
}
