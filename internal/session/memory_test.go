package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldpulse/internal/config"
	"fieldpulse/internal/dashboard"
	"fieldpulse/internal/model"
)

func testBuilder(t *testing.T) Builder {
	t.Helper()
	opts, err := dashboard.OptionsFromConfig(config.DefaultConfig())
	require.NoError(t, err)
	return func(ds *model.Dataset, inputs model.ManualInputs) *dashboard.Dashboard {
		return dashboard.Build(ds, inputs, opts)
	}
}

func testDataset(name string) *model.Dataset {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	return &model.Dataset{
		Filename: name,
		Records: []model.Record{
			{Technician: "Ana", Supervisor: "Carla", Date: day, Score: 30},
			{Technician: "Ana", Supervisor: "Carla", Date: day.AddDate(0, 0, 1), Score: 12},
		},
	}
}

func TestMemoryStore_CreateGetDelete(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(testBuilder(t), 0)
	sess := store.Create(testDataset("a.xlsx"))

	require.NotEmpty(t, sess.ID)
	require.NotNil(t, sess.Dashboard)
	assert.Equal(t, 1, store.Count())

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "a.xlsx", got.Dataset.Filename)

	require.NoError(t, store.Delete(sess.ID))
	_, err = store.Get(sess.ID)
	assert.True(t, errors.Is(err, ErrSessionNotFound))
	assert.True(t, errors.Is(store.Delete(sess.ID), ErrSessionNotFound))
}

func TestMemoryStore_UpdateInputsRebuildsDashboard(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(testBuilder(t), 0)
	sess := store.Create(testDataset("a.xlsx"))
	require.True(t, sess.Dashboard.Summary.Weekly[0].GoalMet)

	updated, err := store.UpdateInputs(sess.ID, model.ManualInputs{
		TeamSize: 3,
		Overtime: map[string]float64{"Ana": 8},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Inputs.TeamSize)
	// 2024-01-01 为节假日：周目标 32，加班 8 小时后 40
	assert.InDelta(t, 40, updated.Dashboard.Summary.Weekly[0].Goal, 1e-9)
	assert.True(t, updated.Dashboard.Summary.Weekly[0].GoalMet)

	_, err = store.UpdateInputs(sess.ID, model.ManualInputs{TeamSize: -1})
	assert.True(t, errors.Is(err, ErrInvalidInputs))

	_, err = store.UpdateInputs("missing", model.ManualInputs{})
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestMemoryStore_EvictsOldest(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(testBuilder(t), 2)
	first := store.Create(testDataset("1.xlsx"))
	store.Create(testDataset("2.xlsx"))
	store.Create(testDataset("3.xlsx"))

	assert.Equal(t, 2, store.Count())
	_, err := store.Get(first.ID)
	assert.True(t, errors.Is(err, ErrSessionNotFound))

	list := store.List()
	require.Len(t, list, 2)
	assert.Equal(t, "2.xlsx", list[0].Dataset.Filename)
	assert.Equal(t, "3.xlsx", list[1].Dataset.Filename)

	store.Clear()
	assert.Equal(t, 0, store.Count())
}

func TestValidateInputs(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateInputs(model.ManualInputs{TeamSize: 0}))
	assert.Error(t, ValidateInputs(model.ManualInputs{Overtime: map[string]float64{"Ana": -2}}))
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(testBuilder(t), 0)
	sess := store.Create(testDataset("a.xlsx"))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(hours float64) {
			defer wg.Done()
			_, _ = store.UpdateInputs(sess.ID, model.ManualInputs{Overtime: map[string]float64{"Ana": hours}})
		}(float64(i))
		go func() {
			defer wg.Done()
			_, _ = store.Get(sess.ID)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, store.Count())
}

func TestMemoryStore_UpdateInputsSerializedPerSession(t *testing.T) {
	t.Parallel()

	opts, err := dashboard.OptionsFromConfig(config.DefaultConfig())
	require.NoError(t, err)

	entered := make(chan int, 2)
	release := make(chan struct{})
	build := func(ds *model.Dataset, inputs model.ManualInputs) *dashboard.Dashboard {
		if inputs.TeamSize > 0 {
			entered <- inputs.TeamSize
			if inputs.TeamSize == 1 {
				<-release
			}
		}
		return dashboard.Build(ds, inputs, opts)
	}

	store := NewMemoryStore(build, 0)
	sess := store.Create(testDataset("a.xlsx"))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := store.UpdateInputs(sess.ID, model.ManualInputs{TeamSize: 1})
		assert.NoError(t, err)
	}()
	require.Equal(t, 1, <-entered)

	go func() {
		defer wg.Done()
		_, err := store.UpdateInputs(sess.ID, model.ManualInputs{TeamSize: 2})
		assert.NoError(t, err)
	}()

	// 第一次构建未提交前，第二次构建不能开始
	select {
	case n := <-entered:
		t.Fatalf("build for team size %d started before the previous update committed", n)
	case <-time.After(50 * time.Millisecond):
	}
	close(release)
	require.Equal(t, 2, <-entered)
	wg.Wait()

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Inputs.TeamSize)
	assert.Equal(t, 2, got.Dashboard.Inputs.TeamSize)
}
