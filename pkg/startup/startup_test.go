package startup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStartup(maxAttempts int) *Startup {
	s := NewStartup(ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}), maxAttempts)
	s.backoffUnit = time.Millisecond
	return s
}

func track(log *[]string, name string, requires ...string) *Dependency {
	return &Dependency{
		Name:     name,
		Requires: requires,
		StartFunc: func(context.Context) error {
			*log = append(*log, "start "+name)
			return nil
		},
		StopFunc: func(context.Context) error {
			*log = append(*log, "stop "+name)
			return nil
		},
	}
}

func TestStartOrdersByDependency(t *testing.T) {
	var log []string
	s := newTestStartup(1)
	s.AddDependency(track(&log, "server", "database", "graph"))
	s.AddDependency(track(&log, "database"))
	s.AddDependency(track(&log, "graph", "database"))

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, []string{"start database", "start graph", "start server"}, log)

	log = nil
	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, []string{"stop server", "stop graph", "stop database"}, log)
	assert.Equal(t, StartupStatusStopped, s.Status("database"))
}

func TestStartRetriesFailedDependency(t *testing.T) {
	calls := 0
	s := newTestStartup(3)
	s.AddDependency(&Dependency{
		Name: "redis",
		StartFunc: func(context.Context) error {
			calls++
			if calls < 2 {
				return errors.New("connection refused")
			}
			return nil
		},
	})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, 2, calls)
	assert.Equal(t, StartupStatusStarted, s.Status("redis"))
}

func TestStartGivesUp(t *testing.T) {
	s := newTestStartup(2)
	s.AddDependency(&Dependency{
		Name:      "kafka",
		StartFunc: func(context.Context) error { return errors.New("no brokers") },
	})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "startup failed after 2 attempts")
	assert.Contains(t, err.Error(), "no brokers")
	assert.Equal(t, StartupStatusFailed, s.Status("kafka"))
}

func TestStartDetectsCycle(t *testing.T) {
	var log []string
	s := newTestStartup(1)
	s.AddDependency(track(&log, "a", "b"))
	s.AddDependency(track(&log, "b", "a"))

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dependency cycle")
}
