package delay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketship-ai/flowrunner/internal/dsl"
	"github.com/rocketship-ai/flowrunner/internal/plugins"
)

func TestDuration(t *testing.T) {
	assert.Equal(t, DefaultDuration, Duration(dsl.Step{Action: "wait"}))
	assert.Equal(t, 250*time.Millisecond, Duration(dsl.Step{Action: "wait", Duration: 250}))
}

func TestSleep(t *testing.T) {
	start := time.Now()
	require.NoError(t, Sleep(context.Background(), 20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	require.NoError(t, Sleep(context.Background(), 0))
}

func TestSleep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDelayPlugin(t *testing.T) {
	p := &DelayPlugin{}
	assert.Equal(t, "wait", p.GetType())

	registered, ok := plugins.GetPlugin("wait")
	require.True(t, ok)
	assert.IsType(t, &DelayPlugin{}, registered)

	err := p.Execute(context.Background(), &plugins.Env{}, dsl.Step{Action: "wait", Duration: 5})
	assert.NoError(t, err)
}
