package shutdown

import (
	"context"
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingComponent struct {
	name  string
	order *[]string
	err   error
	delay time.Duration
}

func (r *recordingComponent) Name() string { return r.name }

func (r *recordingComponent) Shutdown(ctx context.Context) error {
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	*r.order = append(*r.order, r.name)
	return r.err
}

func TestShutdownIsLIFO(t *testing.T) {
	var order []string
	c := NewCoordinator()
	c.Register(&recordingComponent{name: "store", order: &order})
	c.Register(&recordingComponent{name: "syncer", order: &order})
	c.Register(&recordingComponent{name: "server", order: &order})

	c.Shutdown()
	c.Wait()

	assert.Equal(t, []string{"server", "syncer", "store"}, order)
	assert.Equal(t, 0, c.ExitCode())
}

func TestShutdownIsIdempotent(t *testing.T) {
	var order []string
	c := NewCoordinator()
	c.Register(&recordingComponent{name: "only", order: &order})

	c.Shutdown()
	c.Shutdown()
	c.Wait()

	assert.Equal(t, []string{"only"}, order)
}

func TestComponentErrorSetsExitCodeButContinues(t *testing.T) {
	var order []string
	c := NewCoordinator()
	c.Register(&recordingComponent{name: "healthy", order: &order})
	c.Register(&recordingComponent{name: "broken", order: &order, err: errors.New("close failed")})

	c.Shutdown()
	c.Wait()

	assert.Equal(t, []string{"broken", "healthy"}, order)
	assert.Equal(t, 1, c.ExitCode())
}

func TestShutdownTimeoutSkipsRemaining(t *testing.T) {
	var order []string
	c := NewCoordinator(WithTimeout(50 * time.Millisecond))
	c.Register(&recordingComponent{name: "never-reached", order: &order})
	c.Register(&recordingComponent{name: "slow", order: &order, delay: time.Second})

	c.Shutdown()
	c.Wait()

	assert.NotContains(t, order, "never-reached")
	assert.Equal(t, 1, c.ExitCode())
}

func TestWaitForSignal(t *testing.T) {
	var order []string
	sigCh := make(chan os.Signal, 1)
	c := NewCoordinator(WithSignalChannel(sigCh))
	c.Register(&recordingComponent{name: "server", order: &order})

	go c.WaitForSignal()
	sigCh <- syscall.SIGTERM

	done := make(chan struct{})
	go func() {
		c.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		require.FailNow(t, "shutdown did not complete after signal")
	}
	assert.Equal(t, []string{"server"}, order)
}
