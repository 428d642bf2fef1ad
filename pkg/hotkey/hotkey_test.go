package hotkey

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.design/x/hotkey"

	"github.com/teslashibe/go-deskpilot/pkg/keys"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeHook struct {
	down, up     chan hotkey.Event
	registerErr  error
	registered   atomic.Bool
	unregistered atomic.Int32
}

func newFakeHook() *fakeHook {
	return &fakeHook{down: make(chan hotkey.Event), up: make(chan hotkey.Event)}
}

func (f *fakeHook) Register() error {
	if f.registerErr != nil {
		return f.registerErr
	}
	f.registered.Store(true)
	return nil
}

func (f *fakeHook) Unregister() error {
	f.unregistered.Add(1)
	return nil
}

func (f *fakeHook) Keydown() <-chan hotkey.Event { return f.down }
func (f *fakeHook) Keyup() <-chan hotkey.Event   { return f.up }

// send delivers an event. Channels are unbuffered, so once a send returns
// every earlier event has been handled. A keydown while held and a keyup
// while released are no-ops, which makes them usable as barriers.
func send(t *testing.T, ch chan hotkey.Event) {
	t.Helper()
	select {
	case ch <- hotkey.Event{}:
	case <-time.After(time.Second):
		t.Fatal("dispatch loop not receiving")
	}
}

type counter struct {
	press, release atomic.Int32
}

func (c *counter) handlers() Handlers {
	return Handlers{
		OnPress:   func() { c.press.Add(1) },
		OnRelease: func() { c.release.Add(1) },
	}
}

func startListener(t *testing.T, h Handlers) (*Listener, *fakeHook) {
	t.Helper()
	hook := newFakeHook()
	combo, _, err := keys.ParseCombo("ctrl+alt+a")
	require.NoError(t, err)

	l := NewWithHook(combo, hook, h, nil)
	require.NoError(t, l.Start(context.Background()))
	t.Cleanup(func() { l.Stop() })
	return l, hook
}

func TestPressRelease(t *testing.T) {
	var c counter
	l, hook := startListener(t, c.handlers())

	send(t, hook.down)
	send(t, hook.down) // repeat while held
	send(t, hook.up)
	send(t, hook.up) // release without press
	send(t, hook.up)

	assert.Equal(t, int32(1), c.press.Load())
	assert.Equal(t, int32(1), c.release.Load())
	assert.Equal(t, "ctrl+alt+a", l.Shortcut())
}

func TestSuppression(t *testing.T) {
	var c counter
	l, hook := startListener(t, c.handlers())

	l.SetSuppressed(true)
	send(t, hook.down)
	send(t, hook.up)
	send(t, hook.up)
	assert.Equal(t, int32(0), c.press.Load())

	// Suppression keeps the pressed state: a press before suppression is
	// still released afterwards.
	l.SetSuppressed(false)
	send(t, hook.down)
	send(t, hook.down)
	l.SetSuppressed(true)
	send(t, hook.up)
	send(t, hook.down)
	l.SetSuppressed(false)
	send(t, hook.up)
	send(t, hook.up)

	assert.Equal(t, int32(1), c.press.Load())
	assert.Equal(t, int32(1), c.release.Load())
}

func TestHandlerPanicDoesNotKillLoop(t *testing.T) {
	var releases atomic.Int32
	_, hook := startListener(t, Handlers{
		OnPress:   func() { panic("boom") },
		OnRelease: func() { releases.Add(1) },
	})

	send(t, hook.down)
	send(t, hook.up)
	send(t, hook.down)
	send(t, hook.up)
	send(t, hook.up)

	assert.Equal(t, int32(2), releases.Load())
}

func TestStartStop(t *testing.T) {
	hook := newFakeHook()
	l := NewWithHook(keys.Combo{keys.Ctrl, "a"}, hook, Handlers{}, nil)

	require.NoError(t, l.Start(context.Background()))
	assert.ErrorIs(t, l.Start(context.Background()), ErrAlreadyStarted)
	assert.True(t, hook.registered.Load())

	require.NoError(t, l.Stop())
	require.NoError(t, l.Stop())
	assert.Equal(t, int32(1), hook.unregistered.Load())

	select {
	case <-l.Done():
	default:
		t.Fatal("loop should have exited")
	}
}

func TestContextCancelEndsLoop(t *testing.T) {
	hook := newFakeHook()
	l := NewWithHook(keys.Combo{keys.Ctrl, "a"}, hook, Handlers{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, l.Start(ctx))
	cancel()

	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not exit on cancel")
	}
	require.NoError(t, l.Stop())
}

func TestRegisterError(t *testing.T) {
	hook := newFakeHook()
	hook.registerErr = errors.New("grabbed by another app")
	l := NewWithHook(keys.Combo{keys.Ctrl, "a"}, hook, Handlers{}, nil)

	err := l.Start(context.Background())
	assert.ErrorIs(t, err, hook.registerErr)
	require.NoError(t, l.Stop())
}

func TestMainKey(t *testing.T) {
	k, err := mainKey("q")
	require.NoError(t, err)
	assert.Equal(t, hotkey.KeyQ, k)

	k, err = mainKey("7")
	require.NoError(t, err)
	assert.Equal(t, hotkey.Key7, k)

	k, err = mainKey("f5")
	require.NoError(t, err)
	assert.Equal(t, hotkey.KeyF5, k)

	_, err = mainKey("pageup")
	assert.ErrorIs(t, err, ErrUnsupportedKey)
}

func TestNewOSHookNeedsMainKey(t *testing.T) {
	_, err := newOSHook(keys.Combo{keys.Ctrl, keys.Alt})
	assert.ErrorIs(t, err, ErrNoMainKey)
}
