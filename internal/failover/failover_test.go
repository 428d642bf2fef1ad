package failover

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-deskpilot/internal/apierr"
)

type member struct {
	name      string
	err       error
	healthErr error
	calls     int
	closed    bool
}

func (m *member) Name() string                 { return m.name }
func (m *member) Health(context.Context) error { return m.healthErr }
func (m *member) Close() error                 { m.closed = true; return nil }

func (m *member) call(context.Context) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.name, nil
}

func run(ctx context.Context, c *Chain[*member]) (string, error) {
	return Do(ctx, c, func(ctx context.Context, m *member) (string, error) { return m.call(ctx) })
}

func TestNewRequiresMembers(t *testing.T) {
	_, err := New[*member]("tts", nil)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestDoFallsBack(t *testing.T) {
	a := &member{name: "a", err: errors.New("quota")}
	b := &member{name: "b"}
	c, err := New("tts", nil, a, b)
	require.NoError(t, err)

	got, err := run(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "b", got)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
}

func TestDoAllFail(t *testing.T) {
	c, err := New("inference", nil, &member{err: errors.New("one")}, &member{err: errors.New("two")})
	require.NoError(t, err)

	_, err = run(context.Background(), c)
	var chainErr *apierr.ChainError
	require.ErrorAs(t, err, &chainErr)
	assert.Equal(t, "inference", chainErr.Service)
	assert.Len(t, chainErr.Errors, 2)
	assert.EqualError(t, errors.Unwrap(err), "two")
}

func TestDoStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	second := &member{name: "b"}
	c, err := New("tts", nil, &member{err: errors.New("down")}, second)
	require.NoError(t, err)

	_, err = run(ctx, c)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, second.calls)
}

func TestHealthAndClose(t *testing.T) {
	down := &member{healthErr: errors.New("down")}
	up := &member{}
	c, err := New("tts", nil, down, up)
	require.NoError(t, err)
	assert.NoError(t, c.Health(context.Background()))

	dead, err := New("tts", nil, down)
	require.NoError(t, err)
	assert.ErrorContains(t, dead.Health(context.Background()), "all 1 providers unhealthy")

	require.NoError(t, c.Close())
	assert.True(t, down.closed)
	assert.True(t, up.closed)
	assert.Equal(t, []*member{down, up}, c.Members())
}
