package loop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

type pipe struct{ r, w int }

func newPipe(t *testing.T) *pipe {
	t.Helper()
	var p [2]int
	require.NoError(t, unix.Pipe2(p[:], unix.O_CLOEXEC|unix.O_NONBLOCK))
	pp := &pipe{r: p[0], w: p[1]}
	t.Cleanup(func() {
		unix.Close(pp.r)
		if pp.w >= 0 {
			unix.Close(pp.w)
		}
	})
	return pp
}

func (p *pipe) send(t *testing.T, b string) {
	_, err := unix.Write(p.w, []byte(b))
	require.NoError(t, err)
}

func (p *pipe) closeWriter() {
	unix.Close(p.w)
	p.w = -1
}

func (p *pipe) drain() string {
	buf := make([]byte, 64)
	n, _ := unix.Read(p.r, buf)
	if n < 0 {
		n = 0
	}
	return string(buf[:n])
}

type fakeDisplay struct {
	p        *pipe
	flushes  int
	got      string
	onEvent  func(string)
	failWith error
}

func (d *fakeDisplay) Fd() int         { return d.p.r }
func (d *fakeDisplay) Flush() error    { d.flushes++; return nil }
func (d *fakeDisplay) WantWrite() bool { return false }
func (d *fakeDisplay) Dispatch() error {
	if d.failWith != nil {
		return d.failWith
	}
	s := d.p.drain()
	d.got += s
	if d.onEvent != nil {
		d.onEvent(s)
	}
	return nil
}

type fakeControl struct {
	p         *pipe
	deadline  time.Time
	processed int
	onProcess func()
}

func (c *fakeControl) Fd() int { return c.p.r }
func (c *fakeControl) NextDeadline() (time.Time, bool) {
	return c.deadline, !c.deadline.IsZero()
}
func (c *fakeControl) Process() error {
	c.p.drain()
	c.processed++
	if c.onProcess != nil {
		c.onProcess()
	}
	return nil
}

func TestRunDispatchesDisplay(t *testing.T) {
	d := &fakeDisplay{p: newPipe(t)}
	c := &fakeControl{p: newPipe(t)}
	running := true
	d.onEvent = func(string) { running = false }

	d.p.send(t, "configure")
	err := Run(context.Background(), d, c, func() bool { return running })
	require.NoError(t, err)
	assert.Equal(t, "configure", d.got)
	assert.Equal(t, 0, c.processed)
	assert.GreaterOrEqual(t, d.flushes, 1)
}

func TestRunProcessesControl(t *testing.T) {
	d := &fakeDisplay{p: newPipe(t)}
	c := &fakeControl{p: newPipe(t)}
	running := true
	c.onProcess = func() { running = false }

	c.p.send(t, "x")
	require.NoError(t, Run(context.Background(), d, c, func() bool { return running }))
	assert.Equal(t, 1, c.processed)
	assert.Empty(t, d.got)
}

func TestRunWakesOnControlDeadline(t *testing.T) {
	d := &fakeDisplay{p: newPipe(t)}
	c := &fakeControl{p: newPipe(t), deadline: time.Now().Add(20 * time.Millisecond)}
	running := true
	c.onProcess = func() { running = false }

	start := time.Now()
	require.NoError(t, Run(context.Background(), d, c, func() bool { return running }))
	assert.Equal(t, 1, c.processed)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRunStopsOnCancel(t *testing.T) {
	d := &fakeDisplay{p: newPipe(t)}
	c := &fakeControl{p: newPipe(t)}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	require.NoError(t, Run(ctx, d, c, func() bool { return true }))
}

func TestRunHangup(t *testing.T) {
	d := &fakeDisplay{p: newPipe(t)}
	c := &fakeControl{p: newPipe(t)}
	d.p.closeWriter()

	err := Run(context.Background(), d, c, func() bool { return true })
	assert.ErrorIs(t, err, ErrHangup)
}

func TestRunDispatchesBeforeHangup(t *testing.T) {
	d := &fakeDisplay{p: newPipe(t)}
	c := &fakeControl{p: newPipe(t)}
	d.p.send(t, "error")
	d.p.closeWriter()

	err := Run(context.Background(), d, c, func() bool { return true })
	assert.ErrorIs(t, err, ErrHangup)
	assert.Equal(t, "error", d.got)
}

func TestRunReportsDispatchErrorOverHangup(t *testing.T) {
	boom := errors.New("protocol error")
	d := &fakeDisplay{p: newPipe(t), failWith: boom}
	c := &fakeControl{p: newPipe(t)}
	d.p.send(t, "error")
	d.p.closeWriter()

	err := Run(context.Background(), d, c, func() bool { return true })
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrHangup)
}

func TestRunDispatchErrorIsFatal(t *testing.T) {
	boom := errors.New("protocol error")
	d := &fakeDisplay{p: newPipe(t), failWith: boom}
	c := &fakeControl{p: newPipe(t)}

	d.p.send(t, "x")
	err := Run(context.Background(), d, c, func() bool { return true })
	assert.ErrorIs(t, err, boom)
}

func TestPollTimeout(t *testing.T) {
	now := time.Unix(100, 0)
	tests := []struct {
		name     string
		deadline time.Time
		want     int
	}{
		{"none", time.Time{}, -1},
		{"past", now.Add(-time.Second), 0},
		{"rounds up", now.Add(1500 * time.Microsecond), 2},
		{"exact", now.Add(250 * time.Millisecond), 250},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &fakeControl{deadline: tt.deadline}
			assert.Equal(t, tt.want, pollTimeout(c, now))
		})
	}
}
