package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordMonitor struct {
	errs    []error
	tags    []map[string]string
	flushed time.Duration
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.errs = append(r.errs, err)
	r.tags = append(r.tags, tags)
}
func (r *recordMonitor) Recover()              {}
func (r *recordMonitor) Flush(d time.Duration) { r.flushed = d }

func TestCaptureAndFlush(t *testing.T) {
	rec := &recordMonitor{}
	Init(rec)
	t.Cleanup(func() { Init(nil) })

	CaptureException(nil, nil)
	CaptureException(errors.New("boom"), map[string]string{"k": "v"})
	Flush(time.Second)

	require.Len(t, rec.errs, 1)
	assert.Equal(t, "v", rec.tags[0]["k"])
	assert.Equal(t, time.Second, rec.flushed)
}

func TestGuard(t *testing.T) {
	rec := &recordMonitor{}
	Init(rec)
	t.Cleanup(func() { Init(nil) })

	assert.NoError(t, Guard(nil, nil))

	sentinel := errors.New("bad input")
	err := func() (err error) {
		defer func() { err = Guard(recover(), map[string]string{"request_id": "r1"}) }()
		panic(sentinel)
	}()
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)

	err = func() (err error) {
		defer func() { err = Guard(recover(), nil) }()
		panic("index out of range")
	}()
	assert.EqualError(t, err, "panic: index out of range")
	assert.Len(t, rec.errs, 2)
}

func TestInitNilRestoresNop(t *testing.T) {
	Init(nil)
	assert.IsType(t, NopMonitor{}, get())
}
