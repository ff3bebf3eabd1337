package vinput_test

import (
	"errors"
	"testing"

	"github.com/sc-userland/steamctl/pkg/vinput"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	kind    vinput.Kind
	keys    map[uint16]bool
	axes    map[uint16]bool
	closed  bool
	closeErr error
}

func newFake(kind vinput.Kind, keys, axes []uint16) *fakeSink {
	f := &fakeSink{kind: kind, keys: map[uint16]bool{}, axes: map[uint16]bool{}}
	for _, k := range keys {
		f.keys[k] = true
	}
	for _, a := range axes {
		f.axes[a] = true
	}
	return f
}

func (f *fakeSink) KeyEvent(code uint16, value int)    {}
func (f *fakeSink) AxisEvent(axis uint16, value int32) {}
func (f *fakeSink) RelEvent(axis uint16, delta int32)  {}
func (f *fakeSink) Syn() error                         { return nil }
func (f *fakeSink) ManagesKey(code uint16) bool        { return f.keys[code] }
func (f *fakeSink) ManagesAxis(axis uint16) bool       { return f.axes[axis] }
func (f *fakeSink) Kind() vinput.Kind                  { return f.kind }
func (f *fakeSink) Close() error                       { f.closed = true; return f.closeErr }

func TestSetResolveKeyPrefersGamepadOrder(t *testing.T) {
	gp := newFake(vinput.Gamepad, []uint16{vinput.BtnA}, nil)
	kb := newFake(vinput.Keyboard, []uint16{vinput.KeyA + vinput.KeyOffset}, nil)
	set := &vinput.Set{Sinks: [3]vinput.Sink{gp, kb, nil}}

	kind, sink, ok := set.ResolveKey(vinput.BtnA)
	require.True(t, ok)
	assert.Equal(t, vinput.Gamepad, kind)
	assert.Same(t, gp, sink)

	kind, sink, ok = set.ResolveKey(vinput.KeyA + vinput.KeyOffset)
	require.True(t, ok)
	assert.Equal(t, vinput.Keyboard, kind)
	assert.Same(t, kb, sink)
}

func TestSetResolveKeyUnbound(t *testing.T) {
	set := &vinput.Set{}
	_, _, ok := set.ResolveKey(vinput.BtnA)
	assert.False(t, ok)
}

func TestSetResolveAxis(t *testing.T) {
	gp := newFake(vinput.Gamepad, nil, []uint16{vinput.AbsX})
	set := &vinput.Set{Sinks: [3]vinput.Sink{gp, nil, nil}}
	kind, sink, ok := set.ResolveAxis(vinput.AbsX)
	require.True(t, ok)
	assert.Equal(t, vinput.Gamepad, kind)
	assert.Same(t, gp, sink)
}

func TestSetCloseReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")
	a := newFake(vinput.Gamepad, nil, nil)
	b := newFake(vinput.Mouse, nil, nil)
	b.closeErr = boom
	set := &vinput.Set{Sinks: [3]vinput.Sink{a, nil, b}}

	err := set.Close()
	require.Error(t, err)
	assert.Equal(t, boom, err)
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestUnboundCodeErrorMessage(t *testing.T) {
	err := &vinput.UnboundCodeError{Code: vinput.BtnA, IsAxis: false}
	assert.Contains(t, err.Error(), "key")
	err2 := &vinput.UnboundCodeError{Code: vinput.AbsX, IsAxis: true}
	assert.Contains(t, err2.Error(), "axis")
}
