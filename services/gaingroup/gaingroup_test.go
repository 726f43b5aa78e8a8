package gaingroup

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"usrphost-go/errcode"
	"usrphost-go/prop"
	"usrphost-go/types"
)

type knob struct {
	r types.GainRange
	v float64
}

func (k *knob) stage() Stage {
	return Stage{
		Range: k.r,
		Get:   func() (float64, error) { return k.v, nil },
		Set:   func(v float64) error { k.v = k.r.Clip(v, false); return nil },
	}
}

func TestRangeAndNames(t *testing.T) {
	g := New()
	a := &knob{r: types.GainRange{Start: 0, Stop: 30, Step: 1}}
	b := &knob{r: types.GainRange{Start: -10, Stop: 20, Step: 0.5}}
	g.Register("PGA0", a.stage(), 2)
	g.Register("PGA1", b.stage(), 1)

	assert.Equal(t, []string{"PGA0", "PGA1"}, g.Names())

	r, err := g.Range(All)
	require.NoError(t, err)
	assert.Equal(t, types.GainRange{Start: -10, Stop: 50, Step: 1}, r)

	r, err = g.Range("PGA1")
	require.NoError(t, err)
	assert.Equal(t, b.r, r)

	_, err = g.Range("LNA")
	assert.ErrorIs(t, err, errcode.Addressing)
}

func TestSetOverallFillsHighPriorityFirst(t *testing.T) {
	g := New()
	lo := &knob{r: types.GainRange{Start: 0, Stop: 30, Step: 1}}
	hi := &knob{r: types.GainRange{Start: 0, Stop: 20, Step: 1}}
	g.Register("lo", lo.stage(), 1)
	g.Register("hi", hi.stage(), 5)

	require.NoError(t, g.SetValue(25, All))
	assert.Equal(t, 20.0, hi.v)
	assert.Equal(t, 5.0, lo.v)

	v, err := g.Value(All)
	require.NoError(t, err)
	assert.Equal(t, 25.0, v)

	// clipped to overall range
	require.NoError(t, g.SetValue(99, All))
	assert.Equal(t, 20.0, hi.v)
	assert.Equal(t, 30.0, lo.v)

	require.NoError(t, g.SetValue(3, "lo"))
	assert.Equal(t, 3.0, lo.v)
	assert.Error(t, g.SetValue(1, "zz"))
}

func TestSetOverallSubStepRemainder(t *testing.T) {
	g := New()
	a := &knob{r: types.GainRange{Start: 0, Stop: 10, Step: 1}}
	b := &knob{r: types.GainRange{Start: 0, Stop: 10, Step: 1}}
	g.Register("a", a.stage(), 2)
	g.Register("b", b.stage(), 1)

	require.NoError(t, g.SetValue(12.5, All))
	assert.Equal(t, 10.0, a.v)
	assert.InDelta(t, 2.5, b.v, 1e-9)
}

func TestSetOverallStopsAtFirstError(t *testing.T) {
	g := New()
	n := 0
	g.Register("a", Stage{
		Range: types.GainRange{Stop: 10, Step: 1},
		Get:   func() (float64, error) { return 0, nil },
		Set:   func(float64) error { n++; return errors.New("spi") },
	}, 1)
	g.Register("b", Stage{
		Range: types.GainRange{Stop: 10, Step: 1},
		Get:   func() (float64, error) { return 0, nil },
		Set:   func(float64) error { n++; return nil },
	}, 0)
	assert.ErrorContains(t, g.SetValue(5, All), "spi")
	assert.Equal(t, 1, n)
}

func TestOverallSumWithinRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g := New()
		nStages := rapid.IntRange(1, 4).Draw(t, "stages")
		knobs := make([]*knob, nStages)
		for i := range knobs {
			start := float64(rapid.IntRange(-10, 0).Draw(t, "start"))
			span := float64(rapid.IntRange(0, 40).Draw(t, "span"))
			knobs[i] = &knob{r: types.GainRange{Start: start, Stop: start + span, Step: 0.5}}
			g.Register(string(rune('a'+i)), knobs[i].stage(), rapid.IntRange(0, 3).Draw(t, "prio"))
		}
		overall, _ := g.Range(All)
		want := rapid.Float64Range(overall.Start-5, overall.Stop+5).Draw(t, "gain")
		if err := g.SetValue(want, All); err != nil {
			t.Fatal(err)
		}
		got, _ := g.Value(All)
		clipped := min(max(want, overall.Start), overall.Stop)
		if d := got - clipped; d > 1e-6 || d < -1e-6 {
			t.Fatalf("overall gain %v, want %v", got, clipped)
		}
		for i, k := range knobs {
			if k.v < k.r.Start-1e-9 || k.v > k.r.Stop+1e-9 {
				t.Fatalf("stage %d at %v outside %v", i, k.v, k.r)
			}
		}
	})
}

func TestForSubdev(t *testing.T) {
	sd := prop.NewTree("sd")
	prop.Const(sd, prop.K(prop.GainNames), []string{"PGA0", "PGA1"})
	prop.Const(sd, prop.Named(prop.GainRange, "PGA0"), types.GainRange{Stop: 10, Step: 1})
	prop.Const(sd, prop.Named(prop.GainRange, "PGA1"), types.GainRange{Stop: 10, Step: 1})
	prop.Store(sd, prop.Named(prop.Gain, "PGA0"), 0.0)
	prop.Store(sd, prop.Named(prop.Gain, "PGA1"), 0.0)

	g, err := ForSubdev(sd)
	require.NoError(t, err)
	assert.Equal(t, []string{"PGA0", "PGA1"}, g.Names())

	require.NoError(t, g.SetValue(13, All))
	v0, _ := prop.Read[float64](sd, prop.Named(prop.Gain, "PGA0"))
	v1, _ := prop.Read[float64](sd, prop.Named(prop.Gain, "PGA1"))
	assert.Equal(t, 10.0, v0, "first name has priority")
	assert.Equal(t, 3.0, v1)

	empty := prop.NewTree("basic")
	prop.Const(empty, prop.K(prop.GainNames), []string{})
	g, err = ForSubdev(empty)
	require.NoError(t, err)
	r, _ := g.Range(All)
	assert.Equal(t, types.GainRange{}, r)
	require.NoError(t, g.SetValue(10, All))

	_, err = ForSubdev(prop.NewTree("bare"))
	assert.ErrorIs(t, err, errcode.Addressing)
}
