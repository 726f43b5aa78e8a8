// Package gaingroup combines cascaded gain stages behind one overall knob.
package gaingroup

import (
	"cmp"
	"slices"

	"usrphost-go/errcode"
	"usrphost-go/prop"
	"usrphost-go/types"
	"usrphost-go/x/mathx"
)

// All addresses the overall gain of a group.
const All = ""

// Stage is one gain element.
type Stage struct {
	Range types.GainRange
	Get   func() (float64, error)
	Set   func(float64) error
}

type member struct {
	name     string
	stage    Stage
	priority int
}

// Group is not safe for concurrent use.
type Group struct {
	members []member
}

func New() *Group { return &Group{} }

// Register adds a stage. Higher priority stages receive gain first when the
// overall value is distributed. Re-registering a name replaces its stage.
func (g *Group) Register(name string, s Stage, priority int) {
	for i := range g.members {
		if g.members[i].name == name {
			g.members[i].stage = s
			g.members[i].priority = priority
			return
		}
	}
	g.members = append(g.members, member{name: name, stage: s, priority: priority})
}

// Names returns stage names in registration order.
func (g *Group) Names() []string {
	out := make([]string, len(g.members))
	for i, m := range g.members {
		out[i] = m.name
	}
	return out
}

func (g *Group) find(name string) (*member, error) {
	for i := range g.members {
		if g.members[i].name == name {
			return &g.members[i], nil
		}
	}
	return nil, errcode.Addressingf("unknown gain name %q", name)
}

// Range returns a stage's range, or for All the sum of every stage's range
// with the coarsest step.
func (g *Group) Range(name string) (types.GainRange, error) {
	if name != All {
		m, err := g.find(name)
		if err != nil {
			return types.GainRange{}, err
		}
		return m.stage.Range, nil
	}
	var r types.GainRange
	for _, m := range g.members {
		r.Start += m.stage.Range.Start
		r.Stop += m.stage.Range.Stop
		r.Step = max(r.Step, m.stage.Range.Step)
	}
	return r, nil
}

// Value returns a stage's gain, or for All the sum of all stages.
func (g *Group) Value(name string) (float64, error) {
	if name != All {
		m, err := g.find(name)
		if err != nil {
			return 0, err
		}
		return m.stage.Get()
	}
	var sum float64
	for _, m := range g.members {
		v, err := m.stage.Get()
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return sum, nil
}

// SetValue sets one stage directly, or for All distributes v across the
// stages. Stages are written in registration order; the first failure
// stops the write.
func (g *Group) SetValue(v float64, name string) error {
	if name != All {
		m, err := g.find(name)
		if err != nil {
			return err
		}
		return m.stage.Set(v)
	}
	for i, b := range g.distribute(v) {
		if err := g.members[i].stage.Set(b); err != nil {
			return err
		}
	}
	return nil
}

// distribute returns one bucket per member, indexed like g.members.
func (g *Group) distribute(v float64) []float64 {
	overall, _ := g.Range(All)
	v = mathx.Clamp(v, overall.Start, overall.Stop)

	buckets := make([]float64, len(g.members))
	left := v - overall.Start
	for i, m := range g.members {
		buckets[i] = m.stage.Range.Start
	}

	order := make([]int, len(g.members))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(g.members[b].priority, g.members[a].priority)
	})

	for _, i := range order {
		r := g.members[i].stage.Range
		add := mathx.QuantizeDown(min(left, r.Stop-r.Start), 0, r.Step)
		buckets[i] += add
		left -= add
	}

	// sub-step remainder goes to the first stage with headroom
	if left > 1e-9 {
		for _, i := range order {
			room := g.members[i].stage.Range.Stop - buckets[i]
			if room > 0 {
				add := min(left, room)
				buckets[i] += add
				left -= add
				if left <= 1e-9 {
					break
				}
			}
		}
	}
	return buckets
}

// ForSubdev builds a group over the named gains of a sub-device node.
// Earlier names get higher priority.
func ForSubdev(sd prop.Node) (*Group, error) {
	names, err := prop.Read[[]string](sd, prop.K(prop.GainNames))
	if err != nil {
		return nil, err
	}
	g := New()
	for i, name := range names {
		r, err := prop.Read[types.GainRange](sd, prop.Named(prop.GainRange, name))
		if err != nil {
			return nil, err
		}
		key := prop.Named(prop.Gain, name)
		g.Register(name, Stage{
			Range: r,
			Get:   func() (float64, error) { return prop.Read[float64](sd, key) },
			Set:   func(v float64) error { return prop.Write(sd, v, key) },
		}, len(names)-i)
	}
	return g, nil
}
