// ABOUTME: Write-only pprof heap profile of a snapshot
// ABOUTME: Samples count objects and bytes per tag, labelled by color and list

package heapdump

import (
	"fmt"
	"io"
	"sort"

	"github.com/google/pprof/profile"

	"github.com/prateek/tricolor/graph"
)

// Pprof encodes a snapshot as a gzipped pprof profile viewable with
// `go tool pprof`. Each object type becomes a function; samples are
// split by the object's color and collector list.
type Pprof struct{}

func (Pprof) Name() string { return "pprof" }

type pprofKey struct {
	typ, color, list string
}

// Write encodes g as a pprof profile.
func (Pprof) Write(w io.Writer, g graph.Graph) error {
	p, err := Profile(g)
	if err != nil {
		return err
	}
	return p.Write(w)
}

// Profile builds the pprof profile of g.
func Profile(g graph.Graph) (*profile.Profile, error) {
	type totals struct{ objects, bytes int64 }
	groups := make(map[pprofKey]*totals)
	g.ForEachObject(func(obj *graph.Object) {
		k := pprofKey{obj.Type, obj.Color, obj.List}
		t := groups[k]
		if t == nil {
			t = &totals{}
			groups[k] = t
		}
		t.objects++
		t.bytes += int64(obj.Size)
	})

	keys := make([]pprofKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.typ != b.typ {
			return a.typ < b.typ
		}
		if a.color != b.color {
			return a.color < b.color
		}
		return a.list < b.list
	})

	p := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "objects", Unit: "count"},
			{Type: "space", Unit: "bytes"},
		},
		PeriodType:        &profile.ValueType{Type: "space", Unit: "bytes"},
		Period:            1,
		DefaultSampleType: "space",
	}
	locs := make(map[string]*profile.Location)
	for _, k := range keys {
		loc, ok := locs[k.typ]
		if !ok {
			fn := &profile.Function{
				ID:         uint64(len(p.Function) + 1),
				Name:       k.typ,
				SystemName: k.typ,
			}
			p.Function = append(p.Function, fn)
			loc = &profile.Location{
				ID:   uint64(len(p.Location) + 1),
				Line: []profile.Line{{Function: fn}},
			}
			p.Location = append(p.Location, loc)
			locs[k.typ] = loc
		}
		t := groups[k]
		sample := &profile.Sample{
			Location: []*profile.Location{loc},
			Value:    []int64{t.objects, t.bytes},
			Label:    map[string][]string{},
		}
		if k.color != "" {
			sample.Label["color"] = []string{k.color}
		}
		if k.list != "" {
			sample.Label["list"] = []string{k.list}
		}
		p.Sample = append(p.Sample, sample)
	}

	if err := p.CheckValid(); err != nil {
		return nil, fmt.Errorf("pprof: %w", err)
	}
	return p, nil
}

func init() {
	Register(Pprof{})
}
