// ABOUTME: Graphviz rendering of a heap snapshot via go-moremath's graphout
// ABOUTME: Nodes are filled by color; weak references are drawn dashed

package graph

import (
	"fmt"
	"io"

	"github.com/aclements/go-moremath/graph/graphout"
)

// dotView exposes strong edges followed by weak ones so both are drawn.
type dotView struct {
	*Indexed
}

func (v dotView) Out(i int) []int {
	strong, weak := v.Indexed.Out(i), v.Indexed.Weak(i)
	if len(weak) == 0 {
		return strong
	}
	return append(strong[:len(strong):len(strong)], weak...)
}

var dotFill = map[string]string{
	"white": "white",
	"gray":  "gray70",
	"black": "gray20",
}

// WriteDot writes g in Graphviz dot syntax.
func WriteDot(w io.Writer, g Graph) error {
	x := Index(g)
	d := graphout.Dot{
		Name: "heap",
		Label: func(n int) string {
			if n == 0 {
				return "roots"
			}
			obj := g.GetObject(x.ID(n))
			return fmt.Sprintf("%s\n%d B", obj.Name(), obj.Size)
		},
		NodeAttrs: func(n int) []graphout.DotAttr {
			if n == 0 {
				return []graphout.DotAttr{{Name: "shape", Val: "diamond"}}
			}
			obj := g.GetObject(x.ID(n))
			attrs := []graphout.DotAttr{
				{Name: "shape", Val: "box"},
				{Name: "style", Val: "filled"},
			}
			if fill, ok := dotFill[obj.Color]; ok {
				attrs = append(attrs, graphout.DotAttr{Name: "fillcolor", Val: fill})
			}
			if obj.Color == "black" {
				attrs = append(attrs, graphout.DotAttr{Name: "fontcolor", Val: "white"})
			}
			return attrs
		},
		EdgeAttrs: func(n, e int) []graphout.DotAttr {
			if e >= len(x.Out(n)) {
				return []graphout.DotAttr{{Name: "style", Val: "dashed"}}
			}
			return nil
		},
	}
	return d.Fprint(w, dotView{x})
}
