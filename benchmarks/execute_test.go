package benchmarks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/randalmurphal/pulse/pkg/pulse"
	"github.com/randalmurphal/pulse/pkg/pulse/expr"
	"github.com/randalmurphal/pulse/pkg/pulse/nodes"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// BenchmarkTrigger_FlowChain runs one traversal through n chained flow nodes.
func BenchmarkTrigger_FlowChain(b *testing.B) {
	for _, n := range []int{5, 50, 500} {
		b.Run(fmt.Sprint(n), func(b *testing.B) {
			g, first := buildLogChain(n)
			e := pulse.NewEngine(g, pulse.WithLogger(quiet))
			ctx := context.Background()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := e.Trigger(ctx, first); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkResolve_ValueChain pulls the end of an n-node value chain in a
// fresh traversal each iteration.
func BenchmarkResolve_ValueChain(b *testing.B) {
	for _, n := range []int{5, 50, 500} {
		b.Run(fmt.Sprint(n), func(b *testing.B) {
			g, last := buildAddChain(n)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				c := pulse.NewContext(context.Background(), g, pulse.WithContextLogger(quiet))
				if _, err := last.Out.Read(c); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkFor_Reactive runs a loop whose body reads a value derived from the
// loop index, so dependents re-evaluate on every iteration.
func BenchmarkFor_Reactive(b *testing.B) {
	loop := nodes.NewFor()
	loop.Count.SetDefault(100)
	toFloat := nodes.NewCast[int, float32]()
	remap := nodes.NewRemap()
	remap.FromMax.SetDefault(99)
	send := nodes.NewSendParameter[float32]("Bar")

	g := pulse.NewGraph().Add(loop, toFloat, remap, send)
	for _, err := range []error{
		pulse.Connect(g, loop.Index, toFloat.In),
		pulse.Connect(g, toFloat.Out, remap.Value),
		pulse.Connect(g, remap.Out, send.Value),
		g.ConnectFlow(loop.Loop, send.In),
	} {
		if err != nil {
			b.Fatal(err)
		}
	}
	e := pulse.NewEngine(g, pulse.WithLogger(quiet))
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := e.Trigger(ctx, loop); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkOnParameterReceived measures dispatch to wildcard listeners.
func BenchmarkOnParameterReceived(b *testing.B) {
	g := pulse.NewGraph()
	for i := 0; i < 20; i++ {
		g.Add(nodes.NewOnParameterReceived[float32](fmt.Sprintf("/avatar/parameters/Group%d/*", i)))
	}
	g.Add(nodes.NewOnParameterReceived[float32]("/avatar/parameters/Group7/Value"))
	e := pulse.NewEngine(g, pulse.WithLogger(quiet))
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := e.OnParameterReceived(ctx, "/avatar/parameters/Group7/Value", float32(0.5)); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkExpr_Eval measures a compiled condition against a map.
func BenchmarkExpr_Eval(b *testing.B) {
	e := expr.MustCompile("GestureLeft == 3 and (Speed > 1.5 or not Grounded)")
	vars := expr.Vars(map[string]any{"GestureLeft": 3, "Speed": float32(2), "Grounded": true})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Eval(vars)
	}
}

// BenchmarkContextCreation measures traversal context setup.
func BenchmarkContextCreation(b *testing.B) {
	g := pulse.NewGraph()
	for i := 0; i < b.N; i++ {
		_ = pulse.NewContext(context.Background(), g, pulse.WithContextLogger(quiet))
	}
}
