package linkz

import (
	"bufio"
	"context"
	"fmt"
	"io"
)

// SinkTo creates a terminal stage that drains the flow's current stream
// and renders one token per line to w, flushing before it answers. The
// stage answers accept on successful consumption of the full stream and
// reject on a write failure or when no stream is installed; a failed write
// never propagates past the stage boundary.
//
// Example:
//
//	pipeline.AddLink(linkz.SinkTo("print", os.Stdout))
func SinkTo(name Name, w io.Writer) Stage[*Flow[string]] {
	return Accept(name, func(_ context.Context, flow *Flow[string]) bool {
		in := flow.Stream()
		if in == nil {
			return false
		}
		bw := bufio.NewWriter(w)
		for {
			tok, err := in.Read()
			if err != nil {
				break
			}
			if _, err := fmt.Fprintln(bw, tok); err != nil {
				return false
			}
		}
		return bw.Flush() == nil
	})
}

// Collect creates a terminal stage that drains the flow's current stream
// into the caller's slice, in order. It answers reject only when no
// stream is installed. Collect is the assembly-and-test counterpart to
// SinkTo.
//
// Example:
//
//	var got []string
//	pipeline.AddLink(linkz.Collect("gather", &got))
func Collect[T any](name Name, dst *[]T) Stage[*Flow[T]] {
	return Accept(name, func(_ context.Context, flow *Flow[T]) bool {
		if flow.Stream() == nil {
			return false
		}
		*dst = append(*dst, flow.Drain()...)
		return true
	})
}
