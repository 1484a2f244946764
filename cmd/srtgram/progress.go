package main

import (
	"fmt"
	"io"
	"sync"
)

// progressPrinter reports analysis progress on stderr. Terminals get a single
// rewritten line; other writers get one line per tenth of the work.
type progressPrinter struct {
	mu          sync.Mutex
	w           io.Writer
	interactive bool
	highest     int
	lastStep    int
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w, interactive: shouldColorize(w)}
}

func (p *progressPrinter) update(done, total int) {
	if total <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	// Callbacks arrive from several workers and can be out of order.
	if done <= p.highest {
		return
	}
	p.highest = done
	if p.interactive {
		fmt.Fprintf(p.w, "\rExplaining sentences: %d/%d", done, total)
		if done == total {
			fmt.Fprintln(p.w)
		}
		return
	}
	step := done * 10 / total
	if step == p.lastStep && done != total {
		return
	}
	p.lastStep = step
	fmt.Fprintf(p.w, "Explained %d/%d sentences\n", done, total)
}
