package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"

	"minutes/internal/workflow"
)

// progressPresenter mirrors the processing section on a terminal: an animated
// bar when attached to a TTY, one line per progress step otherwise.
type progressPresenter struct {
	out         io.Writer
	interactive bool

	mu   sync.Mutex
	bar  *progressbar.ProgressBar
	last workflow.Progress
}

func newProgressPresenter(out io.Writer, interactive bool) *progressPresenter {
	return &progressPresenter{out: out, interactive: interactive}
}

func (p *progressPresenter) Render(snap workflow.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if snap.View != workflow.ViewProcessing {
		p.finish()
		return
	}
	if snap.Progress == p.last {
		return
	}
	p.last = snap.Progress

	if !p.interactive {
		fmt.Fprintf(p.out, "[%3d%%] %s %s\n", snap.Progress.Percent, snap.StatusLabel, snap.Progress.Message)
		return
	}
	if p.bar == nil {
		p.bar = progressbar.NewOptions(100,
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionSetWidth(30),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionSetElapsedTime(false),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(p.out) }),
		)
	}
	p.bar.Describe(fmt.Sprintf("%-14s %s", snap.StatusLabel, snap.Progress.Message))
	_ = p.bar.Set(snap.Progress.Percent)
}

// finish closes the bar once the sequence leaves the processing view.
func (p *progressPresenter) finish() {
	p.last = workflow.Progress{}
	if p.bar == nil {
		return
	}
	if !p.bar.IsFinished() {
		_ = p.bar.Finish()
	}
	p.bar = nil
}
