package output

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/shaarpec/shaarpec-go/pkg/task"
)

const barWidth = 30

// ProgressBar renders task progress on a single terminal line. Its Observe
// method satisfies the task.Observer contract and never blocks, so the poll
// loop is unaffected by rendering.
type ProgressBar struct {
	mu sync.Mutex
	w  io.Writer

	running *color.Color
	good    *color.Color
	bad     *color.Color
}

func NewProgressBar(w io.Writer) *ProgressBar {
	return &ProgressBar{
		w:       w,
		running: color.New(color.FgCyan),
		good:    color.New(color.FgGreen),
		bad:     color.New(color.FgRed),
	}
}

// Observe redraws the bar for the given status and progress in [0,1].
func (p *ProgressBar) Observe(status task.Status, progress float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	filled := int(progress * barWidth)
	bar := strings.Repeat("=", filled) + strings.Repeat(" ", barWidth-filled)
	_, _ = p.running.Fprintf(p.w, "\r[%s] %3d%% task %s", bar, int(progress*100), status)
}

// Finish draws the terminal line and ends the bar.
func (p *ProgressBar) Finish(success bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if success {
		_, _ = p.good.Fprintf(p.w, "\r[%s] 100%% task completed successfully", strings.Repeat("=", barWidth))
	} else {
		_, _ = p.bad.Fprintf(p.w, "\rtask failed%s", strings.Repeat(" ", barWidth))
	}
	_, _ = fmt.Fprintln(p.w)
}
