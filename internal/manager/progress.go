package manager

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

const progressDots = 5

// progressLine redraws a one-line waiting indicator with carriage returns.
type progressLine struct {
	w     io.Writer
	port  int
	model string
	n     int
	drawn bool
}

func (p *progressLine) update(code int) {
	if p == nil {
		return
	}
	dots := strings.Repeat(".", p.n) + strings.Repeat(" ", progressDots-p.n)
	fmt.Fprintf(p.w, "\rStatus code %d (%s)%s on localhost:%d model: %s", code, http.StatusText(code), dots, p.port, p.model)
	p.n = (p.n + 1) % progressDots
	p.drawn = true
}

// finish moves off the status line if anything was drawn.
func (p *progressLine) finish() {
	if p == nil || !p.drawn {
		return
	}
	fmt.Fprintln(p.w)
	p.drawn = false
}
