package poller

// Gate suppresses consecutive duplicate failure notifications. Status-change
// messages bypass it entirely: the API is only re-polled for the interval
// since the last cursor, so every status message is assumed distinct.
//
// The gate holds plain owned state; it is touched only by the loop goroutine.
type Gate struct {
	lastFailure string
}

func NewGate() *Gate { return &Gate{} }

// ShouldSend reports whether the failure message differs from the immediately
// preceding one.
func (g *Gate) ShouldSend(msg string) bool {
	return msg != g.lastFailure
}

// RecordSent makes msg the new suppression baseline.
func (g *Gate) RecordSent(msg string) {
	g.lastFailure = msg
}
