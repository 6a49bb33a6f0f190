package poller

import "testing"

func TestGateSuppressesConsecutiveDuplicates(t *testing.T) {
	t.Parallel()
	g := NewGate()

	if !g.ShouldSend("boom") {
		t.Fatal("first failure must be sent")
	}
	g.RecordSent("boom")

	if g.ShouldSend("boom") {
		t.Fatal("identical consecutive failure must be suppressed")
	}
	if !g.ShouldSend("другой сбой") {
		t.Fatal("different failure must be sent")
	}
}

func TestGateBaselineMoves(t *testing.T) {
	t.Parallel()
	g := NewGate()
	g.RecordSent("a")
	g.RecordSent("b")

	if g.ShouldSend("b") {
		t.Fatal("latest failure is the baseline")
	}
	// Only the immediately preceding message is suppressed.
	if !g.ShouldSend("a") {
		t.Fatal("older failure text must be sent again")
	}
}
