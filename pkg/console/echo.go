package console

// SyncState tracks whether the owner's view of the value matches what
// the engine last emitted.
type SyncState int

const (
	StateSynced SyncState = iota
	StateDiverged
)

func (s SyncState) String() string {
	if s == StateDiverged {
		return "diverged"
	}
	return "synced"
}

// Reconciler arbitrates between externally supplied values and the
// buffer's own emitted value. The engine records every outward value
// before notifying the owner, so when that same value round-trips back
// it reads as an echo and is ignored. This is what keeps local edits
// from being undone by the component's own propagated output.
type Reconciler struct {
	lastEmitted string
	state       SyncState
	nudge       int
	hasNudge    bool
}

func NewReconciler() *Reconciler {
	return &Reconciler{}
}

func (r *Reconciler) State() SyncState { return r.state }

// LastEmitted returns the most recent value propagated to the owner.
func (r *Reconciler) LastEmitted() string { return r.lastEmitted }

// RecordEmission notes a locally produced value. Callers must invoke
// this before (or atomically with) the outward notification so an edit
// made between emission and the owner's round-trip is never clobbered.
func (r *Reconciler) RecordEmission(value string) {
	r.lastEmitted = value
	r.state = StateSynced
}

// SetNudge arms a one-shot cursor override consumed by the next
// external value application.
func (r *Reconciler) SetNudge(pos int) {
	r.nudge = pos
	r.hasNudge = true
}

// ApplyExternal reconciles an owner-supplied value against the buffer.
// An echo of the engine's own output leaves the text untouched (an
// armed nudge still moves the cursor). Anything else is an outside
// reset: the buffer is replaced and the cursor snaps to end-of-text
// unless a nudge accompanies the change. Reports text and cursor
// changes separately so the caller can notify accordingly.
func (r *Reconciler) ApplyExternal(buf *EditBuffer, value string) (textChanged, cursorChanged bool) {
	before := buf.Cursor()

	if value == r.lastEmitted {
		r.state = StateSynced
		if r.hasNudge {
			buf.MoveCursor(r.nudge)
			r.hasNudge = false
		}
		return false, buf.Cursor() != before
	}

	r.state = StateDiverged
	buf.SetText(value)
	if r.hasNudge {
		buf.MoveCursor(r.nudge)
		r.hasNudge = false
	}
	r.lastEmitted = value
	return true, buf.Cursor() != before
}
