package mapper

// Backchannel is the mapper's one-way handle back into the owning
// controller session (§9 "cyclic ownership"): the session constructs the
// mapper with a Backchannel, so the mapper never holds a reference back to
// the session itself, only to this narrow queue-producer interface.
type Backchannel interface {
	// Haptic enqueues a haptic pulse command. position is 0 for right, 1
	// for left, matching §6's wire encoding.
	Haptic(position int, amplitude, period, count uint16)
	// Exit enqueues the session's exit command (§4.6.2, §5 cancellation).
	Exit()
}
