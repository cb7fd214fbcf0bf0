// Package train drives mini-batch stochastic gradient descent over a
// network.
//
// The Trainer owns epoch and batch scheduling, the gradient accumulator,
// and the cancellation state machine:
//
//	Idle → Running → Finishing → Stopped
//
// Parameters mutate only while Running. Cancellation is a single flag,
// settable from any goroutine (typically a signal handler) and polled
// cooperatively at batch boundaries only — never mid-sample or mid-batch —
// so a checkpoint saved on the way out always reflects a whole number of
// completed batches.
package train
