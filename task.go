package eventloop

// Task is a unit of work submitted to the loop. A zero Task (nil Runnable)
// is used as a tombstone when clearing queue slots for GC.
type Task struct {
	Runnable func()
}
