// Package events decouples services that request background work from the
// task machinery that performs it.
//
// A service emits a TaskRequestEvent through an EventEmitter; handlers
// registered with the emitter turn the event into a task. The event ID
// doubles as the task ID so the caller can report it before the task runs.
package events
