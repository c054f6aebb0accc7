// Package audit defines the structured audit event model and the sinks
// that receive it. Dispatch is asynchronous; the engine never blocks a
// request on a slow sink.
package audit
