// Package prometheus renders engine counters in Prometheus text
// exposition format.
//
// [NewExporter] accepts an [authgate.Engine] and exposes an
// [http.Handler] for mounting on a metrics route. Counter names are
// prefixed authgate_*_total. The package never touches a global
// Prometheus registry and never mutates engine state.
package prometheus
