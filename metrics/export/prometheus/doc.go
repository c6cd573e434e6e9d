// Package prometheus renders goAccount engine metrics in the Prometheus text
// exposition format.
//
// [NewPrometheusExporter] wraps an [goAccount.Engine] and exposes an
// [http.Handler] for a /metrics route. Counters are named account_*_total;
// the single histogram is account_login_latency_seconds.
//
// Nothing is registered in a global registry; callers mount the handler.
package prometheus
