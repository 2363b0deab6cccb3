/*
Package observability exposes session lifecycle activity as Prometheus metrics.

Metrics are fed by domain.LifecycleHooks, so the controller stays unaware of the
metrics backend:

	m := observability.NewMetrics(prometheus.NewRegistry())
	ctrl := session.NewController(store, endpoints, session.WithHooks(m.Hooks()))
*/
package observability
