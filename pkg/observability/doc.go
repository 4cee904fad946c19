/*
Package observability turns reconciler lifecycle hooks into prometheus
metrics and structured log records.

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	root := arbor.CreateRoot(host, container, arbor.WithLifecycleHooks(
		domain.MergeHooks(metrics.Hooks(), observability.LogHooks(logger)),
	))
*/
package observability
