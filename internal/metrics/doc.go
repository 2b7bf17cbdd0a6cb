// Package metrics records build metrics for docversions runs.
//
// Components receive a Recorder and default to NoopRecorder, so no nil checks
// are needed anywhere. PrometheusRecorder registers its collectors on a private
// registry; a CLI run flushes that registry to a file in the Prometheus text
// format, ready for the node exporter textfile collector:
//
//	rec := metrics.NewPrometheusRecorder(nil)
//	orch := orchestrator.New(cfg, runner, orchestrator.WithRecorder(rec))
//	err := orch.Run(ctx, versions, opts)
//	_ = rec.WriteTextfile("/var/lib/node_exporter/docversions.prom")
package metrics
