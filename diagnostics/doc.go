// Package diagnostics provides inject.Callback implementations that report
// provider activity to zap, Prometheus and OpenTelemetry.
//
// Example:
//
//	metrics, err := diagnostics.NewMetricsCallback(prometheus.DefaultRegisterer)
//	if err != nil {
//	    return err
//	}
//
//	provider, err := services.Build(inject.WithCallback(diagnostics.Multi(
//	    diagnostics.NewLogCallback(logger),
//	    metrics,
//	    diagnostics.NewTraceCallback(otel.Tracer("inject")),
//	)))
package diagnostics
