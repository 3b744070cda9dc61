// Package telemetry emits security-relevant events to the OTLP log pipeline.
package telemetry

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
)

// SecurityEvents records high-severity security events. Decryption integrity
// failures are the main customer: they indicate data corruption or an active
// tampering attempt and must be visible to operators immediately, not buried
// in request logs.
type SecurityEvents struct {
	logger otellog.Logger
}

// NewSecurityEvents returns an emitter writing through the given provider.
func NewSecurityEvents(provider otellog.LoggerProvider) *SecurityEvents {
	return &SecurityEvents{logger: provider.Logger("security")}
}

// IntegrityFailure records a failed envelope decryption for the given purpose.
func (e *SecurityEvents) IntegrityFailure(ctx context.Context, purpose, userID string, err error) {
	var rec otellog.Record
	rec.SetTimestamp(time.Now().UTC())
	rec.SetSeverity(otellog.SeverityError)
	rec.SetSeverityText("ERROR")
	rec.SetBody(otellog.StringValue("envelope integrity failure"))
	rec.AddAttributes(
		otellog.String("purpose", purpose),
		otellog.String("user_id", userID),
		otellog.String("error", err.Error()),
	)
	e.logger.Emit(ctx, rec)
}

// SessionStoreFailure records a session store outage observed on the request path.
func (e *SecurityEvents) SessionStoreFailure(ctx context.Context, op string, err error) {
	var rec otellog.Record
	rec.SetTimestamp(time.Now().UTC())
	rec.SetSeverity(otellog.SeverityWarn)
	rec.SetSeverityText("WARN")
	rec.SetBody(otellog.StringValue("session store failure"))
	rec.AddAttributes(
		otellog.String("op", op),
		otellog.String("error", err.Error()),
	)
	e.logger.Emit(ctx, rec)
}
