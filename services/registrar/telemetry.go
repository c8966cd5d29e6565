package registrar

import (
	"regassist-backend/lib/telemetry"

	"go.opentelemetry.io/otel"
)

var tracer = telemetry.Tracer("regassist.services.registrar")
var meter = otel.Meter("regassist.services.registrar")
