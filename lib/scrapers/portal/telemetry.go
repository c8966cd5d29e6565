package portal

import (
	"regassist-backend/lib/restyutil"
	"regassist-backend/lib/telemetry"
)

var tracer = telemetry.Tracer("regassist.lib.scrapers.portal")
var restyInstrumentOutput restyutil.InstrumentOutput

// SetRestyInstrumentOutput makes clients created afterwards dump their http
// transcripts to `out` when debug logging is enabled.
func SetRestyInstrumentOutput(out restyutil.InstrumentOutput) {
	restyInstrumentOutput = out
}
