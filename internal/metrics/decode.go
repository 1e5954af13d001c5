package metrics

import "time"

const (
	DecodeTotal    = "decode_total"
	DecodeDuration = "decode_duration"
	VariantTotal   = "variant_total"
)

// OutcomeOK labels a decode that produced a value.
const OutcomeOK = "ok"

// RecordDecode counts one decode of typeName and times it. outcome is
// OutcomeOK or the failure code.
func (r *Registry) RecordDecode(typeName, outcome string, d time.Duration) {
	labels := map[string]string{"type": typeName, "outcome": outcome}
	r.IncrementCounter(DecodeTotal, labels, "Payload decodes by type and outcome")
	r.RecordTimer(DecodeDuration, d, map[string]string{"type": typeName}, "Payload decode latency")
}

// RecordVariant counts which variant a union resolved to.
func (r *Registry) RecordVariant(union, tag string) {
	r.IncrementCounter(VariantTotal, map[string]string{"union": union, "variant": tag},
		"Resolved union variants")
}

// RecordDecode records a decode in the global registry
func RecordDecode(typeName, outcome string, d time.Duration) {
	globalRegistry.RecordDecode(typeName, outcome, d)
}

// RecordVariant records a resolved variant in the global registry
func RecordVariant(union, tag string) {
	globalRegistry.RecordVariant(union, tag)
}
