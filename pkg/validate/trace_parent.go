package validate

const (
	TraceIdLength = 32 // 128 bits in hex, W3C Trace Context
	SpanIdLength  = 16 // 64 bits in hex, W3C Trace Context
)

// IsValidTraceId checks if a string is a valid W3C trace id (32 hex characters, not all zero).
func IsValidTraceId(traceId string) bool {
	return len(traceId) == TraceIdLength && isValidHex(traceId) && !allZero(traceId)
}

// IsValidSpanId checks if a string is a valid W3C span id (16 hex characters, not all zero).
func IsValidSpanId(spanId string) bool {
	return len(spanId) == SpanIdLength && isValidHex(spanId) && !allZero(spanId)
}

// IsValidTraceFlags checks the two character flags field of a traceparent header.
func IsValidTraceFlags(flags string) bool {
	return len(flags) == 2 && isValidHex(flags)
}

func isValidHex(s string) bool {

	if len(s)%2 != 0 {
		return false
	}

	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}

func allZero(s string) bool {
	for _, c := range s {
		if c != '0' {
			return false
		}
	}
	return true
}
