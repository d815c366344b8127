package limits

// Byte caps applied to request bodies, fetched responses and process output.

const (
	// JSON is the standard size limit for API request/response payloads (1MB)
	JSON = 1 << 20

	// ErrorBody is the maximum size for error response bodies (1KB)
	// Used when parsing error messages from failed API calls
	ErrorBody = 1024

	// ComposeOutput is the maximum captured docker compose output kept on a
	// job record (256KB); longer output is truncated
	ComposeOutput = 256 << 10
)
