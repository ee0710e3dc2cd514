package errors

// -----------------------------------------------------------------------------
// Configuration Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = "CONFIG_NOT_FOUND"

	// ErrConfigParseFailed indicates the configuration file could not be parsed.
	ErrConfigParseFailed = "CONFIG_PARSE_FAILED"

	// ErrConfigInvalid indicates configuration values are invalid.
	ErrConfigInvalid = "CONFIG_INVALID"

	// ErrConfigWriteFailed indicates the config file could not be written.
	ErrConfigWriteFailed = "CONFIG_WRITE_FAILED"
)

// -----------------------------------------------------------------------------
// Record Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrRecordInvalid indicates a malformed certificate record
	// (for example a negative penalty when a penalty applies).
	ErrRecordInvalid = "RECORD_INVALID"

	// ErrRecordParseFailed indicates a records file could not be decoded.
	ErrRecordParseFailed = "RECORD_PARSE_FAILED"

	// ErrAmountInvalid indicates a penalty amount could not be parsed.
	ErrAmountInvalid = "AMOUNT_INVALID"

	// ErrDateInvalid indicates a date could not be parsed.
	ErrDateInvalid = "DATE_INVALID"
)

// -----------------------------------------------------------------------------
// Asset Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrAssetNotFound indicates a signature file does not exist.
	ErrAssetNotFound = "ASSET_NOT_FOUND"

	// ErrAssetDecodeFailed indicates the base64 payload or image data is invalid.
	ErrAssetDecodeFailed = "ASSET_DECODE_FAILED"
)

// -----------------------------------------------------------------------------
// Roster Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrRosterNotFound indicates the roster file does not exist.
	ErrRosterNotFound = "ROSTER_NOT_FOUND"

	// ErrRosterEncoding indicates none of the fallback encodings could decode the roster.
	ErrRosterEncoding = "ROSTER_ENCODING"

	// ErrRosterParseFailed indicates the roster CSV is malformed.
	ErrRosterParseFailed = "ROSTER_PARSE_FAILED"
)

// -----------------------------------------------------------------------------
// Auth and Session Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrAuthInvalidCredentials indicates an unknown mobile or a wrong PIN.
	ErrAuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"

	// ErrAuthTokenInvalid indicates a missing, expired or forged bearer token.
	ErrAuthTokenInvalid = "AUTH_TOKEN_INVALID"

	// ErrAuthForbidden indicates a request acting for another officer.
	ErrAuthForbidden = "AUTH_FORBIDDEN"

	// ErrSessionNotFound indicates the session does not exist or has expired.
	ErrSessionNotFound = "SESSION_NOT_FOUND"

	// ErrSessionTIPNotPending indicates the TIP was already certified or is unknown.
	ErrSessionTIPNotPending = "SESSION_TIP_NOT_PENDING"

	// ErrSessionNotReady indicates pending TIPs remain when finishing.
	ErrSessionNotReady = "SESSION_NOT_READY"

	// ErrSessionEmpty indicates there are no certificates to render.
	ErrSessionEmpty = "SESSION_EMPTY"
)

// -----------------------------------------------------------------------------
// Render and IO Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrRenderFailed indicates the PDF sink could not serialize the document.
	ErrRenderFailed = "RENDER_FAILED"

	// ErrRendererUnknown indicates no renderer is registered under the name.
	ErrRendererUnknown = "RENDERER_UNKNOWN"

	// ErrIOWriteFailed indicates an output file could not be written.
	ErrIOWriteFailed = "IO_WRITE_FAILED"

	// ErrIOReadFailed indicates an input file could not be read.
	ErrIOReadFailed = "IO_READ_FAILED"
)
