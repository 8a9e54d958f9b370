package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Aggregator-specific error codes
const (
	// Request validation
	CodeInvalidAddress  Code = "INVALID_ADDRESS"
	CodeInvalidAmount   Code = "INVALID_AMOUNT"
	CodeInvalidSlippage Code = "INVALID_SLIPPAGE"

	// Token resolution
	CodeUnknownToken Code = "UNKNOWN_TOKEN"

	// Quoting
	CodeNoLiquidity           Code = "NO_LIQUIDITY"
	CodeInsufficientLiquidity Code = "INSUFFICIENT_LIQUIDITY"
	CodeQuoteFailed           Code = "QUOTE_FAILED"
	CodePoolNotFound          Code = "POOL_NOT_FOUND"
	CodeInvalidQuote          Code = "INVALID_QUOTE"

	// Route building
	CodeEncodingFailed       Code = "ENCODING_FAILED"
	CodeAllowanceCheckFailed Code = "ALLOWANCE_CHECK_FAILED"
	CodeUnsupportedVenue     Code = "UNSUPPORTED_VENUE"

	// Chain access
	CodeVenueUnavailable         Code = "VENUE_UNAVAILABLE"
	CodeExecutionReverted        Code = "EXECUTION_REVERTED"
	CodeContractCallFailed       Code = "CONTRACT_CALL_FAILED"
	CodeEthereumConnectionFailed Code = "ETHEREUM_CONNECTION_FAILED"
	CodeEthereumSubscribeFailed  Code = "ETHEREUM_SUBSCRIBE_FAILED"
	CodeEthereumRPCError         Code = "ETHEREUM_RPC_ERROR"
	CodeBlockNotFound            Code = "BLOCK_NOT_FOUND"
	CodeGasEstimationFailed      Code = "GAS_ESTIMATION_FAILED"

	// Request lifecycle
	CodeRequestTimeout Code = "REQUEST_TIMEOUT"

	// WebSocket errors
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"
	CodeWebSocketSendError       Code = "WEBSOCKET_SEND_ERROR"

	// Circuit breaker errors
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
