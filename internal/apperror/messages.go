package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	// Request validation
	CodeInvalidAddress:  "Invalid token address",
	CodeInvalidAmount:   "Invalid amount",
	CodeInvalidSlippage: "Slippage must be between 0 and 100",

	// Token resolution
	CodeUnknownToken: "Unknown token",

	// Quoting
	CodeNoLiquidity:           "No liquidity available for this pair",
	CodeInsufficientLiquidity: "Insufficient liquidity for trade size",
	CodeQuoteFailed:           "Failed to fetch quote",
	CodePoolNotFound:          "Pool not found",
	CodeInvalidQuote:          "Invalid quote data",

	// Route building
	CodeEncodingFailed:       "Failed to encode transaction calldata",
	CodeAllowanceCheckFailed: "Failed to check token allowance",
	CodeUnsupportedVenue:     "Unsupported venue",

	// Chain access
	CodeVenueUnavailable:         "Venue temporarily unavailable",
	CodeExecutionReverted:        "Contract call reverted",
	CodeContractCallFailed:       "Smart contract call failed",
	CodeEthereumConnectionFailed: "Failed to connect to Ethereum node",
	CodeEthereumSubscribeFailed:  "Failed to subscribe to Ethereum events",
	CodeEthereumRPCError:         "Ethereum RPC call failed",
	CodeBlockNotFound:            "Block not found",
	CodeGasEstimationFailed:      "Gas estimation failed",

	// Request lifecycle
	CodeRequestTimeout: "Request deadline exceeded",

	// WebSocket errors
	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketClosed:          "WebSocket connection closed",
	CodeWebSocketSendError:       "Failed to send WebSocket message",

	// Circuit breaker errors
	CodeCircuitOpen: "Circuit breaker is open",
}
