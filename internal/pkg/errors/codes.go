package errors

// Error code constants. Errors carry code + message; the HTTP layer
// returns them verbatim and logs stay in English.

// Approval error codes.
const (
	CodeApprovalNotFound      = "APPROVAL_NOT_FOUND"
	CodeApprovalNotAuthorized = "APPROVAL_NOT_AUTHORIZED"
	CodeApprovalInvalidStatus = "APPROVAL_INVALID_STATUS"
	CodeApprovalChainEmpty    = "APPROVAL_CHAIN_EMPTY"
)

// Employee/directory error codes.
const (
	CodeEmployeeNotFound = "EMPLOYEE_NOT_FOUND"
	CodeEmployeeExists   = "EMPLOYEE_ALREADY_EXISTS"
)

// Notification error codes.
const (
	CodeNotificationNotFound = "NOTIFICATION_NOT_FOUND"
)

// Auth error codes.
const (
	CodeAuthFailed   = "AUTH_FAILED"
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenInvalid = "TOKEN_INVALID"
)

// Validation error codes.
const (
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeInvalidRequest   = "INVALID_REQUEST"
)
