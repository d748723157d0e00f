package service

type ErrorCode string

const (
	ErrorCodeInvalidBody    ErrorCode = "INVALID_BODY"
	ErrorCodeNotFound       ErrorCode = "NOT_FOUND"
	ErrorCodeRequestExists  ErrorCode = "REQUEST_EXISTS"
	ErrorCodeAlreadyMember  ErrorCode = "ALREADY_MEMBER"
	ErrorCodeForbidden      ErrorCode = "FORBIDDEN"
	ErrorCodeNotRegistered  ErrorCode = "NOT_REGISTERED"
	ErrorCodeRequestExpired ErrorCode = "REQUEST_EXPIRED"
	ErrorCodeUnauthorized   ErrorCode = "UNAUTHORIZED"
	ErrorCodeRateLimited    ErrorCode = "RATE_LIMITED"
	ErrorCodeUnspecified    ErrorCode = "UNSPECIFIED"
)

type Error struct {
	Code    ErrorCode         `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// NewValidationError reports per-field failures; fields may be nil.
func NewValidationError(message string, fields map[string]string) *Error {
	return &Error{
		Code:    ErrorCodeInvalidBody,
		Message: message,
		Fields:  fields,
	}
}

func (e *Error) Error() string {
	return e.Message
}
