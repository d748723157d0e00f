package auth

import "fmt"

var (
	ErrInvalidToken         = fmt.Errorf("invalid token")
	ErrMissingSubject       = fmt.Errorf("token has no subject")
	ErrUnknownTokenType     = fmt.Errorf("unknown token type")
	ErrInvalidSigningMethod = fmt.Errorf("invalid signing method")
)
