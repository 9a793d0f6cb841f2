package auth

import "errors"

// ErrInvalidCredentials is returned for every failed login attempt. The same
// value covers unknown usernames and wrong credentials so a caller cannot
// probe which field was wrong.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")
