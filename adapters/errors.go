package adapters

import (
	"context"
	"errors"
	"fmt"

	"wing-sales-extractor/utils"
)

// LoginErrorKind classifies why a login attempt failed
type LoginErrorKind int

const (
	// LoginNavigation means the landing page could not be loaded
	LoginNavigation LoginErrorKind = iota
	// LoginTimeout means an expected element did not appear in time
	LoginTimeout
	// LoginElementNotFound means a form control could not be interacted with
	LoginElementNotFound
)

func (k LoginErrorKind) String() string {
	switch k {
	case LoginNavigation:
		return "navigation"
	case LoginTimeout:
		return "timeout"
	case LoginElementNotFound:
		return "element_not_found"
	}
	return "unknown"
}

// LoginError is returned by WingAdapter.Login
type LoginError struct {
	Kind LoginErrorKind
	Step string
	Err  error
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("login failed (%s) at %s: %v", e.Kind, e.Step, e.Err)
}

func (e *LoginError) Unwrap() error {
	return e.Err
}

func classifyLoginError(step string, fallback LoginErrorKind, err error) *LoginError {
	kind := fallback
	switch {
	case errors.Is(err, utils.ErrElementNotFound):
		kind = LoginElementNotFound
	case errors.Is(err, context.DeadlineExceeded):
		kind = LoginTimeout
	}
	return &LoginError{Kind: kind, Step: step, Err: err}
}

// LoginErrorLabel returns the kind label of a login error, or "other"
func LoginErrorLabel(err error) string {
	var loginErr *LoginError
	if errors.As(err, &loginErr) {
		return loginErr.Kind.String()
	}
	return "other"
}
