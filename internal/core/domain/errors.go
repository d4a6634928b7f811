package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrFileNotFound     = errors.New("file not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnsupportedType  = errors.New("unsupported file type")
	ErrServer           = errors.New("server error")
	ErrTemporary        = errors.New("temporary failure")
	ErrUploadInProgress = errors.New("upload already in progress")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// UserMessage is implemented by errors that carry text meant for the end user,
// typically the message field of a server error body.
type UserMessage interface {
	UserMessage() string
}

// Message returns the human-readable text for err: the innermost user-facing
// message when one is present, otherwise the error string itself.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var um UserMessage
	if errors.As(err, &um) {
		if msg := strings.TrimSpace(um.UserMessage()); msg != "" {
			return msg
		}
	}
	return err.Error()
}

type userError struct {
	msg string
}

func (e userError) Error() string       { return e.msg }
func (e userError) UserMessage() string { return e.msg }

// UserError builds an error whose text is shown to the user as is.
func UserError(msg string) error {
	return userError{msg: msg}
}
