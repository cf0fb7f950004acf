package mail

import (
	"errors"
	"fmt"
	"strings"
)

// AuthError indicates that connecting to or authenticating with the IMAP
// server failed. It is fatal for the whole operation and is not retried.
type AuthError struct {
	Account string
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.Account, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// FolderNotFoundError is returned when none of the drafts-folder resolution
// strategies succeeded. Attempted lists every mailbox name that was tried.
type FolderNotFoundError struct {
	Attempted []string
}

func (e *FolderNotFoundError) Error() string {
	return fmt.Sprintf(
		"drafts folder not found (tried %s)",
		strings.Join(e.Attempted, ", "),
	)
}

// IsFolderNotFound reports whether err is a FolderNotFoundError.
func IsFolderNotFound(err error) bool {
	var folderErr *FolderNotFoundError
	return errors.As(err, &folderErr)
}
