// Package businessflow contains the core business logic for photo moderation, ownership, tagging and roles
package businessflow

import (
	"errors"
	"fmt"
)

// Error codes
const (
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidOperation   = "INVALID_OPERATION"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeValidation         = "VALIDATION_ERROR"
	CodeConflict           = "CONFLICT"
	CodeDependencyFailure  = "DEPENDENCY_FAILURE"
	CodePersistenceFailure = "PERSISTENCE_FAILURE"
)

// Sentinels matched by errors.Is against a BusinessError of the same kind
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidOperation   = errors.New("invalid operation")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("conflict")
	ErrDependencyFailure  = errors.New("dependency failure")
	ErrPersistenceFailure = errors.New("persistence failure")
)

var sentinelByCode = map[string]error{
	CodeNotFound:           ErrNotFound,
	CodeInvalidOperation:   ErrInvalidOperation,
	CodeUnauthorized:       ErrUnauthorized,
	CodeValidation:         ErrValidation,
	CodeConflict:           ErrConflict,
	CodeDependencyFailure:  ErrDependencyFailure,
	CodePersistenceFailure: ErrPersistenceFailure,
}

// User facing messages
const (
	MsgPhotoNotFound         = "Photo not found."
	MsgUserNotFound          = "User not found."
	MsgApproveFailed         = "Problem approving photo."
	MsgCannotReject          = "This photo cannot be rejected."
	MsgRejectFailed          = "Problem rejecting photo."
	MsgCannotSetMain         = "Cannot set this photo as main."
	MsgSetMainFailed         = "Problem setting main photo."
	MsgCannotDelete          = "Cannot delete this photo."
	MsgNotPhotoOwner         = "You cannot delete photos that do not belong to you."
	MsgDeleteFailed          = "Error deleting photo."
	MsgUploadFailed          = "Problem adding photo."
	MsgRolesRequired         = "You must select at least one role."
	MsgAddRolesFailed        = "Failed to add roles"
	MsgRemoveRolesFailed     = "Failed to remove roles"
	MsgUsernameRequired      = "Username is required."
	MsgTagNamesRequired      = "At least one tag name is required."
	MsgTagNameRequired       = "Tag name is required."
	MsgTagExists             = "Tag already exists."
	MsgTagNotFound           = "Tag not found."
	MsgAssignTagsFailed      = "Problem assigning tags."
	MsgNoStats               = "No photo stats found."
	MsgNoUsersWithoutMain    = "No users without main photo found."
	MsgCannotLikeSelf        = "You cannot like yourself!"
	MsgLikeFailed            = "Failed to update like."
	MsgCannotMessageSelf     = "You cannot message yourself!"
	MsgMessagePartyNotFound  = "Sender or recipient not found."
	MsgMessageSaveFailed     = "Failed to save message."
	MsgMessageNotFound       = "Message not found."
	MsgMessageNotAuthorized  = "You are not authorized to delete this message."
	MsgMessageDeleteFailed   = "Problem deleting the message."
	MsgMediaStoreUnavailable = "Photo storage is unavailable."
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrNotFound) true for any NOT_FOUND business error
func (e *BusinessError) Is(target error) bool {
	sentinel, ok := sentinelByCode[e.Code]
	return ok && sentinel == target
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NotFound(message string) *BusinessError {
	return NewBusinessError(CodeNotFound, message, nil)
}

func InvalidOperation(message string) *BusinessError {
	return NewBusinessError(CodeInvalidOperation, message, nil)
}

func Unauthorized(message string) *BusinessError {
	return NewBusinessError(CodeUnauthorized, message, nil)
}

func Validation(message string) *BusinessError {
	return NewBusinessError(CodeValidation, message, nil)
}

func Conflict(message string) *BusinessError {
	return NewBusinessError(CodeConflict, message, nil)
}

func DependencyFailure(message string, err error) *BusinessError {
	return NewBusinessError(CodeDependencyFailure, message, err)
}

func PersistenceFailure(message string, err error) *BusinessError {
	return NewBusinessError(CodePersistenceFailure, message, err)
}

// AsBusinessError extracts the business error from err's chain
func AsBusinessError(err error) (*BusinessError, bool) {
	var be *BusinessError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func IsDependencyFailure(err error) bool {
	return errors.Is(err, ErrDependencyFailure)
}

func IsPersistenceFailure(err error) bool {
	return errors.Is(err, ErrPersistenceFailure)
}
