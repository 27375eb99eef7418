package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

type ErrorType string

const (
	ErrorTypeNotFound        ErrorType = "NOT_FOUND"
	ErrorTypeIgnoredPath     ErrorType = "IGNORED_PATH"
	ErrorTypeNotTracked      ErrorType = "NOT_TRACKED"
	ErrorTypeNothingToCommit ErrorType = "NOTHING_TO_COMMIT"
	ErrorTypeUnknownBranch   ErrorType = "UNKNOWN_BRANCH"
	ErrorTypeBranchExists    ErrorType = "BRANCH_EXISTS"
	ErrorTypeDanglingHead    ErrorType = "DANGLING_HEAD"
	ErrorTypeCorruptObject   ErrorType = "CORRUPT_OBJECT"
	ErrorTypeMergeConflict   ErrorType = "MERGE_CONFLICT"
	ErrorTypeNoCommits       ErrorType = "NO_COMMITS"
	ErrorTypeInvalidRecord   ErrorType = "INVALID_RECORD"
	ErrorTypeValidation      ErrorType = "VALIDATION"
)

// Error is the domain error returned by every repository operation.
// Match it with errors.Is against the Err* sentinels below.
type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    int       `json:"code"`
	Details any       `json:"details,omitempty"`
	Err     error     `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a sentinel of the same type.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type && (t.Message == "" || t.Message == e.Message)
}

var (
	ErrNotFound        = &Error{Type: ErrorTypeNotFound}
	ErrIgnoredPath     = &Error{Type: ErrorTypeIgnoredPath}
	ErrNotTracked      = &Error{Type: ErrorTypeNotTracked}
	ErrNothingToCommit = &Error{Type: ErrorTypeNothingToCommit}
	ErrUnknownBranch   = &Error{Type: ErrorTypeUnknownBranch}
	ErrBranchExists    = &Error{Type: ErrorTypeBranchExists}
	ErrDanglingHead    = &Error{Type: ErrorTypeDanglingHead}
	ErrCorruptObject   = &Error{Type: ErrorTypeCorruptObject}
	ErrMergeConflict   = &Error{Type: ErrorTypeMergeConflict}
	ErrNoCommits       = &Error{Type: ErrorTypeNoCommits}
	ErrInvalidRecord   = &Error{Type: ErrorTypeInvalidRecord}
	ErrValidation      = &Error{Type: ErrorTypeValidation}
)

// Exit codes used by the command line.
const (
	CodeFailure  = 1
	CodeConflict = 2
)

func NotFound(path string) *Error {
	return &Error{
		Type:    ErrorTypeNotFound,
		Message: fmt.Sprintf("file not found: %s", path),
		Code:    CodeFailure,
		Details: path,
	}
}

func IgnoredPath(path string) *Error {
	return &Error{
		Type:    ErrorTypeIgnoredPath,
		Message: fmt.Sprintf("path %s is ignored and cannot be staged", path),
		Code:    CodeFailure,
		Details: path,
	}
}

func NotTracked(path string) *Error {
	return &Error{
		Type:    ErrorTypeNotTracked,
		Message: fmt.Sprintf("path %s is not tracked and cannot be deleted", path),
		Code:    CodeFailure,
		Details: path,
	}
}

func NothingToCommit() *Error {
	return &Error{
		Type:    ErrorTypeNothingToCommit,
		Message: "no changes to commit",
		Code:    CodeFailure,
	}
}

func UnknownBranch(name string) *Error {
	return &Error{
		Type:    ErrorTypeUnknownBranch,
		Message: fmt.Sprintf("branch %s does not exist", name),
		Code:    CodeFailure,
		Details: name,
	}
}

// BranchCycle reports a parent_branch chain that loops back on itself.
func BranchCycle(chain []string) *Error {
	return &Error{
		Type:    ErrorTypeUnknownBranch,
		Message: fmt.Sprintf("branch ancestry forms a cycle: %s", strings.Join(chain, " -> ")),
		Code:    CodeFailure,
		Details: chain,
	}
}

func BranchExists(name string) *Error {
	return &Error{
		Type:    ErrorTypeBranchExists,
		Message: fmt.Sprintf("branch %s already exists", name),
		Code:    CodeFailure,
		Details: name,
	}
}

func DanglingHead(branch, commitID string) *Error {
	return &Error{
		Type:    ErrorTypeDanglingHead,
		Message: fmt.Sprintf("head %s of branch %s is not in the commit graph", commitID, branch),
		Code:    CodeFailure,
		Details: commitID,
	}
}

func CorruptObject(hash string, err error) *Error {
	return &Error{
		Type:    ErrorTypeCorruptObject,
		Message: fmt.Sprintf("object %s is missing or corrupt", hash),
		Code:    CodeFailure,
		Details: hash,
		Err:     err,
	}
}

// MergeConflict carries the path -> reason map of an aborted merge.
func MergeConflict(conflicts map[string]string) *Error {
	paths := make([]string, 0, len(conflicts))
	for path := range conflicts {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	return &Error{
		Type:    ErrorTypeMergeConflict,
		Message: fmt.Sprintf("merge conflict in %d file(s): %s", len(paths), strings.Join(paths, ", ")),
		Code:    CodeConflict,
		Details: conflicts,
	}
}

func NoCommits(branch string) *Error {
	return &Error{
		Type:    ErrorTypeNoCommits,
		Message: fmt.Sprintf("branch %s has no commits", branch),
		Code:    CodeFailure,
		Details: branch,
	}
}

func InvalidRecord(kind string, err error) *Error {
	return &Error{
		Type:    ErrorTypeInvalidRecord,
		Message: fmt.Sprintf("invalid %s record", kind),
		Code:    CodeFailure,
		Err:     err,
	}
}

func ValidationError(message string, details any) *Error {
	return &Error{
		Type:    ErrorTypeValidation,
		Message: message,
		Code:    CodeFailure,
		Details: details,
	}
}

// ExitCode maps err to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var e *Error
	if stderrors.As(err, &e) && e.Code != 0 {
		return e.Code
	}
	return CodeFailure
}
