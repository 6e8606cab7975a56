package readinglists

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies a caller-recoverable repository failure. The API layer
// translates kinds to user-facing responses; the string values are stable
// and machine-readable.
type Kind string

const (
	KindUserRequired            Kind = "user-required"
	KindNotSetUp                Kind = "not-set-up"
	KindAlreadySetUp            Kind = "already-set-up"
	KindNoSuchList              Kind = "no-such-list"
	KindNoSuchEntry             Kind = "no-such-entry"
	KindNoSuchProject           Kind = "no-such-project"
	KindNotOwnList              Kind = "not-own-list"
	KindNotOwnEntry             Kind = "not-own-entry"
	KindListDeleted             Kind = "list-deleted"
	KindEntryDeleted            Kind = "entry-deleted"
	KindCannotUpdateDefaultList Kind = "cannot-update-default-list"
	KindCannotDeleteDefaultList Kind = "cannot-delete-default-list"
	KindDuplicateList           Kind = "duplicate-list"
	KindEmptyName               Kind = "empty-list-name"
	KindTooLong                 Kind = "too-long"
	KindListLimit               Kind = "list-limit"
	KindEntryLimit              Kind = "entry-limit"
	KindEmptyListIds            Kind = "empty-list-ids"
	KindEmptyOrder              Kind = "empty-order"
	KindDuplicateOrder          Kind = "duplicate-order"
	KindMissingList             Kind = "missing-list"
	KindMissingEntry            Kind = "missing-entry"
	KindTooOld                  Kind = "too-old"
)

// Error is an expected repository failure. Params carry the offending
// identifiers (ids, field names, limits) so callers can build localized
// messages without parsing the error string.
type Error struct {
	Kind   Kind
	Params []any
}

func (e *Error) Error() string {
	if len(e.Params) == 0 {
		return string(e.Kind)
	}
	parts := make([]string, len(e.Params))
	for i, p := range e.Params {
		parts[i] = fmt.Sprint(p)
	}
	return fmt.Sprintf("%s: %s", e.Kind, strings.Join(parts, ", "))
}

// NewError builds a repository Error. Exposed so collaborators (the
// project registry, the API layer) can speak the same taxonomy.
func NewError(kind Kind, params ...any) *Error {
	return &Error{Kind: kind, Params: params}
}

// HasKind reports whether err is a repository Error of the given kind.
func HasKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// ErrBadCursor indicates a continuation token that this codec did not
// produce (or one produced for a different sort).
var ErrBadCursor = errors.New("malformed continuation token")
