package access

import (
	"errors"
	"fmt"
)

var (
	ErrNotAMember              = errors.New("not a member")
	ErrAlreadyMember           = errors.New("user is already a member")
	ErrPermissionDenied        = errors.New("permission denied")
	ErrFeatureNotAvailable     = errors.New("feature not available")
	ErrLastOwnerProtected      = errors.New("the last owner cannot be removed or demoted")
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
)

// FeatureError is ErrFeatureNotAvailable for a specific feature. Kind tells
// whether the organization plan or the instance license lacks it.
type FeatureError struct {
	Feature Feature
	Kind    EntitlementKind
}

func (e *FeatureError) Error() string {
	return fmt.Sprintf("%s: %s", e.Feature, ErrFeatureNotAvailable)
}

func (e *FeatureError) Unwrap() error {
	return ErrFeatureNotAvailable
}

// Reason is the stable machine-readable code reported to clients.
type Reason string

const (
	ReasonNotAMember              Reason = "NOT_A_MEMBER"
	ReasonAlreadyMember           Reason = "ALREADY_MEMBER"
	ReasonPermissionDenied        Reason = "PERMISSION_DENIED"
	ReasonFeatureNotAvailable     Reason = "FEATURE_NOT_AVAILABLE"
	ReasonLastOwnerProtected      Reason = "LAST_OWNER_PROTECTED"
	ReasonCollaboratorUnavailable Reason = "COLLABORATOR_UNAVAILABLE"
	ReasonUnknownRole             Reason = "UNKNOWN_ROLE"
)

var reasons = []struct {
	err    error
	reason Reason
}{
	{ErrNotAMember, ReasonNotAMember},
	{ErrAlreadyMember, ReasonAlreadyMember},
	{ErrPermissionDenied, ReasonPermissionDenied},
	{ErrFeatureNotAvailable, ReasonFeatureNotAvailable},
	{ErrLastOwnerProtected, ReasonLastOwnerProtected},
	{ErrCollaboratorUnavailable, ReasonCollaboratorUnavailable},
	{ErrUnknownRole, ReasonUnknownRole},
}

// ReasonOf maps an error returned by this package to its Reason.
func ReasonOf(err error) (Reason, bool) {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.reason, true
		}
	}
	return "", false
}

// IsDecision reports whether err is an access decision rather than a fault.
func IsDecision(err error) bool {
	reason, ok := ReasonOf(err)
	return ok && reason != ReasonCollaboratorUnavailable
}

// Unavailable wraps a collaborator failure so that it
// matches ErrCollaboratorUnavailable.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrCollaboratorUnavailable, err)
}
