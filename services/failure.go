package services

// FailureReason - машиночитаемый код отказа бизнес-правила.
type FailureReason string

const (
	ReasonAlreadyApplied      FailureReason = "already_applied"
	ReasonListingNotFound     FailureReason = "listing_not_found"
	ReasonAlreadyStarted      FailureReason = "already_started"
	ReasonCapacityFull        FailureReason = "capacity_full"
	ReasonParticipantNotFound FailureReason = "participant_not_found"
	ReasonOwnListing          FailureReason = "own_listing"
	ReasonProfileIncomplete   FailureReason = "profile_incomplete"
)

// Failure is an expected rejection of an engine operation.
// Its message is safe to show to the end user as is.
type Failure struct {
	Reason  FailureReason
	Message string
}

func (f *Failure) Error() string {
	return f.Message
}

// Is matches any Failure with the same reason, so wrapped copies still compare equal.
func (f *Failure) Is(target error) bool {
	t, ok := target.(*Failure)
	return ok && t.Reason == f.Reason
}

var (
	ErrAlreadyApplied          = &Failure{Reason: ReasonAlreadyApplied, Message: "you have already applied to this game"}
	ErrListingNotFound         = &Failure{Reason: ReasonListingNotFound, Message: "game listing not found"}
	ErrAlreadyStarted          = &Failure{Reason: ReasonAlreadyStarted, Message: "this game has already started"}
	ErrCapacityFull            = &Failure{Reason: ReasonCapacityFull, Message: "this game is already full"}
	ErrApplicationNotFound     = &Failure{Reason: ReasonParticipantNotFound, Message: "participant not found"}
	ErrCannotApplyToOwnListing = &Failure{Reason: ReasonOwnListing, Message: "you cannot apply to your own game"}
	ErrProfileIncomplete       = &Failure{Reason: ReasonProfileIncomplete, Message: "complete your profile before applying"}
)
