package interview

import (
	"errors"
	"fmt"
)

// Kind classifies an orchestrator failure. Kinds are stable strings that
// transports map to status codes.
type Kind string

const (
	KindValidation         Kind = "validation"
	KindNotFound           Kind = "not_found"
	KindForbidden          Kind = "forbidden"
	KindInvalidTransition  Kind = "invalid_transition"
	KindExternalService    Kind = "external_service_failure"
	KindConcurrency        Kind = "concurrency_conflict"
	KindUnsupportedAudio   Kind = "unsupported_audio_format"
	KindInvalidEvaluation  Kind = "invalid_evaluation_shape"
	KindQuestionGeneration Kind = "question_generation_failed"
	KindNoActiveQuestion   Kind = "no_active_question"
	KindNoAnswersYet       Kind = "no_answers_yet"
	KindInterviewComplete  Kind = "interview_complete"
)

// Parent returns the broader kind k specializes, or "" for root kinds.
func (k Kind) Parent() Kind {
	switch k {
	case KindInvalidEvaluation, KindQuestionGeneration:
		return KindExternalService
	case KindNoActiveQuestion, KindNoAnswersYet, KindInterviewComplete:
		return KindInvalidTransition
	case KindUnsupportedAudio:
		return KindValidation
	}
	return ""
}

// Within reports whether k is target or one of its specializations.
func (k Kind) Within(target Kind) bool {
	for cur := k; cur != ""; cur = cur.Parent() {
		if cur == target {
			return true
		}
	}
	return false
}

// IsExternal reports whether k blames a collaborator rather than the caller.
func IsExternal(k Kind) bool {
	return k.Within(KindExternalService)
}

// Error is the error type returned by every orchestrator operation.
// Message is safe to show to end users; Err holds the internal cause.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind hierarchy, so
// errors.Is(err, &Error{Kind: KindExternalService}) holds for subtypes.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || t.Op != "" || t.Message != "" {
		return false
	}
	return e.Kind.Within(t.Kind)
}

func newError(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

func errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// ValidationError reports caller input problems with per-field detail.
func ValidationError(op string, fields map[string]string) *Error {
	return &Error{
		Kind:    KindValidation,
		Op:      op,
		Message: "invalid input",
		Fields:  fields,
	}
}

// KindOf returns the most specific Kind carried by err, or "" if err is
// not an orchestrator error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries kind or a specialization of it.
func IsKind(err error, kind Kind) bool {
	return KindOf(err).Within(kind)
}
