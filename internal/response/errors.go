package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrEmailTaken         ErrCode = "EMAIL_TAKEN"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden       ErrCode = "FORBIDDEN"
	ErrPremiumRequired ErrCode = "PREMIUM_REQUIRED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound       ErrCode = "NOT_FOUND"
	ErrModuleNotFound ErrCode = "MODULE_NOT_FOUND"
	ErrConflict       ErrCode = "CONFLICT"

	// ─── Practice ──────────────────────────────────────────────────────
	ErrQuestionsUnavailable ErrCode = "QUESTIONS_UNAVAILABLE"
	ErrNoQuestions          ErrCode = "NO_QUESTIONS"
	ErrRunNotFound          ErrCode = "PRACTICE_RUN_NOT_FOUND"
	ErrRunBusy              ErrCode = "PRACTICE_RUN_BUSY"
	ErrOptionOutOfRange     ErrCode = "OPTION_OUT_OF_RANGE"
	ErrOptionMismatch       ErrCode = "OPTION_NOT_IN_QUESTION"
	ErrAlreadyAnswered      ErrCode = "ALREADY_ANSWERED"
	ErrNoIncorrectAnswers   ErrCode = "NO_INCORRECT_ANSWERS"
	ErrRestartNotConfirmed  ErrCode = "RESTART_NOT_CONFIRMED"

	// ─── Billing ───────────────────────────────────────────────────────
	ErrBillingDisabled  ErrCode = "BILLING_DISABLED"
	ErrPlanNotFound     ErrCode = "PLAN_NOT_FOUND"
	ErrPaymentProvider  ErrCode = "PAYMENT_PROVIDER_ERROR"
	ErrInvalidSignature ErrCode = "INVALID_SIGNATURE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Incorrect email or password."
	case ErrSessionInvalidated:
		return "Your session has ended. Please sign in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid or has expired."
	case ErrEmailTaken:
		return "An account with this email already exists."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have access to this resource."
	case ErrPremiumRequired:
		return "This module is part of the premium plan. Upgrade to unlock it."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrModuleNotFound:
		return "Module not found."
	case ErrConflict:
		return "Resource already exists."

	// ─── Practice ──────────────────────────────────────────────────────
	case ErrQuestionsUnavailable:
		return "Questions could not be loaded. Please try again."
	case ErrNoQuestions:
		return "There are no questions available for this selection."
	case ErrRunNotFound:
		return "Practice run not found or expired."
	case ErrRunBusy:
		return "The practice run is being updated elsewhere. Please retry."
	case ErrOptionOutOfRange:
		return "The selected option does not exist."
	case ErrOptionMismatch:
		return "The selected option does not belong to this question."
	case ErrAlreadyAnswered:
		return "This question was already answered in this session."
	case ErrNoIncorrectAnswers:
		return "No incorrect answers to review."
	case ErrRestartNotConfirmed:
		return "Restarting discards your progress. Confirm to continue."

	// ─── Billing ───────────────────────────────────────────────────────
	case ErrBillingDisabled:
		return "Payments are not available right now."
	case ErrPlanNotFound:
		return "Plan not found."
	case ErrPaymentProvider:
		return "The payment provider could not process the request."
	case ErrInvalidSignature:
		return "Webhook signature verification failed."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
