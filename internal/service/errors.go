package service

import "errors"

// Domain errors. Handlers map these to response codes with errors.Is.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")

	ErrModuleNotFound       = errors.New("module not found")
	ErrPremiumRequired      = errors.New("module requires an active premium subscription")
	ErrQuestionNotFound     = errors.New("question not found")
	ErrQuestionsUnavailable = errors.New("questions could not be fetched")
	ErrOptionMismatch       = errors.New("option does not belong to question")

	ErrSessionNotFound = errors.New("study session not found")
	ErrAlreadyAnswered = errors.New("question already answered in this session")

	ErrRunNotFound = errors.New("practice run not found")
	ErrRunBusy     = errors.New("practice run modified concurrently")

	ErrBillingDisabled = errors.New("billing is not configured")
	ErrPlanNotFound    = errors.New("plan not found")
	ErrPaymentProvider = errors.New("payment provider request failed")
)

// ErrInvalidQuestionBank is returned by imports whose questions are malformed.
var ErrInvalidQuestionBank = errors.New("invalid question bank")
