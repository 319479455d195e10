package domain

import "fmt"

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Error codes
const (
	ErrCodeNotFound              = "NOT_FOUND"
	ErrCodeValidation            = "VALIDATION_ERROR"
	ErrCodeQuotaExceeded         = "PUBLISH_QUOTA_EXCEEDED"
	ErrCodeUnauthorized          = "UNAUTHORIZED"
	ErrCodeForbidden             = "FORBIDDEN"
	ErrCodeInternal              = "INTERNAL_ERROR"
	ErrCodeConflict              = "CONFLICT"
	ErrCodeBadRequest            = "BAD_REQUEST"
	ErrCodeProviderNotConfigured = "PROVIDER_NOT_CONFIGURED"
	ErrCodeProviderRateLimited   = "PROVIDER_RATE_LIMITED"
	ErrCodeProviderQuota         = "PROVIDER_QUOTA_EXCEEDED"
	ErrCodeGenerationFailed      = "GENERATION_FAILED"
	ErrCodePublishFailed         = "PUBLISH_FAILED"
	ErrCodeSiteNotConfigured     = "SITE_NOT_CONFIGURED"
)

// Error constructors

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string) error {
	return &DomainError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewValidationError creates a new validation error
func NewValidationError(msg string) error {
	return &DomainError{
		Code:    ErrCodeValidation,
		Message: msg,
	}
}

// NewQuotaExceededError creates a new publish quota exceeded error
func NewQuotaExceededError(tier string, limit int) error {
	return &DomainError{
		Code:    ErrCodeQuotaExceeded,
		Message: fmt.Sprintf("Publish limit of %d reached for %s plan. Please upgrade your plan.", limit, tier),
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError() error {
	return &DomainError{
		Code:    ErrCodeUnauthorized,
		Message: "Authentication required",
	}
}

// NewForbiddenError creates a new forbidden error
func NewForbiddenError(msg string) error {
	return &DomainError{
		Code:    ErrCodeForbidden,
		Message: msg,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(err error) error {
	return &DomainError{
		Code:    ErrCodeInternal,
		Message: "An internal error occurred",
		Err:     err,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(msg string) error {
	return &DomainError{
		Code:    ErrCodeConflict,
		Message: msg,
	}
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(msg string) error {
	return &DomainError{
		Code:    ErrCodeBadRequest,
		Message: msg,
	}
}

// NewProviderNotConfiguredError indicates the content provider has no API key
func NewProviderNotConfiguredError(provider string) error {
	return &DomainError{
		Code:    ErrCodeProviderNotConfigured,
		Message: fmt.Sprintf("%s API key is not configured", provider),
	}
}

// NewProviderRateLimitedError indicates the upstream provider rejected the
// request due to rate limiting; the operation may succeed when retried later
func NewProviderRateLimitedError(err error) error {
	return &DomainError{
		Code:    ErrCodeProviderRateLimited,
		Message: "Content provider rate limit hit",
		Err:     err,
	}
}

// NewProviderQuotaError indicates the upstream provider account has no
// remaining credit
func NewProviderQuotaError(err error) error {
	return &DomainError{
		Code:    ErrCodeProviderQuota,
		Message: "Content provider quota exhausted",
		Err:     err,
	}
}

// NewGenerationFailedError wraps a failure while generating content
func NewGenerationFailedError(err error) error {
	return &DomainError{
		Code:    ErrCodeGenerationFailed,
		Message: "Content generation failed",
		Err:     err,
	}
}

// NewPublishFailedError wraps a failure while publishing to the target site
func NewPublishFailedError(err error) error {
	return &DomainError{
		Code:    ErrCodePublishFailed,
		Message: "Publishing to site failed",
		Err:     err,
	}
}

// NewSiteNotConfiguredError indicates a campaign points at a site that no
// longer exists or has incomplete credentials
func NewSiteNotConfiguredError(siteID int64) error {
	return &DomainError{
		Code:    ErrCodeSiteNotConfigured,
		Message: fmt.Sprintf("Site %d is missing or not configured", siteID),
	}
}

// Helper functions to check error types

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	if de, ok := err.(*DomainError); ok {
		return de.Code == ErrCodeNotFound
	}
	return false
}

// IsValidation checks if the error is a validation error
func IsValidation(err error) bool {
	if de, ok := err.(*DomainError); ok {
		return de.Code == ErrCodeValidation
	}
	return false
}

// IsQuotaExceeded checks if the error is a publish quota exceeded error
func IsQuotaExceeded(err error) bool {
	if de, ok := err.(*DomainError); ok {
		return de.Code == ErrCodeQuotaExceeded
	}
	return false
}

// IsUnauthorized checks if the error is an unauthorized error
func IsUnauthorized(err error) bool {
	if de, ok := err.(*DomainError); ok {
		return de.Code == ErrCodeUnauthorized
	}
	return false
}

// IsForbidden checks if the error is a forbidden error
func IsForbidden(err error) bool {
	if de, ok := err.(*DomainError); ok {
		return de.Code == ErrCodeForbidden
	}
	return false
}

// IsInternal checks if the error is an internal error
func IsInternal(err error) bool {
	if de, ok := err.(*DomainError); ok {
		return de.Code == ErrCodeInternal
	}
	return false
}

// IsConflict checks if the error is a conflict error
func IsConflict(err error) bool {
	if de, ok := err.(*DomainError); ok {
		return de.Code == ErrCodeConflict
	}
	return false
}

// IsBadRequest checks if the error is a bad request error
func IsBadRequest(err error) bool {
	if de, ok := err.(*DomainError); ok {
		return de.Code == ErrCodeBadRequest
	}
	return false
}

// IsProviderNotConfigured checks if the error is a provider configuration error
func IsProviderNotConfigured(err error) bool {
	if de, ok := err.(*DomainError); ok {
		return de.Code == ErrCodeProviderNotConfigured
	}
	return false
}

// IsProviderRateLimited checks if the error is a provider rate limit error
func IsProviderRateLimited(err error) bool {
	if de, ok := err.(*DomainError); ok {
		return de.Code == ErrCodeProviderRateLimited
	}
	return false
}

// IsProviderQuota checks if the error is a provider quota error
func IsProviderQuota(err error) bool {
	if de, ok := err.(*DomainError); ok {
		return de.Code == ErrCodeProviderQuota
	}
	return false
}

// IsPublishFailed checks if the error is a publish failure
func IsPublishFailed(err error) bool {
	if de, ok := err.(*DomainError); ok {
		return de.Code == ErrCodePublishFailed
	}
	return false
}

// IsSiteNotConfigured checks if the error is a site configuration error
func IsSiteNotConfigured(err error) bool {
	if de, ok := err.(*DomainError); ok {
		return de.Code == ErrCodeSiteNotConfigured
	}
	return false
}

// GetErrorCode extracts the error code from a domain error
func GetErrorCode(err error) string {
	if de, ok := err.(*DomainError); ok {
		return de.Code
	}
	return ErrCodeInternal
}
