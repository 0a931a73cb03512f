// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess       = "success"
	KeyError         = "error"
	KeyInternalError = "internal_error"

	// Authentication
	KeyAuthRequired      = "auth.required"
	KeyAuthInvalidToken  = "auth.invalid_token"
	KeyAuthSessionIssued = "auth.session_issued"

	// Dreams
	KeyDreamCreated      = "dream.created"
	KeyDreamUpdated      = "dream.updated"
	KeyDreamDeleted      = "dream.deleted"
	KeyDreamNotFound     = "dream.not_found"
	KeyDreamNotCompleted = "dream.not_completed"
	KeyDreamProcessing   = "dream.processing"
	KeyDreamFailed       = "dream.failed"

	// Story registration
	KeyStoryRegistered        = "story.registered"
	KeyStoryMetadataPrepared  = "story.metadata_prepared"
	KeyStoryNotRegistered     = "story.not_registered"
	KeyStoryAlreadyRegistered = "story.already_registered"
	KeyStoryInfoFetched       = "story.info_fetched"

	// Licenses
	KeyLicenseAttached  = "license.attached"
	KeyLicenseMinted    = "license.minted"
	KeyLicensePurchased = "license.purchased"
	KeyLicenseNotFound  = "license.not_found"

	// Royalties
	KeyRoyaltyClaimed = "royalty.claimed"
	KeyRoyaltyFetched = "royalty.fetched"

	// Payments
	KeyPaymentCreated       = "payment.created"
	KeyPaymentFailed        = "payment.failed"
	KeyPaymentNotConfigured = "payment.not_configured"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"
)
