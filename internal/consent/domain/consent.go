// Package domain defines consent records, access log entries and the store
// slots they occupy.
package domain

import (
	"time"
)

// Store slots managed by the consent ledger. Callers must not write these
// slots directly.
const (
	SlotGiven           = "consent_given"
	SlotTimestamp       = "consent_timestamp"
	SlotPolicyVersion   = "consent_policy_version"
	SlotDataProcessing  = "consent_data_processing"
	SlotAnalytics       = "consent_analytics"
	SlotMarketing       = "consent_marketing"
	SlotThirdPartyShare = "consent_third_party_sharing"
	SlotAgeVerified     = "age_verified"
	SlotParentalConsent = "parental_consent"
	SlotAccessLog       = "access_log"
)

// DefaultValidityMonths is how long a recorded consent stays valid before it
// needs renewal.
const DefaultValidityMonths = 12

// ExportFormatVersion tags exported data bundles.
const ExportFormatVersion = "1.0"

// State describes where a user stands in the consent lifecycle.
type State string

const (
	// StateNoConsent means consent was never recorded.
	StateNoConsent State = "no_consent"
	// StateGranted means consent is recorded, current and matching the
	// active policy version.
	StateGranted State = "granted"
	// StateStale means consent exists but is older than the validity
	// window or was given under a different policy version.
	StateStale State = "stale"
	// StateWithdrawn means consent was recorded and later withdrawn.
	StateWithdrawn State = "withdrawn"
)

// Purpose identifies an individually grantable processing purpose.
type Purpose string

const (
	PurposeDataProcessing    Purpose = "data_processing"
	PurposeAnalytics         Purpose = "analytics"
	PurposeMarketing         Purpose = "marketing"
	PurposeThirdPartySharing Purpose = "third_party_sharing"
)

// Grants captures per purpose choices made at consent time.
type Grants struct {
	DataProcessing    bool `json:"data_processing"`
	Analytics         bool `json:"analytics"`
	Marketing         bool `json:"marketing"`
	ThirdPartySharing bool `json:"third_party_sharing"`
}

// Record is the stored consent decision.
type Record struct {
	State           State     `json:"state"`
	Grants          Grants    `json:"grants"`
	GivenAt         time.Time `json:"given_at"`
	PolicyVersion   string    `json:"policy_version"`
	AgeVerified     bool      `json:"age_verified"`
	ParentalConsent bool      `json:"parental_consent"`
}

// IsValid reports whether the record authorizes data processing right now.
func (r *Record) IsValid() bool {
	return r.State == StateGranted && r.Grants.DataProcessing
}

// NeedsRenewal reports whether the user should be asked for consent again.
func (r *Record) NeedsRenewal() bool {
	return r.State == StateStale || r.State == StateNoConsent
}

// AccessLogEntry records one access to user data, kept in a bounded
// first-in-first-out log.
type AccessLogEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	DataType  string    `json:"data_type"`
	Purpose   string    `json:"purpose"`
	Actor     string    `json:"actor"`
}

// Export is a portable bundle of everything recorded about the user.
type Export struct {
	ExportID       string           `json:"export_id"`
	FormatVersion  string           `json:"format_version"`
	GeneratedAt    time.Time        `json:"generated_at"`
	ConsentHistory map[string]any   `json:"consent_history"`
	Preferences    map[string]any   `json:"preferences"`
	UserData       map[string]any   `json:"user_data"`
	AccessLog      []AccessLogEntry `json:"access_log"`
}
