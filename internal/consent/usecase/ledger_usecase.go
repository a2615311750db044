// Package usecase implements the consent ledger: recording and withdrawing
// consent, staleness checks, the bounded access log, data export,
// rectification and erasure.
package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pathshala/dataguard/internal/consent/domain"
	apperrors "github.com/pathshala/dataguard/internal/errors"
	"github.com/pathshala/dataguard/internal/store"
)

// DefaultMaxLogEntries bounds the access log; the oldest entries are dropped
// first once the bound is reached.
const DefaultMaxLogEntries = 100

// preferencePrefixes route exported keys into the preferences bucket.
var preferencePrefixes = []string{"pref_", "settings_"}

// internalSlots never appear in data exports.
var internalSlots = map[string]struct{}{
	"encryption_key": {},
	"key_created_at": {},
}

// Ledger manages the user's consent record on top of the key-value store.
// All writes are ordered so a crash mid-operation leaves the consent flag
// consistent with the detail slots already written.
type Ledger struct {
	store          store.Store
	logger         *slog.Logger
	validityMonths int
	policyVersion  string
	maxLogEntries  int
	now            func() time.Time
}

// NewLedger creates a Ledger. validityMonths <= 0 falls back to the default
// twelve month window and maxLogEntries <= 0 to DefaultMaxLogEntries.
func NewLedger(st store.Store, logger *slog.Logger, validityMonths int, policyVersion string, maxLogEntries int) *Ledger {
	if validityMonths <= 0 {
		validityMonths = domain.DefaultValidityMonths
	}
	if maxLogEntries <= 0 {
		maxLogEntries = DefaultMaxLogEntries
	}
	return &Ledger{
		store:          st,
		logger:         logger,
		validityMonths: validityMonths,
		policyVersion:  policyVersion,
		maxLogEntries:  maxLogEntries,
		now:            time.Now,
	}
}

// RecordConsent stores a consent decision under the active policy version.
// Minors without parental consent are rejected with ErrConsentRequired. The
// consent flag is written last so a partial write never looks like granted
// consent.
func (l *Ledger) RecordConsent(ctx context.Context, grants domain.Grants, isMinor, hasParentalConsent bool) error {
	if isMinor && !hasParentalConsent {
		return apperrors.Wrap(apperrors.ErrConsentRequired, "parental consent required for minors")
	}

	writes := []struct {
		slot  string
		value bool
	}{
		{domain.SlotDataProcessing, grants.DataProcessing},
		{domain.SlotAnalytics, grants.Analytics},
		{domain.SlotMarketing, grants.Marketing},
		{domain.SlotThirdPartyShare, grants.ThirdPartySharing},
		{domain.SlotAgeVerified, !isMinor},
		{domain.SlotParentalConsent, hasParentalConsent},
	}
	for _, w := range writes {
		if err := l.store.SetBool(ctx, w.slot, w.value); err != nil {
			return apperrors.Wrap(err, "failed to record consent grant")
		}
	}
	if err := l.store.SetString(ctx, domain.SlotPolicyVersion, l.policyVersion); err != nil {
		return apperrors.Wrap(err, "failed to record consent policy version")
	}
	if err := l.store.SetString(ctx, domain.SlotTimestamp, l.now().UTC().Format(time.RFC3339)); err != nil {
		return apperrors.Wrap(err, "failed to record consent timestamp")
	}
	if err := l.store.SetBool(ctx, domain.SlotGiven, true); err != nil {
		return apperrors.Wrap(err, "failed to record consent flag")
	}

	l.logger.Info("consent recorded",
		slog.String("policy_version", l.policyVersion),
		slog.Bool("minor", isMinor))
	return nil
}

// Status returns the current consent record. A user that never consented
// gets StateNoConsent; consent older than the validity window or given under
// a different policy version is StateStale.
func (l *Ledger) Status(ctx context.Context) (*domain.Record, error) {
	given, err := l.store.GetBool(ctx, domain.SlotGiven)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return &domain.Record{State: domain.StateNoConsent}, nil
		}
		return nil, apperrors.Wrap(err, "failed to read consent flag")
	}

	record := &domain.Record{
		Grants: domain.Grants{
			DataProcessing:    l.boolSlot(ctx, domain.SlotDataProcessing),
			Analytics:         l.boolSlot(ctx, domain.SlotAnalytics),
			Marketing:         l.boolSlot(ctx, domain.SlotMarketing),
			ThirdPartySharing: l.boolSlot(ctx, domain.SlotThirdPartyShare),
		},
		AgeVerified:     l.boolSlot(ctx, domain.SlotAgeVerified),
		ParentalConsent: l.boolSlot(ctx, domain.SlotParentalConsent),
	}
	if !given {
		record.State = domain.StateWithdrawn
		return record, nil
	}

	record.PolicyVersion, _ = l.store.GetString(ctx, domain.SlotPolicyVersion)

	raw, err := l.store.GetString(ctx, domain.SlotTimestamp)
	if err != nil {
		record.State = domain.StateStale
		return record, nil
	}
	givenAt, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		l.logger.Warn("unparseable consent timestamp, treating consent as stale",
			slog.String("value", raw))
		record.State = domain.StateStale
		return record, nil
	}
	record.GivenAt = givenAt

	expired := givenAt.AddDate(0, l.validityMonths, 0).Before(l.now())
	if expired || record.PolicyVersion != l.policyVersion {
		record.State = domain.StateStale
		return record, nil
	}
	record.State = domain.StateGranted
	return record, nil
}

// Withdraw revokes consent. Called with no purposes, or with
// PurposeDataProcessing among them, it withdraws consent entirely; otherwise
// only the named purposes are revoked and the consent record stays granted.
func (l *Ledger) Withdraw(ctx context.Context, purposes ...domain.Purpose) error {
	full := len(purposes) == 0
	for _, p := range purposes {
		if p == domain.PurposeDataProcessing {
			full = true
		}
	}

	if full {
		for _, slot := range []string{
			domain.SlotDataProcessing,
			domain.SlotAnalytics,
			domain.SlotMarketing,
			domain.SlotThirdPartyShare,
		} {
			if err := l.store.SetBool(ctx, slot, false); err != nil {
				return apperrors.Wrap(err, "failed to withdraw consent grant")
			}
		}
		if err := l.store.SetBool(ctx, domain.SlotGiven, false); err != nil {
			return apperrors.Wrap(err, "failed to withdraw consent")
		}
		l.logger.Info("consent withdrawn")
		return nil
	}

	for _, p := range purposes {
		slot, ok := purposeSlot(p)
		if !ok {
			return apperrors.Wrap(apperrors.ErrInvalidInput, "unknown consent purpose")
		}
		if err := l.store.SetBool(ctx, slot, false); err != nil {
			return apperrors.Wrap(err, "failed to withdraw consent grant")
		}
		l.logger.Info("consent purpose withdrawn", slog.String("purpose", string(p)))
	}
	return nil
}

// LogAccess appends an entry to the access log, evicting the oldest entries
// once the bound is reached.
func (l *Ledger) LogAccess(ctx context.Context, dataType, purpose, actor string) error {
	entry := domain.AccessLogEntry{
		ID:        uuid.NewString(),
		Timestamp: l.now().UTC(),
		DataType:  dataType,
		Purpose:   purpose,
		Actor:     actor,
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode access log entry")
	}

	lines, err := l.store.GetStringList(ctx, domain.SlotAccessLog)
	if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		return apperrors.Wrap(err, "failed to read access log")
	}
	lines = append(lines, string(line))
	if len(lines) > l.maxLogEntries {
		lines = lines[len(lines)-l.maxLogEntries:]
	}
	if err := l.store.SetStringList(ctx, domain.SlotAccessLog, lines); err != nil {
		return apperrors.Wrap(err, "failed to write access log")
	}
	return nil
}

// AccessLog returns the decoded access log, oldest entry first. Entries that
// fail to decode are skipped.
func (l *Ledger) AccessLog(ctx context.Context) ([]domain.AccessLogEntry, error) {
	lines, err := l.store.GetStringList(ctx, domain.SlotAccessLog)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(err, "failed to read access log")
	}

	entries := make([]domain.AccessLogEntry, 0, len(lines))
	for _, line := range lines {
		var entry domain.AccessLogEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			l.logger.Warn("skipping malformed access log entry")
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// PruneAccessLog drops entries older than the retention window and returns
// how many were removed. Malformed entries are dropped as well.
func (l *Ledger) PruneAccessLog(ctx context.Context, retention time.Duration) (int, error) {
	entries, err := l.AccessLog(ctx)
	if err != nil {
		return 0, err
	}
	lines, err := l.store.GetStringList(ctx, domain.SlotAccessLog)
	if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		return 0, apperrors.Wrap(err, "failed to read access log")
	}

	cutoff := l.now().Add(-retention)
	kept := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Timestamp.Before(cutoff) {
			continue
		}
		line, err := json.Marshal(entry)
		if err != nil {
			continue
		}
		kept = append(kept, string(line))
	}

	removed := len(lines) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := l.store.SetStringList(ctx, domain.SlotAccessLog, kept); err != nil {
		return 0, apperrors.Wrap(err, "failed to write pruned access log")
	}
	l.logger.Info("access log pruned", slog.Int("removed", removed))
	return removed, nil
}

// ExportAll bundles everything recorded about the user: consent history,
// preferences, remaining user data and the access log. Internal key material
// slots are excluded.
func (l *Ledger) ExportAll(ctx context.Context) (*domain.Export, error) {
	keys, err := l.store.Keys(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list stored keys")
	}

	export := &domain.Export{
		ExportID:       uuid.NewString(),
		FormatVersion:  domain.ExportFormatVersion,
		GeneratedAt:    l.now().UTC(),
		ConsentHistory: map[string]any{},
		Preferences:    map[string]any{},
		UserData:       map[string]any{},
	}

	for _, key := range keys {
		if _, internal := internalSlots[key]; internal {
			continue
		}
		if key == domain.SlotAccessLog {
			continue
		}
		value, err := l.readAny(ctx, key)
		if err != nil {
			l.logger.Warn("skipping unreadable key during export", slog.String("key", key))
			continue
		}
		switch {
		case isConsentSlot(key):
			export.ConsentHistory[key] = value
		case isPreferenceKey(key):
			export.Preferences[key] = value
		default:
			export.UserData[key] = value
		}
	}

	export.AccessLog, err = l.AccessLog(ctx)
	if err != nil {
		return nil, err
	}

	l.logger.Info("data export generated", slog.String("export_id", export.ExportID))
	return export, nil
}

// Rectify overwrites a single user data value. Consent bookkeeping slots are
// managed through the ledger's own operations and cannot be rectified.
func (l *Ledger) Rectify(ctx context.Context, key string, value any) error {
	if isConsentSlot(key) || key == domain.SlotAccessLog {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "consent slots cannot be rectified directly")
	}
	if _, internal := internalSlots[key]; internal {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "key material slots cannot be rectified")
	}

	var err error
	switch v := value.(type) {
	case string:
		err = l.store.SetString(ctx, key, v)
	case bool:
		err = l.store.SetBool(ctx, key, v)
	case int:
		err = l.store.SetInt(ctx, key, int64(v))
	case int64:
		err = l.store.SetInt(ctx, key, v)
	case float64:
		err = l.store.SetFloat(ctx, key, v)
	case []string:
		err = l.store.SetStringList(ctx, key, v)
	default:
		return apperrors.Wrap(apperrors.ErrInvalidInput, "unsupported value type for rectification")
	}
	if err != nil {
		return apperrors.Wrap(err, "failed to rectify value")
	}
	l.logger.Info("value rectified", slog.String("key", key))
	return nil
}

// EraseAll removes every stored value. Total and unrecoverable.
func (l *Ledger) EraseAll(ctx context.Context) error {
	if err := l.store.Clear(ctx); err != nil {
		return apperrors.Wrap(err, "failed to erase stored data")
	}
	l.logger.Info("all stored data erased")
	return nil
}

// boolSlot reads a boolean slot, defaulting to false on any error.
func (l *Ledger) boolSlot(ctx context.Context, slot string) bool {
	value, err := l.store.GetBool(ctx, slot)
	if err != nil {
		return false
	}
	return value
}

// readAny reads a key whose type is unknown by trying each typed getter.
// The store reports type mismatches as ErrInvalidInput.
func (l *Ledger) readAny(ctx context.Context, key string) (any, error) {
	if v, err := l.store.GetString(ctx, key); err == nil {
		return v, nil
	} else if !apperrors.Is(err, apperrors.ErrInvalidInput) {
		return nil, err
	}
	if v, err := l.store.GetBool(ctx, key); err == nil {
		return v, nil
	} else if !apperrors.Is(err, apperrors.ErrInvalidInput) {
		return nil, err
	}
	if v, err := l.store.GetInt(ctx, key); err == nil {
		return v, nil
	} else if !apperrors.Is(err, apperrors.ErrInvalidInput) {
		return nil, err
	}
	if v, err := l.store.GetFloat(ctx, key); err == nil {
		return v, nil
	} else if !apperrors.Is(err, apperrors.ErrInvalidInput) {
		return nil, err
	}
	return l.store.GetStringList(ctx, key)
}

func purposeSlot(p domain.Purpose) (string, bool) {
	switch p {
	case domain.PurposeDataProcessing:
		return domain.SlotDataProcessing, true
	case domain.PurposeAnalytics:
		return domain.SlotAnalytics, true
	case domain.PurposeMarketing:
		return domain.SlotMarketing, true
	case domain.PurposeThirdPartySharing:
		return domain.SlotThirdPartyShare, true
	default:
		return "", false
	}
}

func isConsentSlot(key string) bool {
	switch key {
	case domain.SlotGiven, domain.SlotTimestamp, domain.SlotPolicyVersion,
		domain.SlotDataProcessing, domain.SlotAnalytics, domain.SlotMarketing,
		domain.SlotThirdPartyShare, domain.SlotAgeVerified, domain.SlotParentalConsent:
		return true
	}
	return false
}

func isPreferenceKey(key string) bool {
	for _, prefix := range preferencePrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}
