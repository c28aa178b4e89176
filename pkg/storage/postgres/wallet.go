package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// preferencesMaxLength bounds a stored preference document, in bytes of JSON.
const preferencesMaxLength = 100000

var handlePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{4,12}$`)

// Preferences returns the stored preference document for a wallet, or nil if
// none exists. Reads refresh the record's last-touched time.
func (p *PostgresClient) Preferences(ctx context.Context, walletID string) (*PreferenceRecord, error) {
	var record PreferenceRecord
	err := p.DB.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	err = p.DB.WithContext(ctx).
		Model(&PreferenceRecord{}).
		Where("id = ?", record.ID).
		Update("last_touched", time.Now().UTC()).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// StorePreferences upserts a wallet's preference document. The payload must
// be a JSON object and fit the size bound.
func (p *PostgresClient) StorePreferences(ctx context.Context, walletID string, preferences map[string]any) error {
	payload, err := json.Marshal(preferences)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	if len(payload) >= preferencesMaxLength {
		return fmt.Errorf("preferences object is too big: %d bytes", len(payload))
	}

	now := time.Now().UTC()
	record := PreferenceRecord{
		WalletID:    walletID,
		Preferences: datatypes.JSON(payload),
		LastUpdated: now,
		LastTouched: now,
	}
	return p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wallet_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"preferences", "last_updated", "last_touched"}),
	}).Create(&record).Error
}

// ChatHandle returns the stored chat handle for a wallet, or nil if none
// exists. Reads refresh the record's last-touched time.
func (p *PostgresClient) ChatHandle(ctx context.Context, walletID string) (*ChatHandleRecord, error) {
	var record ChatHandleRecord
	err := p.DB.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	err = p.DB.WithContext(ctx).
		Model(&ChatHandleRecord{}).
		Where("id = ?", record.ID).
		Update("last_touched", time.Now().UTC()).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// StoreChatHandle upserts a wallet's chat handle after validating its syntax.
func (p *PostgresClient) StoreChatHandle(ctx context.Context, walletID, handle string) error {
	if !handlePattern.MatchString(handle) {
		return fmt.Errorf("invalid chat handle: bad syntax/length")
	}

	now := time.Now().UTC()
	record := ChatHandleRecord{
		WalletID:    walletID,
		Handle:      handle,
		LastUpdated: now,
		LastTouched: now,
	}
	return p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wallet_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"handle", "last_updated", "last_touched"}),
	}).Create(&record).Error
}
