package postgres

import (
	"context"
	"fmt"
	"time"
)

// BlockTime resolves a processed block index to its block time.
func (p *PostgresClient) BlockTime(ctx context.Context, blockIndex int64) (time.Time, error) {
	var record BlockRecord
	err := p.DB.WithContext(ctx).
		Where("block_index = ?", blockIndex).
		First(&record).Error
	if err != nil {
		return time.Time{}, fmt.Errorf("block %d: %w", blockIndex, err)
	}
	return record.BlockTime, nil
}

// BlockRangeForDates returns the (startBlock, endBlock) pair enclosing the
// given time range: the newest processed block at or before start, and the
// oldest at or after end (or the chain tip when none exists yet).
func (p *PostgresClient) BlockRangeForDates(ctx context.Context, start, end time.Time) (int64, int64, error) {
	var startBlock BlockRecord
	err := p.DB.WithContext(ctx).
		Where("block_time <= ?", start).
		Order("block_time DESC").
		Limit(1).
		Find(&startBlock).Error
	if err != nil {
		return 0, 0, err
	}

	var endBlock BlockRecord
	err = p.DB.WithContext(ctx).
		Where("block_time >= ?", end).
		Order("block_time ASC").
		Limit(1).
		Find(&endBlock).Error
	if err != nil {
		return 0, 0, err
	}
	if endBlock.BlockIndex == 0 {
		err = p.DB.WithContext(ctx).
			Order("block_index DESC").
			Limit(1).
			Find(&endBlock).Error
		if err != nil {
			return 0, 0, err
		}
	}

	return startBlock.BlockIndex, endBlock.BlockIndex, nil
}

// InsertBlock records a processed block's time.
func (p *PostgresClient) InsertBlock(ctx context.Context, record *BlockRecord) error {
	return p.DB.WithContext(ctx).Create(record).Error
}
