package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/straye-as/contact-distribution-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AgentNumberRepository owns the global agent number counter.
// The counter is a single row in agent_number_sequences; callers allocate
// inside the same transaction that inserts the agent so a rolled back
// insert also rolls back the increment.
type AgentNumberRepository struct {
	db *gorm.DB
}

// NewAgentNumberRepository creates a new AgentNumberRepository
func NewAgentNumberRepository(db *gorm.DB) *AgentNumberRepository {
	return &AgentNumberRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *AgentNumberRepository) WithTx(tx *gorm.DB) *AgentNumberRepository {
	return &AgentNumberRepository{db: tx}
}

// Next locks the counter row with SELECT ... FOR UPDATE, increments it and
// returns the new value. Must be called on a repository bound to a transaction.
func (r *AgentNumberRepository) Next(ctx context.Context) (int, error) {
	seq, err := r.lockCounter(ctx)
	if err != nil {
		return 0, err
	}

	next := seq.LastValue + 1
	if err := r.db.WithContext(ctx).Model(seq).Updates(map[string]interface{}{
		"last_value": next,
		"updated_at": time.Now(),
	}).Error; err != nil {
		return 0, fmt.Errorf("failed to update agent number sequence: %w", err)
	}
	return next, nil
}

// Current returns the last issued value without incrementing.
// Without a counter row it reports the highest agent number already issued.
func (r *AgentNumberRepository) Current(ctx context.Context) (int, error) {
	var seq domain.AgentNumberSequence
	result := r.db.WithContext(ctx).
		Where("name = ?", domain.AgentNumberSequenceName).
		First(&seq)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return r.highestIssued(ctx)
	}
	if result.Error != nil {
		return 0, fmt.Errorf("failed to get agent number sequence: %w", result.Error)
	}
	return seq.LastValue, nil
}

// Set moves the counter to value (the last used number; the next agent gets value+1).
// The counter never moves backwards; the effective value is returned.
func (r *AgentNumberRepository) Set(ctx context.Context, value int) (int, error) {
	effective := value
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seq, err := r.WithTx(tx).lockCounter(ctx)
		if err != nil {
			return err
		}
		if value <= seq.LastValue {
			effective = seq.LastValue
			return nil
		}
		return tx.Model(seq).Updates(map[string]interface{}{
			"last_value": value,
			"updated_at": time.Now(),
		}).Error
	})
	if err != nil {
		return 0, err
	}
	return effective, nil
}

// lockCounter returns the counter row locked for update. A missing row is
// inserted first, seeded from the highest agent number already issued. The
// insert ignores conflicts, so concurrent first allocations queue on the row
// lock instead of failing on the primary key.
func (r *AgentNumberRepository) lockCounter(ctx context.Context) (*domain.AgentNumberSequence, error) {
	seq, err := r.selectForUpdate(ctx)
	if err == nil {
		return seq, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to get agent number sequence: %w", err)
	}

	seed, err := r.highestIssued(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.ensureCounter(ctx, seed); err != nil {
		return nil, err
	}

	seq, err = r.selectForUpdate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get agent number sequence: %w", err)
	}
	return seq, nil
}

func (r *AgentNumberRepository) selectForUpdate(ctx context.Context) (*domain.AgentNumberSequence, error) {
	var seq domain.AgentNumberSequence
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("name = ?", domain.AgentNumberSequenceName).
		First(&seq).Error
	if err != nil {
		return nil, err
	}
	return &seq, nil
}

// ensureCounter inserts the counter row with lastValue unless it already exists
func (r *AgentNumberRepository) ensureCounter(ctx context.Context, lastValue int) error {
	now := time.Now()
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&domain.AgentNumberSequence{
			Name:      domain.AgentNumberSequenceName,
			LastValue: lastValue,
			CreatedAt: now,
			UpdatedAt: now,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to create agent number sequence: %w", err)
	}
	return nil
}

// highestIssued parses the trailing digits of every issued agent number and returns the maximum
func (r *AgentNumberRepository) highestIssued(ctx context.Context) (int, error) {
	numbers, err := NewPrincipalRepository(r.db).ListAgentNumbers(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list agent numbers: %w", err)
	}
	highest := 0
	for _, n := range numbers {
		if v, ok := domain.ParseAgentNumber(n); ok && v > highest {
			highest = v
		}
	}
	return highest, nil
}
