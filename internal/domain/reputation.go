package domain

import "time"

// PointsPerLevel is the number of reputation points per level.
const PointsPerLevel = 1000

// ClampPoints clamps a point total to be non-negative. Entries may propose
// negative totals (REVOKE, REVERSAL) but the stored snapshot never displays
// below zero.
func ClampPoints(points int64) int64 {
	if points < 0 {
		return 0
	}
	return points
}

// LevelForPoints derives the level from a point total: floor(points / 1000).
func LevelForPoints(points int64) int {
	return int(ClampPoints(points) / PointsPerLevel)
}

// ReputationProfile is the cached point snapshot for a single user.
// Created lazily on first access, like wallets.
type ReputationProfile struct {
	UserID    string
	Points    int64
	UpdatedAt time.Time
}

// Level returns the derived reputation level.
func (p *ReputationProfile) Level() int {
	return LevelForPoints(p.Points)
}

// ReputationEntryType classifies a reputation entry.
type ReputationEntryType string

const (
	ReputationEarn       ReputationEntryType = "EARN"
	ReputationRevoke     ReputationEntryType = "REVOKE"
	ReputationReversal   ReputationEntryType = "REVERSAL"
	ReputationAdjustment ReputationEntryType = "ADJUSTMENT"
)

// IsValid checks if the type is one of the allowed values.
func (t ReputationEntryType) IsValid() bool {
	switch t {
	case ReputationEarn, ReputationRevoke, ReputationReversal, ReputationAdjustment:
		return true
	default:
		return false
	}
}

// ReputationEntry is an immutable, append-only record of a signed point
// movement. Same idempotency contract as LedgerEntry: ReferenceID is unique.
type ReputationEntry struct {
	ID          string
	UserID      string
	DeltaPoints int64
	Type        ReputationEntryType
	ReferenceID string
	Description *string
	Metadata    map[string]any
	CreatedAt   time.Time
}
