package models

import (
	"encoding/json"
	"errors"
	"strings"
)

type ArticleStatus string

const (
	ArticleStatusPending    ArticleStatus = "Pending"
	ArticleStatusInProgress ArticleStatus = "InProgress"
	ArticleStatusCompleted  ArticleStatus = "Completed"
)

func (s ArticleStatus) IsValid() bool {
	switch s {
	case ArticleStatusPending, ArticleStatusInProgress, ArticleStatusCompleted:
		return true
	}
	return false
}

type RepairStatus string

const (
	RepairStatusNone     RepairStatus = "None"
	RepairStatusPending  RepairStatus = "Pending"
	RepairStatusInRepair RepairStatus = "InRepair"
	RepairStatusRepaired RepairStatus = "Repaired"
)

// UnmarshalJSON accepts any casing; an empty string decodes to RepairStatusNone.
func (s *RepairStatus) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("repair status must be string")
	}
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "", "none":
		*s = RepairStatusNone
	case "pending":
		*s = RepairStatusPending
	case "inrepair", "in_repair", "in repair":
		*s = RepairStatusInRepair
	case "repaired":
		*s = RepairStatusRepaired
	default:
		return errors.New("invalid repair status")
	}
	return nil
}

// TransferKind classifies a ledger entry.
type TransferKind string

const (
	TransferKindProgress       TransferKind = "PROGRESS"
	TransferKindTransfer       TransferKind = "TRANSFER"
	TransferKindQuality        TransferKind = "QUALITY"
	TransferKindRepair         TransferKind = "REPAIR"
	TransferKindFloorAdvance   TransferKind = "FLOOR_ADVANCE"
	TransferKindProgressChange TransferKind = "PROGRESS_CHANGE"
	TransferKindCompleted      TransferKind = "COMPLETED"
)

// Outbox publish states for transfer_events fan-out.
const (
	OutboxPublishStatusPending    = "PENDING"
	OutboxPublishStatusProcessing = "PROCESSING"
	OutboxPublishStatusSent       = "SENT"
	OutboxPublishStatusFailed     = "FAILED"
	OutboxPublishStatusDead       = "DEAD"
)
