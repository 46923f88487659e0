package domain

import "github.com/google/uuid"

type UserID = uuid.UUID
type GroupID = uuid.UUID
type HostID = uuid.UUID
type PolicyID = uuid.UUID
type RuleID = uuid.UUID
