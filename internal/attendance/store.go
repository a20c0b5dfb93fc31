// Package attendance holds the per-user attendance state: user records and
// the manual attendance blocks that keep the bot from answering a user while
// a human operator is handling the conversation.
package attendance

import (
	"sort"
	"sync"
	"time"

	"github.com/xaenox/attendant-bot/internal/clock"
	"github.com/xaenox/attendant-bot/internal/models"
	"go.uber.org/zap"
)

const (
	DefaultBlockDuration  = 60 * time.Minute
	DefaultOwnerThreshold = 2

	maxResponseTimes = 10
)

type Config struct {
	// BlockDuration is how long a manual block lasts before it expires.
	BlockDuration time.Duration
	// OwnerThreshold is the number of operator messages required before an
	// implicit (non forced) block is accepted.
	OwnerThreshold int
	Clock          clock.Clock
}

// Store is the single source of truth for blocking. A phone has an entry in
// blocks iff the bot must not auto-respond to it.
type Store struct {
	mu     sync.Mutex
	users  map[string]*models.UserRecord
	blocks map[string]models.AttendanceBlock

	blockDuration  time.Duration
	ownerThreshold int
	clock          clock.Clock
	logger         *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Store {
	if cfg.BlockDuration <= 0 {
		cfg.BlockDuration = DefaultBlockDuration
	}
	if cfg.OwnerThreshold <= 0 {
		cfg.OwnerThreshold = DefaultOwnerThreshold
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		users:          make(map[string]*models.UserRecord),
		blocks:         make(map[string]models.AttendanceBlock),
		blockDuration:  cfg.BlockDuration,
		ownerThreshold: cfg.OwnerThreshold,
		clock:          cfg.Clock,
		logger:         logger,
	}
}

// IsBlocked reports whether the bot is blocked for phone.
//
// This is a mutating read: an expired block is removed during the check and
// the owner message counter of the user is reset, exactly as Unblock would.
func (s *Store) IsBlocked(phone string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	block, ok := s.blocks[phone]
	if !ok {
		return false
	}
	if s.expiredLocked(block) {
		s.unblockLocked(phone)
		s.logger.Info("Attendance block expired",
			zap.String("phone", phone),
			zap.Time("blocked_at", block.BlockedAt))
		return false
	}
	return true
}

// Peek returns the current block for phone without expiring it.
// Callers that need freshness pair it with SweepExpired.
func (s *Store) Peek(phone string) (models.AttendanceBlock, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	block, ok := s.blocks[phone]
	if !ok || s.expiredLocked(block) {
		return models.AttendanceBlock{}, false
	}
	return block, true
}

// Block puts phone under manual attendance. Without force the block is only
// applied once the operator sent at least OwnerThreshold messages to the user.
func (s *Store) Block(phone, blockedBy string, force bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !force {
		count := 0
		if user, ok := s.users[phone]; ok {
			count = user.OwnerMessageCount
		}
		if count < s.ownerThreshold {
			s.logger.Debug("Block skipped below owner message threshold",
				zap.String("phone", phone),
				zap.Int("owner_messages", count),
				zap.Int("threshold", s.ownerThreshold))
			return false
		}
	}

	s.blocks[phone] = models.AttendanceBlock{
		Phone:     phone,
		BlockedAt: s.clock.Now(),
		BlockedBy: blockedBy,
	}
	s.logger.Info("Attendance blocked",
		zap.String("phone", phone),
		zap.String("blocked_by", blockedBy),
		zap.Bool("forced", force))
	return true
}

// Unblock removes the block for phone and resets its owner message counter.
func (s *Store) Unblock(phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.unblockLocked(phone)
}

func (s *Store) unblockLocked(phone string) {
	delete(s.blocks, phone)
	if user, ok := s.users[phone]; ok {
		user.OwnerMessageCount = 0
	}
}

func (s *Store) expiredLocked(block models.AttendanceBlock) bool {
	return s.clock.Now().Sub(block.BlockedAt) > s.blockDuration
}

// IncrementOwnerMessageCount counts one more operator message sent to phone.
// It returns 0 without side effects when the user is unknown.
func (s *Store) IncrementOwnerMessageCount(phone string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[phone]
	if !ok {
		return 0
	}
	user.OwnerMessageCount++
	return user.OwnerMessageCount
}

// SweepExpired removes every expired block and returns how many were removed.
func (s *Store) SweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for phone, block := range s.blocks {
		if s.expiredLocked(block) {
			s.unblockLocked(phone)
			removed++
		}
	}
	return removed
}

// RegisterInbound records an inbound message from phone. It returns the
// updated record, the interaction time before this message and whether the
// user was already known.
func (s *Store) RegisterInbound(phone, name string) (models.UserRecord, time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	user, existed := s.users[phone]
	var previous time.Time
	if !existed {
		user = &models.UserRecord{
			Phone:              phone,
			Name:               models.DefaultUserName,
			FirstInteractionAt: now,
		}
		s.users[phone] = user
	} else {
		previous = user.LastInteractionAt
	}

	if name != "" {
		user.Name = name
	}
	user.MessageCount++
	user.LastInteractionAt = now

	return s.projectLocked(user), previous, existed
}

// MarkLead flags phone as a new lead. It returns true only for the call that
// performed the transition.
func (s *Store) MarkLead(phone string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[phone]
	if !ok {
		s.logger.Warn("Cannot mark unknown user as lead", zap.String("phone", phone))
		return false
	}
	if user.IsNewLead {
		return false
	}
	user.IsNewLead = true
	return true
}

// UpdateProspecting applies fn to the prospecting metadata of phone.
func (s *Store) UpdateProspecting(phone string, fn func(user *models.UserRecord)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[phone]
	if !ok {
		s.logger.Warn("Cannot update unknown user", zap.String("phone", phone))
		return false
	}
	fn(user)
	return true
}

// RecordResponseTime stores how long the bot took to answer phone.
func (s *Store) RecordResponseTime(phone string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[phone]
	if !ok {
		s.logger.Warn("Cannot record response time for unknown user", zap.String("phone", phone))
		return
	}
	user.LastResponseTime = d
	user.ResponseTimes = append(user.ResponseTimes, d)
	if len(user.ResponseTimes) > maxResponseTimes {
		user.ResponseTimes = user.ResponseTimes[len(user.ResponseTimes)-maxResponseTimes:]
	}
}

// User returns a copy of the record for phone with BlockedAt projected from
// the block store.
func (s *Store) User(phone string) (models.UserRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[phone]
	if !ok {
		return models.UserRecord{}, false
	}
	return s.projectLocked(user), true
}

func (s *Store) projectLocked(user *models.UserRecord) models.UserRecord {
	out := *user
	out.ResponseTimes = append([]time.Duration(nil), user.ResponseTimes...)
	out.BlockedAt = nil
	if block, ok := s.blocks[user.Phone]; ok && !s.expiredLocked(block) {
		blockedAt := block.BlockedAt
		out.BlockedAt = &blockedAt
	}
	return out
}

// ActiveBlocks lists the unexpired blocks ordered by block time.
func (s *Store) ActiveBlocks() []models.AttendanceBlock {
	s.mu.Lock()
	defer s.mu.Unlock()

	blocks := make([]models.AttendanceBlock, 0, len(s.blocks))
	for _, block := range s.blocks {
		if !s.expiredLocked(block) {
			blocks = append(blocks, block)
		}
	}
	sort.Slice(blocks, func(i, j int) bool {
		return blocks[i].BlockedAt.Before(blocks[j].BlockedAt)
	})
	return blocks
}

func (s *Store) Stats() models.AttendanceStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := models.AttendanceStats{TotalUsers: len(s.users)}
	for _, block := range s.blocks {
		if !s.expiredLocked(block) {
			stats.ActiveBlocks++
		}
	}
	for _, user := range s.users {
		if user.IsNewLead {
			stats.Leads++
		}
	}
	return stats
}
