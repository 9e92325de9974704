// Package session is the single authoritative holder of console
// authentication state. Identity and backend tokens are persisted so a
// session survives a restart; reset-flow scratch state is memory only.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/finsim-app/admin-console/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound indicates no session exists for the given key.
var ErrNotFound = errors.New("session: not found")

// Session is the in-memory view of a stored session.
type Session struct {
	Key          string
	Admin        models.Admin
	AccessToken  string
	RefreshToken string
}

// LoggedIn reports whether the session carries a backend access token. A
// session without one is equivalent to logged out.
func (s *Session) LoggedIn() bool {
	return s != nil && strings.TrimSpace(s.AccessToken) != ""
}

// resetState is the scratch state of an in-progress password reset.
type resetState struct {
	otpSent bool
}

// Store persists admin sessions via GORM and tracks password-reset flows.
type Store struct {
	db *gorm.DB

	mu    sync.Mutex
	reset map[string]*resetState // keyed by lowercased email
}

// NewStore constructs a session store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, reset: make(map[string]*resetState)}
}

// SetCredentials replaces the identity and both tokens for key atomically
// and discards any reset scratch for the admin's email.
func (s *Store) SetCredentials(ctx context.Context, key string, admin models.Admin, accessToken, refreshToken string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("session store: not initialized")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("session store: missing key")
	}
	if strings.TrimSpace(accessToken) == "" {
		return fmt.Errorf("session store: missing access token")
	}

	identity, errMarshal := json.Marshal(admin)
	if errMarshal != nil {
		return fmt.Errorf("session store: marshal identity: %w", errMarshal)
	}

	now := time.Now().UTC()
	record := models.Session{
		Key:          key,
		Identity:     datatypes.JSON(identity),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s.mu.Lock()
	delete(s.reset, normalizeEmail(admin.Email))
	s.mu.Unlock()

	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"identity", "access_token", "refresh_token", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return fmt.Errorf("session store: upsert: %w", err)
	}
	return nil
}

// Get loads the session stored under key.
func (s *Store) Get(ctx context.Context, key string) (*Session, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("session store: not initialized")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrNotFound
	}

	var row models.Session
	if errFind := s.db.WithContext(ctx).Where("key = ?", key).First(&row).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("session store: load: %w", errFind)
	}

	var admin models.Admin
	if len(row.Identity) > 0 {
		if errUnmarshal := json.Unmarshal(row.Identity, &admin); errUnmarshal != nil {
			return nil, fmt.Errorf("session store: decode identity: %w", errUnmarshal)
		}
	}
	return &Session{
		Key:          row.Key,
		Admin:        admin,
		AccessToken:  row.AccessToken,
		RefreshToken: row.RefreshToken,
	}, nil
}

// Logout removes the session and any reset scratch tied to its email.
func (s *Store) Logout(ctx context.Context, key string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("session store: not initialized")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}

	sess, errGet := s.Get(ctx, key)
	if errGet == nil {
		s.mu.Lock()
		delete(s.reset, normalizeEmail(sess.Admin.Email))
		s.mu.Unlock()
	}

	if errDelete := s.db.WithContext(ctx).Where("key = ?", key).Delete(&models.Session{}).Error; errDelete != nil {
		return fmt.Errorf("session store: delete: %w", errDelete)
	}
	return nil
}

// StartReset records that a password reset is in progress for email.
func (s *Store) StartReset(email string) {
	email = normalizeEmail(email)
	if email == "" {
		return
	}
	s.mu.Lock()
	s.reset[email] = &resetState{}
	s.mu.Unlock()
}

// SetOTPSent flags whether the OTP email has been dispatched for email.
func (s *Store) SetOTPSent(email string, sent bool) {
	email = normalizeEmail(email)
	if email == "" {
		return
	}
	s.mu.Lock()
	state := s.reset[email]
	if state == nil {
		state = &resetState{}
		s.reset[email] = state
	}
	state.otpSent = sent
	s.mu.Unlock()
}

// ResetInProgress reports whether a reset flow is active for email and
// whether its OTP has been sent.
func (s *Store) ResetInProgress(email string) (inProgress, otpSent bool) {
	email = normalizeEmail(email)
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.reset[email]
	if !ok {
		return false, false
	}
	return true, state.otpSent
}

// ClearReset drops the reset scratch for email.
func (s *Store) ClearReset(email string) {
	email = normalizeEmail(email)
	s.mu.Lock()
	delete(s.reset, email)
	s.mu.Unlock()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
