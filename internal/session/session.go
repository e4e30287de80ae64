// Package session implements device-scoped identity sessions. A device holds
// at most one session: either the admin or a student pair. The admin password
// is checked once at login and never retained.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kiran-c861/Nipe-Quiz-2026/internal/domain"
	"github.com/kiran-c861/Nipe-Quiz-2026/internal/store"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

// Session is the per-device identity. Student sessions carry both team
// members; admin sessions carry nothing beyond the role. CongratsShown gates
// the one-time celebratory effect per login.
type Session struct {
	Role          Role                   `json:"role"`
	Student1      domain.StudentIdentity `json:"student1,omitempty"`
	Student2      domain.StudentIdentity `json:"student2,omitempty"`
	CongratsShown bool                   `json:"congratsShown,omitempty"`
}

// Manager creates, resolves, and clears device sessions. Tokens are opaque
// and issued fresh on every login.
type Manager struct {
	devices       store.DeviceStore
	adminPassword string
}

func NewManager(devices store.DeviceStore, adminPassword string) *Manager {
	return &Manager{devices: devices, adminPassword: adminPassword}
}

// LoginStudents establishes a student-pair session. All four fields are
// required and the two USNs must differ; USNs are uppercased.
func (m *Manager) LoginStudents(ctx context.Context, s1, s2 domain.StudentIdentity) (string, error) {
	s1.USN = strings.ToUpper(strings.TrimSpace(s1.USN))
	s2.USN = strings.ToUpper(strings.TrimSpace(s2.USN))
	s1.Name = strings.TrimSpace(s1.Name)
	s2.Name = strings.TrimSpace(s2.Name)

	if s1.USN == "" || s1.Name == "" || s2.USN == "" || s2.Name == "" {
		return "", fmt.Errorf("%w: all four fields are required", domain.ErrValidation)
	}
	if s1.USN == s2.USN {
		return "", fmt.Errorf("%w: both students cannot have the same USN", domain.ErrValidation)
	}
	return m.save(ctx, Session{Role: RoleStudent, Student1: s1, Student2: s2})
}

// LoginAdmin establishes an admin session when the shared password matches.
func (m *Manager) LoginAdmin(ctx context.Context, password string) (string, error) {
	if password != m.adminPassword {
		return "", domain.ErrInvalidCredentials
	}
	return m.save(ctx, Session{Role: RoleAdmin})
}

func (m *Manager) save(ctx context.Context, sess Session) (string, error) {
	token := uuid.NewString()
	data, err := json.Marshal(sess)
	if err != nil {
		return "", err
	}
	if err := m.devices.Set(ctx, sessionKey(token), data); err != nil {
		return "", err
	}
	return token, nil
}

// Current resolves a device token to its session.
func (m *Manager) Current(ctx context.Context, token string) (Session, bool, error) {
	if token == "" {
		return Session{}, false, nil
	}
	data, err := m.devices.Get(ctx, sessionKey(token))
	if err != nil {
		return Session{}, false, err
	}
	if data == nil {
		return Session{}, false, nil
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, false, err
	}
	return sess, true, nil
}

// Clear ends the session for a token. Clearing an unknown token is a no-op.
func (m *Manager) Clear(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return m.devices.Clear(ctx, sessionKey(token))
}

// MarkCongratsShown records that the celebratory banner fired for this
// session, so polling does not re-fire it.
func (m *Manager) MarkCongratsShown(ctx context.Context, token string) error {
	sess, ok, err := m.Current(ctx, token)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrSessionNotFound
	}
	sess.CongratsShown = true
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return m.devices.Set(ctx, sessionKey(token), data)
}

func sessionKey(token string) string {
	return "session:" + token
}
