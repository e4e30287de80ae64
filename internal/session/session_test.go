package session

import (
	"context"
	"errors"
	"testing"

	"github.com/kiran-c861/Nipe-Quiz-2026/internal/domain"
	"github.com/kiran-c861/Nipe-Quiz-2026/internal/infra/memory"
)

func TestLoginStudentsNormalizes(t *testing.T) {
	m := NewManager(memory.NewDeviceStore(), "pw")
	ctx := context.Background()

	token, err := m.LoginStudents(ctx,
		domain.StudentIdentity{USN: "  1ab21cs001 ", Name: " Alice "},
		domain.StudentIdentity{USN: "1AB21CS002", Name: "Bob"},
	)
	if err != nil {
		t.Fatalf("LoginStudents: %v", err)
	}
	sess, ok, err := m.Current(ctx, token)
	if err != nil || !ok {
		t.Fatalf("Current: %v %v", ok, err)
	}
	if sess.Role != RoleStudent {
		t.Fatalf("role = %q", sess.Role)
	}
	if sess.Student1.USN != "1AB21CS001" || sess.Student1.Name != "Alice" {
		t.Fatalf("student1 = %+v", sess.Student1)
	}
}

func TestLoginStudentsValidation(t *testing.T) {
	m := NewManager(memory.NewDeviceStore(), "pw")
	ctx := context.Background()

	cases := []struct {
		name   string
		s1, s2 domain.StudentIdentity
	}{
		{"missing name", domain.StudentIdentity{USN: "U1"}, domain.StudentIdentity{USN: "U2", Name: "Bob"}},
		{"missing usn", domain.StudentIdentity{Name: "Alice"}, domain.StudentIdentity{USN: "U2", Name: "Bob"}},
		{"same usn case-insensitive", domain.StudentIdentity{USN: "u1", Name: "Alice"}, domain.StudentIdentity{USN: "U1", Name: "Bob"}},
	}
	for _, tc := range cases {
		if _, err := m.LoginStudents(ctx, tc.s1, tc.s2); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("%s: error = %v, want ErrValidation", tc.name, err)
		}
	}
}

func TestLoginAdmin(t *testing.T) {
	m := NewManager(memory.NewDeviceStore(), "pw")
	ctx := context.Background()

	if _, err := m.LoginAdmin(ctx, "nope"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("wrong password error = %v, want ErrInvalidCredentials", err)
	}
	token, err := m.LoginAdmin(ctx, "pw")
	if err != nil {
		t.Fatalf("LoginAdmin: %v", err)
	}
	sess, ok, _ := m.Current(ctx, token)
	if !ok || sess.Role != RoleAdmin {
		t.Fatalf("session = %+v ok=%v", sess, ok)
	}
}

func TestTokensAreIndependent(t *testing.T) {
	m := NewManager(memory.NewDeviceStore(), "pw")
	ctx := context.Background()

	t1, _ := m.LoginAdmin(ctx, "pw")
	t2, _ := m.LoginAdmin(ctx, "pw")
	if t1 == t2 {
		t.Fatal("two logins produced the same token")
	}
	if err := m.Clear(ctx, t1); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, _ := m.Current(ctx, t1); ok {
		t.Fatal("cleared session still resolves")
	}
	if _, ok, _ := m.Current(ctx, t2); !ok {
		t.Fatal("clearing one token killed another session")
	}
}

func TestMarkCongratsShown(t *testing.T) {
	m := NewManager(memory.NewDeviceStore(), "pw")
	ctx := context.Background()

	if err := m.MarkCongratsShown(ctx, "ghost"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("unknown token error = %v, want ErrSessionNotFound", err)
	}

	token, _ := m.LoginStudents(ctx,
		domain.StudentIdentity{USN: "U1", Name: "Alice"},
		domain.StudentIdentity{USN: "U2", Name: "Bob"},
	)
	if err := m.MarkCongratsShown(ctx, token); err != nil {
		t.Fatalf("MarkCongratsShown: %v", err)
	}
	sess, _, _ := m.Current(ctx, token)
	if !sess.CongratsShown {
		t.Fatal("CongratsShown not persisted")
	}
}
