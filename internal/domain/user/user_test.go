package user_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/schoolhub/internal/domain/user"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    user.Role
		wantErr bool
	}{
		{name: "admin", raw: "ADMIN", want: user.RoleAdmin},
		{name: "teacher", raw: "TEACHER", want: user.RoleTeacher},
		{name: "student", raw: "STUDENT", want: user.RoleStudent},
		{name: "lowercase is rejected", raw: "admin", wantErr: true},
		{name: "unknown role", raw: "SUPERADMIN", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := user.ParseRole(tc.raw)

			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got role %q", tc.raw, got)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestRoleSortKey_AdminBeforeTeacherBeforeStudent(t *testing.T) {
	if !(user.RoleAdmin.SortKey() < user.RoleTeacher.SortKey()) {
		t.Fatalf("admin should sort before teacher")
	}

	if !(user.RoleTeacher.SortKey() < user.RoleStudent.SortKey()) {
		t.Fatalf("teacher should sort before student")
	}
}

func testUser() user.User {
	first := "Ada"
	last := "Lovelace"
	creator := "creator-id"
	now := time.Now().UTC()

	return user.User{
		ID:              "user-1",
		Email:           "ada@example.com",
		HashedPassword:  "$2a$10$super-secret-hash",
		FirstName:       &first,
		LastName:        &last,
		Role:            user.RoleTeacher,
		OrganizationID:  "org-1",
		CreatedByUserID: &creator,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestSanitize_NeverExposesHash(t *testing.T) {
	u := testUser()

	s := user.Sanitize(u)

	b, err := json.Marshal(s)

	if err != nil {
		t.Fatalf("marshal summary: %v", err)
	}

	if strings.Contains(string(b), "super-secret-hash") {
		t.Fatalf("summary JSON leaked the password hash: %s", b)
	}

	if strings.Contains(string(b), "hashedPassword") || strings.Contains(string(b), "password") {
		t.Fatalf("summary JSON has a password-shaped field: %s", b)
	}
}

func TestSanitize_KeepsPublicFields(t *testing.T) {
	u := testUser()

	s := user.Sanitize(u)

	if s.ID != u.ID || s.Email != u.Email || s.Role != u.Role {
		t.Fatalf("summary dropped identity fields: %+v", s)
	}

	if s.OrganizationID != u.OrganizationID {
		t.Fatalf("summary dropped organizationId")
	}

	if s.CreatedByUserID == nil || *s.CreatedByUserID != "creator-id" {
		t.Fatalf("summary dropped createdByUserId")
	}
}

// the raw User marshals with `json:"-"` on the hash, but nothing outward
// should rely on that; Summary is the only shape that leaves the service
func TestUserJSONTagStripsHash(t *testing.T) {
	b, err := json.Marshal(testUser())

	if err != nil {
		t.Fatalf("marshal user: %v", err)
	}

	if strings.Contains(string(b), "super-secret-hash") {
		t.Fatalf("user JSON leaked the password hash: %s", b)
	}
}

func TestSanitizeAll(t *testing.T) {
	out := user.SanitizeAll([]user.User{testUser(), testUser()})

	if len(out) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(out))
	}
}
