package models

import (
	"testing"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Role
		wantErr  bool
	}{
		{name: "exact name", input: "ROLE_USER", expected: RoleUser},
		{name: "lower case", input: "role_admin", expected: RoleAdmin},
		{name: "surrounding spaces", input: "  ROLE_HR ", expected: RoleHR},
		{name: "super admin", input: "ROLE_SUPER_ADMIN", expected: RoleSuperAdmin},
		{name: "unknown role", input: "ROLE_GOD", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			role, err := ParseRole(tt.input)
			if tt.wantErr {
				if err != ErrInvalidRole {
					t.Errorf("ParseRole(%q) error = %v, want ErrInvalidRole", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRole(%q) unexpected error: %v", tt.input, err)
			}
			if role != tt.expected {
				t.Errorf("ParseRole(%q) = %v, want %v", tt.input, role, tt.expected)
			}
		})
	}
}

func TestRole_Authorities(t *testing.T) {
	tests := []struct {
		role     Role
		expected []string
	}{
		{RoleUser, []string{"user:read"}},
		{RoleHR, []string{"user:read", "user:update"}},
		{RoleManager, []string{"user:read", "user:update"}},
		{RoleAdmin, []string{"user:read", "user:create", "user:update"}},
		{RoleSuperAdmin, []string{"user:read", "user:create", "user:update", "user:delete"}},
	}

	for _, tt := range tests {
		t.Run(tt.role.String(), func(t *testing.T) {
			got := tt.role.Authorities()
			if len(got) != len(tt.expected) {
				t.Fatalf("Authorities() = %v, want %v", got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("Authorities()[%d] = %q, want %q", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestRole_AuthoritiesReturnsCopy(t *testing.T) {
	first := RoleAdmin.Authorities()
	first[0] = "tampered"

	second := RoleAdmin.Authorities()
	if second[0] != AuthorityUserRead {
		t.Errorf("role table was mutated through returned slice: %v", second)
	}
}

func TestHasAuthority(t *testing.T) {
	authorities := []string{AuthorityUserRead, AuthorityUserUpdate}

	if !HasAuthority(authorities, AuthorityUserRead) {
		t.Error("expected user:read to be granted")
	}
	if HasAuthority(authorities, AuthorityUserDelete) {
		t.Error("expected user:delete to be denied")
	}
	if HasAuthority(nil, AuthorityUserRead) {
		t.Error("expected nil authorities to deny everything")
	}
}

func TestUser_FullName(t *testing.T) {
	tests := []struct {
		first, last, expected string
	}{
		{"Ada", "Lovelace", "Ada Lovelace"},
		{"Ada", "", "Ada"},
		{"", "Lovelace", "Lovelace"},
		{"", "", ""},
	}

	for _, tt := range tests {
		u := &User{FirstName: tt.first, LastName: tt.last}
		if got := u.FullName(); got != tt.expected {
			t.Errorf("FullName(%q, %q) = %q, want %q", tt.first, tt.last, got, tt.expected)
		}
	}
}
