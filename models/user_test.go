package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestUserDisplayName(t *testing.T) {
	testCases := []struct {
		name string
		user *User
		want string
	}{
		{"nickname wins", &User{FirstName: "Ada", LastName: "Lovelace", Nickname: strPtr("adal")}, "adal"},
		{"empty nickname falls back", &User{FirstName: "Ada", LastName: "Lovelace", Nickname: strPtr("")}, "Ada Lovelace"},
		{"full name", &User{FirstName: "Ada", LastName: "Lovelace"}, "Ada Lovelace"},
		{"first name only", &User{FirstName: "Ada"}, "Ada"},
		{"last name only", &User{LastName: "Lovelace"}, "Lovelace"},
		{"nil user", nil, ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.user.DisplayName())
		})
	}
}
