package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/Akinaru/event-poll/models"
	"github.com/Akinaru/event-poll/testutil"
)

func TestGetUsers(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/users", nil, f.userToken)
	testutil.AssertStatus(t, w, http.StatusOK)

	var users []models.UserDTO
	testutil.AssertJSON(t, w, &users)
	if len(users) != 2 {
		t.Fatalf("Expected 2 users, got %d", len(users))
	}
	if users[0].Username != "admin" || users[0].Role == nil || *users[0].Role != models.RoleAdmin {
		t.Errorf("Unexpected first user %+v", users[0])
	}
	if users[1].Username != "alice" || users[1].Role != nil {
		t.Errorf("Unexpected second user %+v", users[1])
	}
}

func TestGetUser(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"existing", fmt.Sprintf("/users/%d", f.admin.ID), http.StatusOK},
		{"missing", "/users/9999", http.StatusNotFound},
		{"not a number", "/users/abc", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(http.MethodGet, tt.path, nil, f.userToken)
			testutil.AssertStatus(t, w, tt.want)
		})
	}
}

func TestGetMe(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/users/me", nil, f.userToken)
	testutil.AssertStatus(t, w, http.StatusOK)

	var me models.UserDTO
	testutil.AssertJSON(t, w, &me)
	if me.ID != f.user.ID || me.Username != "alice" {
		t.Errorf("Expected alice (%d), got %+v", f.user.ID, me)
	}
}
