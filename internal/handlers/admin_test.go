package handlers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/newsflow/backend/internal/models"
)

func TestListUsers(t *testing.T) {
	env := setupTestEnv(t)
	_, adminToken := createTestUser(t, env.db, "admin@example.com", "password123", models.UserRoleAdmin)
	_, userToken := createTestUser(t, env.db, "user@example.com", "password123", models.UserRoleUser)

	t.Run("admin lists all accounts", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/admin/users", nil, authHeaders(adminToken))
		assertStatus(t, resp, http.StatusOK)

		body := decodeJSONMap(t, resp)
		data, _ := body["data"].([]any)
		if len(data) != 2 {
			t.Fatalf("expected 2 users, got %d", len(data))
		}
		pagination, _ := body["pagination"].(map[string]any)
		if pagination["total"] != float64(2) {
			t.Fatalf("expected total 2, got %v", pagination["total"])
		}
	})

	t.Run("non-admins denied", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/admin/users", nil, authHeaders(userToken))
		assertStatus(t, resp, http.StatusForbidden)
	})
}

func TestUpdateUserStatus(t *testing.T) {
	env := setupTestEnv(t)
	_, adminToken := createTestUser(t, env.db, "admin@example.com", "password123", models.UserRoleAdmin)

	pending := &models.User{
		Email:        "applicant@example.com",
		PasswordHash: "x",
		Name:         "Applicant",
		Role:         models.UserRoleUser,
		Status:       models.UserStatusPending,
	}
	if err := env.db.Create(pending).Error; err != nil {
		t.Fatalf("failed creating pending user: %v", err)
	}
	path := "/api/admin/users/" + pending.ID.String() + "/status"

	t.Run("invalid status rejected", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, path, map[string]string{"status": "activated"}, authHeaders(adminToken))
		assertStatus(t, resp, http.StatusBadRequest)
		assertEnvelopeError(t, decodeJSONMap(t, resp), "invalid status")
	})

	t.Run("unknown user", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, "/api/admin/users/"+uuid.NewString()+"/status", map[string]string{"status": "approved"}, authHeaders(adminToken))
		assertStatus(t, resp, http.StatusNotFound)
	})

	t.Run("approving a pending account sends the welcome email", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, path, map[string]string{"status": "approved"}, authHeaders(adminToken))
		assertStatus(t, resp, http.StatusOK)

		body := decodeJSONMap(t, resp)
		data, _ := body["data"].(map[string]any)
		if data["status"] != string(models.UserStatusApproved) {
			t.Fatalf("expected approved status, got %v", data["status"])
		}

		sent := env.mailer.sentTo()
		if len(sent) != 1 || sent[0] != "applicant@example.com" {
			t.Fatalf("expected one approval email to applicant, got %v", sent)
		}
	})

	t.Run("re-approving an approved account sends nothing", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, path, map[string]string{"status": "approved"}, authHeaders(adminToken))
		assertStatus(t, resp, http.StatusOK)

		if sent := env.mailer.sentTo(); len(sent) != 1 {
			t.Fatalf("expected no additional email, got %v", sent)
		}
	})
}

func TestUpdateUserStatusEmailFailureIsNonFatal(t *testing.T) {
	env := setupTestEnv(t)
	_, adminToken := createTestUser(t, env.db, "admin@example.com", "password123", models.UserRoleAdmin)
	env.mailer.failSends = true

	pending := &models.User{
		Email:        "unlucky@example.com",
		PasswordHash: "x",
		Name:         "Unlucky",
		Role:         models.UserRoleUser,
		Status:       models.UserStatusPending,
	}
	if err := env.db.Create(pending).Error; err != nil {
		t.Fatalf("failed creating pending user: %v", err)
	}

	resp := performJSONRequest(t, env.app, http.MethodPut, "/api/admin/users/"+pending.ID.String()+"/status", map[string]string{"status": "approved"}, authHeaders(adminToken))
	assertStatus(t, resp, http.StatusOK)

	var reloaded models.User
	if err := env.db.First(&reloaded, "id = ?", pending.ID).Error; err != nil {
		t.Fatalf("failed reloading user: %v", err)
	}
	if reloaded.Status != models.UserStatusApproved {
		t.Fatalf("expected approval persisted despite email failure, got %s", reloaded.Status)
	}
}
