package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/newsflow/backend/internal/models"
)

// Exercises the shared library endpoint: public collections with thumbnail
// strips, plus ungrouped approved assets, with nothing listed twice.
func TestLibraryView(t *testing.T) {
	env := setupTestEnv(t)
	curator, _ := createTestUser(t, env.db, "curator@example.com", "password123", models.UserRoleReviewer)
	_, memberToken := createTestUser(t, env.db, "member@example.com", "password123", models.UserRoleUser)

	base := time.Now().Add(-time.Hour)

	grouped := make([]*models.Asset, 0, 6)
	for i := 0; i < 6; i++ {
		asset := createTestAsset(t, env, curator.ID, "Grouped", models.AssetStatusApproved, base.Add(time.Duration(i)*time.Minute))
		grouped = append(grouped, asset)
	}
	createTestAsset(t, env, curator.ID, "Loose", models.AssetStatusApproved, base.Add(10*time.Minute))
	createTestAsset(t, env, curator.ID, "Unreviewed", models.AssetStatusPending, base)
	hidden := createTestAsset(t, env, curator.ID, "Hidden", models.AssetStatusApproved, base)

	public := &models.Collection{Name: "Showcase", OwnerID: curator.ID, IsPublic: true}
	if err := env.db.Create(public).Error; err != nil {
		t.Fatalf("failed creating public collection: %v", err)
	}
	for _, asset := range grouped {
		if err := env.db.Model(public).Association("Assets").Append(asset); err != nil {
			t.Fatalf("failed filling public collection: %v", err)
		}
	}

	private := &models.Collection{Name: "Stash", OwnerID: curator.ID}
	if err := env.db.Create(private).Error; err != nil {
		t.Fatalf("failed creating private collection: %v", err)
	}
	if err := env.db.Model(private).Association("Assets").Append(hidden); err != nil {
		t.Fatalf("failed filling private collection: %v", err)
	}

	resp := performRequest(t, env.app, http.MethodGet, "/api/assets/library", nil, authHeaders(memberToken))
	assertStatus(t, resp, http.StatusOK)

	body := decodeJSONMap(t, resp)
	data, _ := body["data"].(map[string]any)

	collections, _ := data["collections"].([]any)
	if len(collections) != 1 {
		t.Fatalf("expected only the public collection, got %d", len(collections))
	}
	showcase, _ := collections[0].(map[string]any)
	thumbnails, _ := showcase["assets"].([]any)
	if len(thumbnails) != 4 {
		t.Fatalf("expected thumbnail strip capped at 4, got %d", len(thumbnails))
	}

	assets, _ := data["assets"].([]any)
	if len(assets) != 2 {
		t.Fatalf("expected 2 ungrouped approved assets, got %d", len(assets))
	}
	first, _ := assets[0].(map[string]any)
	if first["title"] != "Loose" {
		t.Fatalf("expected newest ungrouped asset first, got %v", first["title"])
	}
	for _, entry := range assets {
		asset, _ := entry.(map[string]any)
		if asset["id"] == grouped[4].ID.String() || asset["id"] == grouped[5].ID.String() {
			t.Fatalf("asset %v is grouped and must not be listed standalone", asset["title"])
		}
	}
}
