package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"photoshare/internal/models"
	"photoshare/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminRequest(t *testing.T, s *Server, app testRequester, adminID uint, method, target string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Authorization", authHeader(t, s, adminID))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestBanUnbanFlow(t *testing.T) {
	s, app := newTestServer(t)
	admin := testutil.CreateTestUser(t, s.db, models.RoleAdmin)
	target := testutil.CreateTestUser(t, s.db, models.RoleUser)

	resp := adminRequest(t, s, app, admin.ID, http.MethodPost,
		fmt.Sprintf("/api/admin/users/%d/ban", target.ID))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var banned models.User
	decodeBody(t, resp, &banned)
	assert.True(t, banned.Banned)

	// Banned users are locked out immediately.
	lockedOut := getWithAuth(t, app, "/api/users/me", authHeader(t, s, target.ID))
	assert.Equal(t, http.StatusForbidden, lockedOut.StatusCode)

	resp = adminRequest(t, s, app, admin.ID, http.MethodPost,
		fmt.Sprintf("/api/admin/users/%d/unban", target.ID))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	restored := getWithAuth(t, app, "/api/users/me", authHeader(t, s, target.ID))
	assert.Equal(t, http.StatusOK, restored.StatusCode)
}

func TestBanUser_SelfBanConflicts(t *testing.T) {
	s, app := newTestServer(t)
	admin := testutil.CreateTestUser(t, s.db, models.RoleAdmin)

	resp := adminRequest(t, s, app, admin.ID, http.MethodPost,
		fmt.Sprintf("/api/admin/users/%d/ban", admin.ID))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestBanUser_MissingTarget(t *testing.T) {
	s, app := newTestServer(t)
	admin := testutil.CreateTestUser(t, s.db, models.RoleAdmin)

	resp := adminRequest(t, s, app, admin.ID, http.MethodPost, "/api/admin/users/9999/ban")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminDeletePost(t *testing.T) {
	s, app := newTestServer(t)
	admin := testutil.CreateTestUser(t, s.db, models.RoleAdmin)
	owner := testutil.CreateTestUser(t, s.db, models.RoleUser)
	post := createPost(t, s, app, owner.ID, "to be moderated", "")

	resp := adminRequest(t, s, app, admin.ID, http.MethodDelete,
		fmt.Sprintf("/api/admin/posts/%d", post.ID))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var deleted models.Post
	decodeBody(t, resp, &deleted)
	assert.Equal(t, post.ID, deleted.ID)

	check, err := app.Test(httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/posts/%d", post.ID), nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, check.StatusCode)
}

func TestAdminUpdatePost_RatingOverride(t *testing.T) {
	s, app := newTestServer(t)
	admin := testutil.CreateTestUser(t, s.db, models.RoleAdmin)
	owner := testutil.CreateTestUser(t, s.db, models.RoleUser)
	post := createPost(t, s, app, owner.ID, "override me", "")

	resp := adminRequest(t, s, app, admin.ID, http.MethodPut,
		fmt.Sprintf("/api/admin/posts/%d?rating=4.2", post.ID))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.Post
	decodeBody(t, resp, &updated)
	require.NotNil(t, updated.Rating)
	assert.Equal(t, 4.2, *updated.Rating)

	// Out-of-range override is rejected.
	resp = adminRequest(t, s, app, admin.ID, http.MethodPut,
		fmt.Sprintf("/api/admin/posts/%d?rating=9", post.ID))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
