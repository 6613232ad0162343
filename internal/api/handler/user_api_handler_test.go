package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/martijn/userbase/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserAPI_CreateAndGet(t *testing.T) {
	env := setupTestEnv(t)

	w := env.sendJSON(t, http.MethodPost, "/api/users", `{
		"username": "alice",
		"bicycles": 2,
		"gpa": 3.5,
		"birth_date": "1999-05-04",
		"account_expiration": "2030-01-02T15:04:05Z",
		"earthling": true,
		"unknown": "ignored"
	}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := parseUserResponse(t, w)
	assert.Equal(t, fmt.Sprintf("/api/users/%d", created.ID), w.Header().Get("Location"))
	assert.Equal(t, "alice", *created.Username)
	assert.Equal(t, "1999-05-04", *created.BirthDate)
	assert.Nil(t, created.Bio)

	w = env.get(t, fmt.Sprintf("/api/users/%d", created.ID))
	require.Equal(t, http.StatusOK, w.Code)
	got := parseUserResponse(t, w)
	assert.Equal(t, created, got)
	assert.Equal(t, int64(2), *got.Bicycles)
	assert.Equal(t, 3.5, *got.GPA)
	assert.True(t, *got.Earthling)
}

func TestUserAPI_NestedUserKey(t *testing.T) {
	env := setupTestEnv(t)

	w := env.sendJSON(t, http.MethodPost, "/api/users", `{"user": {"username": "bob", "earthling": "0"}}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := parseUserResponse(t, w)
	assert.Equal(t, "bob", *resp.Username)
	assert.False(t, *resp.Earthling)
}

func TestUserAPI_CreateBadRequest(t *testing.T) {
	env := setupTestEnv(t)

	tests := []struct {
		name       string
		body       string
		wantFields []string
	}{
		{name: "malformed json", body: `{"username":`},
		{name: "not an object", body: `[1, 2]`},
		{name: "uncoercible values", body: `{"bicycles": "many", "earthling": "maybe"}`, wantFields: []string{"Bicycles is not an integer", "Earthling is not a boolean"}},
		{name: "non-finite gpa", body: `{"gpa": "NaN"}`, wantFields: []string{"Gpa is not a number"}},
		{name: "overflowing gpa", body: `{"gpa": 1e999}`, wantFields: []string{"Gpa is not a number"}},
		{name: "nested object value", body: `{"username": {"first": "a"}}`, wantFields: []string{"Username must be a string, number or boolean"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.sendJSON(t, http.MethodPost, "/api/users", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			resp := parseErrorResponse(t, w)
			assert.Equal(t, http.StatusBadRequest, resp.Code)
			if tt.wantFields != nil {
				assert.Equal(t, tt.wantFields, resp.Fields)
			}
		})
	}

	w := env.get(t, "/api/users")
	assert.Equal(t, 0, parseUserListResponse(t, w).Total)
}

func TestUserAPI_List(t *testing.T) {
	env := setupTestEnv(t)
	for _, name := range []string{"a", "b", "c"} {
		env.seedUser(t, domain.UserFields{Username: ptr(name)})
	}

	w := env.get(t, "/api/users")
	require.Equal(t, http.StatusOK, w.Code)
	resp := parseUserListResponse(t, w)
	require.Len(t, resp.Items, 3)
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, "a", *resp.Items[0].Username)
	assert.Equal(t, "c", *resp.Items[2].Username)
}

func TestUserAPI_PatchKeepsAbsentKeys(t *testing.T) {
	env := setupTestEnv(t)
	user := env.seedUser(t, domain.UserFields{Username: ptr("alice"), Bio: ptr("hi"), Bicycles: ptr(int64(2))})

	w := env.sendJSON(t, http.MethodPatch, fmt.Sprintf("/api/users/%d", user.ID), `{"bicycles": 5, "bio": null}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := parseUserResponse(t, w)
	assert.Equal(t, "alice", *resp.Username)
	assert.Equal(t, int64(5), *resp.Bicycles)
	assert.Nil(t, resp.Bio)
	assert.True(t, resp.UpdatedAt.After(resp.CreatedAt))
}

func TestUserAPI_PutReplacesAllFields(t *testing.T) {
	env := setupTestEnv(t)
	user := env.seedUser(t, domain.UserFields{Username: ptr("alice"), Bio: ptr("hi")})

	w := env.sendJSON(t, http.MethodPut, fmt.Sprintf("/api/users/%d", user.ID), `{"username": "alicia"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := parseUserResponse(t, w)
	assert.Equal(t, "alicia", *resp.Username)
	assert.Nil(t, resp.Bio)
	assert.Equal(t, user.CreatedAt, resp.CreatedAt)
}

func TestUserAPI_Delete(t *testing.T) {
	env := setupTestEnv(t)
	user := env.seedUser(t, domain.UserFields{Username: ptr("alice")})
	path := fmt.Sprintf("/api/users/%d", user.ID)

	w := env.makeRequest(t, http.MethodDelete, path, nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.makeRequest(t, http.MethodDelete, path, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not Found", parseErrorResponse(t, w).Error)
}

func TestUserAPI_NotFound(t *testing.T) {
	env := setupTestEnv(t)

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/api/users/7", ""},
		{http.MethodGet, "/api/users/seven", ""},
		{http.MethodPatch, "/api/users/7", `{"username": "x"}`},
		{http.MethodPut, "/api/users/7", `{"username": "x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := env.sendJSON(t, tt.method, tt.path, tt.body)
			require.Equal(t, http.StatusNotFound, w.Code)
			assert.Equal(t, http.StatusNotFound, parseErrorResponse(t, w).Code)
		})
	}
}
