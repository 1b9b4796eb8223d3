//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

const e2ePassword = "e2e-password-123"

type userResponse struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type projectResponse struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	OwnerID      int64   `json:"owner_id"`
	Participants []int64 `json:"participants"`
}

type documentResponse struct {
	ID               int64  `json:"id"`
	ProjectID        int64  `json:"project_id"`
	OriginalFilename string `json:"original_filename"`
	FileSize         int64  `json:"file_size"`
	ContentType      string `json:"content_type"`
	UploadedBy       int64  `json:"uploaded_by"`
}

type activityEvent struct {
	ID        int64  `json:"id"`
	ProjectID int64  `json:"project_id"`
	ActorID   int64  `json:"actor_id"`
	Action    string `json:"action"`
	Detail    string `json:"detail"`
}

type account struct {
	user  userResponse
	token string
}

func TestE2ESmoke(t *testing.T) {
	baseURL := envOrDefault("API_BASE_URL", "http://localhost:8000")

	owner := registerAndLogin(t, baseURL, "owner")
	member := registerAndLogin(t, baseURL, "member")

	// Identity round trip
	var me userResponse
	status := doJSON(t, http.MethodGet, baseURL+"/me", owner.token, nil, &me)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from /me, got %d", status)
	}
	if me.ID != owner.user.ID || me.Email != owner.user.Email {
		t.Fatalf("/me returned wrong identity: %+v", me)
	}

	// Create a project and add the second account as a participant
	var project projectResponse
	payload := map[string]any{
		"name":        fmt.Sprintf("e2e-project-%d", time.Now().UnixNano()),
		"description": "created by the e2e smoke test",
	}
	status = doJSON(t, http.MethodPost, baseURL+"/projects", owner.token, payload, &project)
	if status != http.StatusCreated {
		t.Fatalf("expected 201 from project create, got %d", status)
	}
	if project.OwnerID != owner.user.ID {
		t.Fatalf("project owner mismatch: got %d, want %d", project.OwnerID, owner.user.ID)
	}

	var updated projectResponse
	status = doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/projects/%d/participants", baseURL, project.ID),
		owner.token, map[string]any{"user_id": member.user.ID}, &updated)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from participant add, got %d", status)
	}
	if len(updated.Participants) != 1 || updated.Participants[0] != member.user.ID {
		t.Fatalf("unexpected participants after add: %v", updated.Participants)
	}

	// The member account is fresh, so its project list is exactly this one
	var memberProjects []projectResponse
	status = doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/projects/user/%d", baseURL, member.user.ID),
		member.token, nil, &memberProjects)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from member project list, got %d", status)
	}
	if len(memberProjects) != 1 || memberProjects[0].ID != project.ID {
		t.Fatalf("member project list wrong: %+v", memberProjects)
	}

	// Upload a document and download it back as the member
	content := []byte("e2e document payload\n")
	doc := uploadDocument(t, baseURL, owner.token, project.ID, "smoke.txt", content)
	if doc.UploadedBy != owner.user.ID || doc.FileSize != int64(len(content)) {
		t.Fatalf("unexpected document metadata: %+v", doc)
	}

	downloaded := downloadDocument(t, baseURL, member.token, project.ID, doc.ID)
	if !bytes.Equal(downloaded, content) {
		t.Fatalf("downloaded content differs: got %q", downloaded)
	}

	// The feed records project.created, member.added and
	// document.uploaded; recording is asynchronous.
	waitForActivity(t, baseURL, owner.token, project.ID, 3)

	// Remove the participant and confirm access is revoked
	status = doJSON(t, http.MethodDelete,
		fmt.Sprintf("%s/projects/%d/participants/%d", baseURL, project.ID, member.user.ID),
		owner.token, nil, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from participant remove, got %d", status)
	}

	status = doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/projects/%d", baseURL, project.ID),
		member.token, nil, nil)
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 for removed member, got %d", status)
	}

	// Clean up through the API
	status = doJSON(t, http.MethodDelete,
		fmt.Sprintf("%s/projects/%d/documents/%d", baseURL, project.ID, doc.ID),
		owner.token, nil, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from document delete, got %d", status)
	}

	status = doJSON(t, http.MethodDelete,
		fmt.Sprintf("%s/projects/%d", baseURL, project.ID),
		owner.token, nil, nil)
	if status != http.StatusNoContent {
		t.Fatalf("expected 204 from project delete, got %d", status)
	}

	// Logout revokes the token
	status = doJSON(t, http.MethodPost, baseURL+"/logout", owner.token, nil, nil)
	if status != http.StatusNoContent {
		t.Fatalf("expected 204 from logout, got %d", status)
	}
	status = doJSON(t, http.MethodGet, baseURL+"/me", owner.token, nil, nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", status)
	}
}

// TestE2ENoTokenEcho validates that bearer tokens are never reflected
// back in response bodies.
func TestE2ENoTokenEcho(t *testing.T) {
	baseURL := envOrDefault("API_BASE_URL", "http://localhost:8000")

	client := &http.Client{Timeout: 10 * time.Second}

	// A garbage token must be rejected without being echoed
	fakeToken := "eyJhbGciOiJIUzI1NiJ9." + strings.Repeat("x", 40)
	req, err := http.NewRequest(http.MethodGet, baseURL+"/me", nil)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+fakeToken)

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", resp.StatusCode)
	}
	if strings.Contains(string(body), fakeToken) {
		t.Error("SECURITY: error response leaked the bearer token")
	}

	// A real token must not appear in authorized responses either
	acct := registerAndLogin(t, baseURL, "echo")

	var me userResponse
	status := doJSON(t, http.MethodGet, baseURL+"/me", acct.token, nil, &me)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from /me, got %d", status)
	}

	req2, _ := http.NewRequest(http.MethodGet, baseURL+"/me", nil)
	req2.Header.Set("Authorization", "Bearer "+acct.token)
	resp2, err := client.Do(req2)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body2, _ := io.ReadAll(resp2.Body)
	resp2.Body.Close()

	if strings.Contains(string(body2), acct.token) {
		t.Error("SECURITY: response echoed back the bearer token")
	}
}

// TestE2ERateLimiting validates that the auth endpoints return 429 with
// proper headers once the per-IP budget is spent. Runs last because it
// exhausts the shared per-IP budget for /auth and /login.
func TestE2ERateLimiting(t *testing.T) {
	baseURL := envOrDefault("API_BASE_URL", "http://localhost:8000")

	client := &http.Client{Timeout: 10 * time.Second}
	payload, _ := json.Marshal(map[string]string{
		"email":    "rate-limit-probe@example.com",
		"password": "definitely-wrong",
	})

	var rateLimited bool
	var lastResp *http.Response

	// Default auth burst is 10, try 30 requests rapidly
	for i := 0; i < 30; i++ {
		resp, err := client.Post(baseURL+"/login", "application/json", bytes.NewReader(payload))
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			rateLimited = true
			lastResp = resp
			break
		}
		resp.Body.Close()
	}

	if !rateLimited {
		t.Fatalf("expected 429 after burst, but never hit rate limit")
	}

	defer lastResp.Body.Close()

	if lastResp.Header.Get("X-RateLimit-Limit") == "" {
		t.Error("missing X-RateLimit-Limit header on 429 response")
	}
	if lastResp.Header.Get("Retry-After") == "" {
		t.Error("missing Retry-After header on 429 response")
	}

	var errResp map[string]any
	if err := json.NewDecoder(lastResp.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode 429 response: %v", err)
	}
	if errResp["code"] != "RATE_LIMITED" {
		t.Errorf("expected RATE_LIMITED code, got %v", errResp["code"])
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func registerAndLogin(t *testing.T, baseURL, prefix string) account {
	t.Helper()

	email := fmt.Sprintf("e2e-%s-%d@example.com", prefix, time.Now().UnixNano())
	payload := map[string]string{"email": email, "password": e2ePassword}

	var user userResponse
	status := doJSON(t, http.MethodPost, baseURL+"/auth", "", payload, &user)
	if status != http.StatusCreated {
		t.Fatalf("expected 201 from register, got %d", status)
	}

	var token tokenResponse
	status = doJSON(t, http.MethodPost, baseURL+"/login", "", payload, &token)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from login, got %d", status)
	}
	if token.AccessToken == "" || token.TokenType != "bearer" {
		t.Fatalf("unexpected token response: %+v", token)
	}

	return account{user: user, token: token.AccessToken}
}

func uploadDocument(t *testing.T, baseURL, token string, projectID int64, filename string, content []byte) documentResponse {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	url := fmt.Sprintf("%s/projects/%d/documents", baseURL, projectID)
	req, err := http.NewRequest(http.MethodPost, url, &buf)
	if err != nil {
		t.Fatalf("create upload request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("upload request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 201 from upload, got %d: %s", resp.StatusCode, body)
	}

	var doc documentResponse
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	return doc
}

func downloadDocument(t *testing.T, baseURL, token string, projectID, documentID int64) []byte {
	t.Helper()

	url := fmt.Sprintf("%s/projects/%d/documents/%d/download", baseURL, projectID, documentID)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("create download request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("download request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from download, got %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read download body: %v", err)
	}
	return body
}

func waitForActivity(t *testing.T, baseURL, token string, projectID int64, want int) {
	t.Helper()

	endpoint := fmt.Sprintf("%s/projects/%d/activity", baseURL, projectID)

	deadline := time.Now().Add(10 * time.Second)
	var lastCount int
	for time.Now().Before(deadline) {
		var events []activityEvent
		status := doJSON(t, http.MethodGet, endpoint, token, nil, &events)
		if status == http.StatusOK && len(events) >= want {
			return
		}
		lastCount = len(events)
		time.Sleep(250 * time.Millisecond)
	}

	t.Fatalf("activity feed did not reach %d events in time (last saw %d)", want, lastCount)
}

func doJSON(t *testing.T, method, url, token string, body any, out any) int {
	t.Helper()

	var buf io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		buf = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, url, buf)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request %s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		decoder := json.NewDecoder(resp.Body)
		if err := decoder.Decode(out); err != nil && resp.ContentLength != 0 {
			t.Fatalf("decode response: %v", err)
		}
	}

	return resp.StatusCode
}
