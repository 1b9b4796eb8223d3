// Project Management API Client Example
//
// This is a minimal example of how to drive the API end to end:
// register an account, log in, create a project, upload a document,
// and read the project activity feed.
//
// Usage:
//   export API_BASE_URL="http://localhost:8000"
//   go run main.go

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"time"
)

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type UserResponse struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

type ProjectResponse struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	OwnerID      int64   `json:"owner_id"`
	Participants []int64 `json:"participants"`
}

type DocumentResponse struct {
	ID               int64  `json:"id"`
	ProjectID        int64  `json:"project_id"`
	OriginalFilename string `json:"original_filename"`
	FileSize         int64  `json:"file_size"`
	ContentType      string `json:"content_type"`
	UploadedBy       int64  `json:"uploaded_by"`
}

type ActivityEvent struct {
	ID         int64  `json:"id"`
	ProjectID  int64  `json:"project_id"`
	ActorID    int64  `json:"actor_id"`
	Action     string `json:"action"`
	Detail     string `json:"detail"`
	OccurredAt string `json:"occurred_at"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func main() {
	baseURL := os.Getenv("API_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}

	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}

	email := fmt.Sprintf("example-%d@example.com", time.Now().Unix())
	password := "example-password"

	// Register and log in
	var user UserResponse
	if err := c.postJSON("/auth", map[string]string{"email": email, "password": password}, &user); err != nil {
		log.Fatalf("register: %v", err)
	}
	log.Printf("✓ Registered user %d (%s)", user.ID, user.Email)

	var token TokenResponse
	if err := c.postJSON("/login", map[string]string{"email": email, "password": password}, &token); err != nil {
		log.Fatalf("login: %v", err)
	}
	c.token = token.AccessToken
	log.Printf("✓ Logged in, token valid for %ds", token.ExpiresIn)

	// Create a project
	var project ProjectResponse
	err := c.postJSON("/projects", map[string]string{
		"name":        "Example project",
		"description": "Created by the example API client",
	}, &project)
	if err != nil {
		log.Fatalf("create project: %v", err)
	}
	log.Printf("✓ Created project %d: %s", project.ID, project.Name)

	// Upload a document
	var doc DocumentResponse
	content := []byte("Hello from the example client.\n")
	if err := c.uploadFile(fmt.Sprintf("/projects/%d/documents", project.ID), "notes.txt", content, &doc); err != nil {
		log.Fatalf("upload document: %v", err)
	}
	log.Printf("✓ Uploaded %s (%d bytes) as document %d", doc.OriginalFilename, doc.FileSize, doc.ID)

	// List documents
	var docs []DocumentResponse
	if err := c.getJSON(fmt.Sprintf("/projects/%d/documents", project.ID), &docs); err != nil {
		log.Fatalf("list documents: %v", err)
	}
	log.Printf("✓ Project has %d document(s)", len(docs))

	// Activity recording is asynchronous; give the feed a moment.
	time.Sleep(3 * time.Second)

	var events []ActivityEvent
	if err := c.getJSON(fmt.Sprintf("/projects/%d/activity", project.ID), &events); err != nil {
		log.Fatalf("activity feed: %v", err)
	}
	log.Printf("✓ Activity feed (%d events, newest first):", len(events))
	for _, event := range events {
		log.Printf("  %-20s actor=%d %s", event.Action, event.ActorID, event.Detail)
	}

	// Log out
	if err := c.postJSON("/logout", nil, nil); err != nil {
		log.Fatalf("logout: %v", err)
	}
	log.Println("✓ Logged out")
}

func (c *Client) postJSON(path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) getJSON(path string, out any) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	return c.do(req, out)
}

func (c *Client) uploadFile(path, filename string, content []byte, out any) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := part.Write(content); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var apiErr ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Code != "" {
			return fmt.Errorf("%s %s: %d %s (%s)", req.Method, req.URL.Path, resp.StatusCode, apiErr.Error, apiErr.Code)
		}
		return fmt.Errorf("%s %s: unexpected status %d", req.Method, req.URL.Path, resp.StatusCode)
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}
