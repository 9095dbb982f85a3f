package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"garage/internal/config"
	"garage/internal/database"
	"garage/internal/server"
	"garage/internal/services"
	"garage/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []services.Message
}

func (m *recordingMailer) Send(ctx context.Context, msg services.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

type testApp struct {
	app     *fiber.App
	srv     *server.Server
	db      *gorm.DB
	storage *storage.LocalBackend
	mailer  *recordingMailer
}

// setupApp sets up the full application on an in-memory SQLite database and
// local storage in a temporary directory.
func setupApp(t *testing.T) *testApp {
	t.Helper()
	log := zap.NewNop().Sugar()

	db, err := database.Open(database.MemoryDSN(t.Name()), log)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	cfg := &config.Config{
		Env:                 config.EnvTesting,
		SecretKey:           "test_jwt_secret",
		SessionTTL:          time.Hour,
		PasswordResetExpiry: time.Hour,
		MaxUploadBytes:      1 << 20,
		AllowedExtensions:   []string{"png", "jpg", "jpeg", "gif", "webp"},
		PublicBaseURL:       "http://localhost:8080",
	}
	backend := storage.NewLocalBackend(t.TempDir(), log)
	mailer := &recordingMailer{}

	srv := server.New(server.Deps{
		Config:  cfg,
		DB:      db,
		Storage: backend,
		Mailer:  mailer,
		Log:     log,
	})
	return &testApp{app: srv.App, srv: srv, db: db, storage: backend, mailer: mailer}
}

func (a *testApp) send(t *testing.T, req *http.Request, token string) (*http.Response, []byte) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.app.Test(req, -1) // -1 for no timeout
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func (a *testApp) call(t *testing.T, method, path string, payload interface{}, token string) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, body := a.send(t, req, token)

	var decoded map[string]interface{}
	if len(body) > 0 && body[0] == '{' {
		require.NoError(t, json.Unmarshal(body, &decoded), string(body))
	}
	return resp, decoded
}

func (a *testApp) list(t *testing.T, path, token string) []map[string]interface{} {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp, body := a.send(t, req, token)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))
	return decoded
}

// login registers username and returns a session token for it.
func (a *testApp) login(t *testing.T, username string) string {
	t.Helper()
	resp, _ := a.call(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username":         username,
		"email":            username + "@example.com",
		"password":         "password123",
		"confirm_password": "password123",
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := a.call(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": username,
		"password": "password123",
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return body["token"].(string)
}

func (a *testApp) createBox(t *testing.T, token, name string) map[string]interface{} {
	t.Helper()
	resp, body := a.call(t, http.MethodPost, "/api/v1/boxes", map[string]string{"name": name, "location": "Garage"}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	return body["box"].(map[string]interface{})
}

func (a *testApp) createItem(t *testing.T, token string, boxID int, payload map[string]interface{}) map[string]interface{} {
	t.Helper()
	resp, body := a.call(t, http.MethodPost, fmt.Sprintf("/api/v1/boxes/%d/items", boxID), payload, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	return body["item"].(map[string]interface{})
}

func id(v map[string]interface{}) int {
	return int(v["id"].(float64))
}

func multipartBox(t *testing.T, fields map[string]string, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestAuthRegisterAndLogin(t *testing.T) {
	a := setupApp(t)

	// Test mismatched confirmation
	resp, body := a.call(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username":         "testuser",
		"email":            "test@example.com",
		"password":         "password123",
		"confirm_password": "password124",
	}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["errors"], "ConfirmPassword")

	// Test Registration
	userToRegister := map[string]string{
		"username":         "testuser",
		"email":            "test@example.com",
		"password":         "password123",
		"confirm_password": "password123",
	}
	resp, body = a.call(t, http.MethodPost, "/api/v1/auth/register", userToRegister, "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "User registered successfully", body["message"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, false, user["is_admin"])
	assert.NotContains(t, user, "password_hash")

	// Test Duplicate Registration (username)
	resp, _ = a.call(t, http.MethodPost, "/api/v1/auth/register", userToRegister, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Test wrong password
	resp, _ = a.call(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "testuser", "password": "nope-nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Test Login
	resp, body = a.call(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "testuser", "password": "password123"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "session" {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)
	assert.Equal(t, token, session.Value)

	claims, err := a.srv.Auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "testuser", claims.Username)

	// Bearer header
	resp, body = a.call(t, http.MethodGet, "/api/v1/me", nil, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "testuser", body["username"])

	// Session cookie
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: token})
	resp, _ = a.send(t, req, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// No credentials
	resp, _ = a.call(t, http.MethodGet, "/api/v1/boxes", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = a.call(t, http.MethodGet, "/api/v1/boxes", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = a.call(t, http.MethodPost, "/api/v1/auth/logout", nil, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "You have been logged out.", body["message"])
}

func TestPasswordResetFlow(t *testing.T) {
	a := setupApp(t)
	a.login(t, "alice")

	resp, known := a.call(t, http.MethodPost, "/api/v1/auth/forgot-password", map[string]string{"email": "alice@example.com"}, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, unknown := a.call(t, http.MethodPost, "/api/v1/auth/forgot-password", map[string]string{"email": "nobody@example.com"}, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Same answer whether or not the account exists.
	assert.Equal(t, known, unknown)
	assert.Equal(t, "If an account with that email exists, a reset link has been sent.", known["message"])

	require.Len(t, a.mailer.sent, 1)
	msg := a.mailer.sent[0]
	assert.Equal(t, "alice@example.com", msg.To)
	assert.Equal(t, "Password Reset Request - Garage Inventory", msg.Subject)
	match := regexp.MustCompile(`http://localhost:8080(/api/v1/auth/reset-password/\S+)`).FindStringSubmatch(msg.Text)
	require.Len(t, match, 2, msg.Text)
	resetPath := match[1]

	resp, _ = a.call(t, http.MethodGet, resetPath, nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = a.call(t, http.MethodPost, resetPath, map[string]string{"password": "brand-new-pass", "confirm_password": "different"}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := a.call(t, http.MethodPost, resetPath, map[string]string{"password": "brand-new-pass", "confirm_password": "brand-new-pass"}, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode, body)

	resp, _ = a.call(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "alice", "password": "brand-new-pass"}, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = a.call(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "alice", "password": "password123"}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = a.call(t, http.MethodGet, "/api/v1/auth/reset-password/not-a-token", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "The password reset link is invalid or has expired.", body["message"])
}

func TestBoxLifecycle(t *testing.T) {
	a := setupApp(t)
	token := a.login(t, "alice")

	box := a.createBox(t, token, "Attic Bin")
	boxID := id(box)
	assert.Equal(t, fmt.Sprintf("/qr/%d", boxID), box["qr_payload"])
	qrURL, _ := box["qr_code_url"].(string)
	require.NotEmpty(t, qrURL)
	assert.NotContains(t, box, "image_url")

	// The stored QR code is served from the storage base.
	req := httptest.NewRequest(http.MethodGet, qrURL, nil)
	resp, png := a.send(t, req, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	// Scanning redirects to the box.
	resp, _ = a.call(t, http.MethodGet, fmt.Sprintf("/qr/%d", boxID), nil, token)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, fmt.Sprintf("/api/v1/boxes/%d", boxID), resp.Header.Get("Location"))

	screws := a.createItem(t, token, boxID, map[string]interface{}{"name": "Screws", "quantity": 100, "value": 0.10, "category": "Hardware"})
	assert.InDelta(t, 10.00, screws["total_value"], 1e-9)
	defaults := a.createItem(t, token, boxID, map[string]interface{}{"name": "Tape"})
	assert.Equal(t, float64(1), defaults["quantity"])
	assert.Equal(t, float64(0), defaults["value"])

	resp, body := a.call(t, http.MethodPost, fmt.Sprintf("/api/v1/boxes/%d/items", boxID), map[string]interface{}{"name": "Bad", "quantity": -1}, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)

	resp, body = a.call(t, http.MethodGet, fmt.Sprintf("/api/v1/boxes/%d", boxID), nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.InDelta(t, 10.00, body["total_value"], 1e-9)
	assert.Equal(t, float64(2), body["item_count"])
	assert.Equal(t, float64(101), body["total_items"])
	assert.Len(t, body["items"], 2)

	resp, body = a.call(t, http.MethodPut, fmt.Sprintf("/api/v1/boxes/%d", boxID), map[string]string{"name": "Attic Bin 2", "location": "Loft"}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "Attic Bin 2", body["box"].(map[string]interface{})["name"])

	boxes := a.list(t, "/api/v1/boxes", token)
	require.Len(t, boxes, 1)
	assert.Equal(t, "Loft", boxes[0]["location"])

	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/boxes/%d/label.pdf", boxID), nil)
	resp, pdf := a.send(t, req, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	qrFile := filepath.Join(a.storage.BasePath(), "qrcodes", fmt.Sprintf("box_%d.png", boxID))
	assert.FileExists(t, qrFile)

	resp, _ = a.call(t, http.MethodDelete, fmt.Sprintf("/api/v1/boxes/%d", boxID), nil, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NoFileExists(t, qrFile)

	resp, _ = a.call(t, http.MethodGet, fmt.Sprintf("/api/v1/boxes/%d", boxID), nil, token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = a.call(t, http.MethodGet, fmt.Sprintf("/api/v1/items/%d", id(screws)), nil, token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOwnershipIsEnforced(t *testing.T) {
	a := setupApp(t)
	alice := a.login(t, "alice")
	bob := a.login(t, "bob")

	box := a.createBox(t, alice, "Alice's tools")
	item := a.createItem(t, alice, id(box), map[string]interface{}{"name": "Drill"})
	bobsBox := a.createBox(t, bob, "Bob's stuff")

	for _, tc := range []struct {
		method, path string
		payload      interface{}
	}{
		{http.MethodGet, fmt.Sprintf("/api/v1/boxes/%d", id(box)), nil},
		{http.MethodPut, fmt.Sprintf("/api/v1/boxes/%d", id(box)), map[string]string{"name": "Mine now"}},
		{http.MethodDelete, fmt.Sprintf("/api/v1/boxes/%d", id(box)), nil},
		{http.MethodPost, fmt.Sprintf("/api/v1/boxes/%d/items", id(box)), map[string]string{"name": "Sneaky"}},
		{http.MethodGet, fmt.Sprintf("/qr/%d", id(box)), nil},
	} {
		resp, body := a.call(t, tc.method, tc.path, tc.payload, bob)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, tc.method+" "+tc.path)
		assert.Equal(t, "You do not have permission to access this box.", body["message"])
	}

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		resp, body := a.call(t, method, fmt.Sprintf("/api/v1/items/%d", id(item)), nil, bob)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "You do not have permission to access this item.", body["message"])
	}

	resp, _ := a.call(t, http.MethodGet, "/api/v1/boxes/99999", nil, bob)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = a.call(t, http.MethodGet, "/api/v1/boxes/not-a-number", nil, bob)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Alice cannot move her item into Bob's box.
	resp, body := a.call(t, http.MethodPost, fmt.Sprintf("/api/v1/items/%d/move", id(item)), map[string]int{"new_box_id": id(bobsBox)}, alice)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid destination box", body["message"])

	// Nothing changed.
	resp, body = a.call(t, http.MethodGet, fmt.Sprintf("/api/v1/boxes/%d", id(box)), nil, alice)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Alice's tools", body["name"])
	assert.Equal(t, float64(1), body["item_count"])
}

func TestMoveAndDuplicateItem(t *testing.T) {
	a := setupApp(t)
	token := a.login(t, "alice")
	from := a.createBox(t, token, "Garage")
	to := a.createBox(t, token, "Attic")
	item := a.createItem(t, token, id(from), map[string]interface{}{"name": "Tent", "quantity": 1, "value": 80})

	resp, body := a.call(t, http.MethodPost, fmt.Sprintf("/api/v1/items/%d/duplicate", id(item)), nil, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Tent (copy)", body["item"].(map[string]interface{})["name"])

	resp, body = a.call(t, http.MethodPost, fmt.Sprintf("/api/v1/items/%d/move", id(item)), map[string]int{"new_box_id": id(to)}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	moved := body["item"].(map[string]interface{})
	assert.Equal(t, float64(id(to)), moved["box_id"])
	assert.Equal(t, "Attic", moved["box_name"])

	resp, body = a.call(t, http.MethodGet, fmt.Sprintf("/api/v1/boxes/%d", id(from)), nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["item_count"])
	resp, body = a.call(t, http.MethodGet, fmt.Sprintf("/api/v1/boxes/%d", id(to)), nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.InDelta(t, 80.0, body["total_value"], 1e-9)
}

func TestImageUploads(t *testing.T) {
	a := setupApp(t)
	token := a.login(t, "alice")

	t.Run("disallowed extension", func(t *testing.T) {
		buf, contentType := multipartBox(t, map[string]string{"name": "Evil"}, "payload.exe", []byte("MZ"))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/boxes", buf)
		req.Header.Set("Content-Type", contentType)
		resp, body := a.send(t, req, token)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))

		assert.Empty(t, a.list(t, "/api/v1/boxes", token))
		_, err := os.Stat(filepath.Join(a.storage.BasePath(), "images"))
		assert.True(t, os.IsNotExist(err), "nothing reached storage")
	})

	t.Run("allowed image", func(t *testing.T) {
		buf, contentType := multipartBox(t, map[string]string{"name": "Photo box", "location": "Shed"}, "box.png", []byte("\x89PNG fake"))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/boxes", buf)
		req.Header.Set("Content-Type", contentType)
		resp, body := a.send(t, req, token)
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

		var created struct {
			Box struct {
				ID       int    `json:"id"`
				Location string `json:"location"`
				ImageURL string `json:"image_url"`
			} `json:"box"`
		}
		require.NoError(t, json.Unmarshal(body, &created))
		assert.Equal(t, "Shed", created.Box.Location)
		require.NotEmpty(t, created.Box.ImageURL)

		req = httptest.NewRequest(http.MethodGet, created.Box.ImageURL, nil)
		resp, content := a.send(t, req, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, []byte("\x89PNG fake"), content)

		// Deleting the image through an update removes the file.
		buf, contentType = multipartBox(t, map[string]string{"name": "Photo box", "delete_image": "true"}, "", nil)
		req = httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/v1/boxes/%d", created.Box.ID), buf)
		req.Header.Set("Content-Type", contentType)
		resp, body = a.send(t, req, token)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		assert.NotContains(t, string(body), "image_url")

		entries, err := os.ReadDir(filepath.Join(a.storage.BasePath(), "images"))
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("too large", func(t *testing.T) {
		buf, contentType := multipartBox(t, map[string]string{"name": "Huge"}, "huge.jpg", bytes.Repeat([]byte("x"), (1<<20)+1))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/boxes", buf)
		req.Header.Set("Content-Type", contentType)
		resp, _ := a.send(t, req, token)
		assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

		for _, box := range a.list(t, "/api/v1/boxes", token) {
			assert.NotEqual(t, "Huge", box["name"])
		}
	})

	t.Run("disallowed extension on update", func(t *testing.T) {
		box := a.createBox(t, token, "Keepsakes")
		path := fmt.Sprintf("/api/v1/boxes/%d", id(box))

		buf, contentType := multipartBox(t, map[string]string{"name": "Renamed"}, "payload.exe", []byte("MZ"))
		req := httptest.NewRequest(http.MethodPut, path, buf)
		req.Header.Set("Content-Type", contentType)
		resp, body := a.send(t, req, token)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))
		assert.Contains(t, string(body), "File type not allowed")

		resp, got := a.call(t, http.MethodGet, path, nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Keepsakes", got["name"])
		assert.Nil(t, got["image_url"])
	})
}

func TestBlankNamesAreRejected(t *testing.T) {
	a := setupApp(t)
	token := a.login(t, "alice")

	resp, body := a.call(t, http.MethodPost, "/api/v1/boxes", map[string]string{"name": "   "}, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	assert.Contains(t, body["errors"], "Name")
	assert.Empty(t, a.list(t, "/api/v1/boxes", token))

	box := a.createBox(t, token, "  Tools  ")
	assert.Equal(t, "Tools", box["name"])
	path := fmt.Sprintf("/api/v1/boxes/%d", id(box))

	resp, body = a.call(t, http.MethodPut, path, map[string]string{"name": "\t "}, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)

	resp, body = a.call(t, http.MethodPost, path+"/items", map[string]interface{}{"name": "  "}, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	assert.Contains(t, body["errors"], "Name")

	item := a.createItem(t, token, id(box), map[string]interface{}{"name": " Hammer ", "category": " Hand tools "})
	assert.Equal(t, "Hammer", item["name"])
	assert.Equal(t, "Hand tools", item["category"])

	resp, body = a.call(t, http.MethodPut, fmt.Sprintf("/api/v1/items/%d", id(item)), map[string]interface{}{"name": " "}, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)

	resp, got := a.call(t, http.MethodGet, path, nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Tools", got["name"])
}

func TestSearchAndCategories(t *testing.T) {
	a := setupApp(t)
	alice := a.login(t, "alice")
	bob := a.login(t, "bob")

	garden := a.createBox(t, alice, "Garden shed")
	a.createItem(t, alice, id(garden), map[string]interface{}{"name": "Hose", "category": "Garden"})
	a.createItem(t, alice, id(garden), map[string]interface{}{"name": "Gloves", "category": "Clothing", "notes": "garden gloves"})
	other := a.createBox(t, bob, "Garden tools")
	a.createItem(t, bob, id(other), map[string]interface{}{"name": "Garden fork", "category": "Garden"})

	resp, body := a.call(t, http.MethodGet, "/api/v1/search?q=garden", nil, alice)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["boxes"], 1)
	assert.Len(t, body["items"], 2)
	assert.Equal(t, "all", body["type"])

	resp, body = a.call(t, http.MethodGet, "/api/v1/search?q=garden&type=boxes", nil, alice)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["boxes"], 1)
	assert.Len(t, body["items"], 0)

	resp, body = a.call(t, http.MethodGet, "/api/v1/search?category=Garden", nil, alice)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := body["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "Hose", items[0].(map[string]interface{})["name"])

	resp, body = a.call(t, http.MethodGet, "/api/v1/search", nil, alice)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["boxes"], 0)
	assert.Len(t, body["items"], 0)

	resp, body = a.call(t, http.MethodGet, "/api/v1/categories", nil, alice)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []interface{}{"Clothing", "Garden"}, body["categories"])
}

func TestAdminEndpoints(t *testing.T) {
	a := setupApp(t)
	root := a.login(t, "root")
	alice := a.login(t, "alice")
	box := a.createBox(t, alice, "Alice's box")

	resp, body := a.call(t, http.MethodGet, "/api/v1/admin/users", nil, root)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Admin access required.", body["message"])

	require.NoError(t, a.srv.Admin.Bootstrap(context.Background(), "root"))

	users := a.list(t, "/api/v1/admin/users", root)
	assert.Len(t, users, 2)
	users = a.list(t, "/api/v1/admin/users?q=ali", root)
	require.Len(t, users, 1)
	aliceID := id(users[0])

	boxes := a.list(t, "/api/v1/admin/boxes", root)
	assert.Len(t, boxes, 1)

	// Self-demotion is refused.
	rootID := id(a.list(t, "/api/v1/admin/users?q=root", root)[0])
	resp, _ = a.call(t, http.MethodPatch, fmt.Sprintf("/api/v1/admin/users/%d", rootID), map[string]bool{"is_admin": false}, root)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = a.call(t, http.MethodDelete, fmt.Sprintf("/api/v1/admin/users/%d", rootID), nil, root)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = a.call(t, http.MethodPatch, fmt.Sprintf("/api/v1/admin/users/%d", aliceID), map[string]bool{"is_admin": true}, root)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["user"].(map[string]interface{})["is_admin"])
	resp, _ = a.call(t, http.MethodPatch, fmt.Sprintf("/api/v1/admin/users/%d", aliceID), map[string]bool{"is_admin": false}, root)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	qrFile := filepath.Join(a.storage.BasePath(), "qrcodes", fmt.Sprintf("box_%d.png", id(box)))
	require.FileExists(t, qrFile)
	resp, _ = a.call(t, http.MethodDelete, fmt.Sprintf("/api/v1/admin/users/%d", aliceID), nil, root)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NoFileExists(t, qrFile)
	assert.Empty(t, a.list(t, "/api/v1/admin/boxes", root))

	resp, _ = a.call(t, http.MethodDelete, fmt.Sprintf("/api/v1/admin/users/%d", aliceID), nil, root)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// The deleted user's token no longer reaches their data.
	resp, _ = a.call(t, http.MethodGet, "/api/v1/me", nil, alice)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	a := setupApp(t)

	resp, body := a.call(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])

	sqlDB, err := a.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	resp, body = a.call(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "unhealthy", body["status"])
}
