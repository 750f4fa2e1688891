package auth

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	_ "modernc.org/sqlite"
)

func newTestApp(t *testing.T, clock clockwork.Clock) *App {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+filepath.Join(t.TempDir(), "users.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	repo := NewRepository(db, DialectSQLite)
	if err := repo.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	tokens, err := NewTokenManager("test-secret", time.Hour, clock)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	app := NewApp(repo, tokens)
	if _, err := app.CreateUser(context.Background(), "operator", "hunter2"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return app
}

func TestTokenExpiry(t *testing.T) {
	fc := clockwork.NewFakeClock()
	m, err := NewTokenManager("secret", time.Hour, fc)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}

	token, _, err := m.Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Username != "alice" {
		t.Errorf("username = %q", claims.Username)
	}

	fc.Advance(2 * time.Hour)
	if _, err := m.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token err = %v, want ErrInvalidToken", err)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	a, _ := NewTokenManager("one", time.Hour, nil)
	b, _ := NewTokenManager("two", time.Hour, nil)

	token, _, err := a.Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := b.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestLoginAndVerify(t *testing.T) {
	app := newTestApp(t, clockwork.NewRealClock())
	ctx := context.Background()

	if _, err := app.Login(ctx, "operator", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("bad password err = %v", err)
	}
	if _, err := app.Login(ctx, "nobody", "hunter2"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user err = %v", err)
	}

	res, err := app.Login(ctx, "operator", "hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	user, err := app.VerifyToken(ctx, res.Token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if user.Username != "operator" {
		t.Errorf("username = %q", user.Username)
	}
}

func TestVerifyRejectsReplacedToken(t *testing.T) {
	fc := clockwork.NewFakeClock()
	app := newTestApp(t, fc)
	ctx := context.Background()

	first, err := app.Login(ctx, "operator", "hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	// Tokens carry second resolution timestamps.
	fc.Advance(time.Second)
	second, err := app.Login(ctx, "operator", "hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if _, err := app.VerifyToken(ctx, first.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("replaced token err = %v, want ErrInvalidToken", err)
	}
	if _, err := app.VerifyToken(ctx, second.Token); err != nil {
		t.Fatalf("current token: %v", err)
	}

	if err := app.Logout(ctx, second.Token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := app.VerifyToken(ctx, second.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("token after logout err = %v", err)
	}
}

func TestHandlers(t *testing.T) {
	app := newTestApp(t, clockwork.NewRealClock())
	mux := http.NewServeMux()
	NewHandler(app).RegisterRoutes(mux)

	post := func(path string, body any, header map[string]string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			_ = json.NewEncoder(&buf).Encode(body)
		}
		req := httptest.NewRequest(http.MethodPost, path, &buf)
		for k, v := range header {
			req.Header.Set(k, v)
		}
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec
	}

	if rec := post("/api/login", map[string]string{"username": "operator"}, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("missing password status = %d", rec.Code)
	}
	if rec := post("/api/login", map[string]string{"username": "operator", "password": "nope"}, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad password status = %d", rec.Code)
	}

	rec := post("/api/login", map[string]string{"username": "operator", "password": "hunter2"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body)
	}
	var login struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&login); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !login.Success || login.Token == "" {
		t.Fatalf("login response = %+v", login)
	}

	if rec := post("/api/token/verify", map[string]string{"token": login.Token}, nil); rec.Code != http.StatusOK {
		t.Errorf("verify body status = %d", rec.Code)
	}
	if rec := post("/api/token/verify", nil, map[string]string{"Authorization": "Bearer " + login.Token}); rec.Code != http.StatusOK {
		t.Errorf("verify header status = %d", rec.Code)
	}
	if rec := post("/api/token/verify", nil, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("verify without token status = %d", rec.Code)
	}
	if rec := post("/api/token/verify", map[string]string{"token": "garbage"}, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("verify garbage status = %d", rec.Code)
	}
}

func TestCreateUserRejectsDuplicate(t *testing.T) {
	app := newTestApp(t, clockwork.NewRealClock())

	_, err := app.CreateUser(context.Background(), "operator", "another")
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("CreateUser duplicate: got %v, want ErrUserExists", err)
	}
}
