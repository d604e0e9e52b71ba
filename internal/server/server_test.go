// Copyright 2025 LexiAssist Backend Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/your-org/lexiassist-backend/internal/auth"
	"github.com/your-org/lexiassist-backend/internal/cache"
	"github.com/your-org/lexiassist-backend/internal/config"
	"github.com/your-org/lexiassist-backend/internal/store"
	"github.com/your-org/lexiassist-backend/internal/storybook"
	"github.com/your-org/lexiassist-backend/internal/worddetective"
)

const testBatchJSON = `{"rounds": [
	{"id": "ai-4", "type": "text", "promptText": "Order the story:", "items": ["a", "b", "c", "d", "e"]},
	{"id": "ai-5", "type": "text", "promptText": "Order the story:", "items": ["f", "g", "h", "i", "j"]}
]}`

const testAnalysisJSON = `{
	"sequencing": {"score": 0.9, "note": "good"},
	"omissions": {"score": 0.0, "note": "none"},
	"visualConfusion": {"score": 0.1, "note": "low"},
	"phonologicalCue": {"score": 0.1, "note": "low"},
	"recommendedFollowUps": ["read aloud"],
	"confidence": 0.8
}`

// fakeGateway serves both mini-game pipelines in tests.
type fakeGateway struct {
	configured bool
	text       string
	err        error
}

func (f *fakeGateway) Configured() bool { return f.configured }

func (f *fakeGateway) Generate(_ context.Context, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type testEnv struct {
	router *gin.Engine
	store  *store.Store
}

func newTestEnv(t *testing.T, gw *fakeGateway) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.Open("sqlite", filepath.Join(t.TempDir(), "server_test.db"), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, st.Migrate())
	t.Cleanup(func() { _ = st.Close() })

	cfg := &config.Config{}
	cfg.Server.FrontendOrigins = []string{"http://localhost:5173"}

	srv := New(Options{
		Config:        cfg,
		Store:         st,
		Tokens:        auth.NewManager("test-secret", time.Hour),
		Storybook:     storybook.NewService(gw, cache.NewMemoryRoundStore(), zap.NewNop()),
		WordDetective: worddetective.NewService(gw, zap.NewNop()),
		Logger:        zap.NewNop(),
	})
	return &testEnv{router: srv.Router(), store: st}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func registrationBody(email string) map[string]any {
	return map[string]any{
		"parentName":        "Asha",
		"relationship":      "mother",
		"email":             email,
		"preferredLanguage": "english",
		"childName":         "Ravi",
		"childAge":          "8",
		"childGrade":        "3",
		"primaryLanguage":   "english",
		"languagesCanRead":  []string{"english"},
		"problemAreas":      []string{"spelling"},
		"consentAnalysis":   true,
		"password":          "Sup3rSecret!",
	}
}

// register creates an account and returns the session cookie.
func (e *testEnv) register(t *testing.T, email string) (*http.Cookie, string, string) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/auth/register", registrationBody(email))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			ParentID  string `json:"parentId"`
			StudentID string `json:"studentId"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == auth.CookieName {
			return cookie, resp.Data.ParentID, resp.Data.StudentID
		}
	}
	t.Fatal("session cookie not set")
	return nil, "", ""
}

func TestRootEndpoint(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{})
	w := env.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "LexiAssist Backend is running")
}

func TestRegisterSetsCookieAndCreatesRecords(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{})

	cookie, parentID, studentID := env.register(t, "asha@example.com")
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, parentID)
	assert.NotEmpty(t, studentID)

	// Session is immediately usable.
	w := env.do(t, http.MethodGet, "/auth/me", nil, cookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "asha@example.com")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{})
	env.register(t, "dup@example.com")

	w := env.do(t, http.MethodPost, "/auth/register", registrationBody("dup@example.com"))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "EMAIL_EXISTS")
}

func TestRegisterWeakPassword(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{})

	body := registrationBody("weak@example.com")
	body["password"] = "weak"
	w := env.do(t, http.MethodPost, "/auth/register", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "PASSWORD_INVALID")
}

func TestRegisterWithoutConsent(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{})

	body := registrationBody("noconsent@example.com")
	body["consentAnalysis"] = false
	w := env.do(t, http.MethodPost, "/auth/register", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "CONSENT_REQUIRED")
}

func TestRegisterGeneratesPasswordWhenAbsent(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{})

	body := registrationBody("nopass@example.com")
	delete(body, "password")
	w := env.do(t, http.MethodPost, "/auth/register", body)

	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{})
	env.register(t, "login@example.com")

	w := env.do(t, http.MethodPost, "/auth/login", map[string]any{
		"email":    "LOGIN@example.com",
		"password": "Sup3rSecret!",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var hasCookie bool
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == auth.CookieName && cookie.Value != "" {
			hasCookie = true
		}
	}
	assert.True(t, hasCookie, "login must set the session cookie")
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{})
	env.register(t, "wrongpw@example.com")

	w := env.do(t, http.MethodPost, "/auth/login", map[string]any{
		"email":    "wrongpw@example.com",
		"password": "Wr0ngSecret!",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_CREDENTIALS")
}

func TestLoginUnknownEmail(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{})

	w := env.do(t, http.MethodPost, "/auth/login", map[string]any{
		"email":    "ghost@example.com",
		"password": "Sup3rSecret!",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMeRequiresCookie(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{})

	w := env.do(t, http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_AUTHENTICATED")

	w = env.do(t, http.MethodGet, "/auth/me", nil, &http.Cookie{Name: auth.CookieName, Value: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
}

func TestStudentCRUD(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{})
	cookie, _, registeredStudent := env.register(t, "crud@example.com")

	// Create a second student.
	w := env.do(t, http.MethodPost, "/students", map[string]any{
		"childName":       "Meera",
		"childAge":        "7",
		"childGrade":      "2",
		"primaryLanguage": "tamil",
		"consentAnalysis": true,
	}, cookie)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// List shows both.
	w = env.do(t, http.MethodGet, "/students", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data []store.Student `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Data, 2)

	// Update the registered student.
	w = env.do(t, http.MethodPut, "/students/"+registeredStudent, map[string]any{
		"childGrade": "4",
	}, cookie)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/students/"+registeredStudent, nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"childGrade":"4"`)

	// Delete, then the fetch misses.
	w = env.do(t, http.MethodDelete, "/students/"+registeredStudent, nil, cookie)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/students/"+registeredStudent, nil, cookie)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStudentIsolationBetweenParents(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{})
	_, _, studentA := env.register(t, "parent-a@example.com")
	cookieB, _, _ := env.register(t, "parent-b@example.com")

	w := env.do(t, http.MethodGet, "/students/"+studentA, nil, cookieB)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodDelete, "/students/"+studentA, nil, cookieB)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitTestValidatesOwnership(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{})
	cookie, _, _ := env.register(t, "owner@example.com")

	w := env.do(t, http.MethodPost, "/tests/submit", map[string]any{
		"testType":  "letterMatch",
		"studentId": "someone-elses-student",
		"results":   map[string]any{"correctAnswers": 5},
	}, cookie)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "STUDENT_NOT_FOUND")
}

func TestSubmitTestAttachesTrustedAnalysis(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{})
	cookie, _, studentID := env.register(t, "trusted@example.com")

	// Server-side analysis captured earlier in the session.
	require.NoError(t, env.store.SaveAIAnalysis(context.Background(), &store.AIAnalysisRecord{
		SessionID: "sess-42",
		StudentID: studentID,
		Analysis:  datatypes.JSON(`{"analysis": {"confidence": 0.8}, "source": "ai"}`),
	}))

	w := env.do(t, http.MethodPost, "/tests/submit", map[string]any{
		"testType":  "storybook",
		"studentId": studentID,
		"results": map[string]any{
			"sessionId":  "sess-42",
			"aiAnalysis": map[string]any{"confidence": 0.1},
		},
	}, cookie)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			TestID string `json:"testId"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	rec, err := env.store.TestByID(context.Background(), resp.Data.TestID)
	require.NoError(t, err)
	// The server-recorded analysis wins over the frontend-supplied one.
	assert.JSONEq(t, `{"analysis": {"confidence": 0.8}, "source": "ai"}`, string(rec.AIAnalysis))
}

func TestSubmitTestLabelsFrontendAnalysis(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{})
	cookie, _, studentID := env.register(t, "frontend@example.com")

	w := env.do(t, http.MethodPost, "/tests/submit", map[string]any{
		"testType":  "storybook",
		"studentId": studentID,
		"results": map[string]any{
			"aiAnalysis": map[string]any{"confidence": 0.4},
		},
	}, cookie)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data struct {
			TestID string `json:"testId"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	rec, err := env.store.TestByID(context.Background(), resp.Data.TestID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"source": "frontend", "analysis": {"confidence": 0.4}}`, string(rec.AIAnalysis))
}

func TestHistoryFilterAndPagination(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{})
	cookie, _, studentID := env.register(t, "history@example.com")

	for i := 0; i < 3; i++ {
		w := env.do(t, http.MethodPost, "/tests/submit", map[string]any{
			"testType":  "letterMatch",
			"studentId": studentID,
			"results":   map[string]any{"correctAnswers": i},
		}, cookie)
		require.Equal(t, http.StatusCreated, w.Code)
	}
	w := env.do(t, http.MethodPost, "/tests/submit", map[string]any{
		"testType":  "wordDetective",
		"studentId": studentID,
		"results":   map[string]any{"score": 4},
	}, cookie)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodGet, "/tests/history?testType=letterMatch&limit=2", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Total int64              `json:"total"`
			Tests []store.TestRecord `json:"tests"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, 3, resp.Data.Total)
	assert.Len(t, resp.Data.Tests, 2)
}

func TestTestDetailOwnership(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{})
	cookieA, _, studentA := env.register(t, "detail-a@example.com")
	cookieB, _, _ := env.register(t, "detail-b@example.com")

	w := env.do(t, http.MethodPost, "/tests/submit", map[string]any{
		"testType":  "letterMatch",
		"studentId": studentA,
		"results":   map[string]any{"correctAnswers": 9},
	}, cookieA)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data struct {
			TestID string `json:"testId"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	w = env.do(t, http.MethodGet, "/tests/"+resp.Data.TestID, nil, cookieA)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/tests/"+resp.Data.TestID, nil, cookieB)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_AUTHORIZED")

	w = env.do(t, http.MethodGet, "/tests/no-such-test", nil, cookieA)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGenerateRoundsEndpoint(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{configured: true, text: testBatchJSON})

	w := env.do(t, http.MethodPost, "/api/storybook/generate-rounds", map[string]any{
		"preferredLanguage": "english",
		"sessionId":         "sess-1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp storybook.GenerateRoundsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, storybook.SourceAI, resp.Source)
	assert.Len(t, resp.Rounds, storybook.RoundsPerBatch)
}

func TestGenerateRoundsFallsBackWithoutProvider(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{configured: true, err: fmt.Errorf("upstream down")})

	w := env.do(t, http.MethodPost, "/api/storybook/generate-rounds", map[string]any{})
	require.Equal(t, http.StatusOK, w.Code)

	var resp storybook.GenerateRoundsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, storybook.SourceFallback, resp.Source)
}

func TestAnalyzeResponseEndpointCapturesRecord(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{configured: true, text: testAnalysisJSON})

	w := env.do(t, http.MethodPost, "/api/storybook/analyze-response", map[string]any{
		"roundId":    "ai-4",
		"promptText": "Order the story:",
		"items":      []string{"a", "b", "c", "d", "e"},
		"userOrder":  []int{1, 2, 3, 4, 5},
		"sessionId":  "sess-7",
		"studentId":  "student-7",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp storybook.AnalyzeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, storybook.SourceAI, resp.Source)

	// The capture middleware persisted the exchange.
	rec, err := env.store.LatestAnalysis(context.Background(), "sess-7", "")
	require.NoError(t, err)
	assert.Equal(t, "student-7", rec.StudentID)
	assert.Contains(t, string(rec.Analysis), `"source":"ai"`)
	assert.Contains(t, string(rec.Request), `"sessionId":"sess-7"`)
}

func TestStorybookHealth(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{configured: false})

	w := env.do(t, http.MethodGet, "/api/storybook/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok", "api_key_configured": false}`, w.Body.String())

	env = newTestEnv(t, &fakeGateway{configured: true})
	w = env.do(t, http.MethodGet, "/api/storybook/health", nil)
	assert.JSONEq(t, `{"status": "ok", "api_key_configured": true}`, w.Body.String())
}

func TestServiceHealthReport(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{configured: false})

	w := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var report struct {
		Status       string `json:"status"`
		Service      string `json:"service"`
		Dependencies map[string]struct {
			Status string `json:"status"`
		} `json:"dependencies"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))

	// Unconfigured providers degrade but do not fail the service.
	assert.Equal(t, "degraded", report.Status)
	assert.Equal(t, "lexiassist", report.Service)
	assert.Equal(t, "healthy", report.Dependencies["database"].Status)
	assert.Equal(t, "degraded", report.Dependencies["storybook_generation"].Status)
	assert.Equal(t, "degraded", report.Dependencies["worddetective_generation"].Status)

	env = newTestEnv(t, &fakeGateway{configured: true})
	w = env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "healthy", report.Status)
}

func TestWordDetectiveEndpoints(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{configured: true, text: `[{"correct": "house", "wrong": "huose"}]`})

	w := env.do(t, http.MethodPost, "/api/worddetective/generate", map[string]any{"age": 8})
	require.Equal(t, http.StatusOK, w.Code)

	var genResp worddetective.GenerateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &genResp))
	require.Len(t, genResp.WordPairs, 1)
	assert.Equal(t, "house", genResp.WordPairs[0].Correct)

	w = env.do(t, http.MethodPost, "/api/worddetective/analyze", map[string]any{
		"attempts": []map[string]any{
			{
				"questionIndex":    0,
				"presentedPair":    map[string]string{"correct": "friend", "wrong": "freind"},
				"chosenWord":       "friend",
				"chosenWasCorrect": true,
			},
			{
				"questionIndex":    1,
				"presentedPair":    map[string]string{"correct": "because", "wrong": "becuase"},
				"chosenWord":       "becuase",
				"chosenWasCorrect": false,
			},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var anResp worddetective.AnalyzeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &anResp))
	assert.Equal(t, 1, anResp.Score)
	assert.Equal(t, 2, anResp.TotalQuestions)
	assert.Equal(t, worddetective.RiskHigh, anResp.Risk)
}

func TestProtectedRoutesRejectMissingCookie(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{})

	for _, route := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/students"},
		{http.MethodPost, "/tests/submit"},
		{http.MethodGet, "/tests/history"},
	} {
		w := env.do(t, route.method, route.path, map[string]any{})
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", route.method, route.path)
	}
}
