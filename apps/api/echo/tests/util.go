package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mugilan0610/institute-management-system/apps/api/echo"
	"github.com/mugilan0610/institute-management-system/core"
	"github.com/mugilan0610/institute-management-system/core/student"
	"github.com/mugilan0610/institute-management-system/services/logger"
	"github.com/mugilan0610/institute-management-system/tests"
)

type app struct {
	*testutil.Env
	server *echoapi.Server
}

// newApp serves the API on a fresh in-memory store. conf may be nil.
func newApp(t *testing.T, conf *core.Config) *app {
	t.Helper()
	env := testutil.NewEnv(t, conf, nil)
	logger := logsvc.NewLogger(zaptest.NewLogger(t), env.Conf)

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:          env.Conf,
		Logger:        logger,
		DB:            env.DB,
		StudentSvc:    env.Students,
		CourseSvc:     env.Courses,
		ResultSvc:     env.Results,
		AttendanceSvc: env.Attendance,
		Translator:    env.Translator,
	})
	return &app{Env: env, server: server}
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     interface{}
	token    string
	wantCode int
	wantMsg  string
}

// do serves a JSON request. body may be nil, a string sent as is, or any value encoded to JSON.
func (a *app) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.server.ServeHTTP(rec, req)
	return rec
}

func (a *app) run(t *testing.T, tt httpTest) map[string]interface{} {
	t.Helper()
	rec := a.do(t, tt.method, tt.path, tt.token, tt.body)
	assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
	data := decode(t, rec)
	if tt.wantMsg != "" {
		assert.Equal(t, tt.wantMsg, data["message"])
	}
	return data
}

// register signs up a student through the API and returns its id and token.
func (a *app) register(t *testing.T, name, email, course string) (int, string) {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/students/register", "", student.NewStudent{
		Name:     name,
		Email:    email,
		Password: testutil.DefaultPassword,
		Course:   course,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	data := decode(t, rec)
	stu := data["student"].(map[string]interface{})
	return int(stu["id"].(float64)), data["token"].(string)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data), rec.Body.String())
	return data
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var data []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data), rec.Body.String())
	return data
}
