package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"leetlab/internal/api/middleware"
	"leetlab/internal/app/service"
	"leetlab/internal/common"
	"leetlab/internal/common/security"
	"leetlab/internal/domain/model"
	"leetlab/internal/platform/config"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	config.AppConfig = &config.Config{JWTKey: []byte("handler-secret"), JWTExp: time.Hour}
	security.InitJWT()
	os.Exit(m.Run())
}

const (
	twoSumID         = "0d6a1f3e-7c2b-4e8a-9b1d-3f5e7a9c1b01"
	otherProblemID   = "0d6a1f3e-7c2b-4e8a-9b1d-3f5e7a9c1b02"
	missingProblemID = "0d6a1f3e-7c2b-4e8a-9b1d-3f5e7a9c1b0f"
	filterProblemID  = "0d6a1f3e-7c2b-4e8a-9b1d-3f5e7a9c1b07"
	submissionID     = "9a4c2e8b-5d1f-4b6a-8c3e-2f7d9b1a5c01"
)

var (
	testUser  = &model.User{ID: "u-1", FirstName: "Ada", Email: "ada@example.com", Role: model.RoleUser}
	testAdmin = &model.User{ID: "u-9", FirstName: "Root", Email: "root@example.com", Role: model.RoleAdmin}
)

// fakeAuthn stands in for middleware.Authenticator: the X-Test-User header
// picks the caller.
func fakeAuthn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var u *model.User
		switch r.Header.Get("X-Test-User") {
		case testUser.ID:
			u = testUser
		case testAdmin.ID:
			u = testAdmin
		default:
			common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
			return
		}
		ctx := context.WithValue(r.Context(), middleware.UserCtxKey, u)
		ctx = context.WithValue(ctx, middleware.TokenCtxKey, "tok-"+u.ID)
		ctx = context.WithValue(ctx, middleware.TokenExpCtxKey, time.Now().Add(time.Hour))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func do(t *testing.T, h http.Handler, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req.Header.Set("X-Test-User", userID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == security.SessionCookieName {
			return c
		}
	}
	return nil
}

type fakeAuthService struct {
	registered []service.RegisterRequest
	loggedOut  []string
	deleted    []string
	loginErr   error
}

func (f *fakeAuthService) Register(_ context.Context, req service.RegisterRequest) (*service.AuthResponse, error) {
	if req.Email == "taken@example.com" {
		return nil, common.Errorf("email already registered: %w", common.ErrBadRequest)
	}
	f.registered = append(f.registered, req)
	return &service.AuthResponse{User: &model.User{ID: "new", Email: req.Email, Role: model.RoleUser}, Token: "signed", Message: "user registered successfully"}, nil
}

func (f *fakeAuthService) RegisterAdmin(_ context.Context, req service.RegisterRequest) (*service.AuthResponse, error) {
	f.registered = append(f.registered, req)
	return &service.AuthResponse{User: &model.User{ID: "new", Email: req.Email, Role: req.Role}, Token: "signed", Message: req.Role + " registered successfully"}, nil
}

func (f *fakeAuthService) Login(_ context.Context, req service.LoginRequest) (*service.AuthResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &service.AuthResponse{User: testUser, Token: "signed", Message: "login successful"}, nil
}

func (f *fakeAuthService) Logout(_ context.Context, token string, _ time.Time) error {
	f.loggedOut = append(f.loggedOut, token)
	return nil
}

func (f *fakeAuthService) DeleteProfile(_ context.Context, userID, _ string, _ time.Time) error {
	f.deleted = append(f.deleted, userID)
	return nil
}

type fakeProblems struct {
	lastFilter model.ProblemFilter
	lastAdmin  bool
	created    []service.ProblemInput
	solved     []model.ProblemSummary
}

func (f *fakeProblems) CreateProblem(_ context.Context, creatorID string, in service.ProblemInput) (*model.Problem, error) {
	f.created = append(f.created, in)
	return &model.Problem{ID: "p-new", Title: in.Title, CreatedByID: &creatorID}, nil
}

func (f *fakeProblems) UpdateProblem(_ context.Context, id string, in service.ProblemInput) (*model.Problem, error) {
	if id != twoSumID {
		return nil, common.ErrNotFound
	}
	return &model.Problem{ID: id, Title: in.Title}, nil
}

func (f *fakeProblems) DeleteProblem(_ context.Context, id string) error {
	if id != twoSumID {
		return common.ErrNotFound
	}
	return nil
}

func (f *fakeProblems) GetProblem(_ context.Context, id string, isAdmin bool) (any, error) {
	f.lastAdmin = isAdmin
	if id != twoSumID {
		return nil, common.Errorf("problem %s: %w", id, common.ErrNotFound)
	}
	return &model.PublicProblem{ID: id, Title: "Two Sum"}, nil
}

func (f *fakeProblems) ListProblems(_ context.Context, filter model.ProblemFilter) (*model.ProblemPage, error) {
	f.lastFilter = filter
	if filter.Difficulty != "" && !filter.Difficulty.Valid() {
		return nil, common.Errorf("unknown difficulty: %w", common.ErrBadRequest)
	}
	return &model.ProblemPage{Problems: []model.ProblemSummary{}, Page: 1, PageSize: model.DefaultPageSize}, nil
}

func (f *fakeProblems) SolvedByUser(_ context.Context, _ string) ([]model.ProblemSummary, error) {
	return f.solved, nil
}

type fakeSubmissions struct {
	submitErr error
	subs      []model.Submission
	lastQuery [2]string
}

func (f *fakeSubmissions) Submit(_ context.Context, userID, problemID string, req service.SubmitRequest) (*model.Submission, error) {
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &model.Submission{ID: submissionID, UserID: userID, ProblemID: problemID, Language: req.Language, Status: model.StatusPending}, nil
}

func (f *fakeSubmissions) Run(_ context.Context, _, _ string, _ service.RunRequest) (*service.RunResponse, error) {
	resp := &service.RunResponse{Results: []model.RunCodeResult{{Input: "1", Stdout: "1", State: "judged"}}}
	resp.Status = "accepted"
	resp.Passed, resp.Total = 1, 1
	return resp, nil
}

func (f *fakeSubmissions) GetSubmission(_ context.Context, userID, id string) (*model.Submission, error) {
	for i := range f.subs {
		if f.subs[i].ID == id && f.subs[i].UserID == userID {
			return &f.subs[i], nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeSubmissions) ListForUser(_ context.Context, userID, problemID string) ([]model.Submission, error) {
	f.lastQuery = [2]string{userID, problemID}
	return f.subs, nil
}

func (f *fakeSubmissions) Stats(_ context.Context, _ string) (*model.SubmissionStats, error) {
	return &model.SubmissionStats{TotalSubmissions: 3, ByStatus: map[string]int{"accepted": 2, "wrong": 1}}, nil
}

func mount(fn func(chi.Router)) http.Handler {
	r := chi.NewRouter()
	fn(r)
	return r
}
