package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/wms-platform/task-control-service/internal/application"
	"github.com/wms-platform/task-control-service/internal/domain"
	"github.com/wms-platform/task-control-service/pkg/logging"
	"github.com/wms-platform/task-control-service/pkg/middleware"
)

type stubTaskRepo struct {
	InsertFn         func(ctx context.Context, task *domain.Task) error
	FindByCodeFn     func(ctx context.Context, codTask string) (*domain.Task, error)
	FindByOperatorFn func(ctx context.Context, codOperator string) ([]*domain.Task, error)
	FindAllFn        func(ctx context.Context) ([]*domain.Task, error)
	UpdateFn         func(ctx context.Context, task *domain.Task, fields []string) (*domain.Task, error)
}

func (s *stubTaskRepo) Insert(ctx context.Context, task *domain.Task) error {
	if s.InsertFn != nil {
		return s.InsertFn(ctx, task)
	}
	return nil
}

func (s *stubTaskRepo) FindByCode(ctx context.Context, codTask string) (*domain.Task, error) {
	if s.FindByCodeFn != nil {
		return s.FindByCodeFn(ctx, codTask)
	}
	return nil, nil
}

func (s *stubTaskRepo) FindByOperator(ctx context.Context, codOperator string) ([]*domain.Task, error) {
	if s.FindByOperatorFn != nil {
		return s.FindByOperatorFn(ctx, codOperator)
	}
	return nil, nil
}

func (s *stubTaskRepo) FindAll(ctx context.Context) ([]*domain.Task, error) {
	if s.FindAllFn != nil {
		return s.FindAllFn(ctx)
	}
	return nil, nil
}

func (s *stubTaskRepo) Update(ctx context.Context, task *domain.Task, fields []string) (*domain.Task, error) {
	if s.UpdateFn != nil {
		return s.UpdateFn(ctx, task, fields)
	}
	return task, nil
}

type stubCounter struct {
	next int64
}

func (s *stubCounter) Increment(context.Context) (int64, error) {
	s.next++
	return s.next, nil
}

type stubChecker struct {
	outcome domain.ConstraintOutcome
}

func (s *stubChecker) CheckProduct(context.Context, domain.Caller, string) (domain.ConstraintOutcome, error) {
	return s.outcome, nil
}

func (s *stubChecker) CheckShelf(context.Context, domain.Caller, string, string, int, domain.ShelfDirection) (domain.ConstraintOutcome, error) {
	return domain.OutcomeOK, nil
}

type stubGateway struct{}

func (stubGateway) RequestTransfer(context.Context, domain.Caller, []domain.ProductLine) error {
	return nil
}

type stubUserRepo struct {
	users map[string]*domain.User
	err   error
}

func (s *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.users[id], nil
}

func newTestService(repo domain.TaskRepository, checker *stubChecker) (*application.TaskApplicationService, *logging.Logger) {
	logger := logging.NewNop()
	notifier := application.NewCompletionNotifier(stubGateway{}, time.Second, nil, logger)
	service := application.NewTaskApplicationService(
		repo,
		application.NewSequenceAllocator(&stubCounter{}),
		application.NewConstraintEvaluator(checker, nil, 2),
		notifier,
		nil,
		logger,
	)
	return service, logger
}

// fakeAuth installs a fixed identity in place of token verification
func fakeAuth(identity *middleware.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		if identity != nil {
			c.Set(middleware.ContextKeyIdentity, identity)
		}
		c.Next()
	}
}

var (
	adminIdentity    = &middleware.Identity{UserID: "u-1", CodUser: "AD-1", Name: "Ada", Role: string(domain.RoleAdmin), Token: "t-admin"}
	operatorIdentity = &middleware.Identity{UserID: "u-2", CodUser: "OP-1", Name: "Otto", Role: string(domain.RoleOperator), Token: "t-op"}
)

func newTestRouter(repo domain.TaskRepository, checker *stubChecker, identity *middleware.Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	service, logger := newTestService(repo, checker)
	router := gin.New()
	registerRoutes(router, service, fakeAuth(identity), logger)
	return router
}

func requestJSON(t *testing.T, router *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	switch p := payload.(type) {
	case nil:
		body = bytes.NewReader(nil)
	case string:
		body = bytes.NewReader([]byte(p))
	default:
		raw, err := json.Marshal(p)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp middleware.APIErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v (%s)", err, rec.Body.String())
	}
	return resp.Code
}

const assignBody = `{
	"codOperator": "OP-1",
	"date": "2024-05-01",
	"type": "loading",
	"status": "Pending",
	"productList": [{"codProduct": "000003", "to": "000123", "quantity": 20}]
}`

func storedTask(codTask, codOperator string) *domain.Task {
	return &domain.Task{
		CodTask:     codTask,
		CodOperator: codOperator,
		Date:        "2024-05-01",
		Type:        "loading",
		Status:      "Pending",
		ProductList: []domain.ProductLine{{CodProduct: "A", From: "SH-1", To: "SH-2", Quantity: 2}},
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_ENV_KEY", "value")
	if got := getEnv("TEST_ENV_KEY", "default"); got != "value" {
		t.Fatalf("expected env value, got %q", got)
	}
	if got := getEnv("MISSING_KEY", "default"); got != "default" {
		t.Fatalf("expected default, got %q", got)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9999")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("DOWNSTREAM_TIMEOUT", "2s")
	t.Setenv("CONSTRAINT_CONCURRENCY", "not-a-number")
	t.Setenv("TASK_COLLECTION", "")

	config := loadConfig()
	if config.ServerAddr != ":9999" {
		t.Fatalf("expected server addr override, got %q", config.ServerAddr)
	}
	if len(config.Kafka.Brokers) != 2 || config.Kafka.Brokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers %v", config.Kafka.Brokers)
	}
	if config.Product.Timeout != 2*time.Second || config.Logistics.Timeout != 2*time.Second {
		t.Fatalf("expected downstream timeout override, got %v", config.Product.Timeout)
	}
	if config.ConstraintConcurrency != 4 {
		t.Fatalf("expected default concurrency, got %d", config.ConstraintConcurrency)
	}
	if config.TaskCollection != "tasks" {
		t.Fatalf("expected default task collection, got %q", config.TaskCollection)
	}
}

func TestRootHandler(t *testing.T) {
	router := newTestRouter(&stubTaskRepo{}, &stubChecker{}, nil)
	rec := requestJSON(t, router, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("expected 200 OK, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestAssignTaskHandler(t *testing.T) {
	var saved *domain.Task
	repo := &stubTaskRepo{InsertFn: func(ctx context.Context, task *domain.Task) error {
		saved = task
		return nil
	}}
	router := newTestRouter(repo, &stubChecker{}, adminIdentity)

	rec := requestJSON(t, router, http.MethodPost, "/api/v1/tasks/assignment", assignBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Message string              `json:"message"`
		Task    application.TaskDTO `json:"task"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Message != "Assignment task successful" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
	if resp.Task.CodTask != "000001" {
		t.Fatalf("expected first task code, got %q", resp.Task.CodTask)
	}
	if saved == nil || saved.CodTask != "000001" {
		t.Fatalf("expected task to be saved")
	}
}

func TestAssignTaskHandler_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		identity *middleware.Identity
		checker  *stubChecker
		body     string
		status   int
		code     string
	}{
		{"operator forbidden", operatorIdentity, &stubChecker{}, assignBody, http.StatusForbidden, "FORBIDDEN"},
		{"missing identity", nil, &stubChecker{}, assignBody, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"not an object", adminIdentity, &stubChecker{}, `[1,2]`, http.StatusBadRequest, "INVALID_REQUEST_SHAPE"},
		{"malformed json", adminIdentity, &stubChecker{}, `{"codOperator":`, http.StatusBadRequest, "INVALID_REQUEST_SHAPE"},
		{"unknown field", adminIdentity, &stubChecker{}, strings.Replace(assignBody, `"type"`, `"kind"`, 1), http.StatusBadRequest, "INVALID_REQUEST_SHAPE"},
		{"unknown product", adminIdentity, &stubChecker{outcome: domain.OutcomeProductNotFound}, assignBody, http.StatusUnprocessableEntity, "PRODUCT_NOT_DEFINED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&stubTaskRepo{}, tt.checker, tt.identity)
			rec := requestJSON(t, router, http.MethodPost, "/api/v1/tasks/assignment", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if code := errorCode(t, rec); code != tt.code {
				t.Fatalf("expected %s, got %s", tt.code, code)
			}
		})
	}
}

func TestListTasksHandler(t *testing.T) {
	var asked string
	repo := &stubTaskRepo{
		FindByOperatorFn: func(ctx context.Context, codOperator string) ([]*domain.Task, error) {
			asked = codOperator
			return nil, nil
		},
		FindAllFn: func(ctx context.Context) ([]*domain.Task, error) {
			return []*domain.Task{storedTask("000001", "OP-1"), storedTask("000002", "OP-2")}, nil
		},
	}

	rec := requestJSON(t, newTestRouter(repo, &stubChecker{}, operatorIdentity), http.MethodGet, "/api/v1/tasks/all", nil)
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected empty list, got %d %s", rec.Code, rec.Body.String())
	}
	if asked != "OP-1" {
		t.Fatalf("expected lookup by caller code, got %q", asked)
	}

	rec = requestJSON(t, newTestRouter(repo, &stubChecker{}, adminIdentity), http.MethodGet, "/api/v1/tasks/all", nil)
	var tasks []application.TaskDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &tasks); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected every task for admin, got %d", len(tasks))
	}
}

func TestGetTaskHandler(t *testing.T) {
	repo := &stubTaskRepo{FindByCodeFn: func(ctx context.Context, codTask string) (*domain.Task, error) {
		if codTask == "000001" {
			return storedTask("000001", "OP-1"), nil
		}
		return nil, nil
	}}

	tests := []struct {
		name     string
		identity *middleware.Identity
		path     string
		status   int
	}{
		{"found", adminIdentity, "/api/v1/tasks/000001", http.StatusOK},
		{"missing", adminIdentity, "/api/v1/tasks/000404", http.StatusNotFound},
		{"malformed code", adminIdentity, "/api/v1/tasks/12ab", http.StatusBadRequest},
		{"operator forbidden", operatorIdentity, "/api/v1/tasks/000001", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := requestJSON(t, newTestRouter(repo, &stubChecker{}, tt.identity), http.MethodGet, tt.path, nil)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestUpdateTaskHandler(t *testing.T) {
	repo := &stubTaskRepo{FindByOperatorFn: func(ctx context.Context, codOperator string) ([]*domain.Task, error) {
		return []*domain.Task{storedTask("000001", codOperator)}, nil
	}}
	router := newTestRouter(repo, &stubChecker{}, operatorIdentity)

	rec := requestJSON(t, router, http.MethodPut, "/api/v1/tasks/000001", `{"status":"Started"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var task application.TaskDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &task); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if task.Status != "Started" {
		t.Fatalf("expected updated status, got %q", task.Status)
	}

	rec = requestJSON(t, router, http.MethodPut, "/api/v1/tasks/000002", `{"status":"Started"}`)
	if rec.Code != http.StatusForbidden || errorCode(t, rec) != "TASK_NOT_ASSIGNED_TO_OPERATOR" {
		t.Fatalf("expected not assigned, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUserIdentityResolver(t *testing.T) {
	users := &stubUserRepo{users: map[string]*domain.User{
		"u-1": {ID: "u-1", CodUser: "AD-1", Name: "Ada", Type: "Admin"},
		"u-9": {ID: "u-9", CodUser: "X-1", Name: "Xena", Type: "Visitor"},
	}}
	resolver := newUserIdentityResolver(users)

	identity, err := resolver.ResolveIdentity(context.Background(), "u-1")
	if err != nil || identity == nil {
		t.Fatalf("expected identity, got %v %v", identity, err)
	}
	if identity.CodUser != "AD-1" || identity.Role != "Admin" {
		t.Fatalf("unexpected identity %+v", identity)
	}

	if identity, _ := resolver.ResolveIdentity(context.Background(), "u-9"); identity != nil {
		t.Fatalf("expected unknown role to resolve to nil")
	}
	if identity, _ := resolver.ResolveIdentity(context.Background(), "missing"); identity != nil {
		t.Fatalf("expected unknown user to resolve to nil")
	}

	users.err = errors.New("mongo down")
	if _, err := resolver.ResolveIdentity(context.Background(), "u-1"); err == nil {
		t.Fatalf("expected lookup error")
	}
}

func TestRoutesWithTokenAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	secret := []byte("test-secret")
	users := &stubUserRepo{users: map[string]*domain.User{
		"u-2": {ID: "u-2", CodUser: "OP-1", Name: "Otto", Type: "Operational"},
	}}
	service, logger := newTestService(&stubTaskRepo{}, &stubChecker{})
	auth := middleware.Authenticate(&middleware.AuthConfig{
		Secret:   secret,
		Resolver: newUserIdentityResolver(users),
		Logger:   logger,
	})
	router := gin.New()
	registerRoutes(router, service, auth, logger)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": "u-2"}).SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks/all", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/tasks/all", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}
