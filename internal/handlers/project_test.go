package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dsolisav/designio/internal/config"
	"github.com/dsolisav/designio/internal/middleware"
	"github.com/dsolisav/designio/internal/models"
	"github.com/dsolisav/designio/internal/storage"
	"github.com/dsolisav/designio/internal/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("test-secret-for-handlers")
}

type testApp struct {
	router *gin.Engine
	db     *gorm.DB
	store  *storage.DiskStore
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{}, &models.Project{}, &models.ProjectAssignment{},
		&models.ProjectFile{}, &models.SystemLog{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	store, err := storage.NewDiskStore(t.TempDir(), "http://localhost:8080/files")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	cfg := config.DefaultConfig()
	authHandler := NewAuthHandler(db, cfg)
	projectHandler := NewProjectHandler(db, store)
	userHandler := NewUserHandler(db)

	router := gin.New()
	api := router.Group("/api")
	api.POST("/auth/signup", authHandler.SignUp)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired())
	protected.GET("/auth/me", authHandler.GetCurrentUser)
	protected.GET("/projects", projectHandler.List)
	protected.POST("/projects", middleware.RoleRequired(models.RoleClient), projectHandler.Create)
	protected.PUT("/projects/:id", middleware.RoleRequired(models.RoleProjectManager), projectHandler.Update)
	protected.DELETE("/projects/:id", middleware.RoleRequired(models.RoleProjectManager), projectHandler.Delete)
	protected.GET("/designers", middleware.RoleRequired(models.RoleProjectManager), userHandler.ListDesigners)

	return &testApp{router: router, db: db, store: store}
}

func (a *testApp) seedUser(t *testing.T, username, role string) (*models.User, string) {
	t.Helper()
	user := models.User{
		Email:    username + "@example.com",
		Username: username,
		Password: "hash",
		Role:     role,
	}
	if err := a.db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, 24)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return &user, token
}

func (a *testApp) do(t *testing.T, method, path, token string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req, err := http.NewRequest(method, path, body)
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func multipartProject(t *testing.T, title, description, filename string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if title != "" {
		mw.WriteField("title", title)
	}
	if description != "" {
		mw.WriteField("description", description)
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte("file content"))
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestCreateProject_ClientFlow(t *testing.T) {
	app := newTestApp(t)
	_, token := app.seedUser(t, "alice", models.RoleClient)

	body, contentType := multipartProject(t, "Logo", "New brand logo", "logo.ai")
	w := app.do(t, "POST", "/api/projects", token, body, contentType)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			ID      uint   `json:"id"`
			Status  string `json:"status"`
			FileURL string `json:"file_url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Status != models.StatusPending {
		t.Errorf("status = %q, expected pending", resp.Data.Status)
	}
	if resp.Data.FileURL == "" {
		t.Error("file_url should be a resolved non-empty URL")
	}

	var fileCount int64
	app.db.Model(&models.ProjectFile{}).Where("project_id = ?", resp.Data.ID).Count(&fileCount)
	if fileCount != 1 {
		t.Errorf("file rows = %d, expected 1", fileCount)
	}
}

func TestCreateProject_ValidationBlocksMutation(t *testing.T) {
	app := newTestApp(t)
	_, token := app.seedUser(t, "alice", models.RoleClient)

	tests := []struct {
		name                       string
		title, description, fname  string
		field                      string
	}{
		{"missing title", "", "desc", "f.png", "title"},
		{"missing description", "title", "", "f.png", "description"},
		{"missing file", "title", "desc", "", "file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartProject(t, tt.title, tt.description, tt.fname)
			w := app.do(t, "POST", "/api/projects", token, body, contentType)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, expected 400", w.Code)
			}
			if !strings.Contains(w.Body.String(), tt.field) {
				t.Errorf("body %s should name the failing field %q", w.Body.String(), tt.field)
			}
		})
	}

	// No mutation happened for any of the failing attempts
	var projectCount, fileCount int64
	app.db.Model(&models.Project{}).Count(&projectCount)
	app.db.Model(&models.ProjectFile{}).Count(&fileCount)
	if projectCount != 0 || fileCount != 0 {
		t.Errorf("rows created despite validation failures: %d projects, %d files", projectCount, fileCount)
	}
}

func TestProjectRoutes_RoleGating(t *testing.T) {
	app := newTestApp(t)
	_, clientToken := app.seedUser(t, "alice", models.RoleClient)
	_, designerToken := app.seedUser(t, "dave", models.RoleDesigner)
	_, pmToken := app.seedUser(t, "paula", models.RoleProjectManager)

	jsonBody := func() *bytes.Buffer {
		return bytes.NewBufferString(`{"title":"t","description":"d","status":"pending","assigned_designer":"unassigned"}`)
	}

	tests := []struct {
		name     string
		method   string
		path     string
		token    string
		expected int
	}{
		{"designer cannot create", "POST", "/api/projects", designerToken, http.StatusForbidden},
		{"pm cannot create", "POST", "/api/projects", pmToken, http.StatusForbidden},
		{"client cannot update", "PUT", "/api/projects/1", clientToken, http.StatusForbidden},
		{"designer cannot delete", "DELETE", "/api/projects/1", designerToken, http.StatusForbidden},
		{"client cannot list designers", "GET", "/api/designers", clientToken, http.StatusForbidden},
		{"pm can list designers", "GET", "/api/designers", pmToken, http.StatusOK},
		{"anonymous cannot list", "GET", "/api/projects", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.do(t, tt.method, tt.path, tt.token, jsonBody(), "application/json")
			if w.Code != tt.expected {
				t.Errorf("status = %d, expected %d", w.Code, tt.expected)
			}
		})
	}
}

func TestUpdateProject_ManagerFlow(t *testing.T) {
	app := newTestApp(t)
	client, _ := app.seedUser(t, "alice", models.RoleClient)
	designer, _ := app.seedUser(t, "dave", models.RoleDesigner)
	_, pmToken := app.seedUser(t, "paula", models.RoleProjectManager)

	project := models.Project{ClientID: client.ID, Title: "Logo", Description: "d", Status: models.StatusPending}
	if err := app.db.Create(&project).Error; err != nil {
		t.Fatal(err)
	}

	payload := fmt.Sprintf(`{"title":"Logo v2","description":"updated","status":"in_progress","assigned_designer":"%d"}`, designer.ID)
	w := app.do(t, "PUT", fmt.Sprintf("/api/projects/%d", project.ID), pmToken,
		bytes.NewBufferString(payload), "application/json")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	body := w.Body.String()
	for _, want := range []string{`"title":"Logo v2"`, `"status":"in_progress"`, `"assigned_designer_name":"dave"`} {
		if !strings.Contains(body, want) {
			t.Errorf("body %s missing %s", body, want)
		}
	}

	// A designer id that does not exist is a client error, not a 500
	payload = `{"title":"Logo v2","description":"updated","status":"in_progress","assigned_designer":"9999"}`
	w = app.do(t, "PUT", fmt.Sprintf("/api/projects/%d", project.ID), pmToken,
		bytes.NewBufferString(payload), "application/json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown designer status = %d, expected 400", w.Code)
	}
}

func TestDeleteProject_ManagerFlow(t *testing.T) {
	app := newTestApp(t)
	client, _ := app.seedUser(t, "alice", models.RoleClient)
	_, pmToken := app.seedUser(t, "paula", models.RoleProjectManager)

	project := models.Project{ClientID: client.ID, Title: "t", Description: "d", Status: models.StatusPending}
	if err := app.db.Create(&project).Error; err != nil {
		t.Fatal(err)
	}

	w := app.do(t, "DELETE", fmt.Sprintf("/api/projects/%d", project.ID), pmToken, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var count int64
	app.db.Model(&models.Project{}).Count(&count)
	if count != 0 {
		t.Errorf("project count = %d after delete", count)
	}

	// Deleting again: nothing left
	w = app.do(t, "DELETE", fmt.Sprintf("/api/projects/%d", project.ID), pmToken, nil, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, expected 404", w.Code)
	}
}

func TestListProjects_PerRoleViews(t *testing.T) {
	app := newTestApp(t)
	client, clientToken := app.seedUser(t, "alice", models.RoleClient)
	otherClient, _ := app.seedUser(t, "bob", models.RoleClient)
	designer, designerToken := app.seedUser(t, "dave", models.RoleDesigner)
	_, pmToken := app.seedUser(t, "paula", models.RoleProjectManager)

	mine := models.Project{ClientID: client.ID, Title: "Mine", Description: "d", Status: models.StatusPending}
	theirs := models.Project{ClientID: otherClient.ID, Title: "Theirs", Description: "d", Status: models.StatusPending}
	if err := app.db.Create(&mine).Error; err != nil {
		t.Fatal(err)
	}
	if err := app.db.Create(&theirs).Error; err != nil {
		t.Fatal(err)
	}
	if err := app.db.Create(&models.ProjectAssignment{ProjectID: theirs.ID, DesignerID: designer.ID}).Error; err != nil {
		t.Fatal(err)
	}

	w := app.do(t, "GET", "/api/projects", clientToken, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("client list status = %d", w.Code)
	}
	if body := w.Body.String(); !strings.Contains(body, "Mine") || strings.Contains(body, "Theirs") {
		t.Errorf("client sees wrong projects: %s", body)
	}

	w = app.do(t, "GET", "/api/projects", designerToken, nil, "")
	if body := w.Body.String(); !strings.Contains(body, "Theirs") || strings.Contains(body, "Mine") {
		t.Errorf("designer sees wrong projects: %s", body)
	}

	w = app.do(t, "GET", "/api/projects", pmToken, nil, "")
	if body := w.Body.String(); !strings.Contains(body, "Mine") || !strings.Contains(body, "Theirs") {
		t.Errorf("manager should see all projects: %s", body)
	}
}
