package handlers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"leadhub.backend/internal/domain/entities"
	domainerrors "leadhub.backend/internal/domain/errors"
	"leadhub.backend/internal/interfaces/http/handlers"
	"leadhub.backend/internal/usecases"
)

func newBulkRouter(ident *entities.Identity, svc *MockBulkService) *gin.Engine {
	h := handlers.NewBulkHandler(svc)
	r := gin.New()
	g := r.Group("/api/leads", identityMiddleware(ident))
	g.POST("/bulk", h.Import)
	g.GET("/export", h.Export)
	g.GET("/template", h.Template)
	return r
}

func TestBulkHandler_Import(t *testing.T) {
	ident := adminIdentity()

	svc := new(MockBulkService)
	svc.On("Import", mock.Anything, ident, "leads.csv", mock.Anything, mock.Anything, "").
		Return(&usecases.ImportResult{
			Count:        3,
			SuccessCount: 2,
			FailureCount: 1,
			Errors:       []usecases.RowError{{Row: 2, Message: "Invalid email format"}},
		}, nil)

	body, contentType := multipartBody(t, nil, "file", "leads.csv", "text/csv",
		[]byte("name,email,phone,loanAmount\n"))

	r := newBulkRouter(ident, svc)
	w := perform(r, http.MethodPost, "/api/leads/bulk", body, contentType)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w)
	assert.Equal(t, float64(2), resp["successCount"])
	errs := resp["errors"].([]interface{})
	require.Len(t, errs, 1)
	assert.Equal(t, float64(2), errs[0].(map[string]interface{})["row"])
}

func TestBulkHandler_Import_NoFile(t *testing.T) {
	body, contentType := multipartBody(t, map[string]string{"note": "x"}, "", "", "", nil)

	r := newBulkRouter(adminIdentity(), new(MockBulkService))
	w := perform(r, http.MethodPost, "/api/leads/bulk", body, contentType)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBulkHandler_Import_RejectedFile(t *testing.T) {
	svc := new(MockBulkService)
	svc.On("Import", mock.Anything, mock.Anything, "leads.xlsx", mock.Anything, mock.Anything, "").
		Return(nil, domainerrors.Validation("Only .csv files are accepted"))

	body, contentType := multipartBody(t, nil, "file", "leads.xlsx", "application/octet-stream", []byte("x"))

	r := newBulkRouter(adminIdentity(), svc)
	w := perform(r, http.MethodPost, "/api/leads/bulk", body, contentType)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["message"], ".csv")
}

func TestBulkHandler_Export(t *testing.T) {
	ident := adminIdentity()

	svc := new(MockBulkService)
	svc.On("Export", mock.Anything, ident, mock.MatchedBy(func(f entities.LeadFilter) bool {
		return len(f.Status) == 1 && f.Status[0] == entities.LeadStatusApproved
	})).Return([]byte("name,email,phone,address,loanAmount,notes\n"), nil)

	r := newBulkRouter(ident, svc)
	w := perform(r, http.MethodGet, "/api/leads/export?status=approved", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "leads-export.csv")
	assert.Contains(t, w.Body.String(), "loanAmount")
}

func TestBulkHandler_Template(t *testing.T) {
	svc := new(MockBulkService)
	svc.On("Template").Return([]byte("name,email,phone,address,loanAmount,notes\n"))

	r := newBulkRouter(adminIdentity(), svc)
	w := perform(r, http.MethodGet, "/api/leads/template", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "leads-template.csv")
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
}
