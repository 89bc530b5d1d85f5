package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"leadhub.backend/internal/domain/entities"
	"leadhub.backend/internal/interfaces/http/middleware"
	"leadhub.backend/internal/usecases"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// identityMiddleware injects a caller without going through JWT parsing
func identityMiddleware(ident *entities.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.IdentityKey, ident)
		c.Next()
	}
}

func adminIdentity() *entities.Identity {
	return &entities.Identity{
		UserID: uuid.New(),
		Name:   "Admin",
		Email:  "admin@example.com",
		Role:   entities.UserRoleCompanyAdmin,
	}
}

func affiliateIdentity(affiliateID uuid.UUID) *entities.Identity {
	return &entities.Identity{
		UserID:      uuid.New(),
		Name:        "Partner",
		Email:       "partner@example.com",
		Role:        entities.UserRoleAffiliateUser,
		AffiliateID: &affiliateID,
	}
}

func jsonBody(t *testing.T, v interface{}) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// multipartBody builds a multipart form with fields and one file part
func multipartBody(t *testing.T, fields map[string]string, fileField, fileName, contentType string, fileData []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+fileField+`"; filename="`+fileName+`"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(fileData)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func perform(r *gin.Engine, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// Mock AuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, input *entities.LoginInput) (*entities.User, string, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*entities.User), args.String(1), args.Error(2)
}

func (m *MockAuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

// Mock LeadService
type MockLeadService struct {
	mock.Mock
}

func (m *MockLeadService) Create(ctx context.Context, ident *entities.Identity, input *entities.CreateLeadInput) (*entities.Lead, error) {
	args := m.Called(ctx, ident, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Lead), args.Error(1)
}

func (m *MockLeadService) GetByID(ctx context.Context, ident *entities.Identity, id uuid.UUID) (*entities.Lead, error) {
	args := m.Called(ctx, ident, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Lead), args.Error(1)
}

func (m *MockLeadService) List(ctx context.Context, ident *entities.Identity, params entities.LeadListParams) (*entities.LeadPage, error) {
	args := m.Called(ctx, ident, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.LeadPage), args.Error(1)
}

func (m *MockLeadService) Transition(ctx context.Context, ident *entities.Identity, id uuid.UUID, input *entities.StatusUpdateInput) (*entities.Lead, error) {
	args := m.Called(ctx, ident, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Lead), args.Error(1)
}

func (m *MockLeadService) AddComment(ctx context.Context, ident *entities.Identity, id uuid.UUID, input *entities.CommentInput) (*entities.Comment, error) {
	args := m.Called(ctx, ident, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Comment), args.Error(1)
}

func (m *MockLeadService) Delete(ctx context.Context, ident *entities.Identity, id uuid.UUID) error {
	args := m.Called(ctx, ident, id)
	return args.Error(0)
}

func (m *MockLeadService) BundleDocuments(ctx context.Context, ident *entities.Identity, id uuid.UUID) ([]byte, string, error) {
	args := m.Called(ctx, ident, id)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

// Mock DocumentService
type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Upload(ctx context.Context, ident *entities.Identity, leadID uuid.UUID, fileName, contentType string, data []byte) (*entities.Document, error) {
	args := m.Called(ctx, ident, leadID, fileName, contentType, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Document), args.Error(1)
}

func (m *MockDocumentService) SignedURL(ctx context.Context, ident *entities.Identity, id uuid.UUID) (string, error) {
	args := m.Called(ctx, ident, id)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, ident *entities.Identity, id uuid.UUID) error {
	args := m.Called(ctx, ident, id)
	return args.Error(0)
}

// Mock MetricsService
type MockMetricsService struct {
	mock.Mock
}

func (m *MockMetricsService) Dashboard(ctx context.Context, days int) (*entities.DashboardMetrics, error) {
	args := m.Called(ctx, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DashboardMetrics), args.Error(1)
}

// Mock BulkService
type MockBulkService struct {
	mock.Mock
}

func (m *MockBulkService) Import(ctx context.Context, ident *entities.Identity, fileName string, fileSize int64, file io.Reader, requestedAffiliate string) (*usecases.ImportResult, error) {
	args := m.Called(ctx, ident, fileName, fileSize, file, requestedAffiliate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecases.ImportResult), args.Error(1)
}

func (m *MockBulkService) Export(ctx context.Context, ident *entities.Identity, filter entities.LeadFilter) ([]byte, error) {
	args := m.Called(ctx, ident, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockBulkService) Template() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}
