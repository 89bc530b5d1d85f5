package usecases_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"leadhub.backend/internal/domain/entities"
	domainerrors "leadhub.backend/internal/domain/errors"
	"leadhub.backend/internal/infrastructure/storage"
	"leadhub.backend/internal/usecases"
)

func TestDocumentUsecase_Upload(t *testing.T) {
	leadID := uuid.New()
	store := storage.NewMemoryStore()

	leadRepo := new(MockLeadRepository)
	leadRepo.On("GetByID", mock.Anything, leadID).Return(&entities.Lead{ID: leadID}, nil)

	docRepo := new(MockDocumentRepository)
	docRepo.On("Create", mock.Anything, mock.MatchedBy(func(d *entities.Document) bool {
		return d.LeadID == leadID &&
			d.FileName == "agreement.pdf" &&
			d.FileSize == 9 &&
			!d.UploadedAt.IsZero() &&
			strings.HasPrefix(d.StorageKey, "leads/"+leadID.String()+"/")
	})).Return(nil)

	uc := usecases.NewDocumentUsecase(docRepo, leadRepo, store)

	doc, err := uc.Upload(context.Background(), adminIdentity(), leadID, "agreement.pdf", "application/pdf", []byte("%PDF-1.4\n"))
	require.NoError(t, err)
	assert.NotEmpty(t, doc.FileURL)
	assert.Equal(t, 1, store.Len())
	assert.True(t, store.Has(doc.StorageKey))
}

func TestDocumentUsecase_Upload_RejectsOversize(t *testing.T) {
	uc := usecases.NewDocumentUsecase(new(MockDocumentRepository), new(MockLeadRepository), storage.NewMemoryStore())

	big := bytes.Repeat([]byte("a"), entities.MaxDocumentSize+1)
	_, err := uc.Upload(context.Background(), adminIdentity(), uuid.New(), "big.pdf", "application/pdf", big)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidInput)
}

func TestDocumentUsecase_Upload_RejectsType(t *testing.T) {
	uc := usecases.NewDocumentUsecase(new(MockDocumentRepository), new(MockLeadRepository), storage.NewMemoryStore())

	_, err := uc.Upload(context.Background(), adminIdentity(), uuid.New(), "run.exe", "application/octet-stream", []byte("MZ"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidInput)
}

func TestDocumentUsecase_Upload_RowFailureRemovesObject(t *testing.T) {
	leadID := uuid.New()
	store := storage.NewMemoryStore()

	leadRepo := new(MockLeadRepository)
	leadRepo.On("GetByID", mock.Anything, leadID).Return(&entities.Lead{ID: leadID}, nil)

	docRepo := new(MockDocumentRepository)
	docRepo.On("Create", mock.Anything, mock.Anything).Return(assert.AnError)

	uc := usecases.NewDocumentUsecase(docRepo, leadRepo, store)

	_, err := uc.Upload(context.Background(), adminIdentity(), leadID, "agreement.pdf", "application/pdf", []byte("x"))
	require.Error(t, err)
	assert.Equal(t, 0, store.Len(), "orphaned object should be removed")
}

func TestDocumentUsecase_Upload_OutOfScope(t *testing.T) {
	leadID := uuid.New()

	leadRepo := new(MockLeadRepository)
	leadRepo.On("GetByID", mock.Anything, leadID).Return(&entities.Lead{ID: leadID, AffiliateID: uuid.New()}, nil)

	uc := usecases.NewDocumentUsecase(new(MockDocumentRepository), leadRepo, storage.NewMemoryStore())

	_, err := uc.Upload(context.Background(), affiliateIdentity(uuid.New()), leadID, "a.pdf", "application/pdf", []byte("x"))
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestDocumentUsecase_SignedURL(t *testing.T) {
	docID := uuid.New()

	docRepo := new(MockDocumentRepository)
	docRepo.On("GetByID", mock.Anything, docID).Return(&entities.Document{
		ID:         docID,
		StorageKey: "leads/x/a.pdf",
	}, nil)

	uc := usecases.NewDocumentUsecase(docRepo, new(MockLeadRepository), storage.NewMemoryStore())

	url, err := uc.SignedURL(context.Background(), adminIdentity(), docID)
	require.NoError(t, err)
	assert.Contains(t, url, "leads/x/a.pdf")
}

func TestDocumentUsecase_SignedURL_ScopedByLead(t *testing.T) {
	docID := uuid.New()
	leadID := uuid.New()

	docRepo := new(MockDocumentRepository)
	docRepo.On("GetByID", mock.Anything, docID).Return(&entities.Document{ID: docID, LeadID: leadID, StorageKey: "k"}, nil)

	leadRepo := new(MockLeadRepository)
	leadRepo.On("GetByID", mock.Anything, leadID).Return(&entities.Lead{ID: leadID, AffiliateID: uuid.New()}, nil)

	uc := usecases.NewDocumentUsecase(docRepo, leadRepo, storage.NewMemoryStore())

	_, err := uc.SignedURL(context.Background(), affiliateIdentity(uuid.New()), docID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestDocumentUsecase_Delete(t *testing.T) {
	docID := uuid.New()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Upload(context.Background(), "leads/x/a.pdf", "application/pdf", []byte("x")))

	docRepo := new(MockDocumentRepository)
	docRepo.On("GetByID", mock.Anything, docID).Return(&entities.Document{ID: docID, StorageKey: "leads/x/a.pdf"}, nil)
	docRepo.On("Delete", mock.Anything, docID).Return(nil)

	uc := usecases.NewDocumentUsecase(docRepo, new(MockLeadRepository), store)

	require.NoError(t, uc.Delete(context.Background(), adminIdentity(), docID))
	assert.Equal(t, 0, store.Len())
	docRepo.AssertExpectations(t)
}

func TestDocumentUsecase_Delete_AdminOnly(t *testing.T) {
	uc := usecases.NewDocumentUsecase(new(MockDocumentRepository), new(MockLeadRepository), storage.NewMemoryStore())

	err := uc.Delete(context.Background(), affiliateIdentity(uuid.New()), uuid.New())
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}
