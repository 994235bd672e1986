package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"backoffice-core/internal/entity"
	"backoffice-core/internal/repository"
	"backoffice-core/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakePublishLogRepo struct {
	deleteBatchErr error
	deletedIDs     []uint
}

func (r *fakePublishLogRepo) CreatePending(ctx context.Context, log *entity.PublishLog) error {
	return nil
}

func (r *fakePublishLogRepo) GetByID(ctx context.Context, id uint) (*entity.PublishLog, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePublishLogRepo) MarkRunning(ctx context.Context, id uint, taskID string) error {
	return nil
}

func (r *fakePublishLogRepo) MarkSuccess(ctx context.Context, id uint, platformArticleID, platformURL string, at time.Time) error {
	return nil
}

func (r *fakePublishLogRepo) MarkFailure(ctx context.Context, id uint, message string) error {
	return nil
}

func (r *fakePublishLogRepo) ResetForRetry(ctx context.Context, id uint) (*entity.PublishLog, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePublishLogRepo) Delete(ctx context.Context, id uint) error { return nil }

func (r *fakePublishLogRepo) DeleteBatch(ctx context.Context, ids []uint) error {
	if r.deleteBatchErr != nil {
		return r.deleteBatchErr
	}
	r.deletedIDs = append(r.deletedIDs, ids...)
	return nil
}

func (r *fakePublishLogRepo) List(ctx context.Context, scopes []func(*gorm.DB) *gorm.DB, offset, limit int) ([]entity.PublishLog, int64, error) {
	return nil, 0, nil
}

func deleteLogs(t *testing.T, repo *fakePublishLogRepo, body string) (int, Response) {
	t.Helper()
	h := NewPublishHandler(nil, repo, NewEnvelope(false), logger.NewNop())

	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/logs", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, h.DeleteLogs(c))

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func TestDeleteLogsRequiresIDs(t *testing.T) {
	status, resp := deleteLogs(t, &fakePublishLogRepo{}, `{"ids":[]}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "ids are required", resp.Message)
}

func TestDeleteLogsConflictsOnRunning(t *testing.T) {
	repo := &fakePublishLogRepo{deleteBatchErr: repository.ErrDeleteRunning}
	status, _ := deleteLogs(t, repo, `{"ids":[1,2,3]}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Empty(t, repo.deletedIDs)
}

func TestDeleteLogsBatch(t *testing.T) {
	repo := &fakePublishLogRepo{}
	status, resp := deleteLogs(t, repo, `{"ids":[4,5]}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []uint{4, 5}, repo.deletedIDs)
	assert.NotNil(t, resp.Data)
}
