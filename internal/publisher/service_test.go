package publisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"backoffice-core/internal/entity"
	"backoffice-core/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fakeDriver struct {
	verifyErr   error
	verifyCalls int
}

func (d *fakeDriver) Verify(ctx context.Context, account *entity.PlatformAccount) error {
	d.verifyCalls++
	return d.verifyErr
}

func (d *fakeDriver) Publish(ctx context.Context, account *entity.PlatformAccount, article *entity.Article) (*PublishResult, error) {
	return nil, errors.New("not implemented")
}

func (d *fakeDriver) FetchQuestions(ctx context.Context, account *entity.PlatformAccount) ([]Question, error) {
	return nil, errors.New("not implemented")
}

type fakeAccountRepo struct {
	account        *entity.PlatformAccount
	setStatusCalls []int
	markedVerified bool
}

func (r *fakeAccountRepo) Create(ctx context.Context, account *entity.PlatformAccount) error {
	return nil
}

func (r *fakeAccountRepo) Update(ctx context.Context, account *entity.PlatformAccount) error {
	return nil
}

func (r *fakeAccountRepo) Delete(ctx context.Context, id uint) error { return nil }

func (r *fakeAccountRepo) GetByID(ctx context.Context, id uint) (*entity.PlatformAccount, error) {
	if r.account == nil || r.account.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return r.account, nil
}

func (r *fakeAccountRepo) GetActiveByPlatform(ctx context.Context, platform string) (*entity.PlatformAccount, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAccountRepo) UpdateCookieBundle(ctx context.Context, id uint, bundle datatypes.JSON, userAgent string) error {
	return nil
}

func (r *fakeAccountRepo) MarkVerified(ctx context.Context, id uint, at time.Time) error {
	r.markedVerified = true
	r.account.Status = entity.StatusEnabled
	return nil
}

func (r *fakeAccountRepo) SetStatus(ctx context.Context, id uint, status int) error {
	r.setStatusCalls = append(r.setStatusCalls, status)
	r.account.Status = status
	return nil
}

func (r *fakeAccountRepo) List(ctx context.Context, scopes []func(*gorm.DB) *gorm.DB, offset, limit int) ([]entity.PlatformAccount, int64, error) {
	return nil, 0, nil
}

func newVerifyService(repo *fakeAccountRepo, driver *fakeDriver) *Service {
	handlers := map[string]Driver{repo.account.Platform: driver}
	cfg := DefaultAntiDetectConfig()
	return NewService(repo, nil, nil, handlers, NewAntiDetect(cfg, logger.NewNop()), nil, nil, logger.NewNop())
}

func TestVerifyAccountDisablesOnExpiredCookie(t *testing.T) {
	repo := &fakeAccountRepo{account: &entity.PlatformAccount{
		ID:       7,
		Platform: entity.PlatformZhihu,
		Status:   entity.StatusEnabled,
	}}
	driver := &fakeDriver{verifyErr: ErrCookieExpired}
	svc := newVerifyService(repo, driver)

	err := svc.VerifyAccount(context.Background(), 7)
	require.ErrorIs(t, err, ErrCookieExpired)
	assert.Equal(t, 1, driver.verifyCalls)
	// a dead session is persisted as disabled by the verify path itself
	assert.Equal(t, []int{entity.StatusDisabled}, repo.setStatusCalls)
	assert.Equal(t, entity.StatusDisabled, repo.account.Status)
	assert.False(t, repo.markedVerified)
}

func TestVerifyAccountReenablesOnSuccess(t *testing.T) {
	repo := &fakeAccountRepo{account: &entity.PlatformAccount{
		ID:       7,
		Platform: entity.PlatformZhihu,
		Status:   entity.StatusDisabled,
	}}
	driver := &fakeDriver{}
	svc := newVerifyService(repo, driver)

	require.NoError(t, svc.VerifyAccount(context.Background(), 7))
	assert.Equal(t, 1, driver.verifyCalls)
	assert.True(t, repo.markedVerified)
	assert.Equal(t, entity.StatusEnabled, repo.account.Status)
	assert.Empty(t, repo.setStatusCalls)
}

func TestVerifyAccountRateLimited(t *testing.T) {
	recent := time.Now().Add(-10 * time.Second)
	repo := &fakeAccountRepo{account: &entity.PlatformAccount{
		ID:             7,
		Platform:       entity.PlatformZhihu,
		Status:         entity.StatusEnabled,
		LastVerifiedAt: &recent,
	}}
	driver := &fakeDriver{}
	svc := newVerifyService(repo, driver)

	err := svc.VerifyAccount(context.Background(), 7)
	require.Error(t, err)
	// the rate limit short-circuits before any browser work
	assert.Equal(t, 0, driver.verifyCalls)
	assert.False(t, repo.markedVerified)
	assert.Empty(t, repo.setStatusCalls)
}

func TestVerifyAccountGenericErrorKeepsStatus(t *testing.T) {
	repo := &fakeAccountRepo{account: &entity.PlatformAccount{
		ID:       7,
		Platform: entity.PlatformZhihu,
		Status:   entity.StatusEnabled,
	}}
	driver := &fakeDriver{verifyErr: errors.New("navigation timeout")}
	svc := newVerifyService(repo, driver)

	err := svc.VerifyAccount(context.Background(), 7)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCookieExpired)
	// only a confirmed dead session flips the account
	assert.Empty(t, repo.setStatusCalls)
	assert.False(t, repo.markedVerified)
}
