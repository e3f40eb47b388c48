package requests

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/itwhiprentals/itwhip-website-sub025/pkg/cache"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRequestRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*ReservationRequest
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{rows: make(map[uuid.UUID]*ReservationRequest)}
}

func (f *fakeRequestRepo) Create(ctx context.Context, request *ReservationRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if request.ID == uuid.Nil {
		request.ID = uuid.New()
	}
	f.rows[request.ID] = request
	return nil
}

func (f *fakeRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*ReservationRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, ErrRequestNotFound
	}
	copied := *row
	return &copied, nil
}

func (f *fakeRequestRepo) GetByCode(ctx context.Context, code string) (*ReservationRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.RequestCode == code {
			copied := *row
			return &copied, nil
		}
	}
	return nil, ErrRequestNotFound
}

func (f *fakeRequestRepo) ListOpen(ctx context.Context, query ListQuery) ([]ReservationRequest, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	var result []ReservationRequest
	for _, row := range f.rows {
		if row.Status != StatusOpen || !row.ExpiresAt.After(now) {
			continue
		}
		if query.VehicleType != "" && row.VehicleType != query.VehicleType {
			continue
		}
		if query.Tier != "" && row.PriorityTier != query.Tier {
			continue
		}
		result = append(result, *row)
	}
	return result, int64(len(result)), nil
}

func (f *fakeRequestRepo) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return ErrRequestNotFound
	}
	row.ViewCount++
	return nil
}

func (f *fakeRequestRepo) Cancel(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return ErrRequestNotFound
	}
	if row.Status.IsTerminal() {
		return ErrRequestTerminal
	}
	row.Status = StatusCancelled
	return nil
}

func (f *fakeRequestRepo) ExpireOverdueOpen(ctx context.Context, now time.Time, limit int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var flipped int64
	for _, row := range f.rows {
		if flipped >= int64(limit) {
			break
		}
		if row.Status == StatusOpen && !row.ExpiresAt.After(now) {
			row.Status = StatusExpired
			flipped++
		}
	}
	return flipped, nil
}

// fakeCache is an in-memory cache.Service tracking pattern invalidations
type fakeCache struct {
	mu       sync.Mutex
	store    map[string][]byte
	patterns []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: make(map[string][]byte)}
}

func (f *fakeCache) Get(ctx context.Context, key string, dest interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.store[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.store[key] = data
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.store, key)
	return nil
}

func (f *fakeCache) DeletePattern(ctx context.Context, pattern string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patterns = append(f.patterns, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range f.store {
		if strings.HasPrefix(key, prefix) {
			delete(f.store, key)
		}
	}
	return nil
}

func (f *fakeCache) Exists(ctx context.Context, key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.store[key]
	return ok
}

func (f *fakeCache) Ping(ctx context.Context) error { return nil }

func validCreateRequest() CreateRequestRequest {
	return CreateRequestRequest{
		VehicleType:    "suv",
		MinSeats:       5,
		PickupLocation: "PHX Sky Harbor Terminal 4",
		PickupAt:       time.Now().Add(24 * time.Hour),
		ReturnAt:       time.Now().Add(72 * time.Hour),
		GuestID:        uuid.New().String(),
		OfferedRate:    85,
		ExpiresAt:      time.Now().Add(2 * time.Hour),
	}
}

func TestCreateRequest(t *testing.T) {
	repo := newFakeRequestRepo()
	svc := NewService(repo)

	resp, err := svc.CreateRequest(context.Background(), validCreateRequest())
	require.NoError(t, err)

	assert.Equal(t, StatusOpen, resp.Status)
	assert.Equal(t, "SUV", resp.VehicleType, "vehicle type is normalized to upper case")
	assert.Equal(t, "STANDARD", resp.PriorityTier, "tier defaults to STANDARD")
	assert.True(t, strings.HasPrefix(resp.RequestCode, "REQ-"))
	assert.Len(t, resp.RequestCode, 12)
	assert.Equal(t, 0, resp.ClaimAttempts)
}

func TestCreateRequest_RejectsInvertedTripWindow(t *testing.T) {
	svc := NewService(newFakeRequestRepo())

	req := validCreateRequest()
	req.ReturnAt = req.PickupAt.Add(-time.Hour)
	_, err := svc.CreateRequest(context.Background(), req)
	assert.Error(t, err)
}

func TestCreateRequest_RejectsPastDeadline(t *testing.T) {
	svc := NewService(newFakeRequestRepo())

	req := validCreateRequest()
	req.ExpiresAt = time.Now().Add(-time.Minute)
	_, err := svc.CreateRequest(context.Background(), req)
	assert.Error(t, err)
}

func TestGetRequest_BumpsViewCount(t *testing.T) {
	repo := newFakeRequestRepo()
	svc := NewService(repo)

	created, err := svc.CreateRequest(context.Background(), validCreateRequest())
	require.NoError(t, err)

	id := uuid.MustParse(created.ID)
	first, err := svc.GetRequest(context.Background(), id)
	require.NoError(t, err)
	second, err := svc.GetRequest(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, 1, first.ViewCount)
	assert.Equal(t, 2, second.ViewCount)
}

func TestGetRequestByCode_NormalizesInput(t *testing.T) {
	repo := newFakeRequestRepo()
	svc := NewService(repo)

	created, err := svc.CreateRequest(context.Background(), validCreateRequest())
	require.NoError(t, err)

	got, err := svc.GetRequestByCode(context.Background(), "  "+strings.ToLower(created.RequestCode)+" ")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestListOpenRequests_CachesUnfilteredPages(t *testing.T) {
	repo := newFakeRequestRepo()
	cacheService := newFakeCache()
	svc := NewService(repo)
	svc.SetCacheService(cacheService)

	_, err := svc.CreateRequest(context.Background(), validCreateRequest())
	require.NoError(t, err)

	first, err := svc.ListOpenRequests(context.Background(), ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.TotalCount)

	// A second unfiltered read is served from cache even after the row changes
	repo.mu.Lock()
	for _, row := range repo.rows {
		row.Status = StatusCancelled
	}
	repo.mu.Unlock()

	cached, err := svc.ListOpenRequests(context.Background(), ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), cached.TotalCount)

	// Filtered queries bypass the cache
	filtered, err := svc.ListOpenRequests(context.Background(), ListQuery{VehicleType: "SUV"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), filtered.TotalCount)
}

func TestCancelRequest_InvalidatesCaches(t *testing.T) {
	repo := newFakeRequestRepo()
	cacheService := newFakeCache()
	svc := NewService(repo)
	svc.SetCacheService(cacheService)

	created, err := svc.CreateRequest(context.Background(), validCreateRequest())
	require.NoError(t, err)

	id := uuid.MustParse(created.ID)
	require.NoError(t, svc.CancelRequest(context.Background(), id))

	got, err := svc.GetRequest(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.NotEmpty(t, cacheService.patterns)

	// Cancelling again reports the terminal status
	assert.ErrorIs(t, svc.CancelRequest(context.Background(), id), ErrRequestTerminal)
}

func TestCancelRequest_Missing(t *testing.T) {
	svc := NewService(newFakeRequestRepo())
	assert.ErrorIs(t, svc.CancelRequest(context.Background(), uuid.New()), ErrRequestNotFound)
}
