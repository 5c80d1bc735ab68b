package service

import (
	"context"
	"sync"
	"testing"
	"time"

	counselormodels "counseling-platform/backend/counselor/models"
	convmodels "counseling-platform/backend/conversation/models"
	"counseling-platform/backend/matching/keywords"
	"counseling-platform/backend/matching/models"
	apperrors "counseling-platform/backend/pkg/errors"
	"counseling-platform/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeRequestRepo struct {
	mu       sync.Mutex
	requests map[uint]*models.IntakeRequest
	nextID   uint
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: make(map[uint]*models.IntakeRequest), nextID: 1}
}

func (r *fakeRequestRepo) Create(request *models.IntakeRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	request.ID = r.nextID
	r.nextID++
	copied := *request
	r.requests[request.ID] = &copied
	return nil
}

func (r *fakeRequestRepo) GetByID(id uint) (*models.IntakeRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	request, ok := r.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *request
	return &copied, nil
}

func (r *fakeRequestRepo) MarkMatched(id uint, counselorID uint, matchedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	request, ok := r.requests[id]
	if !ok || request.Status != models.StatusPending {
		return false, nil
	}
	request.Status = models.StatusMatched
	request.MatchedCounselorID = &counselorID
	request.MatchedTime = &matchedAt
	return true, nil
}

func (r *fakeRequestRepo) ListMatchedByUser(userID uint) ([]models.IntakeRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.IntakeRequest
	for _, request := range r.requests {
		if request.UserID == userID && request.Status == models.StatusMatched {
			out = append(out, *request)
		}
	}
	return out, nil
}

type fakeDirectory struct {
	counselors []counselormodels.Counselor
}

func (d *fakeDirectory) ListApproved() ([]counselormodels.Counselor, error) {
	return d.counselors, nil
}

func (d *fakeDirectory) GetByID(id uint) (*counselormodels.Counselor, error) {
	for i := range d.counselors {
		if d.counselors[i].ID == id {
			return &d.counselors[i], nil
		}
	}
	return nil, apperrors.NewCounselorNotFoundError(id)
}

type fakeGreetings struct {
	mu       sync.Mutex
	messages []*convmodels.ConversationMessage
}

func (g *fakeGreetings) Deliver(ctx context.Context, message *convmodels.ConversationMessage) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.messages = append(g.messages, message)
	return nil
}

func newTestService(repo *fakeRequestRepo, directory *fakeDirectory, greetings *fakeGreetings) *MatchingService {
	return NewMatchingService(
		repo,
		directory,
		greetings,
		keywords.NewExtractor(keywords.DefaultDictionary()),
		nil,
		"很高兴为您提供心理咨询服务，请问有什么可以帮助您的吗？",
		logger.GetGlobal(),
	)
}

func submit(t *testing.T, s *MatchingService, description string) uint {
	t.Helper()
	id, err := s.SubmitRequest(context.Background(), &models.SubmitRequest{
		UserID:             7,
		ProblemDescription: description,
	})
	require.NoError(t, err)
	return id
}

func TestSubmitRequestValidation(t *testing.T) {
	s := newTestService(newFakeRequestRepo(), &fakeDirectory{}, &fakeGreetings{})

	_, err := s.SubmitRequest(context.Background(), &models.SubmitRequest{ProblemDescription: "焦虑"})
	assert.Error(t, err)

	_, err = s.SubmitRequest(context.Background(), &models.SubmitRequest{UserID: 7, ProblemDescription: "   "})
	assert.Error(t, err)
}

func TestAttemptMatchUnknownRequest(t *testing.T) {
	s := newTestService(newFakeRequestRepo(), &fakeDirectory{}, &fakeGreetings{})

	_, err := s.AttemptMatch(context.Background(), 42)
	require.Error(t, err)
	assert.Equal(t, "REQUEST_NOT_FOUND", apperrors.FromError(err).Code)
}

func TestAttemptMatchSuccess(t *testing.T) {
	repo := newFakeRequestRepo()
	directory := &fakeDirectory{counselors: []counselormodels.Counselor{
		{ID: 3, RealName: "王医生", Specialization: counselormodels.StringList{"焦虑情绪", "睡眠问题"}, Introduction: "十年临床经验"},
		{ID: 5, Specialization: counselormodels.StringList{"婚姻家庭"}},
	}}
	greetings := &fakeGreetings{}
	s := newTestService(repo, directory, greetings)

	id := submit(t, s, "最近总是很焦虑，睡不着")

	matched, err := s.AttemptMatch(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, matched)

	request, err := repo.GetByID(id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusMatched, request.Status)
	require.NotNil(t, request.MatchedCounselorID)
	assert.Equal(t, uint(3), *request.MatchedCounselorID)
	assert.NotNil(t, request.MatchedTime)

	require.Len(t, greetings.messages, 1)
	greeting := greetings.messages[0]
	assert.Equal(t, uint(7), greeting.UserID)
	assert.Equal(t, uint(3), greeting.CounselorID)
	assert.Equal(t, convmodels.SenderCounselor, greeting.SenderType)
	assert.Equal(t, "你好！我是王医生。 十年临床经验", greeting.Content)
}

func TestAttemptMatchGreetingFallback(t *testing.T) {
	repo := newFakeRequestRepo()
	directory := &fakeDirectory{counselors: []counselormodels.Counselor{
		{ID: 3, Specialization: counselormodels.StringList{"焦虑情绪"}},
	}}
	greetings := &fakeGreetings{}
	s := newTestService(repo, directory, greetings)

	id := submit(t, s, "总是焦虑")

	matched, err := s.AttemptMatch(context.Background(), id)
	require.NoError(t, err)
	require.True(t, matched)

	require.Len(t, greetings.messages, 1)
	assert.Equal(t, "你好！我是心理咨询师。 很高兴为您提供心理咨询服务，请问有什么可以帮助您的吗？",
		greetings.messages[0].Content)
}

func TestAttemptMatchNoTagsStaysPending(t *testing.T) {
	repo := newFakeRequestRepo()
	directory := &fakeDirectory{counselors: []counselormodels.Counselor{
		{ID: 3, Specialization: counselormodels.StringList{"焦虑情绪"}},
	}}
	greetings := &fakeGreetings{}
	s := newTestService(repo, directory, greetings)

	id := submit(t, s, "今天天气不错")

	matched, err := s.AttemptMatch(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, matched)

	request, _ := repo.GetByID(id)
	assert.Equal(t, models.StatusPending, request.Status)
	assert.Empty(t, greetings.messages)
}

func TestAttemptMatchNoEligibleCounselor(t *testing.T) {
	repo := newFakeRequestRepo()
	directory := &fakeDirectory{counselors: []counselormodels.Counselor{
		{ID: 3, Specialization: counselormodels.StringList{"婚姻家庭"}},
	}}
	greetings := &fakeGreetings{}
	s := newTestService(repo, directory, greetings)

	id := submit(t, s, "总是焦虑")

	matched, err := s.AttemptMatch(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, matched)
	assert.Empty(t, greetings.messages)
}

func TestConcurrentAttemptsMatchOnce(t *testing.T) {
	repo := newFakeRequestRepo()
	directory := &fakeDirectory{counselors: []counselormodels.Counselor{
		{ID: 3, Specialization: counselormodels.StringList{"焦虑情绪"}},
	}}
	greetings := &fakeGreetings{}
	s := newTestService(repo, directory, greetings)

	id := submit(t, s, "总是焦虑")

	const attempts = 8
	results := make(chan bool, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			matched, err := s.AttemptMatch(context.Background(), id)
			assert.NoError(t, err)
			results <- matched
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for matched := range results {
		if matched {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Len(t, greetings.messages, 1)
}

func TestMatchedCounselorIDsDistinct(t *testing.T) {
	repo := newFakeRequestRepo()
	directory := &fakeDirectory{counselors: []counselormodels.Counselor{
		{ID: 3, Specialization: counselormodels.StringList{"焦虑情绪"}},
	}}
	s := newTestService(repo, directory, &fakeGreetings{})

	for i := 0; i < 2; i++ {
		id := submit(t, s, "总是焦虑")
		matched, err := s.AttemptMatch(context.Background(), id)
		require.NoError(t, err)
		require.True(t, matched)
	}

	ids, err := s.MatchedCounselorIDs(7)
	require.NoError(t, err)
	assert.Equal(t, []uint{3}, ids)
}
