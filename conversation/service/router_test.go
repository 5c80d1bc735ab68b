package service

import (
	"context"
	"encoding/json"
	"testing"

	"counseling-platform/backend/conversation/models"
	"counseling-platform/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishedMessage struct {
	channel string
	payload []byte
}

type fakePublisher struct {
	published []publishedMessage
}

func (p *fakePublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	p.published = append(p.published, publishedMessage{channel: channel, payload: payload})
	return nil
}

func (p *fakePublisher) channels() []string {
	out := make([]string, 0, len(p.published))
	for _, m := range p.published {
		out = append(out, m.channel)
	}
	return out
}

func newTestRouter(repo *fakeMessageRepo, publisher *fakePublisher) *MessageRouter {
	store := NewMessageService(repo, 0, 50, logger.GetGlobal())
	return NewMessageRouter(store, publisher, logger.GetGlobal())
}

func TestRouteUserToCounselor(t *testing.T) {
	repo := &fakeMessageRepo{}
	publisher := &fakePublisher{}
	router := newTestRouter(repo, publisher)

	err := router.Route(context.Background(), &InboundMessage{
		SenderID:   7,
		ReceiverID: 3,
		SenderType: models.SenderUser,
		Content:    "你好",
	})
	require.NoError(t, err)

	// Persisted under the canonical pair
	require.Len(t, repo.saved, 1)
	assert.Equal(t, uint(7), repo.saved[0].UserID)
	assert.Equal(t, uint(3), repo.saved[0].CounselorID)
	assert.Equal(t, models.SenderUser, repo.saved[0].SenderType)

	// Receiver delivery plus sender echo
	assert.Equal(t, []string{"counselor:3", "user:7"}, publisher.channels())

	var out OutboundMessage
	require.NoError(t, json.Unmarshal(publisher.published[0].payload, &out))
	assert.Equal(t, "你好", out.Content)
	assert.NotEmpty(t, out.ExternalID)
}

func TestRouteCounselorToUserCanonicalPair(t *testing.T) {
	repo := &fakeMessageRepo{}
	publisher := &fakePublisher{}
	router := newTestRouter(repo, publisher)

	err := router.Route(context.Background(), &InboundMessage{
		SenderID:   3,
		ReceiverID: 7,
		SenderType: models.SenderCounselor,
		Content:    "最近睡眠怎么样",
	})
	require.NoError(t, err)

	// The user side of the pair is still the user id
	require.Len(t, repo.saved, 1)
	assert.Equal(t, uint(7), repo.saved[0].UserID)
	assert.Equal(t, uint(3), repo.saved[0].CounselorID)

	assert.Equal(t, []string{"user:7", "counselor:3"}, publisher.channels())
}

func TestRoutePersistFailureStillDelivers(t *testing.T) {
	repo := &fakeMessageRepo{failCreate: true}
	publisher := &fakePublisher{}
	router := newTestRouter(repo, publisher)

	err := router.Route(context.Background(), &InboundMessage{
		SenderID:   7,
		ReceiverID: 3,
		SenderType: models.SenderUser,
		Content:    "你好",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"counselor:3", "user:7"}, publisher.channels())
}

func TestRouteUnknownSenderKind(t *testing.T) {
	repo := &fakeMessageRepo{}
	publisher := &fakePublisher{}
	router := newTestRouter(repo, publisher)

	err := router.Route(context.Background(), &InboundMessage{
		SenderID:   7,
		ReceiverID: 3,
		SenderType: "ROBOT",
		Content:    "你好",
	})
	require.Error(t, err)

	// Nothing persisted, sender notified on its error channel
	assert.Empty(t, repo.saved)
	require.Len(t, publisher.published, 1)
	assert.Equal(t, "errors:user:7", publisher.published[0].channel)

	var notice ErrorNotice
	require.NoError(t, json.Unmarshal(publisher.published[0].payload, &notice))
	assert.NotEmpty(t, notice.Error)
	assert.Equal(t, "你好", notice.Content)
}

func TestDeliverPublishesToBothParties(t *testing.T) {
	repo := &fakeMessageRepo{}
	publisher := &fakePublisher{}
	router := newTestRouter(repo, publisher)

	err := router.Deliver(context.Background(), &models.ConversationMessage{
		SenderType:  models.SenderCounselor,
		Content:     "你好！我是心理咨询师。",
		UserID:      7,
		CounselorID: 3,
	})
	require.NoError(t, err)

	require.Len(t, repo.saved, 1)
	assert.Equal(t, []string{"user:7", "counselor:3"}, publisher.channels())
}

func TestDeliverPersistFailureFails(t *testing.T) {
	repo := &fakeMessageRepo{failCreate: true}
	publisher := &fakePublisher{}
	router := newTestRouter(repo, publisher)

	err := router.Deliver(context.Background(), &models.ConversationMessage{
		SenderType:  models.SenderCounselor,
		UserID:      7,
		CounselorID: 3,
	})
	require.Error(t, err)
	assert.Empty(t, publisher.published)
}
