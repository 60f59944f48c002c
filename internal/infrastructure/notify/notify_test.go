package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/garyjia/societyhub/internal/application/port"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkIm "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var testMessage = port.OutboundMessage{
	Type:          "transaction_update",
	Recipient:     "manager@greenvalley.org",
	Subject:       "Transaction Update - ABC Maintenance Services",
	Body:          "Dear Society User,\n\nYour transaction has been updated.",
	TransactionID: "txn1",
}

func TestLogChannel_Send(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ch := NewLogChannel(zap.New(core))

	assert.Equal(t, ChannelLog, ch.Name())
	require.NoError(t, ch.Send(context.Background(), testMessage))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "manager@greenvalley.org", fields["recipient"])
	assert.Equal(t, "txn1", fields["transaction_id"])
}

type fakeLark struct {
	resp *larkIm.CreateMessageResp
	err  error
	reqs []*larkIm.CreateMessageReq
}

func (f *fakeLark) Create(ctx context.Context, req *larkIm.CreateMessageReq, options ...larkcore.RequestOptionFunc) (*larkIm.CreateMessageResp, error) {
	f.reqs = append(f.reqs, req)
	return f.resp, f.err
}

func TestLarkChannel_Send(t *testing.T) {
	messageID := "om_123"
	ok := &larkIm.CreateMessageResp{Data: &larkIm.CreateMessageRespData{MessageId: &messageID}}
	rejected := &larkIm.CreateMessageResp{CodeError: larkcore.CodeError{Code: 230013, Msg: "bot has no availability to this user"}}

	tests := []struct {
		name      string
		recipient string
		fake      *fakeLark
		wantErr   string
		wantCalls int
	}{
		{name: "delivered", recipient: testMessage.Recipient, fake: &fakeLark{resp: ok}, wantCalls: 1},
		{name: "api failure", recipient: testMessage.Recipient, fake: &fakeLark{resp: rejected}, wantErr: "code=230013", wantCalls: 1},
		{name: "transport failure", recipient: testMessage.Recipient, fake: &fakeLark{err: errors.New("dial tcp: timeout")}, wantErr: "failed to send message", wantCalls: 1},
		{name: "recipient without email", recipient: "manager1", fake: &fakeLark{resp: ok}, wantErr: "email address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := newLarkChannel(tt.fake, zap.NewNop())
			msg := testMessage
			msg.Recipient = tt.recipient

			err := ch.Send(context.Background(), msg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Len(t, tt.fake.reqs, tt.wantCalls)
		})
	}
}

func TestLarkChannel_MessageBody(t *testing.T) {
	fake := &fakeLark{resp: &larkIm.CreateMessageResp{}}
	ch := newLarkChannel(fake, nil)
	require.NoError(t, ch.Send(context.Background(), testMessage))
	require.Len(t, fake.reqs, 1)

	body := fake.reqs[0].Body
	require.NotNil(t, body)
	assert.Equal(t, "manager@greenvalley.org", *body.ReceiveId)
	assert.Equal(t, "text", *body.MsgType)

	var content map[string]string
	require.NoError(t, json.Unmarshal([]byte(*body.Content), &content))
	assert.Equal(t, testMessage.Subject+"\n\n"+testMessage.Body, content["text"])
}

type fakePublisher struct {
	receivers int64
	err       error
	topic     string
	payload   []byte
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.topic = channel
	f.payload, _ = message.([]byte)
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(f.receivers)
	}
	return cmd
}

func TestRedisChannel_Send(t *testing.T) {
	pub := &fakePublisher{receivers: 1}
	ch := newRedisChannel(pub, "", zap.NewNop())
	assert.Equal(t, ChannelRedis, ch.Name())

	require.NoError(t, ch.Send(context.Background(), testMessage))
	assert.Equal(t, DefaultRedisTopic, pub.topic)

	var published map[string]interface{}
	require.NoError(t, json.Unmarshal(pub.payload, &published))
	assert.Equal(t, "txn1", published["transactionId"])
	assert.Equal(t, "manager@greenvalley.org", published["recipient"])
	assert.Contains(t, published, "publishedAt")
	assert.NoError(t, ch.Close())
}

func TestRedisChannel_SendErrors(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	pub := &fakePublisher{}
	ch := newRedisChannel(pub, "custom", zap.New(core))

	// no subscribers is not a failure
	require.NoError(t, ch.Send(context.Background(), testMessage))
	assert.Equal(t, "custom", pub.topic)
	assert.Equal(t, 1, logs.FilterMessage("Notification published with no subscribers").Len())

	pub.err = errors.New("connection refused")
	err := ch.Send(context.Background(), testMessage)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
