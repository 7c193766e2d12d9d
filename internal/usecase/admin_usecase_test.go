package usecase

import (
	"context"
	"testing"

	"github.com/ferdian3456/tiergate/internal/constant"
	"github.com/ferdian3456/tiergate/internal/model"
	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const operatorID int64 = 500

func newTestAdmin(stub *stubLookup, bot *fakeBot) *AdminUsecase {
	// operatorID is an administrator of the standard channel only.
	bot.setMemberStatus("-100111", operatorID, "administrator")

	return NewAdminUsecase(stub, bot.client(), testResolver(), FailClosed, false, zap.NewNop(), koanf.New("."))
}

func TestApproveRejectsNonOperator(t *testing.T) {
	bot := newFakeBot(t)
	admin := newTestAdmin(&stubLookup{}, bot)

	reply, err := admin.Approve(context.Background(), 999, model.TgUser{ID: 42, Username: "bob"}, "-100111")
	require.NoError(t, err)
	assert.Equal(t, constant.MSG_NOT_OPERATOR, reply)

	assert.Empty(t, bot.callsTo("unbanChatMember"), "rejected command must not touch the platform")
}

func TestApproveUnbansTarget(t *testing.T) {
	bot := newFakeBot(t)
	admin := newTestAdmin(&stubLookup{}, bot)

	reply, err := admin.Approve(context.Background(), operatorID, model.TgUser{ID: 42, Username: "bob"}, "-100111")
	require.NoError(t, err)
	assert.Contains(t, reply, "bob")

	unbans := bot.callsTo("unbanChatMember")
	require.Len(t, unbans, 1)
	assert.Equal(t, "-100111", unbans[0].Payload["chat_id"])
	assert.Equal(t, float64(42), unbans[0].Payload["user_id"])
	assert.Equal(t, true, unbans[0].Payload["only_if_banned"])
}

func TestInviteResolvesTierChannel(t *testing.T) {
	bot := newFakeBot(t)
	stub := &stubLookup{queue: []stubResult{
		{result: model.LookupResult{State: model.LookupActive, Record: &model.SubscriptionRecord{Identity: 42, Handle: "bob", AmountPaid: 79, PaymentStatus: "completed", IsActive: true}}},
	}}
	admin := newTestAdmin(stub, bot)

	reply, err := admin.Invite(context.Background(), operatorID, "@bob")
	require.NoError(t, err)
	assert.Contains(t, reply, "https://t.me/+fake")
	assert.Contains(t, reply, "₹79")

	links := bot.callsTo("createChatInviteLink")
	require.Len(t, links, 1)
	assert.Equal(t, "-100222", links[0].Payload["chat_id"], "premium amount must scope the invite to the premium channel")
	assert.Equal(t, true, links[0].Payload["creates_join_request"])
}

func TestInviteWithoutSubscription(t *testing.T) {
	bot := newFakeBot(t)
	admin := newTestAdmin(&stubLookup{}, bot)

	reply, err := admin.Invite(context.Background(), operatorID, "ghost")
	require.NoError(t, err)
	assert.Contains(t, reply, "No valid subscription")
	assert.Empty(t, bot.callsTo("createChatInviteLink"))
}

func TestCheckIsSelfServe(t *testing.T) {
	bot := newFakeBot(t)
	stub := &stubLookup{queue: []stubResult{
		{result: model.LookupResult{State: model.LookupActive, Record: &model.SubscriptionRecord{Identity: 7, Handle: "carol", AmountPaid: 299, PaymentStatus: "completed", IsActive: true}}},
	}}
	admin := newTestAdmin(stub, bot)

	// 7 is not an operator anywhere; /check must still answer.
	reply, err := admin.Check(context.Background(), model.TgUser{ID: 7, Username: "carol"})
	require.NoError(t, err)
	assert.Contains(t, reply, "standard")
}

func TestCheckWithoutSubscription(t *testing.T) {
	bot := newFakeBot(t)
	admin := newTestAdmin(&stubLookup{}, bot)

	reply, err := admin.Check(context.Background(), model.TgUser{ID: 7, Username: "carol"})
	require.NoError(t, err)
	assert.Equal(t, constant.MSG_NO_SUBSCRIPTION, reply)
}

func TestUnbanResolvesIdentityThroughRegistry(t *testing.T) {
	bot := newFakeBot(t)
	stub := &stubLookup{queue: []stubResult{
		{result: model.LookupResult{State: model.LookupActive, Record: &model.SubscriptionRecord{Identity: 42, Handle: "bob", AmountPaid: 49, PaymentStatus: "completed", IsActive: true}}},
	}}
	admin := newTestAdmin(stub, bot)

	reply, err := admin.Unban(context.Background(), operatorID, "bob")
	require.NoError(t, err)
	assert.Contains(t, reply, "2 channel(s)")

	assert.Len(t, bot.callsTo("unbanChatMember"), 2, "unban runs across every managed channel")
}

func TestUnbanDegradesWhenIdentityUnresolvable(t *testing.T) {
	bot := newFakeBot(t)
	stub := &stubLookup{queue: []stubResult{
		{result: model.LookupResult{State: model.LookupActive, Record: &model.SubscriptionRecord{Handle: "bob", AmountPaid: 49, PaymentStatus: "completed", IsActive: true}}},
	}}
	admin := newTestAdmin(stub, bot)

	reply, err := admin.Unban(context.Background(), operatorID, "bob")
	require.NoError(t, err)
	assert.Contains(t, reply, "Cannot resolve")
	assert.Empty(t, bot.callsTo("unbanChatMember"))
}

func TestDebugReportsMatchedRecord(t *testing.T) {
	bot := newFakeBot(t)
	stub := &stubLookup{queue: []stubResult{
		{result: model.LookupResult{State: model.LookupActive, Record: &model.SubscriptionRecord{Identity: 42, Handle: "bob", AmountPaid: 999, PaymentStatus: "completed", IsActive: true}}},
	}}
	admin := newTestAdmin(stub, bot)

	reply, err := admin.Debug(context.Background(), operatorID, "bob")
	require.NoError(t, err)
	assert.Contains(t, reply, "₹999")
	assert.Contains(t, reply, "unknown amount")
}

func TestStatusOverview(t *testing.T) {
	bot := newFakeBot(t)
	admin := newTestAdmin(&stubLookup{}, bot)

	reply, err := admin.Status(context.Background(), operatorID)
	require.NoError(t, err)
	assert.Contains(t, reply, "-100111")
	assert.Contains(t, reply, "Fail mode: closed")
}
