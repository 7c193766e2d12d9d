package integration

import (
	"context"
	"testing"

	"github.com/ferdian3456/tiergate/tests/integration/setup"
	"github.com/stretchr/testify/require"
)

// TestGateAdmitsActiveSubscriber covers the happy path: a paid subscriber
// joins the channel matching their tier and is left in place and welcomed.
func TestGateAdmitsActiveSubscriber(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	t.Log("=== Starting Test Infrastructure ===")
	infra, err := setup.StartInfra(ctx, t)
	require.NoError(t, err)

	t.Cleanup(func() {
		t.Log("=== Cleaning Up Test Infrastructure ===")
		_ = infra.Terminate(ctx, t)
	})

	t.Log("=== Running Database Migrations ===")
	err = setup.RunMigration(infra.PgURL, t)
	require.NoError(t, err)

	bot := setup.StartFakeBotAPI(t)

	t.Log("=== Setting Up Test Application ===")
	dispatcher, db, _ := setup.SetupTestApp(t, infra.PgURL, infra.RedisURL, bot.URL())

	t.Cleanup(func() {
		t.Log("=== Cleaning Up Database ===")
		setup.TruncateAllTables(t, db, ctx)
	})

	setup.SeedSubscription(t, db, ctx, 101, "alice", 49, "completed", true)

	t.Log("=== Dispatching Join Transition ===")
	dispatcher.Dispatch(ctx, setup.MemberJoinUpdate(1, -1001111111111, 101, "alice", "left", "member"))

	bans := bot.CallsTo("banChatMember")
	require.Empty(t, bans, "active subscriber should not be banned")

	unbans := bot.CallsTo("unbanChatMember")
	require.Len(t, unbans, 1, "admit should clear any earlier ban")
	require.Equal(t, setup.StandardChannelID, unbans[0].Payload["chat_id"])
	require.Equal(t, float64(101), unbans[0].Payload["user_id"])

	messages := bot.CallsTo("sendMessage")
	require.Len(t, messages, 1, "admit should post a welcome")
	require.Contains(t, messages[0].Payload["text"], "alice")
}

// TestGateRedirectsWrongChannel covers a premium subscriber joining the
// standard channel: evicted from the wrong channel and told where to go.
func TestGateRedirectsWrongChannel(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	infra, err := setup.StartInfra(ctx, t)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = infra.Terminate(ctx, t)
	})

	err = setup.RunMigration(infra.PgURL, t)
	require.NoError(t, err)

	bot := setup.StartFakeBotAPI(t)
	dispatcher, db, _ := setup.SetupTestApp(t, infra.PgURL, infra.RedisURL, bot.URL())

	t.Cleanup(func() {
		setup.TruncateAllTables(t, db, ctx)
	})

	setup.SeedSubscription(t, db, ctx, 102, "bob", 79, "completed", true)

	dispatcher.Dispatch(ctx, setup.MemberJoinUpdate(1, -1001111111111, 102, "bob", "left", "member"))

	bans := bot.CallsTo("banChatMember")
	require.Len(t, bans, 1, "wrong-channel joiner should be evicted")
	require.Equal(t, setup.StandardChannelID, bans[0].Payload["chat_id"])
	require.Equal(t, float64(102), bans[0].Payload["user_id"])

	messages := bot.CallsTo("sendMessage")
	require.Len(t, messages, 1)
	require.Contains(t, messages[0].Payload["text"], "premium")
}

// TestGateEvictsUnknownJoiner covers a joiner without any registry row.
func TestGateEvictsUnknownJoiner(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	infra, err := setup.StartInfra(ctx, t)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = infra.Terminate(ctx, t)
	})

	err = setup.RunMigration(infra.PgURL, t)
	require.NoError(t, err)

	bot := setup.StartFakeBotAPI(t)
	dispatcher, db, _ := setup.SetupTestApp(t, infra.PgURL, infra.RedisURL, bot.URL())

	t.Cleanup(func() {
		setup.TruncateAllTables(t, db, ctx)
	})

	dispatcher.Dispatch(ctx, setup.MemberJoinUpdate(1, -1002222222222, 103, "mallory", "left", "member"))

	bans := bot.CallsTo("banChatMember")
	require.Len(t, bans, 1, "unknown joiner should be evicted")
	require.Equal(t, setup.PremiumChannelID, bans[0].Payload["chat_id"])
	require.Equal(t, float64(103), bans[0].Payload["user_id"])
}

// TestDuplicateUpdateIgnored verifies redelivered update ids are dropped by
// the Redis dedupe marker.
func TestDuplicateUpdateIgnored(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	infra, err := setup.StartInfra(ctx, t)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = infra.Terminate(ctx, t)
	})

	err = setup.RunMigration(infra.PgURL, t)
	require.NoError(t, err)

	bot := setup.StartFakeBotAPI(t)
	dispatcher, db, _ := setup.SetupTestApp(t, infra.PgURL, infra.RedisURL, bot.URL())

	t.Cleanup(func() {
		setup.TruncateAllTables(t, db, ctx)
	})

	update := setup.MemberJoinUpdate(42, -1001111111111, 104, "eve", "left", "member")
	dispatcher.Dispatch(ctx, update)

	require.Len(t, bot.CallsTo("banChatMember"), 1)
	bot.Reset()

	dispatcher.Dispatch(ctx, update)

	require.Empty(t, bot.Methods(), "redelivered update should be dropped before any API call")
}

// TestRedeliveryRunsAfterEvictFailure verifies an update whose eviction
// failed is not consumed by the dedupe marker: when the platform redelivers
// the same update id, the eviction runs again.
func TestRedeliveryRunsAfterEvictFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	infra, err := setup.StartInfra(ctx, t)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = infra.Terminate(ctx, t)
	})

	err = setup.RunMigration(infra.PgURL, t)
	require.NoError(t, err)

	bot := setup.StartFakeBotAPI(t)
	dispatcher, db, _ := setup.SetupTestApp(t, infra.PgURL, infra.RedisURL, bot.URL())

	t.Cleanup(func() {
		setup.TruncateAllTables(t, db, ctx)
	})

	update := setup.MemberJoinUpdate(9, -1001111111111, 106, "freeloader", "left", "member")

	bot.FailOn("banChatMember", "not enough rights")
	dispatcher.Dispatch(ctx, update)
	require.Len(t, bot.CallsTo("banChatMember"), 1, "first delivery should attempt the eviction")

	bot.ClearFailures()
	bot.Reset()

	dispatcher.Dispatch(ctx, update)
	require.Len(t, bot.CallsTo("banChatMember"), 1, "redelivery must retry the failed eviction")

	bot.Reset()

	dispatcher.Dispatch(ctx, update)
	require.Empty(t, bot.Methods(), "a completed update is consumed on redelivery")
}

// TestLookupToleratesNullIdentityColumns covers registry rows where one of
// the nullable identity columns is NULL: a handle-only row (payment recorded
// before the user ever talked to the bot) must still back /invite, and an
// id-only row (user without a public handle) must still admit on join.
func TestLookupToleratesNullIdentityColumns(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	infra, err := setup.StartInfra(ctx, t)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = infra.Terminate(ctx, t)
	})

	err = setup.RunMigration(infra.PgURL, t)
	require.NoError(t, err)

	bot := setup.StartFakeBotAPI(t)
	dispatcher, db, _ := setup.SetupTestApp(t, infra.PgURL, infra.RedisURL, bot.URL())

	t.Cleanup(func() {
		setup.TruncateAllTables(t, db, ctx)
	})

	setup.SeedHandleOnlySubscription(t, db, ctx, "dana", 79)
	setup.SeedIdOnlySubscription(t, db, ctx, 105, 49)

	bot.SetMemberStatus(setup.StandardChannelID, 500, "administrator")

	t.Log("=== /invite for a handle-only row ===")
	dispatcher.Dispatch(ctx, setup.CommandUpdate(1, 500, "operator", "/invite @dana"))

	links := bot.CallsTo("createChatInviteLink")
	require.Len(t, links, 1, "handle-only row should still resolve a tier")
	require.Equal(t, setup.PremiumChannelID, links[0].Payload["chat_id"])

	messages := bot.CallsTo("sendMessage")
	require.Len(t, messages, 1)
	require.Contains(t, messages[0].Payload["text"], "Invite link")
	bot.Reset()

	t.Log("=== join with an id-only row ===")
	dispatcher.Dispatch(ctx, setup.MemberJoinUpdate(2, -1001111111111, 105, "", "left", "member"))

	require.Empty(t, bot.CallsTo("banChatMember"), "id-only subscriber should not be evicted")
	unbans := bot.CallsTo("unbanChatMember")
	require.Len(t, unbans, 1)
	require.Equal(t, float64(105), unbans[0].Payload["user_id"])
}

// TestOperatorStatusCommand verifies /status answers with the running
// configuration when invoked by a channel administrator.
func TestOperatorStatusCommand(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	infra, err := setup.StartInfra(ctx, t)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = infra.Terminate(ctx, t)
	})

	err = setup.RunMigration(infra.PgURL, t)
	require.NoError(t, err)

	bot := setup.StartFakeBotAPI(t)
	dispatcher, db, _ := setup.SetupTestApp(t, infra.PgURL, infra.RedisURL, bot.URL())

	t.Cleanup(func() {
		setup.TruncateAllTables(t, db, ctx)
	})

	bot.SetMemberStatus(setup.StandardChannelID, 500, "administrator")

	dispatcher.Dispatch(ctx, setup.CommandUpdate(7, 500, "operator", "/status"))

	messages := bot.CallsTo("sendMessage")
	require.Len(t, messages, 1)
	require.Contains(t, messages[0].Payload["text"], "Managed channels")
	require.Contains(t, messages[0].Payload["text"], "Fail mode: closed")
}
