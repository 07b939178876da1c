package session_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/cashflowgame/server/internal/dependencies/mocks"
	"github.com/cashflowgame/server/internal/factory"
	"github.com/cashflowgame/server/internal/model"
	"github.com/cashflowgame/server/internal/services/registry"
)

type CoordinatorSuite struct {
	suite.Suite
	app      *factory.TestApp
	notifier *mocks.MockNotifier
	ctx      context.Context
}

func TestCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorSuite))
}

func (s *CoordinatorSuite) SetupTest() {
	s.app = factory.NewTestApp()
	s.notifier = s.app.MockNotifier
	s.ctx = context.Background()
}

func (s *CoordinatorSuite) profession() *model.Profession {
	return &model.Profession{
		Name:          "Engineer",
		Salary:        3000,
		TotalExpenses: 1880,
	}
}

func (s *CoordinatorSuite) join(conn model.ConnectionID, code model.PlayerCode, name string) *model.Player {
	player, err := s.app.Coordinator.JoinGame(s.ctx, conn, code, name, s.profession())
	s.Require().NoError(err)
	return player
}

func (s *CoordinatorSuite) setMoney(code model.PlayerCode, money float64) {
	player, err := s.app.Storage.GetPlayer(s.ctx, code)
	s.Require().NoError(err)
	player.Money = money
	s.Require().NoError(s.app.Storage.SavePlayer(s.ctx, player))
}

func amount(v float64) *float64 { return &v }

func filterEvents(events []mocks.SentEvent, event model.EventType) []mocks.SentEvent {
	var out []mocks.SentEvent
	for _, e := range events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

// JoinGame tests

func (s *CoordinatorSuite) TestJoinGameNewPlayer() {
	player := s.join("conn-1", "ABC1", "Alice")

	s.Equal(3000.0, player.Income)
	s.Equal(1880.0, player.Expenses)

	events := s.notifier.PlayerEvents("conn-1")
	s.Require().Len(events, 2)
	s.Equal(model.EventJoinedGame, events[0].Event)
	s.Equal(model.JoinedGamePayload{PlayerCode: "ABC1", Status: "success"}, events[0].Payload)
	s.Equal(model.EventPlayerDataUpdated, events[1].Event)

	facilitator := s.notifier.FacilitatorEvents()
	s.Require().Len(facilitator, 1)
	s.Equal(model.EventPlayerJoined, facilitator[0].Event)
	joined := facilitator[0].Payload.(model.PlayerJoinedPayload)
	s.Equal(model.PlayerCode("ABC1"), joined.PlayerCode)
	s.Equal("Alice", joined.PlayerName)
	s.Equal(s.app.MockClock.Now(), joined.Timestamp)
}

func (s *CoordinatorSuite) TestJoinGameReconnect() {
	s.join("conn-1", "ABC1", "Alice")
	s.notifier.Reset()

	player := s.join("conn-2", "ABC1", "Alice")
	s.Equal(model.ConnectionID("conn-2"), player.ConnectionID)

	events := s.notifier.PlayerEvents("conn-2")
	s.Require().Len(events, 2)
	s.Equal(model.EventJoinedGame, events[0].Event)
	s.Equal(model.EventPlayerDataUpdated, events[1].Event)

	// A reconnect is a roster update, not a second join
	facilitator := s.notifier.FacilitatorEvents()
	s.Require().Len(facilitator, 1)
	s.Equal(model.EventPlayerUpdated, facilitator[0].Event)
}

func (s *CoordinatorSuite) TestJoinGamePendingUpdatesNotifiedOnce() {
	s.join("conn-1", "ABC1", "Alice")
	s.Require().NoError(s.app.RegistryController.FlagPendingUpdate(s.ctx, "ABC1"))
	s.notifier.Reset()

	s.join("conn-2", "ABC1", "Alice")
	s.Len(filterEvents(s.notifier.PlayerEvents("conn-2"), model.EventPendingUpdates), 1)

	s.notifier.Reset()
	s.join("conn-3", "ABC1", "Alice")
	s.Empty(filterEvents(s.notifier.PlayerEvents("conn-3"), model.EventPendingUpdates))
}

// AdminJoin tests

func (s *CoordinatorSuite) TestAdminJoin() {
	s.join("conn-1", "ABC1", "Alice")
	s.join("conn-2", "XYZ9", "Bob")
	_, err := s.app.Coordinator.SubmitAction(s.ctx, "conn-1", "ABC1", model.RequestMoneyDetails{Amount: amount(500)})
	s.Require().NoError(err)
	s.notifier.Reset()

	s.Require().NoError(s.app.Coordinator.AdminJoin(s.ctx, "admin-1"))

	events := s.notifier.PlayerEvents("admin-1")
	s.Require().Len(events, 3)
	s.Equal(model.EventAdminJoined, events[0].Event)
	s.Equal(model.AdminJoinedPayload{Status: "success"}, events[0].Payload)

	// Roster and backlog go out as bare arrays, not wrapped objects
	s.Equal(model.EventCurrentPlayers, events[1].Event)
	s.Len(events[1].Payload.([]*model.Player), 2)

	s.Equal(model.EventPendingActions, events[2].Event)
	s.Len(events[2].Payload.([]*model.PendingAction), 1)
}

func (s *CoordinatorSuite) TestAdminJoinEmptyBacklogOmitted() {
	s.Require().NoError(s.app.Coordinator.AdminJoin(s.ctx, "admin-1"))

	events := s.notifier.PlayerEvents("admin-1")
	s.Require().Len(events, 2)
	s.Equal(model.EventAdminJoined, events[0].Event)
	s.Equal(model.EventCurrentPlayers, events[1].Event)
}

// SubmitAction tests

func (s *CoordinatorSuite) TestSubmitAction() {
	s.join("conn-1", "ABC1", "Alice")
	s.notifier.Reset()

	action, err := s.app.Coordinator.SubmitAction(s.ctx, "conn-1", "ABC1", model.RequestMoneyDetails{Amount: amount(500)})
	s.Require().NoError(err)

	events := s.notifier.PlayerEvents("conn-1")
	s.Require().Len(events, 1)
	s.Equal(model.EventActionSubmitted, events[0].Event)
	s.Equal(model.ActionSubmittedPayload{Status: "pending"}, events[0].Payload)

	// The facilitator prompt is the stored entry itself
	facilitator := s.notifier.FacilitatorEvents()
	s.Require().Len(facilitator, 1)
	s.Equal(model.EventActionRequest, facilitator[0].Event)
	request := facilitator[0].Payload.(*model.PendingAction)
	s.Equal(action.ID, request.ID)
	s.Equal(model.PlayerCode("ABC1"), request.PlayerCode)
	s.Equal(model.ActionRequestMoney, request.Action)
	s.Equal(model.StatusPending, request.Status)
}

func (s *CoordinatorSuite) TestSubmitActionDuplicate() {
	s.join("conn-1", "ABC1", "Alice")
	first, err := s.app.Coordinator.SubmitAction(s.ctx, "conn-1", "ABC1", model.RequestMoneyDetails{Amount: amount(500)})
	s.Require().NoError(err)
	s.notifier.Reset()

	second, err := s.app.Coordinator.SubmitAction(s.ctx, "conn-1", "ABC1", model.RequestMoneyDetails{Amount: amount(500)})
	s.Require().NoError(err)
	s.Equal(first.ID, second.ID)

	// Re-acked with the existing entry's id
	events := s.notifier.PlayerEvents("conn-1")
	s.Require().Len(events, 1)
	s.Equal(model.ActionSubmittedPayload{Status: "pending", ActionID: first.ID}, events[0].Payload)

	// No second facilitator prompt
	s.Empty(s.notifier.FacilitatorEvents())
}

func (s *CoordinatorSuite) TestSubmitActionUnknownPlayer() {
	_, err := s.app.Coordinator.SubmitAction(s.ctx, "conn-1", "NOPE", model.RequestMoneyDetails{Amount: amount(500)})
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Decide tests

func (s *CoordinatorSuite) submit(conn model.ConnectionID, code model.PlayerCode, details model.ActionDetails) *model.PendingAction {
	action, err := s.app.Coordinator.SubmitAction(s.ctx, conn, code, details)
	s.Require().NoError(err)
	return action
}

func (s *CoordinatorSuite) TestDecideApproved() {
	s.join("conn-1", "ABC1", "Alice")
	action := s.submit("conn-1", "ABC1", model.RequestMoneyDetails{Amount: amount(500)})
	s.notifier.Reset()

	s.Require().NoError(s.app.Coordinator.Decide(s.ctx, action.ID, true, ""))

	events := s.notifier.PlayerEvents("conn-1")
	s.Require().Len(events, 2)
	s.Equal(model.EventActionResult, events[0].Event)
	result := events[0].Payload.(model.ActionResultPayload)
	s.True(result.Approved)
	s.Equal(model.ActionRequestMoney, result.Action)
	s.Equal(model.EventPlayerDataUpdated, events[1].Event)

	facilitator := s.notifier.FacilitatorEvents()
	processed := filterEvents(facilitator, model.EventActionProcessed)
	s.Require().Len(processed, 1)
	s.True(processed[0].Payload.(model.ActionProcessedPayload).Approved)
	s.Len(filterEvents(facilitator, model.EventPlayerUpdated), 1)

	player, err := s.app.Storage.GetPlayer(s.ctx, "ABC1")
	s.Require().NoError(err)
	s.Equal(500.0, player.Money)

	// Decided entries are retired, not archived
	_, err = s.app.Storage.GetAction(s.ctx, action.ID)
	s.ErrorIs(err, model.ErrActionNotFound)
}

func (s *CoordinatorSuite) TestDecideRejected() {
	s.join("conn-1", "ABC1", "Alice")
	action := s.submit("conn-1", "ABC1", model.RequestMoneyDetails{Amount: amount(500)})
	s.notifier.Reset()

	s.Require().NoError(s.app.Coordinator.Decide(s.ctx, action.ID, false, ""))

	events := s.notifier.PlayerEvents("conn-1")
	s.Require().Len(events, 1)
	result := events[0].Payload.(model.ActionResultPayload)
	s.False(result.Approved)
	s.Equal("Action denied", result.Reason)

	processed := filterEvents(s.notifier.FacilitatorEvents(), model.EventActionProcessed)
	s.Require().Len(processed, 1)
	s.False(processed[0].Payload.(model.ActionProcessedPayload).Approved)

	player, err := s.app.Storage.GetPlayer(s.ctx, "ABC1")
	s.Require().NoError(err)
	s.Equal(0.0, player.Money)

	_, err = s.app.Storage.GetAction(s.ctx, action.ID)
	s.ErrorIs(err, model.ErrActionNotFound)
}

func (s *CoordinatorSuite) TestDecideRejectedWithReason() {
	s.join("conn-1", "ABC1", "Alice")
	action := s.submit("conn-1", "ABC1", model.RequestMoneyDetails{Amount: amount(500)})
	s.notifier.Reset()

	s.Require().NoError(s.app.Coordinator.Decide(s.ctx, action.ID, false, "Not this round"))

	result := s.notifier.PlayerEvents("conn-1")[0].Payload.(model.ActionResultPayload)
	s.Equal("Not this round", result.Reason)
}

func (s *CoordinatorSuite) TestDecideApprovedValidationNoOp() {
	s.join("conn-1", "ABC1", "Alice")
	action := s.submit("conn-1", "ABC1", model.BuyAssetDetails{
		AssetType: model.AssetStock,
		Name:      "OK4U",
		Value:     5000,
	})
	s.notifier.Reset()

	s.Require().NoError(s.app.Coordinator.Decide(s.ctx, action.ID, true, ""))

	// An approval that fails validation is reported as unapplied to both
	// sides, not silently dropped
	result := s.notifier.PlayerEvents("conn-1")[0].Payload.(model.ActionResultPayload)
	s.False(result.Approved)
	s.Equal("invalid quantity", result.Reason)

	processed := filterEvents(s.notifier.FacilitatorEvents(), model.EventActionProcessed)
	s.Require().Len(processed, 1)
	s.False(processed[0].Payload.(model.ActionProcessedPayload).Approved)

	player, err := s.app.Storage.GetPlayer(s.ctx, "ABC1")
	s.Require().NoError(err)
	s.Empty(player.Assets)

	_, err = s.app.Storage.GetAction(s.ctx, action.ID)
	s.ErrorIs(err, model.ErrActionNotFound)
}

func (s *CoordinatorSuite) TestDecideTransfer() {
	s.join("conn-1", "ABC1", "Alice")
	s.join("conn-2", "XYZ9", "Bob")
	s.setMoney("ABC1", 2000)
	action := s.submit("conn-1", "ABC1", model.TransferMoneyDetails{
		Amount:        amount(500),
		RecipientCode: "XYZ9",
		Reason:        "rent",
	})
	s.notifier.Reset()

	s.Require().NoError(s.app.Coordinator.Decide(s.ctx, action.ID, true, ""))

	senderEvents := s.notifier.PlayerEvents("conn-1")
	result := senderEvents[0].Payload.(model.ActionResultPayload)
	s.True(result.Approved)
	details := result.Details.(model.TransferResultDetails)
	s.True(details.TransferSuccess)
	s.Equal("Bob", details.RecipientName)

	recipientEvents := s.notifier.PlayerEvents("conn-2")
	received := filterEvents(recipientEvents, model.EventMoneyReceived)
	s.Require().Len(received, 1)
	s.Equal(model.MoneyReceivedPayload{
		Amount:     500,
		FromPlayer: "Alice",
		Reason:     "rent",
	}, received[0].Payload)
	s.Len(filterEvents(recipientEvents, model.EventPlayerDataUpdated), 1)

	// Both sides of the transfer show up as roster updates
	s.Len(filterEvents(s.notifier.FacilitatorEvents(), model.EventPlayerUpdated), 2)

	sender, _ := s.app.Storage.GetPlayer(s.ctx, "ABC1")
	recipient, _ := s.app.Storage.GetPlayer(s.ctx, "XYZ9")
	s.Equal(1500.0, sender.Money)
	s.Equal(500.0, recipient.Money)
}

func (s *CoordinatorSuite) TestDecideOfflinePlayerFlagged() {
	s.join("conn-1", "ABC1", "Alice")
	action := s.submit("conn-1", "ABC1", model.RequestMoneyDetails{Amount: amount(500)})
	s.notifier.SetOffline("conn-1")

	s.Require().NoError(s.app.Coordinator.Decide(s.ctx, action.ID, true, ""))

	player, err := s.app.Storage.GetPlayer(s.ctx, "ABC1")
	s.Require().NoError(err)
	s.True(player.HasPendingUpdates)
	s.Equal(500.0, player.Money)
}

func (s *CoordinatorSuite) TestDecideOfflineRecipientFlagged() {
	s.join("conn-1", "ABC1", "Alice")
	s.join("conn-2", "XYZ9", "Bob")
	s.setMoney("ABC1", 2000)
	action := s.submit("conn-1", "ABC1", model.TransferMoneyDetails{
		Amount:        amount(500),
		RecipientCode: "XYZ9",
	})
	s.notifier.SetOffline("conn-2")

	s.Require().NoError(s.app.Coordinator.Decide(s.ctx, action.ID, true, ""))

	recipient, err := s.app.Storage.GetPlayer(s.ctx, "XYZ9")
	s.Require().NoError(err)
	s.True(recipient.HasPendingUpdates)
	s.Equal(500.0, recipient.Money)
}

func (s *CoordinatorSuite) TestDecideUnknownAction() {
	err := s.app.Coordinator.Decide(s.ctx, "nope", true, "")
	s.ErrorIs(err, model.ErrActionNotFound)
}

// Approvals from concurrent facilitator connections must not interleave
// their read-modify-write on the same player record: every credit has to
// land and the baseline has to survive.
func (s *CoordinatorSuite) TestDecideConcurrentCreditsAllLand() {
	s.join("conn-1", "ABC1", "Alice")
	const perSide = 100
	ids := make([]model.ActionID, 0, 2*perSide)
	for i := 0; i < 2*perSide; i++ {
		id := model.ActionID(fmt.Sprintf("credit-%d", i))
		ids = append(ids, id)
		s.Require().NoError(s.app.Storage.SaveAction(s.ctx, &model.PendingAction{
			ID:         id,
			PlayerCode: "ABC1",
			Action:     model.ActionRequestMoney,
			Details:    model.RequestMoneyDetails{Amount: amount(100)},
			Status:     model.StatusPending,
			Timestamp:  s.app.MockClock.Now(),
		}))
	}

	var wg sync.WaitGroup
	for side := 0; side < 2; side++ {
		wg.Add(1)
		go func(batch []model.ActionID) {
			defer wg.Done()
			for _, id := range batch {
				s.NoError(s.app.Coordinator.Decide(s.ctx, id, true, ""))
			}
		}(ids[side*perSide : (side+1)*perSide])
	}
	wg.Wait()

	player, err := s.app.Storage.GetPlayer(s.ctx, "ABC1")
	s.Require().NoError(err)
	s.Equal(float64(2*perSide*100), player.Money)
	s.Equal(3000.0, player.Income)
	s.Equal(1880.0, player.Expenses)
}

// GetPlayerData tests

func (s *CoordinatorSuite) TestGetPlayerData() {
	s.join("conn-1", "ABC1", "Alice")
	s.notifier.Reset()

	s.Require().NoError(s.app.Coordinator.GetPlayerData(s.ctx, "conn-1", "ABC1"))

	events := s.notifier.PlayerEvents("conn-1")
	s.Require().Len(events, 1)
	s.Equal(model.EventPlayerDataUpdated, events[0].Event)

	// The facilitator channel mirrors every snapshot request
	facilitator := s.notifier.FacilitatorEvents()
	s.Require().Len(facilitator, 1)
	s.Equal(model.EventPlayerUpdated, facilitator[0].Event)
	updated := facilitator[0].Payload.(model.PlayerUpdatedPayload)
	s.Equal(model.PlayerCode("ABC1"), updated.PlayerCode)
}

// Disconnect tests

func (s *CoordinatorSuite) TestDisconnect() {
	s.join("conn-1", "ABC1", "Alice")
	s.notifier.Reset()

	s.Require().NoError(s.app.Coordinator.Disconnect(s.ctx, "conn-1"))

	facilitator := s.notifier.FacilitatorEvents()
	s.Require().Len(facilitator, 1)
	s.Equal(model.EventPlayerDisconnected, facilitator[0].Event)

	player, err := s.app.Storage.GetPlayer(s.ctx, "ABC1")
	s.Require().NoError(err)
	s.False(player.Connected)
	s.NotNil(player.LastDisconnected)
}

func (s *CoordinatorSuite) TestDisconnectUnknownConnectionIgnored() {
	s.Require().NoError(s.app.Coordinator.Disconnect(s.ctx, "nope"))
	s.Empty(s.notifier.FacilitatorEvents())
}

// AdminOverwrite tests

func (s *CoordinatorSuite) TestAdminOverwrite() {
	s.join("conn-1", "ABC1", "Alice")
	s.notifier.Reset()

	money := 9000.0
	player, err := s.app.Coordinator.AdminOverwrite(s.ctx, "ABC1", registry.AdminPatch{Money: &money})
	s.Require().NoError(err)
	s.Equal(9000.0, player.Money)

	s.Len(filterEvents(s.notifier.PlayerEvents("conn-1"), model.EventPlayerDataUpdated), 1)
	s.Len(filterEvents(s.notifier.FacilitatorEvents(), model.EventPlayerUpdated), 1)
}

func (s *CoordinatorSuite) TestAdminOverwriteOfflinePlayerFlagged() {
	s.join("conn-1", "ABC1", "Alice")
	s.notifier.SetOffline("conn-1")

	money := 9000.0
	_, err := s.app.Coordinator.AdminOverwrite(s.ctx, "ABC1", registry.AdminPatch{Money: &money})
	s.Require().NoError(err)

	player, err := s.app.Storage.GetPlayer(s.ctx, "ABC1")
	s.Require().NoError(err)
	s.True(player.HasPendingUpdates)
}

// RemovePlayer tests

func (s *CoordinatorSuite) TestRemovePlayer() {
	s.join("conn-1", "ABC1", "Alice")
	s.notifier.Reset()

	s.Require().NoError(s.app.Coordinator.RemovePlayer(s.ctx, "ABC1"))

	events := s.notifier.PlayerEvents("conn-1")
	s.Require().Len(events, 1)
	s.Equal(model.EventPlayerRemoved, events[0].Event)
	s.Equal("Removed by facilitator", events[0].Payload.(model.PlayerRemovedPayload).Reason)

	s.Contains(s.notifier.Closed(), model.ConnectionID("conn-1"))

	facilitator := s.notifier.FacilitatorEvents()
	s.Require().Len(facilitator, 1)
	removed := facilitator[0].Payload.(model.PlayerRemovedPayload)
	s.Equal(model.PlayerCode("ABC1"), removed.PlayerCode)
	s.NotNil(removed.Timestamp)

	_, err := s.app.Storage.GetPlayer(s.ctx, "ABC1")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// ClearAll tests

func (s *CoordinatorSuite) TestClearAll() {
	s.join("conn-1", "ABC1", "Alice")
	s.submit("conn-1", "ABC1", model.RequestMoneyDetails{Amount: amount(500)})
	s.notifier.Reset()

	s.Require().NoError(s.app.Coordinator.ClearAll(s.ctx))

	// Each connected player is told first, then dropped
	events := s.notifier.PlayerEvents("conn-1")
	s.Require().Len(events, 1)
	s.Equal(model.EventGameReset, events[0].Event)
	s.Equal("The game session was reset by the facilitator", events[0].Payload.(model.GameResetPayload).Reason)
	s.Contains(s.notifier.Closed(), model.ConnectionID("conn-1"))

	broadcasts := s.notifier.Broadcasts()
	s.Require().Len(broadcasts, 1)
	s.Equal(model.EventGameReset, broadcasts[0].Event)
	reset := broadcasts[0].Payload.(model.GameResetPayload)
	s.Equal("All game data cleared", reset.Message)
	s.NotNil(reset.Timestamp)

	players, err := s.app.Storage.ListPlayers(s.ctx)
	s.Require().NoError(err)
	s.Empty(players)
	actions, err := s.app.Storage.ListActions(s.ctx)
	s.Require().NoError(err)
	s.Empty(actions)
}

// GeneratePlayerCode tests

func (s *CoordinatorSuite) TestGeneratePlayerCodeSkipsTaken() {
	s.join("conn-1", "ABC1", "Alice")
	s.app.MockRandom.QueueCode("ABC1", "XYZ9")

	code, err := s.app.Coordinator.GeneratePlayerCode(s.ctx)
	s.Require().NoError(err)
	s.Equal(model.PlayerCode("XYZ9"), code)
}

// Full session walkthrough: join, bank credit, purchase, transfer. The
// baseline must stay pinned to the profession throughout.

func (s *CoordinatorSuite) TestSessionLifecycle() {
	player := s.join("conn-1", "ABC1", "Alice")
	s.join("conn-2", "XYZ9", "Bob")
	s.Equal(3000.0, player.Income)
	s.Equal(1880.0, player.Expenses)

	credit := s.submit("conn-1", "ABC1", model.RequestMoneyDetails{Amount: amount(15000)})
	s.Require().NoError(s.app.Coordinator.Decide(s.ctx, credit.ID, true, ""))

	buy := s.submit("conn-1", "ABC1", model.BuyAssetDetails{
		AssetType:   model.AssetRealEstate,
		Name:        "Duplex",
		Value:       50000,
		DownPayment: amount(10000),
		CashFlow:    amount(400),
	})
	s.Require().NoError(s.app.Coordinator.Decide(s.ctx, buy.ID, true, ""))

	transfer := s.submit("conn-1", "ABC1", model.TransferMoneyDetails{
		Amount:        amount(500),
		RecipientCode: "XYZ9",
	})
	s.Require().NoError(s.app.Coordinator.Decide(s.ctx, transfer.ID, true, ""))

	alice, err := s.app.Storage.GetPlayer(s.ctx, "ABC1")
	s.Require().NoError(err)
	s.Equal(4500.0, alice.Money)
	s.Require().Len(alice.Assets, 1)
	s.Equal(3000.0, alice.Income)
	s.Equal(1880.0, alice.Expenses)

	bob, err := s.app.Storage.GetPlayer(s.ctx, "XYZ9")
	s.Require().NoError(err)
	s.Equal(500.0, bob.Money)

	pending, err := s.app.Storage.ListActions(s.ctx)
	s.Require().NoError(err)
	s.Empty(pending)
}
