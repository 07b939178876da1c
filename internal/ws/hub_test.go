package ws

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/cashflowgame/server/internal/model"
	"github.com/cashflowgame/server/internal/notify"
	"github.com/cashflowgame/server/internal/testutil"
)

type HubSuite struct {
	suite.Suite
	hub *Hub
}

func TestHubSuite(t *testing.T) {
	suite.Run(t, new(HubSuite))
}

func (s *HubSuite) SetupTest() {
	s.hub = NewHub(testutil.NopLogger())
}

// The hub is the delivery side of the coordinator's notifier
var _ notify.Notifier = (*Hub)(nil)

func (s *HubSuite) register(id model.ConnectionID) *Client {
	client := NewClient(id, nil)
	s.hub.Register(client)
	return client
}

func (s *HubSuite) receive(client *Client) Envelope {
	select {
	case msg := <-client.send:
		var env Envelope
		s.Require().NoError(json.Unmarshal(msg, &env))
		return env
	default:
		s.FailNow("no message queued for " + string(client.id))
		return Envelope{}
	}
}

func (s *HubSuite) TestRegisterAndCount() {
	s.Equal(0, s.hub.ClientCount())
	s.register("conn-1")
	s.register("conn-2")
	s.Equal(2, s.hub.ClientCount())
}

func (s *HubSuite) TestToPlayer() {
	client := s.register("conn-1")

	ok := s.hub.ToPlayer("conn-1", model.EventJoinedGame, model.JoinedGamePayload{
		PlayerCode: "ABC1",
		Status:     "success",
	})
	s.True(ok)

	env := s.receive(client)
	s.Equal(model.EventJoinedGame, env.Event)

	var payload model.JoinedGamePayload
	s.Require().NoError(json.Unmarshal(env.Data, &payload))
	s.Equal(model.PlayerCode("ABC1"), payload.PlayerCode)
}

func (s *HubSuite) TestToPlayerUnknownConnection() {
	s.False(s.hub.ToPlayer("nope", model.EventJoinedGame, model.JoinedGamePayload{}))
}

func (s *HubSuite) TestToFacilitatorOnlyReachesFacilitators() {
	player := s.register("conn-1")
	admin := s.register("admin-1")
	s.hub.MarkFacilitator("admin-1")

	s.hub.ToFacilitator(model.EventPlayerJoined, model.PlayerJoinedPayload{PlayerCode: "ABC1"})

	env := s.receive(admin)
	s.Equal(model.EventPlayerJoined, env.Event)
	s.Empty(player.send)
}

func (s *HubSuite) TestMarkFacilitatorUnknownConnectionIgnored() {
	s.False(s.hub.MarkFacilitator("nope"))
	s.False(s.hub.IsFacilitator("nope"))
}

// The first admin-join promotes; a repeat reports false so the dispatch
// loop skips the snapshot re-send.
func (s *HubSuite) TestMarkFacilitatorRepeatReportsFalse() {
	s.register("admin-1")

	s.True(s.hub.MarkFacilitator("admin-1"))
	s.False(s.hub.MarkFacilitator("admin-1"))
	s.True(s.hub.IsFacilitator("admin-1"))
}

func (s *HubSuite) TestBroadcast() {
	one := s.register("conn-1")
	two := s.register("conn-2")

	s.hub.Broadcast(model.EventGameReset, model.GameResetPayload{Reason: "admin-reset"})

	s.Equal(model.EventGameReset, s.receive(one).Event)
	s.Equal(model.EventGameReset, s.receive(two).Event)
}

func (s *HubSuite) TestUnregister() {
	client := s.register("conn-1")
	s.hub.MarkFacilitator("conn-1")

	s.hub.Unregister("conn-1")

	s.Equal(0, s.hub.ClientCount())
	s.False(s.hub.IsFacilitator("conn-1"))
	_, open := <-client.send
	s.False(open)

	// Dropping the same connection twice is harmless
	s.hub.Unregister("conn-1")
}

// A send racing an unregister must see either a live channel or a missing
// client, never a closed channel.
func (s *HubSuite) TestToPlayerRacingUnregister() {
	for i := 0; i < 100; i++ {
		id := model.ConnectionID(fmt.Sprintf("conn-%d", i))
		s.register(id)

		done := make(chan struct{})
		go func() {
			s.hub.Unregister(id)
			close(done)
		}()
		s.hub.ToPlayer(id, model.EventPlayerDataUpdated, model.PlayerDataUpdatedPayload{})
		<-done
	}
	s.Equal(0, s.hub.ClientCount())
}

func (s *HubSuite) TestToPlayerAfterUnregister() {
	s.register("conn-1")
	s.hub.Unregister("conn-1")
	s.False(s.hub.ToPlayer("conn-1", model.EventPlayerDataUpdated, model.PlayerDataUpdatedPayload{}))
}

func (s *HubSuite) TestFullBufferDropsMessage() {
	client := s.register("conn-1")
	for i := 0; i < sendBufferSize; i++ {
		s.Require().True(s.hub.ToPlayer("conn-1", model.EventPlayerDataUpdated, model.PlayerDataUpdatedPayload{}))
	}

	// The overflow message is dropped, not blocked on
	s.True(s.hub.ToPlayer("conn-1", model.EventPlayerDataUpdated, model.PlayerDataUpdatedPayload{}))
	s.Len(client.send, sendBufferSize)
}

func (s *HubSuite) TestEncodeFailureReportsUndelivered() {
	s.register("conn-1")
	s.False(s.hub.ToPlayer("conn-1", model.EventPlayerDataUpdated, func() {}))
}
