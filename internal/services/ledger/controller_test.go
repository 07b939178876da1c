package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/cashflowgame/server/internal/dependencies/mocks"
	"github.com/cashflowgame/server/internal/model"
	"github.com/cashflowgame/server/internal/storage/memory"
	"github.com/cashflowgame/server/internal/testutil"
)

type ControllerSuite struct {
	suite.Suite
	storage    *memory.Storage
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	controller *Controller
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.controller = NewController(s.storage, s.clock, s.random, testutil.NopLogger())
	s.ctx = context.Background()
}

func requestMoney(amount float64) model.RequestMoneyDetails {
	return model.RequestMoneyDetails{Amount: &amount, Purpose: "bank error"}
}

func (s *ControllerSuite) TestSubmitCreatesPendingAction() {
	s.random.QueueID("act-1")

	action, duplicate, err := s.controller.Submit(s.ctx, "ABC1", requestMoney(500))
	s.Require().NoError(err)

	s.False(duplicate)
	s.Equal(model.ActionID("act-1"), action.ID)
	s.Equal(model.PlayerCode("ABC1"), action.PlayerCode)
	s.Equal(model.ActionRequestMoney, action.Action)
	s.Equal(model.StatusPending, action.Status)
	s.Equal(s.clock.Now(), action.Timestamp)

	stored, err := s.storage.GetAction(s.ctx, "act-1")
	s.Require().NoError(err)
	s.Equal(action.ID, stored.ID)
}

func (s *ControllerSuite) TestSubmitDuplicateReturnsExisting() {
	s.random.QueueID("act-1", "act-2")

	first, _, err := s.controller.Submit(s.ctx, "ABC1", requestMoney(500))
	s.Require().NoError(err)

	second, duplicate, err := s.controller.Submit(s.ctx, "ABC1", requestMoney(500))
	s.Require().NoError(err)

	s.True(duplicate)
	s.Equal(first.ID, second.ID)

	actions, _ := s.controller.ListAll(s.ctx)
	s.Len(actions, 1)
}

func (s *ControllerSuite) TestSubmitDifferentDetailsIsNotDuplicate() {
	s.random.QueueID("act-1", "act-2")

	_, _, err := s.controller.Submit(s.ctx, "ABC1", requestMoney(500))
	s.Require().NoError(err)

	_, duplicate, err := s.controller.Submit(s.ctx, "ABC1", requestMoney(700))
	s.Require().NoError(err)
	s.False(duplicate)

	actions, _ := s.controller.ListAll(s.ctx)
	s.Len(actions, 2)
}

func (s *ControllerSuite) TestSubmitSameDetailsOtherPlayerIsNotDuplicate() {
	s.random.QueueID("act-1", "act-2")

	_, _, err := s.controller.Submit(s.ctx, "ABC1", requestMoney(500))
	s.Require().NoError(err)

	_, duplicate, err := s.controller.Submit(s.ctx, "XYZ9", requestMoney(500))
	s.Require().NoError(err)
	s.False(duplicate)
}

func (s *ControllerSuite) TestSubmitSameKindDifferentStructIsNotDuplicate() {
	s.random.QueueID("act-1", "act-2")

	_, _, err := s.controller.Submit(s.ctx, "ABC1", model.SellAssetDetails{AssetID: "a1", SellPrice: 1000})
	s.Require().NoError(err)

	_, duplicate, err := s.controller.Submit(s.ctx, "ABC1", model.SellAssetDetails{AssetID: "a2", SellPrice: 1000})
	s.Require().NoError(err)
	s.False(duplicate)
}

func (s *ControllerSuite) TestRetireRemovesAction() {
	s.random.QueueID("act-1")
	action, _, err := s.controller.Submit(s.ctx, "ABC1", requestMoney(500))
	s.Require().NoError(err)

	s.Require().NoError(s.controller.Retire(s.ctx, action.ID))

	_, err = s.storage.GetAction(s.ctx, action.ID)
	s.ErrorIs(err, model.ErrActionNotFound)
}

func (s *ControllerSuite) TestRetiredActionCanBeResubmitted() {
	s.random.QueueID("act-1", "act-2")
	action, _, err := s.controller.Submit(s.ctx, "ABC1", requestMoney(500))
	s.Require().NoError(err)
	s.Require().NoError(s.controller.Retire(s.ctx, action.ID))

	again, duplicate, err := s.controller.Submit(s.ctx, "ABC1", requestMoney(500))
	s.Require().NoError(err)
	s.False(duplicate)
	s.Equal(model.ActionID("act-2"), again.ID)
}

func (s *ControllerSuite) TestListByPlayer() {
	s.random.QueueID("act-1", "act-2", "act-3")
	_, _, _ = s.controller.Submit(s.ctx, "ABC1", requestMoney(100))
	_, _, _ = s.controller.Submit(s.ctx, "ABC1", requestMoney(200))
	_, _, _ = s.controller.Submit(s.ctx, "XYZ9", requestMoney(300))

	actions, err := s.controller.ListByPlayer(s.ctx, "ABC1")
	s.Require().NoError(err)
	s.Len(actions, 2)
}

func (s *ControllerSuite) TestReclaimStale() {
	s.random.QueueID("act-1")
	_, _, err := s.controller.Submit(s.ctx, "ABC1", requestMoney(500))
	s.Require().NoError(err)

	s.clock.Advance(ActionRetention)
	removed, err := s.controller.ReclaimStale(s.ctx, s.clock.Now())
	s.Require().NoError(err)
	s.Equal(0, removed)

	s.clock.Advance(time.Minute)
	removed, err = s.controller.ReclaimStale(s.ctx, s.clock.Now())
	s.Require().NoError(err)
	s.Equal(1, removed)

	actions, _ := s.controller.ListAll(s.ctx)
	s.Empty(actions)
}
