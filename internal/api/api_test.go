package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/cashflowgame/server/internal/api"
	"github.com/cashflowgame/server/internal/api/apierr"
	"github.com/cashflowgame/server/internal/api/response"
	"github.com/cashflowgame/server/internal/factory"
	"github.com/cashflowgame/server/internal/model"
	"github.com/cashflowgame/server/internal/testutil"
)

const adminToken = "test-admin-token"

type APISuite struct {
	suite.Suite
	app    *factory.TestApp
	router http.Handler
	ctx    context.Context
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	s.app = factory.NewTestApp()
	s.router = api.NewRouter(api.RouterConfig{
		Logger:      testutil.NopLogger(),
		Coordinator: s.app.Coordinator,
		Clock:       s.app.MockClock,
		AdminToken:  adminToken,
	})
	s.ctx = context.Background()
}

func (s *APISuite) request(method, path, body string, authed bool) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if authed {
		req.Header.Set("Authorization", "Bearer "+adminToken)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *APISuite) join(conn model.ConnectionID, code model.PlayerCode, name string) {
	_, err := s.app.Coordinator.JoinGame(s.ctx, conn, code, name, &model.Profession{
		Name:          "Engineer",
		Salary:        3000,
		TotalExpenses: 1880,
	})
	s.Require().NoError(err)
}

func (s *APISuite) decodeError(rec *httptest.ResponseRecorder) apierr.ErrorResponse {
	var resp apierr.ErrorResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// Generate code tests

func (s *APISuite) TestGenerateCode() {
	s.app.MockRandom.QueueCode("ABC1")

	rec := s.request(http.MethodPost, "/api/player/generate-code", "", false)
	s.Equal(http.StatusOK, rec.Code)

	var resp response.GenerateCodeResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(model.PlayerCode("ABC1"), resp.PlayerCode)
}

// Player list tests

func (s *APISuite) TestListSummariesFiltersHiddenPlayers() {
	s.join("conn-1", "ABC1", "Alice")
	s.join("conn-2", "XYZ9", "")
	s.join("conn-3", "DEF2", "Carol")
	s.Require().NoError(s.app.Coordinator.Disconnect(s.ctx, "conn-3"))

	rec := s.request(http.MethodGet, "/api/players/list", "", false)
	s.Equal(http.StatusOK, rec.Code)

	var resp response.PlayerListResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Require().Len(resp.Players, 1)
	s.Equal(model.PlayerCode("ABC1"), resp.Players[0].Code)
	s.Equal("Alice", resp.Players[0].Name)
	s.Equal("Engineer", resp.Players[0].Profession)
}

func (s *APISuite) TestListPlayersFullRoster() {
	s.join("conn-1", "ABC1", "Alice")
	s.join("conn-2", "XYZ9", "")

	rec := s.request(http.MethodGet, "/api/players", "", true)
	s.Equal(http.StatusOK, rec.Code)

	var resp response.PlayersResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Len(resp.Players, 2)
}

// Auth tests

func (s *APISuite) TestProtectedRouteRequiresToken() {
	rec := s.request(http.MethodGet, "/api/players", "", false)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal(apierr.CodeUnauthorized, s.decodeError(rec).Error.Code)
}

func (s *APISuite) TestProtectedRouteRejectsWrongToken() {
	req := httptest.NewRequest(http.MethodGet, "/api/players", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *APISuite) TestEmptyTokenDisablesAuth() {
	router := api.NewRouter(api.RouterConfig{
		Logger:      testutil.NopLogger(),
		Coordinator: s.app.Coordinator,
		Clock:       s.app.MockClock,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/players", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	s.Equal(http.StatusOK, rec.Code)
}

// Update tests

func (s *APISuite) TestUpdatePlayer() {
	s.join("conn-1", "ABC1", "Alice")

	rec := s.request(http.MethodPut, "/api/player/ABC1", `{"money": 5000}`, true)
	s.Equal(http.StatusOK, rec.Code)

	var player model.Player
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &player))
	s.Equal(5000.0, player.Money)

	stored, err := s.app.Storage.GetPlayer(s.ctx, "ABC1")
	s.Require().NoError(err)
	s.Equal(5000.0, stored.Money)
}

func (s *APISuite) TestUpdateUnknownPlayer() {
	rec := s.request(http.MethodPut, "/api/player/NOPE", `{"money": 5000}`, true)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal(apierr.CodePlayerNotFound, s.decodeError(rec).Error.Code)
}

func (s *APISuite) TestUpdateMalformedBody() {
	s.join("conn-1", "ABC1", "Alice")

	rec := s.request(http.MethodPut, "/api/player/ABC1", `{money:}`, true)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal(apierr.CodeInvalidRequest, s.decodeError(rec).Error.Code)
}

// Delete tests

func (s *APISuite) TestDeletePlayer() {
	s.join("conn-1", "ABC1", "Alice")

	rec := s.request(http.MethodDelete, "/api/player/ABC1", "", true)
	s.Equal(http.StatusNoContent, rec.Code)

	_, err := s.app.Storage.GetPlayer(s.ctx, "ABC1")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *APISuite) TestDeleteUnknownPlayer() {
	rec := s.request(http.MethodDelete, "/api/player/NOPE", "", true)
	s.Equal(http.StatusNotFound, rec.Code)
}

// Clear all tests

func (s *APISuite) TestClearAll() {
	s.join("conn-1", "ABC1", "Alice")

	rec := s.request(http.MethodPost, "/api/admin/clear-all-data", "", true)
	s.Equal(http.StatusOK, rec.Code)

	var resp response.ClearAllResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal("success", resp.Status)

	players, err := s.app.Storage.ListPlayers(s.ctx)
	s.Require().NoError(err)
	s.Empty(players)
}

// Health tests

func (s *APISuite) TestHealth() {
	rec := s.request(http.MethodGet, "/health", "", false)
	s.Equal(http.StatusOK, rec.Code)

	var resp response.HealthResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal("healthy", resp.Status)
	s.Equal(s.app.MockClock.Now(), resp.Timestamp.UTC())
}
