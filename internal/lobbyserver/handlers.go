package lobbyserver

import (
	"context"
	"errors"

	"github.com/avdonin/openlobby/internal/db"
	"github.com/avdonin/openlobby/internal/game/room"
	"github.com/avdonin/openlobby/internal/model"
)

// Storage interfaces are declared here, consumer-side, so handlers stay
// testable with in-memory fakes. The db repositories satisfy them.

// AccountStore provides account rows.
type AccountStore interface {
	GetByLogin(ctx context.Context, login string) (*model.Account, error)
	GetByID(ctx context.Context, accountID int64) (*model.Account, error)
	Create(ctx context.Context, login, passwordHash, ip string) (*model.Account, error)
	UpdateLastLogin(ctx context.Context, accountID int64, ip string) error
}

// SessionStore issues and validates session tokens.
type SessionStore interface {
	Issue(ctx context.Context, accountID int64) (string, error)
	Validate(ctx context.Context, token string) (int64, error)
	Revoke(ctx context.Context, accountID int64) error
}

// CharacterStore provides character rows.
type CharacterStore interface {
	ListByAccount(ctx context.Context, accountID int64) ([]*model.Character, error)
	GetByID(ctx context.Context, charID uint32) (*model.Character, error)
	GetByName(ctx context.Context, name string) (*model.Character, error)
	Create(ctx context.Context, accountID int64, name string) (*model.Character, error)
	Delete(ctx context.Context, accountID int64, charID uint32) error
	RecordResult(ctx context.Context, charID uint32, won bool, expGain int64) error
}

// ClanStore provides clan rows.
type ClanStore interface {
	Create(ctx context.Context, name string, leaderCharID uint32) (*db.Clan, error)
	GetByID(ctx context.Context, clanID int64) (*db.Clan, error)
	MemberNames(ctx context.Context, clanID int64) ([]string, error)
}

// MailStore provides in-game mail.
type MailStore interface {
	Send(ctx context.Context, fromCharID, toCharID uint32, subject, body string) (int64, error)
	Inbox(ctx context.Context, charID uint32, limit int) ([]*db.Mail, error)
	MarkRead(ctx context.Context, charID uint32, mailID int64) error
}

// Handlers bundles every controller's dependencies. One instance serves
// all connections; per-connection state lives on the Client.
type Handlers struct {
	conns   *ConnectionManager
	users   *UserManager
	lobbies *LobbyManager
	rooms   *room.Manager
	bcast   *Broadcaster

	accounts AccountStore
	sessions SessionStore
	chars    CharacterStore
	clans    ClanStore
	mail     MailStore

	autoCreateAccounts bool
}

// NewHandlers wires the controllers.
func NewHandlers(
	conns *ConnectionManager,
	users *UserManager,
	lobbies *LobbyManager,
	rooms *room.Manager,
	bcast *Broadcaster,
	accounts AccountStore,
	sessions SessionStore,
	chars CharacterStore,
	clans ClanStore,
	mail MailStore,
	autoCreateAccounts bool,
) *Handlers {
	return &Handlers{
		conns:              conns,
		users:              users,
		lobbies:            lobbies,
		rooms:              rooms,
		bcast:              bcast,
		accounts:           accounts,
		sessions:           sessions,
		chars:              chars,
		clans:              clans,
		mail:               mail,
		autoCreateAccounts: autoCreateAccounts,
	}
}

// BuildRegistry merges every controller into the dispatch table.
func (h *Handlers) BuildRegistry() (*Registry, error) {
	return NewRegistry(
		h.SessionSet(),
		h.CharacterSet(),
		h.GameSet(),
		h.HostSet(),
		h.ClanSet(),
		h.ChatSet(),
		h.MailSet(),
	)
}

// SessionSet covers login, session check and logout.
func (h *Handlers) SessionSet() HandlerSet {
	return HandlerSet{
		OpLoginReq:        {Fn: h.handleLogin, Reply: OpLoginAck},
		OpSessionCheckReq: {Fn: h.handleSessionCheck, Reply: OpSessionCheckAck},
		OpLogoutNotify:    {Fn: h.handleLogout},
	}
}

// CharacterSet covers the character list and CRUD.
func (h *Handlers) CharacterSet() HandlerSet {
	return HandlerSet{
		OpCharListReq:   {Fn: h.handleCharList, Reply: OpCharListAck},
		OpCharCreateReq: {Fn: h.handleCharCreate, Reply: OpCharCreateAck},
		OpCharDeleteReq: {Fn: h.handleCharDelete, Reply: OpCharDeleteAck},
		OpCharSelectReq: {Fn: h.handleCharSelect, Reply: OpCharSelectAck},
	}
}

// GameSet covers the lobby side of games: list, details, join, quit.
func (h *Handlers) GameSet() HandlerSet {
	return HandlerSet{
		OpGameListReq:   {Fn: h.handleGameList, Reply: OpGameListAck},
		OpGameDetailReq: {Fn: h.handleGameDetail, Reply: OpGameDetailAck},
		OpGameJoinReq:   {Fn: h.handleGameJoin, Reply: OpGameJoinAck},
		OpGameQuitReq:   {Fn: h.handleGameQuit, Reply: OpGameQuitAck},
	}
}

// HostSet covers the host side: create, roster notifications, teams,
// stats, pings, host pass and rounds.
func (h *Handlers) HostSet() HandlerSet {
	return HandlerSet{
		OpGameCreateReq:          {Fn: h.handleGameCreate, Reply: OpGameCreateAck},
		OpPlayerConnectNotify:    {Fn: h.handlePlayerConnect, Reply: OpPlayerConnectAck},
		OpPlayerDisconnectNotify: {Fn: h.handlePlayerDisconnect},
		OpTeamChangeNotify:       {Fn: h.handleTeamChange},
		OpStatReportReq:          {Fn: h.handleStatReport, Reply: OpStatReportAck},
		OpPingReport:             {Fn: h.handlePingReport},
		OpPassHostReq:            {Fn: h.handlePassHost, Reply: OpPassHostAck},
		OpRoundStartNotify:       {Fn: h.handleRoundStart},
		OpSetRoundNotify:         {Fn: h.handleSetRound},
	}
}

// ClanSet covers clan creation and info.
func (h *Handlers) ClanSet() HandlerSet {
	return HandlerSet{
		OpClanCreateReq: {Fn: h.handleClanCreate, Reply: OpClanCreateAck},
		OpClanInfoReq:   {Fn: h.handleClanInfo, Reply: OpClanInfoAck},
	}
}

// ChatSet covers lobby chat, game chat and whispers.
func (h *Handlers) ChatSet() HandlerSet {
	return HandlerSet{
		OpLobbyChatReq: {Fn: h.handleLobbyChat},
		OpGameChatReq:  {Fn: h.handleGameChat},
		OpWhisperReq:   {Fn: h.handleWhisper, Reply: OpWhisperAck},
	}
}

// MailSet covers mail send, inbox and read.
func (h *Handlers) MailSet() HandlerSet {
	return HandlerSet{
		OpMailSendReq:  {Fn: h.handleMailSend, Reply: OpMailSendAck},
		OpMailInboxReq: {Fn: h.handleMailInbox, Reply: OpMailInboxAck},
		OpMailReadReq:  {Fn: h.handleMailRead, Reply: OpMailReadAck},
	}
}

// statusForRoomErr maps lifecycle sentinels to wire status codes.
func statusForRoomErr(err error) byte {
	switch {
	case errors.Is(err, room.ErrCharacterNotOnline), errors.Is(err, room.ErrNotOnline):
		return StatusNotOnline
	case errors.Is(err, room.ErrGameFull):
		return StatusFull
	case errors.Is(err, room.ErrNotJoiningThisGame):
		return StatusNotJoining
	case errors.Is(err, room.ErrNotInAnyGame), errors.Is(err, room.ErrNotInThisGame):
		return StatusNotInGame
	case errors.Is(err, room.ErrTargetNotFound):
		return StatusNoTarget
	case errors.Is(err, room.ErrGameNotFound):
		return StatusNotFound
	default:
		return StatusError
	}
}

// selectedCharacter resolves the connection's session character, or nil
// when not authenticated or no character is selected.
func selectedCharacter(c *Client) *model.Character {
	u := c.User()
	if u == nil {
		return nil
	}
	return u.Character()
}
