package lobbyserver

// Opcodes of the legacy wire protocol. Requests carry even opcodes; the
// paired response, where one exists, is request+1 (e.g. join request 0x4320
// is answered on 0x4321). Notifications without a defined reply fail
// silently from the client's perspective.
const (
	// Unsolicited server → client messages.
	OpServerMessage uint16 = 0x4001

	// Session
	OpLoginReq        uint16 = 0x4100
	OpLoginAck        uint16 = 0x4101
	OpSessionCheckReq uint16 = 0x4110
	OpSessionCheckAck uint16 = 0x4111
	OpLogoutNotify    uint16 = 0x4120

	// Characters
	OpCharListReq   uint16 = 0x4200
	OpCharListAck   uint16 = 0x4201
	OpCharCreateReq uint16 = 0x4210
	OpCharCreateAck uint16 = 0x4211
	OpCharDeleteReq uint16 = 0x4220
	OpCharDeleteAck uint16 = 0x4221
	OpCharSelectReq uint16 = 0x4230
	OpCharSelectAck uint16 = 0x4231

	// Games (lobby side)
	OpGameListReq   uint16 = 0x4300
	OpGameListAck   uint16 = 0x4301
	OpGameDetailReq uint16 = 0x4310
	OpGameDetailAck uint16 = 0x4311
	OpGameJoinReq   uint16 = 0x4320
	OpGameJoinAck   uint16 = 0x4321
	OpGameQuitReq   uint16 = 0x4330
	OpGameQuitAck   uint16 = 0x4331

	// Games (host side)
	OpGameCreateReq          uint16 = 0x4340
	OpGameCreateAck          uint16 = 0x4341
	OpPlayerConnectNotify    uint16 = 0x4350
	OpPlayerConnectAck       uint16 = 0x4351
	OpPlayerDisconnectNotify uint16 = 0x4360
	OpTeamChangeNotify       uint16 = 0x4370
	OpStatReportReq          uint16 = 0x4380
	OpStatReportAck          uint16 = 0x4381
	OpPingReport             uint16 = 0x4390
	OpPassHostReq            uint16 = 0x43A0
	OpPassHostAck            uint16 = 0x43A1
	OpRoundStartNotify       uint16 = 0x43B0
	OpSetRoundNotify         uint16 = 0x43C0

	// Clans
	OpClanCreateReq uint16 = 0x4500
	OpClanCreateAck uint16 = 0x4501
	OpClanInfoReq   uint16 = 0x4510
	OpClanInfoAck   uint16 = 0x4511

	// Chat
	OpLobbyChatReq   uint16 = 0x4600
	OpLobbyChatBcast uint16 = 0x4601
	OpGameChatReq    uint16 = 0x4610
	OpGameChatBcast  uint16 = 0x4611
	OpWhisperReq     uint16 = 0x4620
	OpWhisperAck     uint16 = 0x4621

	// Mail
	OpMailSendReq  uint16 = 0x4700
	OpMailSendAck  uint16 = 0x4701
	OpMailInboxReq uint16 = 0x4710
	OpMailInboxAck uint16 = 0x4711
	OpMailReadReq  uint16 = 0x4720
	OpMailReadAck  uint16 = 0x4721
)

// Reply status codes. Zero is success; every failed request the client
// expects a reply to gets a non-zero status on the paired response opcode.
const (
	StatusOK          byte = 0x00
	StatusError       byte = 0x01 // generic failure
	StatusNotOnline   byte = 0x02
	StatusFull        byte = 0x03
	StatusNotJoining  byte = 0x04
	StatusNotInGame   byte = 0x05
	StatusNoTarget    byte = 0x06
	StatusBadPassword byte = 0x07
	StatusNameTaken   byte = 0x08
	StatusNotFound    byte = 0x09
	StatusDenied      byte = 0x0A
)
