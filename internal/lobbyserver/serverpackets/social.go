package serverpackets

import (
	"github.com/avdonin/openlobby/internal/db"
	"github.com/avdonin/openlobby/internal/protocol"
)

// ChatBroadcast relays a chat line to an audience (opcodes 0x4601, 0x4611,
// 0x4621).
//
// Structure:
// - byte[24]: sender name
// - byte[128]: text
type ChatBroadcast struct {
	From string
	Text string
}

// NewChatBroadcast creates a ChatBroadcast packet.
func NewChatBroadcast(from, text string) ChatBroadcast {
	return ChatBroadcast{From: from, Text: text}
}

// Write serializes the ChatBroadcast payload.
func (p *ChatBroadcast) Write() []byte {
	w := protocol.NewWriter(NameWidth + TextWidth)
	w.WriteFixedString(p.From, NameWidth)
	w.WriteFixedString(p.Text, TextWidth)
	return w.Bytes()
}

// ClanInfo carries a clan summary (opcode 0x4511).
//
// Structure:
// - byte: status (0x00)
// - int64: clan id
// - byte[24]: name
// - uint32: leader character id
// - int32: member count
// - byte: name count
// - byte[24] per member name
type ClanInfo struct {
	Clan    *db.Clan
	Members []string
}

// NewClanInfo creates a ClanInfo packet.
func NewClanInfo(clan *db.Clan, members []string) ClanInfo {
	return ClanInfo{Clan: clan, Members: members}
}

// Write serializes the ClanInfo payload.
func (p *ClanInfo) Write() []byte {
	w := protocol.NewWriter(48 + len(p.Members)*NameWidth)
	w.WriteByte(0x00)
	w.WriteInt64(p.Clan.ID)
	w.WriteFixedString(p.Clan.Name, NameWidth)
	w.WriteUint32(p.Clan.LeaderCharID)
	w.WriteInt32(p.Clan.MemberCount)
	w.WriteByte(byte(len(p.Members)))
	for _, name := range p.Members {
		w.WriteFixedString(name, NameWidth)
	}
	return w.Bytes()
}

// MailInbox carries the recipient's mail list (opcode 0x4711).
//
// Structure:
// - byte: status (0x00)
// - byte: count
// - per mail:
//   - int64: mail id
//   - uint32: sender character id
//   - byte[32]: subject
//   - int64: sent at (unix seconds)
//   - byte: read flag
type MailInbox struct {
	Mails []*db.Mail
}

// NewMailInbox creates a MailInbox packet.
func NewMailInbox(mails []*db.Mail) MailInbox {
	return MailInbox{Mails: mails}
}

// Write serializes the MailInbox payload.
func (p *MailInbox) Write() []byte {
	w := protocol.NewWriter(2 + len(p.Mails)*56)
	w.WriteByte(0x00)
	w.WriteByte(byte(len(p.Mails)))
	for _, m := range p.Mails {
		w.WriteInt64(m.ID)
		w.WriteUint32(m.FromCharID)
		w.WriteFixedString(m.Subject, 32)
		w.WriteInt64(m.SentAt.Unix())
		if m.Read {
			w.WriteByte(0x01)
		} else {
			w.WriteByte(0x00)
		}
	}
	return w.Bytes()
}
