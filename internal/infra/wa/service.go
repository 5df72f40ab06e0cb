package wa

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/mdp/qrterminal"
	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	walog "go.mau.fi/whatsmeow/util/log"
	_ "modernc.org/sqlite"
)

// Incoming is a text message stripped down to what command handling needs.
type Incoming struct {
	Chat       types.JID
	SenderID   string
	SenderName string
	Text       string
}

// Handler returns the reply text, or "" to stay silent.
type Handler func(ctx context.Context, msg Incoming) (string, error)

// SenderResolver maps LIDs to phone numbers so a sender keeps one id.
type SenderResolver interface {
	ResolveLIDToPhone(ctx context.Context, lid string) string
}

// Pacing makes replies look less instant.
type Pacing struct {
	MinDelay time.Duration
	MaxDelay time.Duration // 0 = use MinDelay as fixed
	Typing   bool
}

type Options struct {
	GroupID  string // only this chat is served when set
	Pacing   Pacing
	Resolver SenderResolver
}

type Service struct {
	client     *whatsmeow.Client
	dbBasePath string
	opts       Options
	log        zerolog.Logger
	walog      walog.Logger
	handler    Handler
}

func NewService(dbBasePath string, opts Options, logger zerolog.Logger) *Service {
	return &Service{
		dbBasePath: dbBasePath,
		opts:       opts,
		log:        logger,
		walog:      walog.Zerolog(logger),
	}
}

func (s *Service) Initialize(ctx context.Context) error {
	// whatsmeow keeps its own connection to the same file; WAL sticks once set.
	dbAddress := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", s.dbBasePath)
	container, err := sqlstore.New(ctx, "sqlite", dbAddress, s.walog.Sub("Database"))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	devices, err := container.GetAllDevices(ctx)
	if err != nil {
		return fmt.Errorf("failed to get devices: %w", err)
	}

	var device *store.Device
	if len(devices) > 0 {
		device = devices[0]
	} else {
		device = container.NewDevice()
	}

	s.client = whatsmeow.NewClient(device, s.walog.Sub("Client"))
	s.registerEventHandlers()

	return nil
}

func (s *Service) Connect() error {
	if s.client == nil {
		return fmt.Errorf("client not initialized")
	}
	if s.client.IsConnected() {
		return nil
	}
	return s.client.Connect()
}

func (s *Service) Disconnect() {
	if s.client != nil {
		s.client.Disconnect()
	}
}

func (s *Service) SetHandler(h Handler) {
	s.handler = h
}

func (s *Service) registerEventHandlers() {
	s.client.AddEventHandler(func(evt interface{}) {
		switch v := evt.(type) {
		case *events.Message:
			if s.handler != nil {
				go s.handleMessage(context.Background(), v)
			}
		case *events.LoggedOut:
			s.log.Warn().Str("reason", v.Reason.String()).Msg("whatsapp device logged out")
		}
	})
}

func (s *Service) handleMessage(ctx context.Context, evt *events.Message) {
	if evt.Info.IsFromMe {
		return
	}
	if s.opts.GroupID != "" && evt.Info.Chat.String() != s.opts.GroupID {
		return
	}

	text := messageText(evt.Message)
	if text == "" {
		return
	}

	in := Incoming{
		Chat:       evt.Info.Chat,
		SenderID:   senderID(ctx, evt.Info.Sender, s.opts.Resolver),
		SenderName: evt.Info.PushName,
		Text:       text,
	}
	if in.SenderName == "" {
		in.SenderName = "Unknown"
	}

	s.log.Debug().Str("sender", in.SenderID).Str("name", in.SenderName).Str("text", text).Msg("message received")

	reply, err := s.handler(ctx, in)
	if err != nil {
		s.log.Error().Err(err).Str("sender", in.SenderID).Msg("handle message")
		return
	}
	if reply == "" {
		return
	}

	if err := s.Reply(ctx, in.Chat, reply); err != nil {
		s.log.Error().Err(err).Msg("send reply")
	}
}

// Reply sends text to chat after the configured pacing delay.
func (s *Service) Reply(ctx context.Context, chat types.JID, text string) error {
	if delay := s.opts.Pacing.delay(rand.Intn); delay > 0 {
		if s.opts.Pacing.Typing {
			_ = s.client.SendChatPresence(ctx, chat, types.ChatPresenceComposing, types.ChatPresenceMediaText)
		}

		s.log.Debug().Dur("delay", delay).Msg("delaying reply")
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		if s.opts.Pacing.Typing {
			_ = s.client.SendChatPresence(ctx, chat, types.ChatPresencePaused, types.ChatPresenceMediaText)
		}
	}

	_, err := s.client.SendMessage(ctx, chat, &waE2E.Message{Conversation: &text})
	return err
}

func (p Pacing) delay(intn func(int) int) time.Duration {
	d := p.MinDelay
	if p.MaxDelay > p.MinDelay {
		d += time.Duration(intn(int(p.MaxDelay-p.MinDelay)/int(time.Millisecond)+1)) * time.Millisecond
	}
	return d
}

func messageText(m *waE2E.Message) string {
	if m == nil {
		return ""
	}
	if m.Conversation != nil {
		return *m.Conversation
	}
	if m.ExtendedTextMessage != nil && m.ExtendedTextMessage.Text != nil {
		return *m.ExtendedTextMessage.Text
	}
	return ""
}

// senderID prefers the phone number so LID and PN senders count as one user.
func senderID(ctx context.Context, jid types.JID, resolver SenderResolver) string {
	looksLikeLID := jid.Server == types.HiddenUserServer || (jid.Server == types.DefaultUserServer && len(jid.User) > 15)
	if looksLikeLID && resolver != nil {
		return resolver.ResolveLIDToPhone(ctx, jid.User)
	}
	return jid.User
}

func (s *Service) IsLoggedIn() bool {
	return s.client.Store.ID != nil
}

func (s *Service) Pair(ctx context.Context, phone string) (string, error) {
	if s.IsLoggedIn() {
		return "", fmt.Errorf("already logged in")
	}
	if !s.client.IsConnected() {
		return "", fmt.Errorf("client not connected")
	}

	code, err := s.client.PairPhone(ctx, phone, true, whatsmeow.PairClientChrome, "Chrome (Linux)")
	if err != nil {
		return "", err
	}

	return code, nil
}

// PrintQR connects and renders login QR codes until the pairing ends.
func (s *Service) PrintQR(ctx context.Context) error {
	if s.client.Store.ID != nil {
		return nil
	}

	qrChan, err := s.client.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("qr channel: %w", err)
	}
	if err := s.client.Connect(); err != nil {
		return fmt.Errorf("connect for qr: %w", err)
	}
	for evt := range qrChan {
		if evt.Event == "code" {
			s.log.Info().Msg("scan the QR code below with WhatsApp (Linked Devices)")
			qrterminal.GenerateHalfBlock(evt.Code, qrterminal.L, os.Stdout)
		} else {
			s.log.Info().Str("event", evt.Event).Msg("login event")
		}
	}
	return nil
}
