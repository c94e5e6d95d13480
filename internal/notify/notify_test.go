package notify

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/quotedprintable"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/labourcheck/internal/logger"
)

// fakeSMTP accepts one connection and records the envelope and DATA payload.
type fakeSMTP struct {
	ln   net.Listener
	from string
	rcpt string
	data string
	done chan struct{}
}

func startFakeSMTP(t *testing.T) *fakeSMTP {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	f := &fakeSMTP{ln: ln, done: make(chan struct{})}
	t.Cleanup(func() { ln.Close() })

	go func() {
		defer close(f.done)
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		write := func(s string) { io.WriteString(conn, s+"\r\n") }
		write("220 localhost ESMTP")
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			cmd := strings.TrimSpace(line)
			upper := strings.ToUpper(cmd)
			switch {
			case strings.HasPrefix(upper, "EHLO"):
				write("250-localhost")
				write("250 8BITMIME")
			case strings.HasPrefix(upper, "HELO"):
				write("250 localhost")
			case strings.HasPrefix(upper, "MAIL FROM:"):
				f.from = cmd
				write("250 ok")
			case strings.HasPrefix(upper, "RCPT TO:"):
				f.rcpt = cmd
				write("250 ok")
			case upper == "DATA":
				write("354 go ahead")
				var buf strings.Builder
				for {
					l, err := r.ReadString('\n')
					if err != nil {
						return
					}
					if l == ".\r\n" {
						break
					}
					buf.WriteString(l)
				}
				f.data = buf.String()
				write("250 queued")
			case upper == "QUIT":
				write("221 bye")
				return
			default:
				write("250 ok")
			}
		}
	}()
	return f
}

func (f *fakeSMTP) port() int {
	return f.ln.Addr().(*net.TCPAddr).Port
}

func TestNewSMTPMailer_Validation(t *testing.T) {
	_, err := NewSMTPMailer(SMTPConfig{From: "a@b.test"})
	assert.Error(t, err)
	_, err = NewSMTPMailer(SMTPConfig{Host: "smtp.test"})
	assert.Error(t, err)

	m, err := NewSMTPMailer(SMTPConfig{Host: "smtp.test", From: "a@b.test"})
	require.NoError(t, err)
	assert.Equal(t, 587, m.cfg.Port)
}

func TestSMTPMailer_Send(t *testing.T) {
	srv := startFakeSMTP(t)
	m, err := NewSMTPMailer(SMTPConfig{Host: "127.0.0.1", Port: srv.port(), From: "reports@labourcheck.test", Timeout: 5 * time.Second})
	require.NoError(t, err)

	err = m.Send(context.Background(), Email{
		To:      "owner@acme.test",
		Subject: "Your labour pipeline report",
		HTML:    "<h1>Score 79</h1>",
		Text:    "Score 79",
	})
	require.NoError(t, err)
	<-srv.done

	assert.Contains(t, srv.from, "<reports@labourcheck.test>")
	assert.Contains(t, srv.rcpt, "<owner@acme.test>")
	assert.Contains(t, srv.data, "Subject: Your labour pipeline report")
	assert.Contains(t, srv.data, "multipart/alternative")
	assert.Contains(t, srv.data, "<h1>Score 79</h1>")
	assert.Contains(t, srv.data, "text/plain; charset=utf-8")
}

func TestSMTPMailer_RequiresRecipient(t *testing.T) {
	m, err := NewSMTPMailer(SMTPConfig{Host: "127.0.0.1", From: "a@b.test"})
	require.NoError(t, err)
	assert.Error(t, m.Send(context.Background(), Email{Subject: "x"}))
}

func TestSMTPMailer_BuildMessage(t *testing.T) {
	m, err := NewSMTPMailer(SMTPConfig{Host: "smtp.test", From: "reports@labourcheck.test"})
	require.NoError(t, err)
	m.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }

	long := strings.Repeat("labour ", 30) + "= done"
	raw, err := m.buildMessage(Email{To: "o@acme.test", Subject: "Report für Acme", HTML: long})
	require.NoError(t, err)
	msg := string(raw)

	assert.Contains(t, msg, "Date: Sun, 01 Mar 2026 09:00:00 +0000")
	assert.Contains(t, msg, "Subject: =?utf-8?q?Report_f=C3=BCr_Acme?=")
	assert.NotContains(t, msg, "text/plain", "empty text part is omitted")

	// quoted-printable body decodes back to the original
	start := strings.Index(msg, "quoted-printable\r\n\r\n") + len("quoted-printable\r\n\r\n")
	end := strings.LastIndex(msg, "\r\n--")
	decoded, err := io.ReadAll(quotedprintable.NewReader(strings.NewReader(msg[start:end])))
	require.NoError(t, err)
	assert.Equal(t, long, strings.TrimRight(string(decoded), "\r\n"))
}

func TestHTTPSMSSender_Send(t *testing.T) {
	var got smsRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s, err := NewHTTPSMSSender(HTTPSMSConfig{GatewayURL: srv.URL, Token: "tok", From: "LabourChk"})
	require.NoError(t, err)
	require.NoError(t, s.SendSMS(context.Background(), "+61400000000", "hello"))

	assert.Equal(t, "Bearer tok", auth)
	assert.Equal(t, smsRequest{To: "+61400000000", From: "LabourChk", Body: "hello"}, got)
}

func TestHTTPSMSSender_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid number", http.StatusBadRequest)
	}))
	defer srv.Close()

	s, err := NewHTTPSMSSender(HTTPSMSConfig{GatewayURL: srv.URL})
	require.NoError(t, err)
	err = s.SendSMS(context.Background(), "x", "y")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "invalid number")
}

func TestNewHTTPSMSSender_RequiresURL(t *testing.T) {
	_, err := NewHTTPSMSSender(HTTPSMSConfig{})
	assert.Error(t, err)
}

type fakeEmbedSender struct {
	channel string
	embeds  []*discordgo.MessageEmbed
	err     error
}

func (f *fakeEmbedSender) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.channel = channelID
	f.embeds = append(f.embeds, embed)
	return &discordgo.Message{ID: strconv.Itoa(len(f.embeds))}, nil
}

func TestDiscordNotifier_Notify(t *testing.T) {
	fake := &fakeEmbedSender{}
	d := &DiscordNotifier{session: fake, channelID: "chan-1", now: time.Now}

	require.NoError(t, d.Notify(context.Background(), Event{
		Kind: EventNewLead, SessionID: "s1", Email: "o@acme.test", BuilderName: "Acme", Score: 79, Color: "green",
	}))
	require.NoError(t, d.Notify(context.Background(), Event{Kind: EventConverted, SessionID: "s1"}))

	assert.Equal(t, "chan-1", fake.channel)
	require.Len(t, fake.embeds, 2)

	lead := fake.embeds[0]
	assert.Equal(t, "New labour pipeline lead", lead.Title)
	assert.Equal(t, 0x2ECC71, lead.Color)
	require.Len(t, lead.Fields, 3)
	assert.Equal(t, "79/100 (green)", lead.Fields[2].Value)
	assert.Equal(t, "session s1", lead.Footer.Text)

	conv := fake.embeds[1]
	assert.Equal(t, "Lead followed up", conv.Title)
	assert.Equal(t, "(unnamed builder)", conv.Fields[0].Value)
	assert.Equal(t, "-", conv.Fields[1].Value)
	assert.Len(t, conv.Fields, 2)
}

func TestDiscordNotifier_Error(t *testing.T) {
	d := &DiscordNotifier{session: &fakeEmbedSender{err: errors.New("403")}, channelID: "c", now: time.Now}
	assert.Error(t, d.Notify(context.Background(), Event{Kind: EventNewLead}))
}

func TestNewDiscordNotifier_Validation(t *testing.T) {
	_, err := NewDiscordNotifier("", "chan")
	assert.Error(t, err)
	_, err = NewDiscordNotifier("token", "")
	assert.Error(t, err)
}

func TestLogOnlyAdapters(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewConsoleLogger(&buf, "debug")

	require.NoError(t, LogMailer{Log: log}.Send(context.Background(), Email{To: "o@acme.test", Subject: "Report"}))
	require.NoError(t, LogSMSSender{Log: log}.SendSMS(context.Background(), "+614", "link"))
	require.NoError(t, LogNotifier{Log: log}.Notify(context.Background(), Event{Kind: EventNewLead, SessionID: "s1"}))

	out := buf.String()
	assert.Contains(t, out, `would send "Report" to o@acme.test`)
	assert.Contains(t, out, "would text +614: link")
	assert.Contains(t, out, "ops event new_lead session=s1")
}
