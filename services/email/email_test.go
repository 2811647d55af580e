package emailsvc

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/mail"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignasimgol/tfm-uoc/core"
	logsvc "github.com/ignasimgol/tfm-uoc/services/logger"
)

func setup(t *testing.T) (*core.Config, core.Logger) {
	conf := core.NewConfig()
	conf.TestMode = true
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	core.ParseEmailTemplates(logger)
	return conf, logger
}

func resetMessage(name string) *core.EmailMessage {
	return &core.EmailMessage{
		To:           []mail.Address{{Name: name, Address: "someone@example.com"}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: struct{ Name, UID, Token string }{name, "dWlk", "tok-en"},
	}
}

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	conf, logger := setup(t)
	svc := NewConsoleServiceMock(conf, logger)

	svc.SendMessages(
		resetMessage("Ada"),
		&core.EmailMessage{Subject: "no recipient", BodyStr: "hello"},
		&core.EmailMessage{To: []mail.Address{{Address: "x@example.com"}}, Subject: "no content"},
		&core.EmailMessage{To: []mail.Address{{Address: "x@example.com"}}, TemplateName: "missing"},
		&core.EmailMessage{To: []mail.Address{{Address: "x@example.com"}}, Subject: "plain", BodyStr: "hello"},
	)

	sent := svc.Sent()
	require.Len(t, sent, 2)
	assert.Contains(t, sent[0].TextContent, "Hi Ada,")
	assert.Contains(t, sent[0].TextContent, conf.FrontendBaseURL+"/password-reset/dWlk/tok-en")
	assert.Contains(t, sent[0].HTMLContent, `href="`+conf.FrontendBaseURL+`/password-reset/dWlk/tok-en"`)
	assert.Equal(t, "hello", sent[1].TextContent)
	assert.Empty(t, sent[1].HTMLContent)

	svc.Reset()
	assert.Empty(t, svc.Sent())
}

func TestSendgridService_send(t *testing.T) {
	conf, logger := setup(t)
	conf.SendgridApiKey = "sg-key"
	svc := NewSendgridService(conf, logger)

	var got rest.Request
	sendgridAPI = func(req rest.Request) (*rest.Response, error) {
		got = req
		return &rest.Response{StatusCode: http.StatusAccepted}, nil
	}
	t.Cleanup(func() { sendgridAPI = sendgridAPIDefault })

	msg := resetMessage("Ada")
	msg.Cc = []mail.Address{{Address: "cc@example.com"}}
	svc.sendMessage(msg)

	assert.Equal(t, http.MethodPost, string(got.Method))
	assert.Equal(t, host+endpoint, got.BaseURL)
	assert.Equal(t, "Bearer sg-key", got.Headers["Authorization"])

	var body struct {
		From struct {
			Email string `json:"email"`
		} `json:"from"`
		Personalizations []struct {
			To []struct {
				Email string `json:"email"`
				Name  string `json:"name"`
			} `json:"to"`
			Cc []struct {
				Email string `json:"email"`
			} `json:"cc"`
			Subject string `json:"subject"`
		} `json:"personalizations"`
		Content []struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"content"`
	}
	require.NoError(t, json.Unmarshal(got.Body, &body))
	assert.Equal(t, conf.DefaultFromEmail().Address, body.From.Email)
	require.Len(t, body.Personalizations, 1)
	p := body.Personalizations[0]
	assert.Equal(t, "["+conf.AppName+"] Password Reset", p.Subject)
	assert.Equal(t, "someone@example.com", p.To[0].Email)
	assert.Equal(t, "Ada", p.To[0].Name)
	assert.Equal(t, "cc@example.com", p.Cc[0].Email)
	require.Len(t, body.Content, 2)
	assert.Equal(t, "text/plain", body.Content[0].Type)
	assert.Equal(t, "text/html", body.Content[1].Type)
}
