package emailsvc

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mugilan0610/institute-management-system/core"
	"github.com/mugilan0610/institute-management-system/services/logger"
)

func testConfig() *core.Config {
	conf := &core.Config{AppName: "Institute", FrontendBaseURL: "http://localhost:5000", TestMode: true}
	return conf
}

func TestConsoleService_send(t *testing.T) {
	conf := testConfig()
	out := new(strings.Builder)
	svc := newConsoleService(conf, logsvc.NewLogger(zaptest.NewLogger(t), conf), out)

	msg := &core.EmailMessage{
		To:      []mail.Address{{Name: "Ann Lee", Address: "ann@example.com"}, {Address: "bob@example.com"}},
		Subject: "Hello",
		BodyStr: "plain body",
	}
	require.True(t, svc.sendMessage(msg))

	got := out.String()
	assert.Contains(t, got, "Subject: [Institute] Hello\r\n")
	assert.Contains(t, got, `To: "Ann Lee" <ann@example.com>, <bob@example.com>`)
	assert.Contains(t, got, "Content-Type: text/plain; charset=utf-8")
	assert.Contains(t, got, "plain body")
	assert.NotContains(t, got, "text/html")
}

func TestConsoleServiceMock(t *testing.T) {
	conf := testConfig()
	svc := NewConsoleServiceMock(conf, logsvc.NewLogger(zaptest.NewLogger(t), conf))

	svc.SendMessages(
		&core.EmailMessage{Subject: "no recipients", BodyStr: "body"},
		&core.EmailMessage{To: []mail.Address{{Address: "a@b.co"}}, Subject: "no content"},
		&core.EmailMessage{To: []mail.Address{{Address: "a@b.co"}}, Subject: "bad template", TemplateName: "missing"},
		&core.EmailMessage{
			To:           []mail.Address{{Address: "a@b.co"}},
			Subject:      "welcome",
			TemplateName: "registration",
			TemplateData: map[string]interface{}{"Name": "Ann", "Course": "AI"},
		},
	)

	sent := svc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "welcome", sent[0].Subject)
	assert.Contains(t, sent[0].TextContent, "Hi Ann,")
	assert.Contains(t, sent[0].HTMLContent, "http://localhost:5000")
}

func TestNew(t *testing.T) {
	conf := testConfig()
	logger := logsvc.NewLogger(zaptest.NewLogger(t), conf)

	assert.IsType(t, &consoleService{}, New(conf, logger))

	conf.Email.Backend = "sendgrid"
	assert.IsType(t, &consoleService{}, New(conf, logger), "sendgrid needs an API key")

	conf.SendgridApiKey = "SG.key"
	assert.IsType(t, &sendgridService{}, New(conf, logger))
}
