package emailsvc

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"
	"sync"
	"testing"
	"text/template"
	"time"

	"github.com/sendgrid/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/cantine/core"
	logsvc "github.com/trezcool/cantine/services/logger"
)

func testConf() *core.Config {
	return &core.Config{AppName: "Cantine", FromEmail: "Canteen <canteen@school.test>"}
}

func TestConsoleService(t *testing.T) {
	svc := NewConsoleServiceMock(testConf(), logsvc.NewNopLogger())
	out := new(strings.Builder)
	svc.out = out

	tmpl := template.Must(template.New("t").Parse("Hello {{.}}"))
	svc.SendMessages(
		&core.EmailMessage{To: []mail.Address{{Address: "staff@school.test"}}, Subject: "Hi", Template: tmpl, TemplateData: "staff"},
		&core.EmailMessage{Subject: "no recipients", BodyStr: "dropped"},
		&core.EmailMessage{To: []mail.Address{{Address: "staff@school.test"}}, Subject: "empty"},
	)

	sent := svc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "Hello staff", sent[0].TextContent)
	assert.Contains(t, out.String(), "Subject: [Cantine] Hi")
	assert.Contains(t, out.String(), `From: "Canteen" <canteen@school.test>`)
	assert.Contains(t, out.String(), "Hello staff")
}

func TestSendgridService(t *testing.T) {
	svc := NewSendgridService(testConf(), logsvc.NewNopLogger())

	var (
		mu   sync.Mutex
		reqs []rest.Request
		done = make(chan struct{}, 1)
	)
	svc.api = func(req rest.Request) (*rest.Response, error) {
		mu.Lock()
		reqs = append(reqs, req)
		mu.Unlock()
		done <- struct{}{}
		return &rest.Response{StatusCode: http.StatusAccepted}, nil
	}

	svc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: "Staff", Address: "staff@school.test"}},
		Subject: "Unselected",
		BodyStr: "Alice",
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("message was not sent")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, reqs, 1)
	assert.Equal(t, rest.Method(http.MethodPost), reqs[0].Method)
	assert.Equal(t, host+endpoint, reqs[0].BaseURL)

	var body struct {
		From struct {
			Email string `json:"email"`
		} `json:"from"`
		Personalizations []struct {
			Subject string `json:"subject"`
		} `json:"personalizations"`
		Content []struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"content"`
	}
	require.NoError(t, json.Unmarshal(reqs[0].Body, &body))
	assert.Equal(t, "canteen@school.test", body.From.Email)
	assert.Equal(t, "[Cantine] Unselected", body.Personalizations[0].Subject)
	require.Len(t, body.Content, 1)
	assert.Equal(t, "Alice", body.Content[0].Value)
}
