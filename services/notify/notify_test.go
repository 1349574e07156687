package notify_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap/zaptest"

	"github.com/mugilan0610/institute-management-system/core/student"
	"github.com/mugilan0610/institute-management-system/services/email"
	"github.com/mugilan0610/institute-management-system/services/logger"
	"github.com/mugilan0610/institute-management-system/services/notify"
	"github.com/mugilan0610/institute-management-system/services/queue"
	"github.com/mugilan0610/institute-management-system/tests"
)

func TestDispatcherAndWorker(t *testing.T) {
	conf := testutil.Config(t)
	logger := logsvc.NewLogger(zaptest.NewLogger(t), conf)
	mailer := emailsvc.NewConsoleServiceMock(conf, logger)
	q := queue.NewInMemory(4)

	dispatcher := notify.NewDispatcher(q, logger)
	dispatcher.StudentRegistered(context.Background(), student.Student{
		ID:         3,
		Name:       "Ann Lee",
		Email:      "ann@example.com",
		CourseName: null.StringFrom("Data Science"),
	})
	dispatcher.Wait()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- notify.NewWorker(q, mailer, logger).Run(ctx) }()

	require.Eventually(t, func() bool { return len(mailer.SentMessages()) == 1 }, time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	msg := mailer.SentMessages()[0]
	require.Len(t, msg.To, 1)
	assert.Equal(t, "ann@example.com", msg.To[0].Address)
	assert.Equal(t, "Welcome to the Institute!", msg.Subject)
	assert.Contains(t, msg.TextContent, "Hi Ann Lee,")
	assert.Contains(t, msg.TextContent, "Data Science")
	assert.Contains(t, msg.HTMLContent, "<strong>Data Science</strong>")
}

func TestWorker_Handle(t *testing.T) {
	conf := testutil.Config(t)
	logger := logsvc.NewLogger(zaptest.NewLogger(t), conf)
	mailer := emailsvc.NewConsoleServiceMock(conf, logger)
	w := notify.NewWorker(queue.NewInMemory(1), mailer, logger)

	assert.Error(t, w.Handle(queue.Message{Type: "student.unknown", Body: json.RawMessage(`{}`)}))
	assert.Error(t, w.Handle(queue.Message{Type: notify.TypeStudentRegistered, Body: json.RawMessage(`not json`)}))
	assert.Empty(t, mailer.SentMessages())

	body, err := json.Marshal(notify.Registered{StudentID: 1, Name: "Bob Kim", Email: "bob@example.com", Course: "AI"})
	require.NoError(t, err)
	require.NoError(t, w.Handle(queue.Message{Type: notify.TypeStudentRegistered, Body: body}))
	assert.Len(t, mailer.SentMessages(), 1)
}
