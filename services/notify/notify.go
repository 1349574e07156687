package notify

import (
	"context"
	"encoding/json"
	"net/mail"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/mugilan0610/institute-management-system/core"
	"github.com/mugilan0610/institute-management-system/core/student"
	"github.com/mugilan0610/institute-management-system/services/queue"
)

// Message types
const (
	TypeStudentRegistered = "student.registered"
)

const publishTimeout = 5 * time.Second

// Registered is the body of a TypeStudentRegistered message.
type Registered struct {
	StudentID int    `json:"student_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Course    string `json:"course"`
}

// Dispatcher publishes student events to the queue without blocking the request.
type Dispatcher struct {
	q      queue.Queue
	logger core.Logger
	wg     sync.WaitGroup
}

var _ student.Notifier = (*Dispatcher)(nil)

func NewDispatcher(q queue.Queue, logger core.Logger) *Dispatcher {
	return &Dispatcher{q: q, logger: logger}
}

func (d *Dispatcher) StudentRegistered(_ context.Context, stu student.Student) {
	body, err := json.Marshal(Registered{
		StudentID: stu.ID,
		Name:      stu.Name,
		Email:     stu.Email,
		Course:    stu.CourseName.String,
	})
	if err != nil {
		d.logger.Error("encoding registration notice", err, stu)
		return
	}
	msg := queue.Message{Type: TypeStudentRegistered, Body: body}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		// detached from the request so it survives the response
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := d.q.Publish(ctx, msg); err != nil {
			d.logger.Error("publishing registration notice", errors.Wrap(err, TypeStudentRegistered), stu)
		}
	}()
}

// Wait blocks until every pending publish is done.
func (d *Dispatcher) Wait() { d.wg.Wait() }

// Worker turns queued messages into emails.
type Worker struct {
	q      queue.Queue
	mailer core.EmailService
	logger core.Logger
}

func NewWorker(q queue.Queue, mailer core.EmailService, logger core.Logger) *Worker {
	return &Worker{q: q, mailer: mailer, logger: logger}
}

// Run consumes until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	msgs, err := w.q.Consume(ctx)
	if err != nil {
		return errors.Wrap(err, "consuming queue")
	}
	for msg := range msgs {
		if err := w.Handle(msg); err != nil {
			w.logger.Error("handling queue message", err, map[string]interface{}{"type": msg.Type})
		}
	}
	return nil
}

// Handle processes a single message.
func (w *Worker) Handle(msg queue.Message) error {
	switch msg.Type {
	case TypeStudentRegistered:
		var reg Registered
		if err := json.Unmarshal(msg.Body, &reg); err != nil {
			return errors.Wrap(err, "decoding registration notice")
		}
		w.mailer.SendMessages(RegistrationEmail(reg))
		return nil
	default:
		return errors.Errorf("unknown message type %q", msg.Type)
	}
}

// RegistrationEmail is the welcome email of a newly registered student.
func RegistrationEmail(reg Registered) *core.EmailMessage {
	return &core.EmailMessage{
		To:           []mail.Address{{Name: reg.Name, Address: reg.Email}},
		Subject:      "Welcome to the Institute!",
		TemplateName: "registration",
		TemplateData: map[string]interface{}{
			"Name":   reg.Name,
			"Course": reg.Course,
		},
	}
}
