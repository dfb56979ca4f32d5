package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"github.com/exam-platform/grading-service/internal/services"
)

type mockGradingService struct {
	mu     sync.Mutex
	events []*services.SubmissionEvent
	err    error
}

func (m *mockGradingService) GradeSubmission(_ context.Context, event *services.SubmissionEvent) (*services.GradingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.events = append(m.events, event)
	return &services.GradingResult{
		StudentID: event.StudentID,
		PageID:    event.PageID,
	}, nil
}

func (m *mockGradingService) graded() []*services.SubmissionEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*services.SubmissionEvent(nil), m.events...)
}

func startConsumer(t *testing.T, grading services.GradingService) (*gochannel.GoChannel, string) {
	t.Helper()

	const topic = "exam.submissions"
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	consumer, err := NewConsumer(pubSub, topic, grading, logger, watermill.NopLogger{})
	if err != nil {
		t.Fatalf("NewConsumer() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = consumer.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		consumer.Close()
	})
	<-consumer.Running()

	return pubSub, topic
}

func TestConsumer_DeliversSubmission(t *testing.T) {
	grading := &mockGradingService{}
	pubSub, topic := startConsumer(t, grading)

	payload, _ := json.Marshal(&services.SubmissionEvent{
		StudentID: 7,
		PageID:    10,
		Answers: []services.SubmittedAnswer{
			{QuestionID: 1, Answer: "A"},
		},
	})
	if err := pubSub.Publish(topic, message.NewMessage(uuid.NewString(), payload)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		if events := grading.graded(); len(events) == 1 {
			if events[0].StudentID != 7 || events[0].PageID != 10 {
				t.Fatalf("graded event = %+v, want student 7 page 10", events[0])
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("submission was not delivered to the grading service")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestConsumer_DropsMalformedPayload(t *testing.T) {
	grading := &mockGradingService{}
	pubSub, topic := startConsumer(t, grading)

	if err := pubSub.Publish(topic, message.NewMessage(uuid.NewString(), []byte("not json"))); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	// A well-formed message behind it must still get through; a nacked
	// malformed message would block the subscription forever.
	payload, _ := json.Marshal(&services.SubmissionEvent{StudentID: 7, PageID: 10})
	if err := pubSub.Publish(topic, message.NewMessage(uuid.NewString(), payload)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		if events := grading.graded(); len(events) == 1 {
			if events[0].StudentID != 7 {
				t.Fatalf("graded event = %+v, want student 7", events[0])
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("valid submission behind malformed one was not processed")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
