package worker

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/aminshahid573/authapi/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentEmail struct {
	to, subject, body string
}

func newTestWorker(t *testing.T) (*EmailWorker, *[]sentEmail, *sync.Mutex) {
	t.Helper()
	w, err := NewEmailWorker(config.EmailConfig{FromName: "Auth API"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	var mu sync.Mutex
	sent := []sentEmail{}
	w.send = func(to, subject, body string) error {
		mu.Lock()
		defer mu.Unlock()
		sent = append(sent, sentEmail{to, subject, body})
		return nil
	}
	return w, &sent, &mu
}

func TestProcessJob(t *testing.T) {
	w, sent, _ := newTestWorker(t)

	tests := []struct {
		job         EmailJob
		wantSubject string
	}{
		{
			EmailJob{Type: JobEmailConfirmation, RecipientEmail: "a@example.com", RecipientName: "Alice", ActionURL: "http://api/registration/account-confirm-email/k1/"},
			"[Auth API] Please Confirm Your E-mail Address",
		},
		{
			EmailJob{Type: JobPasswordReset, RecipientEmail: "b@example.com", ActionURL: "http://app/auth/password-reset-confirm/u/t", ExpiresAt: time.Now().Add(time.Hour)},
			"[Auth API] Password Reset E-mail",
		},
	}

	for i, tt := range tests {
		require.NoError(t, w.ProcessJob(tt.job))
		got := (*sent)[i]
		assert.Equal(t, tt.job.RecipientEmail, got.to)
		assert.Equal(t, tt.wantSubject, got.subject)
		assert.Contains(t, got.body, tt.job.ActionURL)
		assert.Contains(t, got.body, tt.job.RecipientEmail)
	}
	assert.Contains(t, (*sent)[0].body, "Hi Alice")
	assert.Contains(t, (*sent)[1].body, "Hi there")
}

func TestProcessJobErrors(t *testing.T) {
	w, sent, _ := newTestWorker(t)

	assert.Error(t, w.ProcessJob(EmailJob{Type: JobPasswordReset}))
	assert.Error(t, w.ProcessJob(EmailJob{Type: "task_assigned", RecipientEmail: "a@example.com"}))
	assert.Empty(t, *sent)
}

func TestSendEmailSkipsWithoutSMTP(t *testing.T) {
	w, err := NewEmailWorker(config.EmailConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	assert.NoError(t, w.ProcessJob(EmailJob{
		Type:           JobEmailConfirmation,
		RecipientEmail: "a@example.com",
		ActionURL:      "http://api/confirm",
	}))
}

func TestQueueJobDropsWhenFull(t *testing.T) {
	w, _, _ := newTestWorker(t)

	for i := 0; i < cap(w.jobs); i++ {
		require.True(t, w.QueueJob(EmailJob{Type: JobEmailConfirmation}))
	}
	assert.False(t, w.QueueJob(EmailJob{Type: JobEmailConfirmation}))
}

func TestStartDrainsQueue(t *testing.T) {
	w, sent, mu := newTestWorker(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	w.QueueJob(EmailJob{Type: JobEmailConfirmation, RecipientEmail: "a@example.com", ActionURL: "http://x"})

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(*sent) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
