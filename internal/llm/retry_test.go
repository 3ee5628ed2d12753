package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, InitialWait: time.Millisecond, MaxWait: 5 * time.Millisecond, Multiplier: 2}
}

var (
	errDown    = &ErrProviderUnavailable{Err: errors.New("502")}
	errGarbled = &ErrInvalidResponse{Schema: "test-grade", Err: ErrNoJSON}
)

func TestRetryProvider(t *testing.T) {
	ok := MockText(`{"score": 90, "is_correct": true, "feedback": "good"}`)

	tests := []struct {
		name      string
		responses []MockResponse
		wantCalls int
		wantErr   any
	}{
		{"first try", []MockResponse{ok}, 1, nil},
		{"outage then success", []MockResponse{{Err: errDown}, ok}, 2, nil},
		{"outage throughout", []MockResponse{{Err: errDown}, {Err: errDown}, {Err: errDown}}, 3, &ErrProviderUnavailable{}},
		{"rate limit honours retry-after", []MockResponse{{Err: &ErrRateLimit{RetryAfter: time.Millisecond}}, ok}, 2, nil},
		{"truncated is final", []MockResponse{{Err: &ErrMaxTokensExceeded{}}, ok}, 1, &ErrMaxTokensExceeded{}},
		{"garbled once", []MockResponse{{Err: errGarbled}, ok}, 2, nil},
		{"garbled twice", []MockResponse{{Err: errGarbled}, {Err: errGarbled}, ok}, 2, &ErrInvalidResponse{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockProvider(tt.responses...)
			p := WithRetry(mock, fastRetry(3))

			resp, err := p.Generate(context.Background(), Request{Schema: gradeSchema})
			assert.Equal(t, tt.wantCalls, mock.CallCount())
			switch want := tt.wantErr.(type) {
			case nil:
				require.NoError(t, err)
				assert.JSONEq(t, `{"score": 90, "is_correct": true, "feedback": "good"}`, string(resp.Content))
			case *ErrProviderUnavailable:
				assert.ErrorAs(t, err, &want)
			case *ErrMaxTokensExceeded:
				assert.ErrorAs(t, err, &want)
			case *ErrInvalidResponse:
				assert.ErrorAs(t, err, &want)
			}
		})
	}
}

func TestRetryStopsWhenCallerGivesUp(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: errDown}, MockResponse{Err: errDown})
	p := WithRetry(mock, RetryConfig{MaxAttempts: 2, InitialWait: time.Minute, MaxWait: time.Minute, Multiplier: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := p.Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Minute)
	assert.Equal(t, 1, mock.CallCount())
}

func TestRetryDelegatesModelID(t *testing.T) {
	assert.Equal(t, "mock", WithRetry(NewMockProvider(), fastRetry(2)).ModelID())
}
