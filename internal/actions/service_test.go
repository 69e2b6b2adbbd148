package actions

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/deskpanel/internal/signing"
)

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

type recordingQueue struct {
	actions []signing.Action
	err     error
}

func (q *recordingQueue) Enqueue(_ context.Context, act signing.Action, _ string) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	q.actions = append(q.actions, act)
	return "action-1", nil
}

func newTestService(q Enqueuer) (*Service, *signing.Signer) {
	signer := signing.New("action-secret",
		signing.WithClock(fixedClock(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))),
		signing.WithActionURL("https://shop.example.com/helpdesk/action"),
	)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewService(signer, q, logger), signer
}

func signedValues(t *testing.T, signer *signing.Signer, action string, params map[string]string, ttl time.Duration) url.Values {
	t.Helper()
	raw, err := signer.SignedURL(action, params, ttl)
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u.Query()
}

func TestSubmit(t *testing.T) {
	q := &recordingQueue{}
	svc, signer := newTestService(q)

	values := signedValues(t, signer, ResendReceipt, map[string]string{ParamPaymentID: "100"}, time.Hour)
	id, err := svc.Submit(context.Background(), values, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "action-1", id)
	require.Len(t, q.actions, 1)
	assert.Equal(t, ResendReceipt, q.actions[0].Name)
	assert.Equal(t, map[string]string{ParamPaymentID: "100"}, q.actions[0].Params)
}

func TestSubmitErrors(t *testing.T) {
	_, signer := newTestService(nil)

	tampered := signedValues(t, signer, ResendReceipt, map[string]string{ParamPaymentID: "100"}, time.Hour)
	tampered.Set(ParamPaymentID, "101")

	tests := []struct {
		name     string
		values   url.Values
		queueErr error
		wantErr  error
	}{
		{name: "no signature", values: url.Values{"action": {ResendReceipt}}, wantErr: ErrForbidden},
		{name: "tampered", values: tampered, wantErr: ErrForbidden},
		{
			name:    "expired",
			values:  signedValues(t, signer, ResendReceipt, map[string]string{ParamPaymentID: "1"}, -time.Minute),
			wantErr: ErrForbidden,
		},
		{
			name:    "unknown action",
			values:  signedValues(t, signer, "refund", map[string]string{ParamPaymentID: "1"}, time.Hour),
			wantErr: ErrUnknownAction,
		},
		{
			name:    "missing parameter",
			values:  signedValues(t, signer, DeactivateSite, map[string]string{ParamLicenseID: "1"}, time.Hour),
			wantErr: ErrMissingParam,
		},
		{
			name:     "queue failure",
			values:   signedValues(t, signer, ResendReceipt, map[string]string{ParamPaymentID: "1"}, time.Hour),
			queueErr: errors.New("database is locked"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(&recordingQueue{err: tt.queueErr})
			id, err := svc.Submit(context.Background(), tt.values, "")
			assert.Empty(t, id)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.ErrorIs(t, err, tt.queueErr)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	assert.True(t, Known(ResendReceipt))
	assert.True(t, Known(DeactivateSite))
	assert.False(t, Known("refund"))

	assert.NoError(t, Validate(DeactivateSite, map[string]string{ParamLicenseID: "1", ParamSiteURL: "example.org"}))
	assert.ErrorIs(t, Validate(DeactivateSite, map[string]string{ParamSiteURL: "example.org"}), ErrMissingParam)
}
