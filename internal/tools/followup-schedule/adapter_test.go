// internal/tools/followup-schedule/adapter_test.go
package followupschedule

import (
	"context"
	"testing"
	"time"

	stderrors "intake-orchestrator/internal/common/errors"
	"intake-orchestrator/internal/common/logger"
	"intake-orchestrator/internal/intake"
	"intake-orchestrator/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentSMS struct {
	phone, message string
}

type fakeSMS struct {
	published []sentSMS
}

func (f *fakeSMS) PublishSMS(ctx context.Context, phoneNumber, message string) error {
	f.published = append(f.published, sentSMS{phone: phoneNumber, message: message})
	return nil
}

func testConfig() *Config {
	return &Config{MinDays: 1, MaxDays: 90, DefaultDays: 7, SMSEnabled: true}
}

func newTestAdapter(t *testing.T, cfg *Config, sms SMSSender) (*Adapter, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	adapter := NewAdapter(cfg, db, sms, logger.NewTestLogger(t))
	adapter.now = func() time.Time {
		return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	}
	return adapter, mock
}

func contactSession(method string) *models.Session {
	s := models.NewSession("sess-1")
	s.ConsentState = models.ConsentGranted
	s.NeedCategory = "utilities"
	s.SetField(intake.FieldContactInfo, "+18435550147", models.ProvenanceAnswered)
	s.SetField(intake.FieldContactMethod, method, models.ProvenanceAnswered)
	return s
}

func TestExecute_SchedulesWithDefaultDays(t *testing.T) {
	sms := &fakeSMS{}
	adapter, mock := newTestAdapter(t, testConfig(), sms)
	mock.ExpectExec("INSERT INTO follow_ups").
		WillReturnResult(sqlmock.NewResult(1, 1))

	s := contactSession("phone")
	result, err := adapter.Execute(context.Background(), s, nil)
	require.NoError(t, err)

	assert.Equal(t, 7, result["days"])
	assert.Equal(t, "2026-03-17", result["scheduled_date"])
	assert.Equal(t, result["follow_up_id"], s.FollowupID)

	require.Len(t, sms.published, 1)
	assert.Equal(t, "+18435550147", sms.published[0].phone)
	assert.Contains(t, sms.published[0].message, "7 days")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_DaysClamped(t *testing.T) {
	tests := []struct {
		name     string
		days     float64
		expected int
	}{
		{"below minimum", 0, 1},
		{"above maximum", 365, 90},
		{"in range", 14, 14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter, mock := newTestAdapter(t, testConfig(), nil)
			mock.ExpectExec("INSERT INTO follow_ups").
				WillReturnResult(sqlmock.NewResult(1, 1))

			result, err := adapter.Execute(context.Background(), contactSession("email"),
				map[string]interface{}{"days": tt.days})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result["days"])
		})
	}
}

func TestExecute_EmailMethodGetsNoSMS(t *testing.T) {
	sms := &fakeSMS{}
	adapter, mock := newTestAdapter(t, testConfig(), sms)
	mock.ExpectExec("INSERT INTO follow_ups").
		WillReturnResult(sqlmock.NewResult(1, 1))

	_, err := adapter.Execute(context.Background(), contactSession("email"), nil)
	require.NoError(t, err)
	assert.Empty(t, sms.published)
}

func TestExecute_NoContactRejected(t *testing.T) {
	adapter, _ := newTestAdapter(t, testConfig(), nil)

	s := models.NewSession("sess-1")
	s.ConsentState = models.ConsentGranted

	_, err := adapter.Execute(context.Background(), s, nil)
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeSequenceViolation))
}
