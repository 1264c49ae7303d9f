package order

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionTo(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		wantErr bool
	}{
		{StatusNew, StatusConfirmed, false},
		{StatusConfirmed, StatusAssembled, false},
		{StatusAssembled, StatusSent, false},
		{StatusSent, StatusDelivered, false},
		{StatusNew, StatusCanceled, false},
		{StatusSent, StatusCanceled, false},
		{StatusNew, StatusSent, true},
		{StatusConfirmed, StatusNew, true},
		{StatusDelivered, StatusCanceled, true},
		{StatusCanceled, StatusNew, true},
		{StatusNew, StatusNew, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			o := New(1, 1, Recipient{})
			o.Status = tt.from
			err := o.TransitionTo(tt.to)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidStateTransition)
				assert.Equal(t, tt.from, o.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, o.Status)
		})
	}
}

func TestDeliveredStampsTime(t *testing.T) {
	o := New(1, 1, Recipient{})
	o.Status = StatusSent
	require.NoError(t, o.TransitionTo(StatusDelivered))
	require.NotNil(t, o.DeliveredAt)
	assert.WithinDuration(t, time.Now(), *o.DeliveredAt, time.Minute)
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("assembled")
	require.NoError(t, err)
	assert.Equal(t, StatusAssembled, s)

	_, err = ParseStatus("lost")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestRecipientNormalizeAndProblems(t *testing.T) {
	r := Recipient{FirstName: "  иВАН ", LastName: "petrov", Phone: " +7 900 ", Email: "a@b.ru"}.Normalize()
	assert.Equal(t, "Иван", r.FirstName)
	assert.Equal(t, "Petrov", r.LastName)
	assert.Equal(t, "+7 900", r.Phone)
	assert.Empty(t, r.Problems())

	bad := Recipient{FirstName: "", LastName: "x", Phone: "1", Email: "not-an-email"}
	problems := bad.Problems()
	assert.Contains(t, problems, "first_name")
	assert.Contains(t, problems, "email")
	assert.NotContains(t, problems, "middle_name")
}

func TestLineAndTotal(t *testing.T) {
	o := New(1, 1, Recipient{})
	o.ID = 9
	o.AddLine(NewLine(1, decimal.RequireFromString("1.123456"), 3))
	o.AddLine(NewLine(2, decimal.RequireFromString("10"), 1))

	assert.Equal(t, int64(9), o.Lines[0].OrderID)
	assert.Equal(t, "1.12346", o.Lines[0].Price.StringFixed(PricePlaces))
	assert.Equal(t, "13.37038", o.Total().StringFixed(PricePlaces))
}

func TestParseDay(t *testing.T) {
	f, err := ParseDay("")
	require.NoError(t, err)
	assert.Nil(t, f)
	assert.True(t, f.Contains(time.Now()))

	f, err = ParseDay("2024-03-01")
	require.NoError(t, err)
	assert.True(t, f.Contains(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, f.Contains(time.Date(2024, 3, 1, 23, 59, 59, 0, time.UTC)))
	assert.False(t, f.Contains(time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)))
	assert.False(t, f.Contains(time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC)))

	_, err = ParseDay("01.03.2024")
	assert.Error(t, err)
}
