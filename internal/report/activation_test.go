package report

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestActivation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	opts := DefaultActivationOptions(2023)

	// Three partner companies: two activated, one never crossed the window.
	companies := sqlmock.NewRows([]string{"company_id", "company_name", "activation_date"}).
		AddRow(1, "Acme", date(2023, time.February, 6)).
		AddRow(2, "Globex", date(2023, time.March, 13)).
		AddRow(3, "Initech", nil)
	mock.ExpectQuery("first_activation").
		WithArgs(opts.WindowTotal, opts.WindowDays-1).
		WillReturnRows(companies)

	// Acme succeeds inside its window.
	mock.ExpectQuery("cum_total >=").
		WithArgs(int64(1), date(2023, time.February, 6), date(2023, time.April, 7), opts.SuccessTotal).
		WillReturnRows(sqlmock.NewRows([]string{"success_date", "cum_total"}).
			AddRow(date(2023, time.February, 20), 512))

	// Globex never reaches the threshold: MIN over empty set is NULL.
	mock.ExpectQuery("cum_total >=").
		WithArgs(int64(2), date(2023, time.March, 13), date(2023, time.May, 12), opts.SuccessTotal).
		WillReturnRows(sqlmock.NewRows([]string{"success_date", "cum_total"}).
			AddRow(nil, nil))

	result, err := Activation(context.Background(), db, opts)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Len(t, result.Companies, 3)
	assert.True(t, result.Companies[0].Activated)
	assert.False(t, result.Companies[2].Activated)

	require.Len(t, result.Successes, 1)
	assert.Equal(t, int64(1), result.Successes[0].CompanyID)
	assert.Equal(t, "Acme", result.Successes[0].CompanyName)
	assert.Equal(t, int64(512), result.Successes[0].Total)

	require.Len(t, result.Weekly, 1)
	assert.Equal(t, 1, result.Weekly[0].Cumulative)
}

func TestActivationQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("first_activation").WillReturnError(assert.AnError)

	_, err = Activation(context.Background(), db, DefaultActivationOptions(2023))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch partner companies")
}

func TestWeeklyCumulative(t *testing.T) {
	successes := []CompanySuccess{
		{CompanyID: 1, SuccessDate: date(2023, time.January, 10)}, // week of Jan 9
		{CompanyID: 2, SuccessDate: date(2023, time.January, 12)}, // week of Jan 9
		{CompanyID: 3, SuccessDate: date(2023, time.January, 31)}, // week of Jan 30
		{CompanyID: 4, SuccessDate: date(2022, time.December, 5)}, // outside year, dropped
	}

	weekly := weeklyCumulative(successes, 2023)
	require.Len(t, weekly, 4, "gap weeks are filled")

	assert.Equal(t, date(2023, time.January, 9), weekly[0].WeekStart)
	assert.Equal(t, 2, weekly[0].Count)
	assert.Equal(t, 2, weekly[0].Cumulative)

	// Gap weeks carry zero count but keep the running total.
	assert.Equal(t, 0, weekly[1].Count)
	assert.Equal(t, 2, weekly[1].Cumulative)

	assert.Equal(t, date(2023, time.January, 30), weekly[3].WeekStart)
	assert.Equal(t, 3, weekly[3].Cumulative)
}

func TestWeeklyCumulativeEmpty(t *testing.T) {
	assert.Nil(t, weeklyCumulative(nil, 2023))
	assert.Nil(t, weeklyCumulative([]CompanySuccess{
		{SuccessDate: date(2022, time.June, 1)},
	}, 2023))
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		day  time.Time
		want time.Time
	}{
		{date(2023, time.January, 9), date(2023, time.January, 9)},  // Monday maps to itself
		{date(2023, time.January, 12), date(2023, time.January, 9)}, // Thursday
		{date(2023, time.January, 15), date(2023, time.January, 9)}, // Sunday belongs to the prior Monday
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, weekStart(tt.day), "weekStart(%s)", tt.day)
	}
}
