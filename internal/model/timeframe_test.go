package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimeframe_Validate(t *testing.T) {
	cases := []struct {
		tf Timeframe
		ok bool
	}{
		{Timeframe{Period1Y, Interval1H}, true},
		{Timeframe{Period1Y, Interval60Min}, true},
		{Timeframe{Period5Y, Interval1H}, false},
		{Timeframe{Period1M, Interval90Min}, true},
		{Timeframe{Period3M, Interval90Min}, false},
		{Timeframe{Period5D, Interval1Min}, true},
		{Timeframe{Period1M, Interval1Min}, false},
		{Timeframe{PeriodMax, Interval1Mo}, true},
		{Timeframe{"forever", Interval1D}, false},
		{Timeframe{Period1Y, "2h"}, false},
	}
	for _, c := range cases {
		err := c.tf.Validate()
		if c.ok {
			assert.NoError(t, err, c.tf.String())
		} else {
			assert.ErrorIs(t, err, ErrInvalidTimeframe, c.tf.String())
		}
	}
}

func TestTimeframe_Intraday(t *testing.T) {
	assert.True(t, Timeframe{Period1Y, Interval1H}.Intraday())
	assert.True(t, IntradayDay.Intraday())
	assert.False(t, DailyYear.Intraday())
	assert.False(t, Timeframe{Period5Y, Interval1W}.Intraday())
}
