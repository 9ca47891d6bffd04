package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/JuanManuel1970/dolar/internal/rates"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	latest  func(ctx context.Context, t rates.Type) (rates.Snapshot, error)
	history func(ctx context.Context, t rates.Type, rangeDays int) (rates.HistorySeries, error)
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Latest(ctx context.Context, t rates.Type) (rates.Snapshot, error) {
	return f.latest(ctx, t)
}

func (f *fakeSource) History(ctx context.Context, t rates.Type, rangeDays int) (rates.HistorySeries, error) {
	return f.history(ctx, t, rangeDays)
}

func okSource(buy, sell float64, series rates.HistorySeries) *fakeSource {
	return &fakeSource{
		latest: func(context.Context, rates.Type) (rates.Snapshot, error) {
			return rates.Snapshot{
				QuoteNow:   rates.QuoteNow{Buy: rates.Num(buy), Sell: rates.Num(sell)},
				LastUpdate: "2024-01-02T15:04:05-03:00",
			}, nil
		},
		history: func(context.Context, rates.Type, int) (rates.HistorySeries, error) {
			return series, nil
		},
	}
}

func TestRefresh_PopulatesState(t *testing.T) {
	t.Parallel()

	series := rates.HistorySeries{{Date: "2024-01-01", Buy: rates.Num(790)}}
	c := NewController(okSource(800, 820, series), nil, rates.TypeBlue, 30)

	require.NoError(t, c.Refresh(context.Background()))

	st := c.State()
	require.False(t, st.Loading)
	require.Empty(t, st.Err)
	require.NotNil(t, st.Now)
	require.Equal(t, rates.Num(800), st.Now.Buy)
	require.Equal(t, rates.Num(820), st.Now.Sell)
	require.Equal(t, "2024-01-02T15:04:05-03:00", st.LastUpdate)
	require.Equal(t, series, st.History)
	require.Equal(t, "Dólar Blue", st.TypeLabel)
}

func TestRefresh_NilHistoryBecomesEmpty(t *testing.T) {
	t.Parallel()

	c := NewController(okSource(800, 820, nil), nil, rates.TypeBlue, 30)
	require.NoError(t, c.Refresh(context.Background()))

	st := c.State()
	require.NotNil(t, st.History)
	require.Empty(t, st.History)
}

func TestRefresh_FailureClearsState(t *testing.T) {
	t.Parallel()

	good := okSource(800, 820, rates.HistorySeries{{Date: "2024-01-01", Buy: rates.Num(790)}})
	c := NewController(good, nil, rates.TypeBlue, 30)
	require.NoError(t, c.Refresh(context.Background()))
	require.NotNil(t, c.State().Now)

	c.src = &fakeSource{
		latest: func(context.Context, rates.Type) (rates.Snapshot, error) {
			return rates.Snapshot{}, errors.New("upstream down")
		},
		history: good.history,
	}

	err := c.Refresh(context.Background())
	require.Error(t, err)

	st := c.State()
	require.Nil(t, st.Now, "a failed refresh must not leave the previous quote behind")
	require.Empty(t, st.History)
	require.Empty(t, st.LastUpdate)
	require.Equal(t, ErrMessage, st.Err)
	require.False(t, st.Loading)
}

func TestRefresh_HistoryFailureAlsoClears(t *testing.T) {
	t.Parallel()

	src := okSource(800, 820, nil)
	src.history = func(context.Context, rates.Type, int) (rates.HistorySeries, error) {
		return nil, errors.New("boom")
	}
	c := NewController(src, nil, rates.TypeBlue, 30)

	require.Error(t, c.Refresh(context.Background()))

	st := c.State()
	require.Nil(t, st.Now)
	require.Equal(t, ErrMessage, st.Err)
}

func TestSelect_RejectsInvalidRange(t *testing.T) {
	t.Parallel()

	calls := 0
	src := okSource(800, 820, nil)
	inner := src.latest
	src.latest = func(ctx context.Context, t rates.Type) (rates.Snapshot, error) {
		calls++
		return inner(ctx, t)
	}
	c := NewController(src, nil, rates.TypeBlue, 30)

	err := c.Select(context.Background(), rates.TypeBlue, 14)
	require.Error(t, err)
	require.Zero(t, calls, "an invalid selection must not trigger a fetch")
	require.Equal(t, 30, c.State().RangeDays)
}

func TestSelect_AppliesSelection(t *testing.T) {
	t.Parallel()

	c := NewController(okSource(350, 360, nil), nil, rates.TypeBlue, 30)
	require.NoError(t, c.Select(context.Background(), rates.TypeOficial, 7))

	st := c.State()
	require.Equal(t, rates.TypeOficial, st.Type)
	require.Equal(t, "Dólar Oficial", st.TypeLabel)
	require.Equal(t, 7, st.RangeDays)
	require.Equal(t, rates.Num(350), st.Now.Buy)
}

func TestRefresh_OvertakenCycleIsDiscarded(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once

	src := &fakeSource{
		latest: func(ctx context.Context, tp rates.Type) (rates.Snapshot, error) {
			if tp == rates.TypeBlue {
				once.Do(func() { close(started) })
				<-release
				return rates.Snapshot{QuoteNow: rates.QuoteNow{Buy: rates.Num(111)}}, nil
			}
			return rates.Snapshot{QuoteNow: rates.QuoteNow{Buy: rates.Num(350)}}, nil
		},
		history: func(context.Context, rates.Type, int) (rates.HistorySeries, error) {
			return rates.HistorySeries{}, nil
		},
	}
	c := NewController(src, nil, rates.TypeBlue, 30)

	done := make(chan error, 1)
	go func() { done <- c.Refresh(context.Background()) }()
	<-started

	// A newer selection lands while the first cycle is blocked upstream.
	require.NoError(t, c.Select(context.Background(), rates.TypeOficial, 7))
	close(release)
	require.NoError(t, <-done)

	st := c.State()
	require.Equal(t, rates.TypeOficial, st.Type)
	require.Equal(t, rates.Num(350), st.Now.Buy, "the overtaken cycle must not overwrite newer state")
}
