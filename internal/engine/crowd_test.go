package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/trip_radar/internal/gateway"
	"github.com/iWorld-y/trip_radar/internal/model"
	"github.com/iWorld-y/trip_radar/internal/reasoning"
	"github.com/iWorld-y/trip_radar/internal/search"
	"github.com/iWorld-y/trip_radar/internal/weather"
)

const sensojiJSON = `{"attractions":[{"name":"Senso-ji","indoor":false}],"alternatives":["Yanaka Ginza"],"tips":["Go early"]}`

// 2025-06-02 为周一
func crowdSources() *fakeSources {
	return &fakeSources{
		weather: func(loc string, s, e time.Time) (*weather.Forecast, error) {
			return &weather.Forecast{Location: loc, InRange: true}, nil
		},
		search: func(q string, n int) (*search.Response, error) {
			return results("A quiet week in the city."), nil
		},
	}
}

func TestCrowdRankingDeterministic(t *testing.T) {
	e := NewCrowdEngine(crowdSources(), fakeInvoker{"Crowd Density Analyst": sensojiJSON}, 7)
	task := tripTask(model.AnalysisCrowd, "Tokyo", day(2025, 6, 2), day(2025, 6, 3), "temples")

	first := e.Analyze(context.Background(), task)
	require.Equal(t, model.StatusSuccess, first.Status, first.Reason)
	forecast, ok := first.Crowd()
	require.True(t, ok)
	require.Len(t, forecast.Attractions, 1)
	assert.Equal(t, 0.8, forecast.Confidence)

	a := forecast.Attractions[0]
	require.Len(t, a.Slots, 8)
	// 周一与周二得分相同，较早的日期排在前面
	assert.Equal(t, day(2025, 6, 2), a.Recommended.Date)
	assert.Equal(t, model.SlotMorning, a.Recommended.Slot)
	assert.InDelta(t, 34.6, a.Recommended.Score, 1e-9)
	assert.Equal(t, model.DensityLow, a.Recommended.Level)
	assert.Equal(t, day(2025, 6, 3), a.Slots[1].Date)
	assert.Equal(t, model.SlotMorning, a.Slots[1].Slot)

	assert.Equal(t, day(2025, 6, 3), a.Avoid.Date)
	assert.Equal(t, model.SlotEvening, a.Avoid.Slot)
	assert.InDelta(t, 74.9, a.Avoid.Score, 1e-9)
	for i := 1; i < len(a.Slots); i++ {
		assert.LessOrEqual(t, a.Slots[i-1].Score, a.Slots[i].Score)
	}

	second := e.Analyze(context.Background(), task)
	again, _ := second.Crowd()
	assert.Equal(t, forecast.Entries(), again.Entries())
}

const museumJSON = `{"attractions":[{"name":"Tokyo National Museum","indoor":true}],"alternatives":["Nezu Museum"],"tips":["Visit on weekdays"]}`

// alternatingInvoker 每次调用轮换回复，模拟不稳定的模型输出
type alternatingInvoker struct {
	replies []string
	calls   atomic.Int32
}

func (a *alternatingInvoker) Invoke(ctx context.Context, p reasoning.Prompt) (string, error) {
	n := a.calls.Add(1) - 1
	return a.replies[int(n)%len(a.replies)], nil
}

func TestCrowdRankingStableAcrossCalls(t *testing.T) {
	llm := &alternatingInvoker{replies: []string{sensojiJSON, museumJSON}}
	gw, err := gateway.New(gateway.Config{TTL: time.Minute})
	require.NoError(t, err)
	t.Cleanup(gw.Close)
	gw.Register(gateway.ProviderReasoning, gateway.ReasoningBackend(llm), gateway.Limits{})

	e := NewCrowdEngine(crowdSources(), gw, 7)
	task := tripTask(model.AnalysisCrowd, "Tokyo", day(2025, 6, 2), day(2025, 6, 3), "temples")

	first, _ := e.Analyze(context.Background(), task).Crowd()
	for i := 0; i < 3; i++ {
		again, ok := e.Analyze(context.Background(), task).Crowd()
		require.True(t, ok)
		require.Len(t, again.Attractions, 1)
		assert.Equal(t, "Senso-ji", again.Attractions[0].Name)
		assert.Equal(t, first.Entries(), again.Entries())
	}
	assert.Equal(t, int32(1), llm.calls.Load())
}

func TestCrowdEventsUnavailable(t *testing.T) {
	src := crowdSources()
	src.search = nil
	e := NewCrowdEngine(src, fakeInvoker{"Crowd Density Analyst": sensojiJSON}, 7)

	res := e.Analyze(context.Background(), tripTask(model.AnalysisCrowd, "Tokyo", day(2025, 6, 2), day(2025, 6, 3), ""))
	require.Equal(t, model.StatusDegraded, res.Status)
	assert.Equal(t, []string{"events"}, res.Missing)
	assert.Equal(t, model.KindUnavailable, res.Kind)

	forecast, ok := res.Crowd()
	require.True(t, ok)
	assert.Equal(t, 0.6, forecast.Confidence)
	for _, s := range forecast.Entries() {
		assert.Equal(t, 0.6, s.Confidence)
	}
}

func TestCrowdReasoningFallback(t *testing.T) {
	e := NewCrowdEngine(crowdSources(), fakeInvoker{}, 3)

	res := e.Analyze(context.Background(), tripTask(model.AnalysisCrowd, "Tokyo", day(2025, 6, 2), day(2025, 6, 11), "museum and food"))
	require.Equal(t, model.StatusDegraded, res.Status)
	assert.Equal(t, model.KindReasoningUnavailable, res.Kind)

	forecast, _ := res.Crowd()
	var names []string
	for _, a := range forecast.Attractions {
		names = append(names, a.Name)
		// 预测天数被限制为 3 天
		assert.Len(t, a.Slots, 3*len(model.TimeSlots()))
	}
	assert.Equal(t, []string{"Tokyo National Museum", "Tokyo Art Gallery", "Tokyo Central Food Market"}, names)
	assert.NotEmpty(t, forecast.Alternatives)
}

func TestCrowdEventSignal(t *testing.T) {
	days := []time.Time{day(2025, 6, 2), day(2025, 6, 3)}
	ev := newEventSignal("Sanja festival concert at Senso-ji on 2025-06-03, with a celebration parade", days)

	assert.InDelta(t, 1.2, ev.factor("Ueno Park", days[0]), 1e-9)
	assert.InDelta(t, 1.2*1.25, ev.factor("Ueno Park", days[1]), 1e-9)
	assert.InDelta(t, 1.2*1.25*1.2, ev.factor("Senso-ji", days[1]), 1e-9)

	var missing *eventSignal
	assert.Equal(t, 1.0, missing.factor("Senso-ji", days[0]))
}

func TestWeatherFactor(t *testing.T) {
	assert.Less(t, weatherFactor(weather.KindRain, false), 1.0)
	assert.Greater(t, weatherFactor(weather.KindRain, true), 1.0)
	assert.Less(t, weatherFactor(weather.KindThunderstorm, false), weatherFactor(weather.KindRain, false))
}
