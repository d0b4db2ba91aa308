package handler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"

	"host-bot/gate"
)

const testVC = "stream-vc"

var onCamera = gate.Presence{ChannelID: testVC, CameraOn: true}

type dispatcherFixture struct {
	exec  *mockExecutor
	d     *Dispatcher
	clock time.Time
}

func newFixture(t *testing.T, reportFeedback bool) *dispatcherFixture {
	f := &dispatcherFixture{
		exec:  &mockExecutor{},
		clock: time.Unix(1_700_000_000, 0),
	}
	f.d = NewDispatcher(f.exec, gate.NewCooldown(5*time.Second), DispatcherConfig{
		StreamingVCID:  testVC,
		Prefix:         "!",
		ReportFeedback: reportFeedback,
	}, zaptest.NewLogger(t))
	f.d.now = func() time.Time { return f.clock }
	t.Cleanup(func() { f.exec.AssertExpectations(t) })
	return f
}

func request(action Action, p gate.Presence, r Responder) Request {
	return Request{ID: "req", UserID: "u1", DisplayName: "alice", Action: action, Presence: p, Responder: r}
}

func TestDispatchDeniedWrongChannel(t *testing.T) {
	f := newFixture(t, true)
	r := &mockResponder{}
	r.On("Reply", "⛔ You must be in <#stream-vc> to use this.", denyTTL).Return(nil).Once()

	f.d.Dispatch(context.Background(), request(ActionSkip, gate.Presence{ChannelID: "lobby", CameraOn: true}, r))

	r.AssertExpectations(t)
	f.exec.AssertNotCalled(t, "Skip", mock.Anything)
	assert.True(t, f.d.cooldown.Last().IsZero())
}

func TestDispatchDeniedCameraOff(t *testing.T) {
	f := newFixture(t, true)
	r := &mockResponder{}
	r.On("Reply", "⛔ You must have your **Camera ON** to use this.", denyTTL).Return(nil).Once()

	f.d.Dispatch(context.Background(), request(ActionRefresh, gate.Presence{ChannelID: testVC}, r))

	r.AssertExpectations(t)
	assert.True(t, f.d.cooldown.Last().IsZero())
}

func TestDispatchSkipAccepted(t *testing.T) {
	f := newFixture(t, true)
	r := &mockResponder{}
	r.On("Announce", "**alice** used `!skip`", announceTTL).Return(nil).Once()
	f.exec.On("Skip", mock.Anything).Return(nil).Once()

	f.d.Dispatch(context.Background(), request(ActionSkip, onCamera, r))

	r.AssertExpectations(t)
	r.AssertNotCalled(t, "Reply", mock.Anything, mock.Anything)
	assert.Equal(t, f.clock, f.d.cooldown.Last())
}

func TestDispatchCooldownScenario(t *testing.T) {
	f := newFixture(t, true)
	f.exec.On("Skip", mock.Anything).Return(nil).Twice()

	first := &mockResponder{}
	first.On("Announce", mock.Anything, announceTTL).Return(nil)
	f.d.Dispatch(context.Background(), request(ActionSkip, onCamera, first))

	f.clock = f.clock.Add(3 * time.Second)
	second := &mockResponder{}
	second.On("Reply", "⏳ Cooldown: Wait 2.0s.", cooldownTTL).Return(nil).Once()
	f.d.Dispatch(context.Background(), request(ActionSkip, onCamera, second))
	second.AssertExpectations(t)
	second.AssertNotCalled(t, "Announce", mock.Anything, mock.Anything)

	f.clock = f.clock.Add(2100 * time.Millisecond)
	third := &mockResponder{}
	third.On("Announce", mock.Anything, announceTTL).Return(nil).Once()
	f.d.Dispatch(context.Background(), request(ActionSkip, onCamera, third))
	third.AssertExpectations(t)
}

func TestDispatchCooldownIsGlobalAcrossActions(t *testing.T) {
	f := newFixture(t, true)
	f.exec.On("Refresh", mock.Anything).Return(nil).Once()

	r := &mockResponder{}
	r.On("Announce", mock.Anything, announceTTL).Return(nil)
	f.d.Dispatch(context.Background(), request(ActionRefresh, onCamera, r))

	other := &mockResponder{}
	other.On("Reply", mock.MatchedBy(func(msg string) bool {
		return strings.HasPrefix(msg, "⏳ Cooldown")
	}), cooldownTTL).Return(nil).Once()
	req := request(ActionSkip, onCamera, other)
	req.UserID = "u2"
	f.d.Dispatch(context.Background(), req)

	other.AssertExpectations(t)
	f.exec.AssertNotCalled(t, "Skip", mock.Anything)
}

func TestDispatchReportFailed(t *testing.T) {
	f := newFixture(t, true)
	f.exec.On("Report", mock.Anything).Return(errors.New("no such element")).Once()

	r := &mockResponder{}
	r.On("Announce", "**alice** used `!report`", announceTTL).Return(nil).Once()
	r.On("Reply", "❌ Report failed.", resultTTL).Return(nil).Once()

	f.d.Dispatch(context.Background(), request(ActionReport, onCamera, r))

	r.AssertExpectations(t)
	assert.Equal(t, f.clock, f.d.cooldown.Last())
}

func TestDispatchReportSucceeded(t *testing.T) {
	f := newFixture(t, true)
	f.exec.On("Report", mock.Anything).Return(nil).Once()

	r := &mockResponder{}
	r.On("Announce", mock.Anything, announceTTL).Return(nil).Once()
	r.On("Reply", "✅ Reported.", resultTTL).Return(nil).Once()

	f.d.Dispatch(context.Background(), request(ActionReport, onCamera, r))
	r.AssertExpectations(t)
}

func TestDispatchReportFeedbackDisabled(t *testing.T) {
	f := newFixture(t, false)
	f.exec.On("Report", mock.Anything).Return(errors.New("boom")).Once()

	r := &mockResponder{}
	r.On("Announce", mock.Anything, announceTTL).Return(nil).Once()

	f.d.Dispatch(context.Background(), request(ActionReport, onCamera, r))

	r.AssertExpectations(t)
	r.AssertNotCalled(t, "Reply", mock.Anything, mock.Anything)
}

func TestDispatchSurvivesExecutorErrorsAndPanics(t *testing.T) {
	f := newFixture(t, true)
	f.exec.On("Refresh", mock.Anything).Return(errors.New("navigation failed")).Once()
	f.exec.On("Skip", mock.Anything).Run(func(mock.Arguments) { panic("tab crashed") }).Return(nil).Once()

	r := &mockResponder{}
	r.On("Announce", mock.Anything, announceTTL).Return(errors.New("missing permissions"))

	assert.NotPanics(t, func() {
		f.d.Dispatch(context.Background(), request(ActionRefresh, onCamera, r))
		f.clock = f.clock.Add(10 * time.Second)
		f.d.Dispatch(context.Background(), request(ActionSkip, onCamera, r))
	})
}

func TestParseAction(t *testing.T) {
	a, ok := ParseAction(" SKIP ")
	assert.True(t, ok)
	assert.Equal(t, ActionSkip, a)

	_, ok = ParseAction("dance")
	assert.False(t, ok)
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		content string
		prefix  string
		want    Action
		ok      bool
	}{
		{content: "!skip", prefix: "!", want: ActionSkip, ok: true},
		{content: "  !report now please", prefix: "!", want: ActionReport, ok: true},
		{content: "!Refresh", prefix: "!", want: ActionRefresh, ok: true},
		{content: "?skip", prefix: "!", ok: false},
		{content: "!", prefix: "!", ok: false},
		{content: "!help", prefix: "!", ok: false},
		{content: "host skip", prefix: "host ", want: ActionSkip, ok: true},
		{content: "skip", prefix: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			got, ok := parseCommand(tt.content, tt.prefix)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
