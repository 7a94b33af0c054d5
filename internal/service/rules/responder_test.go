package rules

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chatservice "github.com/zhouzirui/cleantech-assistant/backend/internal/service/chat"
)

func TestMatchPriority(t *testing.T) {
	r := New(WithDelay(0))

	cases := []struct {
		input string
		want  string
	}{
		{"Hi there", GreetingReply},
		{"HELLO", GreetingReply},
		{"hello, which cleantech company?", GreetingReply},
		{"Tell me about cleantech", CleantechReply},
		{"cleantech companies near me", CleantechReply},
		{"Any COMPANY building solar?", CompaniesReply},
		{"list companies", CompaniesReply},
		{"xyz", DefaultReply},
		{"solar panels", DefaultReply},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, r.Match(tc.input))
		})
	}
}

func TestMatchIsSubstringBased(t *testing.T) {
	r := New(WithDelay(0))
	// "this" contains "hi", so the greeting rule fires first.
	assert.Equal(t, GreetingReply, r.Match("what is this"))
}

func TestRespondRejectsEmptyMessage(t *testing.T) {
	r := New(WithDelay(0))
	_, err := r.Respond(context.Background(), "  ")
	assert.ErrorIs(t, err, chatservice.ErrMessageRequired)
}

func TestRespondWaitsForDelay(t *testing.T) {
	r := New(WithDelay(30 * time.Millisecond))

	started := time.Now()
	reply, err := r.Respond(context.Background(), "xyz")
	require.NoError(t, err)
	assert.Equal(t, DefaultReply, reply)
	assert.GreaterOrEqual(t, time.Since(started), 30*time.Millisecond)
}

func TestRespondHonoursCancellation(t *testing.T) {
	r := New(WithDelay(time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Respond(ctx, "hello")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithRulesOverridesTable(t *testing.T) {
	r := New(WithDelay(0), WithRules([]Rule{{Name: "solar", Keywords: []string{"Solar"}, Reply: "sun"}}, "nothing"))

	assert.Equal(t, "sun", r.Match("solar farms"))
	assert.Equal(t, "nothing", r.Match("hello"))
	assert.Equal(t, "rules", r.Name())
}
