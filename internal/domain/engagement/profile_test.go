package engagement

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelForScoreThresholds(t *testing.T) {
	cases := []struct {
		score int
		level EngagementLevel
	}{
		{0, EngagementVeryLow},
		{10, EngagementVeryLow},
		{19, EngagementVeryLow},
		{20, EngagementLow},
		{39, EngagementLow},
		{40, EngagementMedium},
		{45, EngagementMedium},
		{59, EngagementMedium},
		{60, EngagementHigh},
		{79, EngagementHigh},
		{80, EngagementVeryHigh},
		{100, EngagementVeryHigh},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.level, LevelForScore(tc.score), "score %d", tc.score)
	}
}

func TestApplyPointsRecomputesTier(t *testing.T) {
	profile := &LeadProfile{VisitorID: "v1", EngagementLevel: EngagementVeryLow}

	profile.ApplyPoints(45, 100)
	assert.Equal(t, 45, profile.TotalScore)
	assert.Equal(t, EngagementMedium, profile.EngagementLevel)

	profile.ApplyPoints(35, 100)
	assert.Equal(t, 80, profile.TotalScore)
	assert.Equal(t, EngagementVeryHigh, profile.EngagementLevel)
}

func TestApplyPointsClampsToMax(t *testing.T) {
	profile := &LeadProfile{VisitorID: "v1"}

	profile.ApplyPoints(90, 100)
	profile.ApplyPoints(50, 100)
	assert.Equal(t, 100, profile.TotalScore)
	assert.Equal(t, EngagementVeryHigh, profile.EngagementLevel)
}

func TestApplyPointsClampsToZero(t *testing.T) {
	profile := &LeadProfile{VisitorID: "v1"}

	profile.ApplyPoints(10, 100)
	profile.ApplyPoints(-30, 100)
	assert.Equal(t, 0, profile.TotalScore)
	assert.Equal(t, EngagementVeryLow, profile.EngagementLevel)
}

func TestProfileTags(t *testing.T) {
	profile := &LeadProfile{VisitorID: "v1"}

	assert.False(t, profile.HasTag("high-value"))
	profile.AddTag("high-value")
	profile.AddTag("high-value")
	assert.True(t, profile.HasTag("high-value"))
	assert.Len(t, profile.Tags, 1)
}
