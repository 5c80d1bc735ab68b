package service

import (
	"testing"

	counselormodels "counseling-platform/backend/counselor/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreCountsContainedTags(t *testing.T) {
	engine := NewEngine()

	spec := counselormodels.StringList{"擅长焦虑情绪疏导", "睡眠问题调理"}

	assert.Equal(t, 2, engine.Score([]string{"焦虑情绪", "睡眠问题"}, spec))
	assert.Equal(t, 1, engine.Score([]string{"焦虑情绪", "婚姻家庭"}, spec))
	assert.Equal(t, 0, engine.Score([]string{"婚姻家庭"}, spec))
}

func TestScoreTagCountedOncePerRequest(t *testing.T) {
	engine := NewEngine()

	// Two specialization entries both containing the tag still score 1
	spec := counselormodels.StringList{"焦虑情绪", "青少年焦虑情绪"}

	assert.Equal(t, 1, engine.Score([]string{"焦虑情绪"}, spec))
}

func TestMatchPicksHighestScore(t *testing.T) {
	engine := NewEngine()

	counselors := []counselormodels.Counselor{
		{ID: 1, Specialization: counselormodels.StringList{"婚姻家庭"}},
		{ID: 2, Specialization: counselormodels.StringList{"焦虑情绪", "睡眠问题"}},
		{ID: 3, Specialization: counselormodels.StringList{"焦虑情绪"}},
	}

	best, ok := engine.Match([]string{"焦虑情绪", "睡眠问题"}, counselors)
	require.True(t, ok)
	assert.Equal(t, uint(2), best.ID)
}

func TestMatchTieBreaksOnLowestID(t *testing.T) {
	engine := NewEngine()

	counselors := []counselormodels.Counselor{
		{ID: 9, Specialization: counselormodels.StringList{"焦虑情绪"}},
		{ID: 4, Specialization: counselormodels.StringList{"焦虑情绪"}},
	}

	best, ok := engine.Match([]string{"焦虑情绪"}, counselors)
	require.True(t, ok)
	assert.Equal(t, uint(4), best.ID)
}

func TestMatchNoWinnerOnZeroScores(t *testing.T) {
	engine := NewEngine()

	counselors := []counselormodels.Counselor{
		{ID: 1, Specialization: counselormodels.StringList{"婚姻家庭"}},
	}

	_, ok := engine.Match([]string{"睡眠问题"}, counselors)
	assert.False(t, ok)
}

func TestMatchEmptyInputs(t *testing.T) {
	engine := NewEngine()

	_, ok := engine.Match(nil, []counselormodels.Counselor{{ID: 1}})
	assert.False(t, ok)

	_, ok = engine.Match([]string{"焦虑情绪"}, nil)
	assert.False(t, ok)
}
