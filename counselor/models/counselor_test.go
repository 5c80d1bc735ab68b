package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayNameFallback(t *testing.T) {
	assert.Equal(t, "王医生", (&Counselor{RealName: "王医生"}).DisplayName())
	assert.Equal(t, "心理咨询师", (&Counselor{}).DisplayName())
	assert.Equal(t, "心理咨询师", (&Counselor{RealName: "  "}).DisplayName())
}

func TestStringListRoundTrip(t *testing.T) {
	list := StringList{"焦虑情绪", "睡眠问题"}

	value, err := list.Value()
	require.NoError(t, err)

	var decoded StringList
	require.NoError(t, decoded.Scan(value))
	assert.Equal(t, list, decoded)
}

func TestStringListScanNil(t *testing.T) {
	var decoded StringList
	require.NoError(t, decoded.Scan(nil))
	assert.Nil(t, decoded)
}
