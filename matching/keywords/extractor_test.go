package keywords

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractFromDescription(t *testing.T) {
	extractor := NewExtractor(DefaultDictionary())

	tags := extractor.Extract("最近总是很焦虑，睡不着")

	assert.ElementsMatch(t, []string{"焦虑情绪", "睡眠问题"}, tags)
}

func TestExtractAcrossBlocks(t *testing.T) {
	extractor := NewExtractor(DefaultDictionary())

	// Trigger phrases in attachment text count the same as the
	// description itself
	tags := extractor.Extract("工作上有些困扰", "医生诊断显示入睡困难")

	assert.ElementsMatch(t, []string{"睡眠问题"}, tags)
}

func TestExtractDeduplicates(t *testing.T) {
	extractor := NewExtractor(DefaultDictionary())

	tags := extractor.Extract("焦虑，非常焦虑，还有恐慌")

	assert.Equal(t, []string{"焦虑情绪"}, tags)
}

func TestExtractNoTriggers(t *testing.T) {
	extractor := NewExtractor(DefaultDictionary())

	tags := extractor.Extract("今天天气不错")

	assert.Empty(t, tags)
}

func TestExtractEmptyInput(t *testing.T) {
	extractor := NewExtractor(DefaultDictionary())

	assert.Empty(t, extractor.Extract())
	assert.Empty(t, extractor.Extract(""))
}
