package keywords

import (
	"sort"
	"strings"
)

// TagDictionary maps a canonical topic tag to the trigger phrases that
// imply it. Loaded once at startup and immutable afterwards.
type TagDictionary map[string][]string

// DefaultDictionary returns the built-in mapping of counseling topics
// to their common phrasings in intake text.
func DefaultDictionary() TagDictionary {
	return TagDictionary{
		"焦虑情绪": {"焦虑情绪", "焦虑", "恐慌", "紧张"},
		"抑郁情绪": {"抑郁情绪", "抑郁", "情绪低落", "兴趣减退"},
		"职场压力": {"职场压力", "职业规划", "职业倦怠", "工作压力"},
		"婚姻家庭": {"婚姻家庭", "情感问题", "亲密关系"},
		"亲子关系": {"亲子关系", "青少年心理", "家庭教育", "儿童行为问题"},
		"人际关系": {"人际关系", "社交恐惧", "沟通技巧", "边界设定"},
		"情绪管理": {"情绪管理", "情绪调节", "情绪控制"},
		"睡眠问题": {"睡眠问题", "失眠", "入睡困难", "睡不着"},
	}
}

// Extractor maps free-text blocks to canonical topic tags
type Extractor struct {
	dict TagDictionary
}

// NewExtractor creates an extractor over the given dictionary
func NewExtractor(dict TagDictionary) *Extractor {
	return &Extractor{dict: dict}
}

// Extract returns the deduplicated set of tags whose trigger phrases
// occur as substrings of any input block. The result is sorted so
// output is stable; callers treat it as a set. An empty result is a
// valid outcome, not an error.
func (e *Extractor) Extract(blocks ...string) []string {
	tags := make([]string, 0, len(e.dict))

	for tag, triggers := range e.dict {
		if anyBlockContains(blocks, triggers) {
			tags = append(tags, tag)
		}
	}

	sort.Strings(tags)
	return tags
}

func anyBlockContains(blocks []string, triggers []string) bool {
	for _, block := range blocks {
		if block == "" {
			continue
		}
		for _, trigger := range triggers {
			if strings.Contains(block, trigger) {
				return true
			}
		}
	}
	return false
}
