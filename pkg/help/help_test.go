package help

import (
	"strings"
	"testing"
)

func TestQUICKREFNonEmpty(t *testing.T) {
	if len(QUICKREF) == 0 {
		t.Fatal("QUICKREF is empty")
	}
}

func TestQUICKREFContainsVersion(t *testing.T) {
	if !strings.Contains(QUICKREF, Version) {
		t.Errorf("QUICKREF does not contain version string %s", Version)
	}
}

func TestQUICKREFListsTopics(t *testing.T) {
	for _, topic := range TopicList {
		if !strings.Contains(QUICKREF, topic) {
			t.Errorf("QUICKREF does not mention topic %q", topic)
		}
	}
}

func TestTopicListMatchesTopics(t *testing.T) {
	for _, name := range TopicList {
		if _, ok := Topics[name]; !ok {
			t.Errorf("TopicList entry %q not in Topics map", name)
		}
	}
	if len(Topics) != len(TopicList) {
		t.Errorf("expected %d topics, got %d", len(TopicList), len(Topics))
	}
}

func TestTopicsNonEmpty(t *testing.T) {
	for name, content := range Topics {
		if len(content) == 0 {
			t.Errorf("topic %q has empty content", name)
		}
	}
}

func TestMatchTopic(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"syntax", "syntax"},
		{"diag", "diagnostics"},
		{"ex", "examples"},
		{"CLASSES", "classes"},
		{" flow ", "flow"},
	}
	for _, tt := range tests {
		name, content, err := MatchTopic(tt.query)
		if err != nil {
			t.Errorf("MatchTopic(%q) error: %v", tt.query, err)
			continue
		}
		if name != tt.want {
			t.Errorf("MatchTopic(%q) = %q, want %q", tt.query, name, tt.want)
		}
		if content == "" {
			t.Errorf("MatchTopic(%q) returned empty content", tt.query)
		}
	}
}

func TestMatchTopicErrors(t *testing.T) {
	for _, q := range []string{"nonexistent", "", "init"} {
		if _, _, err := MatchTopic(q); err == nil {
			t.Errorf("expected error for %q", q)
		}
	}
}

func TestMatchTopicAmbiguous(t *testing.T) {
	Topics["synopsis"] = "x"
	TopicList = append(TopicList, "synopsis")
	defer func() {
		delete(Topics, "synopsis")
		TopicList = TopicList[:len(TopicList)-1]
	}()

	_, _, err := MatchTopic("syn")
	if err == nil || !strings.Contains(err.Error(), "ambiguous") {
		t.Errorf("expected ambiguity error, got %v", err)
	}
}

func TestNativesIndex(t *testing.T) {
	idx := NativesIndex()
	for _, want := range []string{"clock", "print", "<native fn: print>", "Total: 2 functions"} {
		if !strings.Contains(idx, want) {
			t.Errorf("NativesIndex missing %q:\n%s", want, idx)
		}
	}
}
