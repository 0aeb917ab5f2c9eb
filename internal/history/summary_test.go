package history

import (
	"strings"
	"testing"

	"essaycoach/internal/domain/models/essay"
)

const (
	draftOne = "我的妈妈\n\n我的妈妈很漂亮，她有一双大眼睛，长长的头发。\n\n她每天早上很早起床给我做早饭，然后送我去上学。\n\n我爱我的妈妈。"
	draftTwo = "我的妈妈\n\n我的妈妈很漂亮，她有一双大眼睛，长长的头发。\n\n她每天早上很早起床给我做早饭，然后送我去上学。\n\n下雨天她总是把伞偏向我这边。\n\n我爱我的妈妈。"
	draftSix = "春天的公园\n\n公园里开满了桃花和迎春花，蝴蝶在花丛中飞来飞去。"
)

func essayWith(versions ...essay.Version) *essay.Essay {
	return &essay.Essay{
		ID:       "essay-1",
		Title:    "我的妈妈",
		Content:  "当前内容",
		Versions: versions,
	}
}

func withContent(v essay.Version, content string) essay.Version {
	v.Content = content
	return v
}

func TestSummarize_NoVersions(t *testing.T) {
	got := Summarize(essayWith())
	if !strings.HasSuffix(got, "当前内容") {
		t.Errorf("expected essay content verbatim, got %q", got)
	}
	if !strings.Contains(got, "只有一个版本") {
		t.Errorf("expected single-version sentence, got %q", got)
	}
}

func TestSummarize_OneVersion(t *testing.T) {
	got := Summarize(essayWith(withContent(version("A", "", 1), draftOne)))
	want := "版本1：[完整内容]\n" + draftOne
	if got != want {
		t.Errorf("Summarize = %q, want %q", got, want)
	}
}

func TestSummarize_MinorEditIsDescribedByDiff(t *testing.T) {
	e := essayWith(
		withContent(version("v1", "", 1), draftOne),
		withContent(version("v2", "v1", 2), draftTwo),
		withContent(version("v3", "v2", 3), draftSix),
	)

	got := Summarize(e)

	if !strings.Contains(got, draftOne) {
		t.Error("summary must contain the first version verbatim")
	}
	if !strings.Contains(got, draftSix) {
		t.Error("summary must contain the last version verbatim")
	}
	if strings.Contains(got, draftTwo) {
		t.Error("intermediate minor edit should not be sent in full")
	}

	var v2Line string
	for _, line := range strings.Split(got, "\n") {
		if strings.HasPrefix(line, "版本2") {
			v2Line = line
		}
	}
	if !strings.HasPrefix(v2Line, "版本2：基于版本1，") {
		t.Fatalf("unexpected v2 line: %q", v2Line)
	}
	if !strings.Contains(v2Line, "添加了\"下雨天她总是把伞偏向我这边。\"") {
		t.Errorf("v2 line should describe the added sentence, got %q", v2Line)
	}
	if !strings.Contains(v2Line, "在\"她每天早上很早起床给我做早饭，\"和\"我爱我的妈妈。\"之间") {
		t.Errorf("v2 line should locate the added sentence, got %q", v2Line)
	}
}

func TestSummarize_SubstantialChangeSendsFullContent(t *testing.T) {
	e := essayWith(
		withContent(version("v1", "", 1), draftOne),
		withContent(version("v2", "v1", 2), draftSix),
		withContent(version("v3", "v2", 3), draftTwo),
	)

	got := Summarize(e)

	if !strings.Contains(got, "版本2：基于版本1，有较大修改\n"+draftSix) {
		t.Errorf("rewrite should be sent in full, got %q", got)
	}
}

func TestSummarize_UnchangedVersion(t *testing.T) {
	e := essayWith(
		withContent(version("v1", "", 1), draftOne),
		withContent(version("v2", "v1", 2), draftOne),
		withContent(version("v3", "v1", 3), draftTwo),
	)

	got := Summarize(e)

	if !strings.Contains(got, "版本2：基于版本1\n") {
		t.Errorf("unchanged version should only name its base, got %q", got)
	}
}

func TestSummarize_RootFallsBackToPreviousVersion(t *testing.T) {
	e := essayWith(
		withContent(version("v1", "", 1), draftOne),
		withContent(version("v2", "", 2), draftTwo),
		withContent(version("v3", "v1", 3), draftSix),
	)

	got := Summarize(e)

	if !strings.Contains(got, "版本2：基于版本1，") {
		t.Errorf("parentless version should diff against its predecessor, got %q", got)
	}
}

func TestSummarizeRecent_KeepsNumbering(t *testing.T) {
	e := essayWith(
		withContent(version("v1", "", 1), "第一稿"),
		withContent(version("v2", "v1", 2), draftOne),
		withContent(version("v3", "v2", 3), draftTwo),
		withContent(version("v4", "v3", 4), draftSix),
	)

	got := SummarizeRecent(e, 3)

	if strings.Contains(got, "第一稿") {
		t.Error("versions outside the window should be dropped")
	}
	if !strings.HasPrefix(got, "版本2：[完整内容]\n"+draftOne) {
		t.Errorf("window should start at version 2 in full, got %q", got)
	}
	if !strings.HasSuffix(got, "版本4：[完整内容]\n"+draftSix) {
		t.Errorf("window should end at version 4 in full, got %q", got)
	}
}

func TestMore(t *testing.T) {
	if more(1) != "" {
		t.Error("single entry should have no suffix")
	}
	if got := more(4); got != "（还有3处）" {
		t.Errorf("more(4) = %q", got)
	}
}
