// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markup

import (
	"testing"

	"github.com/morganforge/studypal/internal/model"
)

// =============================================================================
// PARAGRAPHS
// =============================================================================

func TestFormat_PlainTextSingleParagraph(t *testing.T) {
	in := "Mitochondria generate most of the cell's ATP."
	got := Format(in)

	if len(got) != 1 {
		t.Fatalf("Format returned %d nodes, want 1: %#v", len(got), got)
	}
	if got[0].Kind != model.NodeParagraph {
		t.Errorf("kind = %q, want paragraph", got[0].Kind)
	}
	if got[0].Text != in {
		t.Errorf("text = %q, want original unchanged", got[0].Text)
	}
}

func TestFormat_BlankLineSeparatesParagraphs(t *testing.T) {
	got := Format("First thought.\n\nSecond thought.")

	if len(got) != 2 {
		t.Fatalf("got %d nodes, want 2: %#v", len(got), got)
	}
	for i, want := range []string{"First thought.", "Second thought."} {
		if got[i].Kind != model.NodeParagraph || got[i].Text != want {
			t.Errorf("node %d = %+v, want paragraph %q", i, got[i], want)
		}
	}
}

func TestFormat_Empty(t *testing.T) {
	if got := Format(""); len(got) != 0 {
		t.Errorf("Format(\"\") = %#v, want no nodes", got)
	}
}

// =============================================================================
// LISTS
// =============================================================================

func TestFormat_ConsecutiveBulletsGroupIntoOneList(t *testing.T) {
	got := Format("• alpha\n- beta\n1. gamma\n2) delta")

	if len(got) != 1 {
		t.Fatalf("got %d nodes, want 1 list: %#v", len(got), got)
	}
	list := got[0]
	if list.Kind != model.NodeList {
		t.Fatalf("kind = %q, want list", list.Kind)
	}
	want := []string{"alpha", "beta", "gamma", "delta"}
	if len(list.Children) != len(want) {
		t.Fatalf("list has %d items, want %d", len(list.Children), len(want))
	}
	for i, w := range want {
		item := list.Children[i]
		if item.Kind != model.NodeListItem || item.Text != w {
			t.Errorf("item %d = %+v, want %q", i, item, w)
		}
	}
}

func TestFormat_ListBetweenParagraphs(t *testing.T) {
	got := Format("Steps:\n- one\n- two\nFinally.")

	wantKinds := []model.NodeKind{model.NodeParagraph, model.NodeList, model.NodeParagraph}
	if len(got) != len(wantKinds) {
		t.Fatalf("got %d nodes, want %d: %#v", len(got), len(wantKinds), got)
	}
	for i, k := range wantKinds {
		if got[i].Kind != k {
			t.Errorf("node %d kind = %q, want %q", i, got[i].Kind, k)
		}
	}
}

func TestFormat_HyphenWithoutSpaceIsNotABullet(t *testing.T) {
	got := Format("-273 degrees is absolute zero")

	if len(got) != 1 || got[0].Kind != model.NodeParagraph {
		t.Fatalf("negative number treated as bullet: %#v", got)
	}
}

// =============================================================================
// HEADINGS AND QUOTES
// =============================================================================

func TestFormat_HeadingLevels(t *testing.T) {
	got := Format("# One\n## Two\n### Three")

	if len(got) != 3 {
		t.Fatalf("got %d nodes, want 3: %#v", len(got), got)
	}
	for i, node := range got {
		if node.Kind != model.NodeHeading {
			t.Errorf("node %d kind = %q, want heading", i, node.Kind)
		}
		if node.Level != i+1 {
			t.Errorf("node %d level = %d, want %d", i, node.Level, i+1)
		}
	}
	if got[1].Text != "Two" {
		t.Errorf("heading text = %q, markers should be stripped", got[1].Text)
	}
}

func TestFormat_FourHashesIsNotAHeading(t *testing.T) {
	got := Format("#### not a heading")

	if len(got) != 1 || got[0].Kind != model.NodeParagraph {
		t.Fatalf("got %#v, want plain paragraph", got)
	}
}

func TestFormat_Quote(t *testing.T) {
	got := Format("> Study as if you were to live forever.")

	if len(got) != 1 || got[0].Kind != model.NodeQuote {
		t.Fatalf("got %#v, want one quote node", got)
	}
	if got[0].Text != "Study as if you were to live forever." {
		t.Errorf("quote text = %q", got[0].Text)
	}
}

// =============================================================================
// BRACKET TAGS
// =============================================================================

func TestFormat_WholeLineTag(t *testing.T) {
	got := Format("[key:answer]")

	if len(got) != 1 {
		t.Fatalf("got %d nodes, want 1: %#v", len(got), got)
	}
	if got[0].Kind != model.NodeKeyPoint || got[0].Text != "answer" {
		t.Errorf("node = %+v, want key point %q", got[0], "answer")
	}
}

func TestFormat_AllTagKinds(t *testing.T) {
	cases := []struct {
		in   string
		kind model.NodeKind
	}{
		{"[key:k]", model.NodeKeyPoint},
		{"[def:d]", model.NodeDef},
		{"[imp:i]", model.NodeImportant},
		{"[ex:e]", model.NodeExample},
	}
	for _, tc := range cases {
		got := Format(tc.in)
		if len(got) != 1 || got[0].Kind != tc.kind {
			t.Errorf("Format(%q) = %#v, want one %q node", tc.in, got, tc.kind)
		}
	}
}

func TestFormat_InlineTagInsideParagraph(t *testing.T) {
	got := Format("Remember [imp:water boils at 100C] at sea level.")

	if len(got) != 1 || got[0].Kind != model.NodeParagraph {
		t.Fatalf("got %#v", got)
	}
	children := got[0].Children
	if len(children) != 3 {
		t.Fatalf("paragraph children = %#v, want span/tag/span", children)
	}
	if children[1].Kind != model.NodeImportant || children[1].Text != "water boils at 100C" {
		t.Errorf("inline tag = %+v", children[1])
	}
}

func TestFormat_TagBodyNotReformatted(t *testing.T) {
	got := Format("[def:**bold** stays literal]")

	if len(got) != 1 || got[0].Kind != model.NodeDef {
		t.Fatalf("got %#v", got)
	}
	if got[0].Text != "**bold** stays literal" {
		t.Errorf("tag body = %q, must be verbatim", got[0].Text)
	}
	if len(got[0].Children) != 0 {
		t.Errorf("tag body should not be recursively formatted: %#v", got[0].Children)
	}
}

// =============================================================================
// INLINE EMPHASIS AND MATH
// =============================================================================

func TestFormat_Emphasis(t *testing.T) {
	got := Format("The **powerhouse** of the __cell__.")

	if len(got) != 1 || got[0].Kind != model.NodeParagraph {
		t.Fatalf("got %#v", got)
	}
	children := got[0].Children
	if len(children) != 5 {
		t.Fatalf("children = %#v, want 5 alternating nodes", children)
	}
	if children[1].Kind != model.NodeEmphasis || children[1].Text != "powerhouse" {
		t.Errorf("child 1 = %+v", children[1])
	}
	if children[3].Kind != model.NodeEmphasis || children[3].Text != "cell" {
		t.Errorf("child 3 = %+v", children[3])
	}
}

func TestFormat_MathSpan(t *testing.T) {
	got := Format("Energy is $$E = mc^2$$ at rest.")

	children := got[0].Children
	if len(children) != 3 {
		t.Fatalf("children = %#v", children)
	}
	if children[1].Kind != model.NodeMath || children[1].Text != "E = mc^2" {
		t.Errorf("math span = %+v", children[1])
	}
}

func TestFormat_UnpairedMarkersStayPlain(t *testing.T) {
	in := "a ** b $$ c [key d"
	got := Format(in)

	if len(got) != 1 || got[0].Text != in {
		t.Fatalf("unpaired markers must stay plain, got %#v", got)
	}
}

func TestFormat_ListItemWithEmphasis(t *testing.T) {
	got := Format("- the **krebs** cycle")

	list := got[0]
	if list.Kind != model.NodeList || len(list.Children) != 1 {
		t.Fatalf("got %#v", got)
	}
	item := list.Children[0]
	if len(item.Children) != 3 || item.Children[1].Kind != model.NodeEmphasis {
		t.Errorf("item = %#v, want inline emphasis child", item)
	}
}

// =============================================================================
// ORDER PRESERVATION
// =============================================================================

func TestFormat_NodesPreserveSourceOrder(t *testing.T) {
	got := Format("# Title\nIntro.\n- a\n- b\n> said someone\n[key:takeaway]")

	wantKinds := []model.NodeKind{
		model.NodeHeading,
		model.NodeParagraph,
		model.NodeList,
		model.NodeQuote,
		model.NodeKeyPoint,
	}
	if len(got) != len(wantKinds) {
		t.Fatalf("got %d nodes: %#v", len(got), got)
	}
	for i, k := range wantKinds {
		if got[i].Kind != k {
			t.Errorf("node %d kind = %q, want %q", i, got[i].Kind, k)
		}
	}
}
