package browser

import "testing"

func TestBoundsMatchSpecCaps(t *testing.T) {
	if CompactBounds.MaxDepth != 3 || CompactBounds.MaxChildren != 10 || CompactBounds.MaxText != 50 {
		t.Fatalf("compact bounds drifted: %+v", CompactBounds)
	}
	if FullBounds.MaxDepth != 5 || FullBounds.MaxChildren != 20 || FullBounds.MaxText != 100 {
		t.Fatalf("full bounds drifted: %+v", FullBounds)
	}
}

func TestJSONElementToModelPreservesHandles(t *testing.T) {
	je := jsonElement{Handle: "e1", Tag: "div", ParentHandle: "e0", NthChild: 2}
	el := je.toModel()
	if string(el.Handle) != "e1" || string(el.ParentHandle) != "e0" || el.NthChild != 2 {
		t.Fatalf("unexpected conversion: %+v", el)
	}
}

func TestJSONDOMNodeToModelWalksChildren(t *testing.T) {
	jn := jsonDOMNode{Tag: "body", Children: []jsonDOMNode{{Tag: "div", Text: "hi"}}}
	n := jn.toModel()
	if len(n.Children) != 1 || n.Children[0].Text != "hi" {
		t.Fatalf("unexpected tree: %+v", n)
	}
}
