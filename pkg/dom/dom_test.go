package dom

import (
	"testing"
)

func TestTreeBuilding(t *testing.T) {
	doc := NewDocument()
	div := doc.CreateElement("div")
	div.SetAttr("id", "main")
	div.AddClass("card")
	div.AppendChild(doc.CreateText("a<b"))
	doc.Body().AppendChild(div)

	want := `<body><div id="main" class="card">a&lt;b</div></body>`
	if got := doc.Body().HTML(); got != want {
		t.Errorf("HTML() = %s, want %s", got, want)
	}
	if div.Parent() != doc.Body() {
		t.Error("div.Parent() should be body")
	}
	if got := doc.Body().Text(); got != "a<b" {
		t.Errorf("Text() = %q, want %q", got, "a<b")
	}
}

func TestInsertBeforeAndMove(t *testing.T) {
	doc := NewDocument()
	body := doc.Body()
	a := doc.CreateText("a")
	b := doc.CreateText("b")
	c := doc.CreateText("c")

	rec := &Recorder{}
	doc.Observe(rec)

	body.AppendChild(a)
	body.AppendChild(c)
	body.InsertBefore(b, c)
	if got := body.InnerHTML(); got != "abc" {
		t.Fatalf("InnerHTML = %q, want abc", got)
	}

	// Moving an attached node reports a move, not an insert.
	body.InsertBefore(c, a)
	if got := body.InnerHTML(); got != "cab" {
		t.Errorf("InnerHTML after move = %q, want cab", got)
	}
	if rec.Count(OpInsertNode) != 3 {
		t.Errorf("inserts = %d, want 3", rec.Count(OpInsertNode))
	}
	if rec.Count(OpMoveNode) != 1 {
		t.Errorf("moves = %d, want 1", rec.Count(OpMoveNode))
	}

	if a.NextSibling() != b || b.NextSibling() != nil {
		t.Error("NextSibling mismatch after move")
	}

	b.Remove()
	b.Remove()
	if got := body.InnerHTML(); got != "ca" {
		t.Errorf("InnerHTML after remove = %q, want ca", got)
	}
	if rec.Count(OpRemoveNode) != 1 {
		t.Errorf("removes = %d, want 1", rec.Count(OpRemoveNode))
	}
}

func TestInsertBeforeForeignAnchorPanics(t *testing.T) {
	doc := NewDocument()
	other := doc.CreateElement("div")
	anchor := doc.CreateText("x")
	other.AppendChild(anchor)

	defer func() {
		if recover() == nil {
			t.Error("expected panic for foreign anchor")
		}
	}()
	doc.Body().InsertBefore(doc.CreateText("y"), anchor)
}

func TestAttributesAndClassesAreIdempotent(t *testing.T) {
	doc := NewDocument()
	el := doc.CreateElement("p")
	rec := &Recorder{}
	doc.Observe(rec)

	el.SetAttr("title", "x")
	el.SetAttr("title", "x")
	el.AddClass("a")
	el.AddClass("a")
	el.RemoveClass("missing")
	el.RemoveAttr("missing")

	if len(rec.Mutations) != 2 {
		t.Errorf("mutations = %d, want 2", len(rec.Mutations))
	}

	el.RemoveClass("a")
	el.RemoveAttr("title")
	if el.HasClass("a") {
		t.Error("class a should be removed")
	}
	if _, ok := el.Attr("title"); ok {
		t.Error("title should be removed")
	}
}

func TestEventListeners(t *testing.T) {
	doc := NewDocument()
	btn := doc.CreateElement("button")

	var steps []string
	btn.AddEventListener("click", func(Event) { steps = append(steps, "first") })
	off := btn.AddEventListener("click", func(Event) { steps = append(steps, "second") })

	if n := btn.Dispatch(Event{Type: "click"}); n != 2 {
		t.Errorf("Dispatch ran %d listeners, want 2", n)
	}
	off()
	btn.Dispatch(Event{Type: "click"})
	btn.Dispatch(Event{Type: "dblclick"})

	want := []string{"first", "second", "first"}
	if len(steps) != len(want) {
		t.Fatalf("steps = %v, want %v", steps, want)
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Errorf("steps[%d] = %s, want %s", i, steps[i], want[i])
		}
	}
}

func TestObserverUnsubscribe(t *testing.T) {
	doc := NewDocument()
	count := 0
	stop := doc.Observe(ObserverFunc(func(Mutation) { count++ }))

	doc.Body().AppendChild(doc.CreateText("a"))
	stop()
	doc.Body().AppendChild(doc.CreateText("b"))

	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestSnapshot(t *testing.T) {
	doc := NewDocument()
	ul := doc.CreateElement("ul")
	li := doc.CreateElement("li")
	li.AppendChild(doc.CreateText("one"))
	ul.AppendChild(li)

	snap := ul.Snapshot()
	if snap.Tag != "ul" || len(snap.Children) != 1 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if got := snap.Children[0].Children[0].Text; got != "one" {
		t.Errorf("text = %q, want one", got)
	}
	if snap.Children[0].Kind != "Element" {
		t.Errorf("kind = %q, want Element", snap.Children[0].Kind)
	}
}

func TestFind(t *testing.T) {
	doc := NewDocument()
	div := doc.CreateElement("div")
	span := doc.CreateElement("span")
	div.AppendChild(span)
	doc.Body().AppendChild(div)

	if doc.Body().Find("span") != span {
		t.Error("Find(span) mismatch")
	}
	if doc.Body().Find("table") != nil {
		t.Error("Find(table) should be nil")
	}
}
