package window

import "testing"

func TestWindowBuilderOptions(t *testing.T) {
	w := &engineWindow{resizable: true}
	for _, opt := range []WindowBuilderOption{
		WithTitle("demo"),
		WithSize(800, 600),
		WithMinWidth(100),
		WithMinHeight(50),
		WithMaxWidth(1000),
		WithMaxHeight(900),
		WithResizable(false),
	} {
		opt(w)
	}

	if w.title != "demo" || w.width != 800 || w.height != 600 {
		t.Errorf("title/size = %q %dx%d", w.title, w.width, w.height)
	}
	if w.minWidth != 100 || w.minHeight != 50 || w.maxWidth != 1000 || w.maxHeight != 900 {
		t.Errorf("limits = %d,%d %d,%d", w.minWidth, w.minHeight, w.maxWidth, w.maxHeight)
	}
	if w.resizable {
		t.Error("WithResizable(false) not applied")
	}
}

func TestEmitWithoutCallback(t *testing.T) {
	w := &engineWindow{}
	w.emit(Event{Kind: EventScroll, Scroll: 1})

	var got []Event
	w.SetEventCallback(func(e Event) { got = append(got, e) })
	w.emit(Event{Kind: EventKeyDown})
	w.emit(Event{Kind: EventMouseMove})
	if len(got) != 2 || got[0].Kind != EventKeyDown || got[1].Kind != EventMouseMove {
		t.Errorf("events = %+v", got)
	}
}

func TestEventKindString(t *testing.T) {
	tests := map[EventKind]string{
		EventKeyDown:  "key down",
		EventMouseUp:  "mouse up",
		EventScroll:   "scroll",
		EventKind(42): "EventKind(42)",
	}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(k), got, want)
		}
	}
}
