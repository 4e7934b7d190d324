package editor

import "github.com/thereceipt/label-designer/pkg/labelformat"

// Tool is the active creation mode of the canvas
type Tool string

const (
	ToolSelect  Tool = "select"
	ToolText    Tool = "text"
	ToolBarcode Tool = "barcode"
	ToolQRCode  Tool = "qrcode"
	ToolImage   Tool = "image"
	ToolShape   Tool = "shape"
	ToolLine    Tool = "line"
)

// Tools lists every tool in toolbar order
var Tools = []Tool{ToolSelect, ToolText, ToolBarcode, ToolQRCode, ToolImage, ToolShape, ToolLine}

// ElementType returns the element type a creation tool produces.
// The select tool produces nothing.
func (t Tool) ElementType() (labelformat.ElementType, bool) {
	switch t {
	case ToolText:
		return labelformat.TypeText, true
	case ToolBarcode:
		return labelformat.TypeBarcode, true
	case ToolQRCode:
		return labelformat.TypeQRCode, true
	case ToolImage:
		return labelformat.TypeImage, true
	case ToolShape:
		return labelformat.TypeShape, true
	case ToolLine:
		return labelformat.TypeLine, true
	}
	return "", false
}

// Mode is the phase of the pointer gesture state machine
type Mode int

const (
	ModeIdle Mode = iota
	ModeDrawing
	ModeDragging
	ModeResizing
)

func (m Mode) String() string {
	return [...]string{"idle", "drawing", "dragging", "resizing"}[m]
}

// Handle is a resize grip on a selected element's corner
type Handle int

const (
	HandleNone Handle = iota
	HandleNW
	HandleNE
	HandleSW
	HandleSE
)

// Pointer is a pointer position in canvas pixels at 96 DPI, unscaled
type Pointer struct {
	X, Y  float64
	Shift bool
}

// Hit is the result of hit testing a pointer against the document
type Hit struct {
	ID     string
	Handle Handle
}

// Gesture is the transient pointer interaction in progress. It is never
// stored in history.
type Gesture struct {
	Mode     Mode
	StartX   float64
	StartY   float64
	CurrentX float64
	CurrentY float64
	Shift    bool
	TargetID string
	Handle   Handle
}

// Delta returns the pointer travel since the gesture started
func (g Gesture) Delta() (float64, float64) {
	return g.CurrentX - g.StartX, g.CurrentY - g.StartY
}

// State is the non-historied UI state of the editor
type State struct {
	Tool       Tool
	Selection  []string
	Gesture    Gesture
	GridSnap   bool
	ObjectSnap bool
}

// EventKind enumerates the inputs of the gesture state machine
type EventKind int

const (
	EventPointerDown EventKind = iota
	EventPointerMove
	EventPointerUp
	EventEscape
	EventSetTool
)

// Event is one input to Transition
type Event struct {
	Kind    EventKind
	Pointer Pointer
	Hit     Hit
	Tool    Tool
}

// Transition applies one event to the gesture state. When a pointer-up
// ends a gesture, the finished gesture is returned alongside the new state.
func Transition(s State, ev Event) (State, *Gesture) {
	switch ev.Kind {
	case EventPointerDown:
		if s.Gesture.Mode != ModeIdle {
			return s, nil
		}
		g := Gesture{
			StartX:   ev.Pointer.X,
			StartY:   ev.Pointer.Y,
			CurrentX: ev.Pointer.X,
			CurrentY: ev.Pointer.Y,
			Shift:    ev.Pointer.Shift,
			TargetID: ev.Hit.ID,
			Handle:   ev.Hit.Handle,
		}
		switch {
		case ev.Hit.ID == "" && s.Tool != ToolSelect:
			g.Mode = ModeDrawing
		case ev.Hit.ID != "" && ev.Hit.Handle != HandleNone:
			g.Mode = ModeResizing
		case ev.Hit.ID != "":
			g.Mode = ModeDragging
		default:
			return s, nil
		}
		s.Gesture = g

	case EventPointerMove:
		if s.Gesture.Mode == ModeIdle {
			return s, nil
		}
		s.Gesture.CurrentX = ev.Pointer.X
		s.Gesture.CurrentY = ev.Pointer.Y
		s.Gesture.Shift = ev.Pointer.Shift

	case EventPointerUp:
		if s.Gesture.Mode == ModeIdle {
			return s, nil
		}
		done := s.Gesture
		done.CurrentX = ev.Pointer.X
		done.CurrentY = ev.Pointer.Y
		done.Shift = ev.Pointer.Shift
		s.Gesture = Gesture{}
		return s, &done

	case EventEscape:
		if s.Gesture.Mode == ModeDrawing || s.Gesture.Mode == ModeIdle {
			s.Tool = ToolSelect
		}
		s.Gesture = Gesture{}

	case EventSetTool:
		if s.Gesture.Mode == ModeIdle {
			s.Tool = ev.Tool
		}
	}
	return s, nil
}
