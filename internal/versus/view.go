package versus

import (
	"github.com/vovakirdan/tui-puyo/internal/field"
	"github.com/vovakirdan/tui-puyo/internal/player"
)

// View is a read-only copy of one player for the front-end.
type View struct {
	Name      string
	Kind      player.Kind
	Phase     player.Phase
	Field     *field.Field
	Piece     player.Piece
	HasPiece  bool
	Shadow    []field.Shadow
	Next      [][2]int
	Score     int
	Chain     int
	LastChain int
	Predicted int
	GQ        int
	Tray      [player.TraySlots]player.TrayIcon
	Margin    int
	AllClear  bool
	Hint      bool
	Lost      bool
	Events    []player.Event
}

// View copies the state of every player and drains their events.
func (m *Match) View() []View {
	views := make([]View, len(m.players))
	for i, p := range m.players {
		v := View{
			Name:      p.Name(),
			Kind:      p.Kind(),
			Phase:     p.Phase(),
			Field:     p.Field().Clone(),
			Next:      p.Next(),
			Score:     p.Score(),
			Chain:     p.Chain(),
			LastChain: p.LastChain(),
			Predicted: p.Predicted(),
			GQ:        p.GQ(),
			Tray:      p.Tray(),
			Margin:    p.Margin(),
			AllClear:  p.AllClear(),
			Hint:      p.HintOn(),
			Lost:      p.Lost(),
			Events:    p.Events(),
		}
		if pc, ok := p.Piece(); ok {
			v.Piece, v.HasPiece = pc, true
			v.Shadow = pc.Shadow(p.Field())
		}
		views[i] = v
	}
	return views
}
