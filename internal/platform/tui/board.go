package tui

import (
	"fmt"
	"math"

	"github.com/vovakirdan/tui-puyo/internal/core"
	"github.com/vovakirdan/tui-puyo/internal/field"
	"github.com/vovakirdan/tui-puyo/internal/player"
	"github.com/vovakirdan/tui-puyo/internal/versus"
)

const (
	cellW     = 2 // screen columns per puyo
	panelGap  = 2
	panelHUD  = 2 // name and tray rows above the well
	panelFoot = 3 // next, score and chain rows below the well
)

var trayGlyphs = map[player.TrayIcon]rune{
	player.TraySmall: '.',
	player.TrayBig:   'o',
	player.TrayRock:  'O',
	player.TrayStar:  '*',
	player.TrayMoon:  'C',
	player.TrayCrown: 'W',
}

// panelSize returns the screen size of one player's panel.
func panelSize(f *field.Field) (w, h int) {
	w = f.Width()*cellW + 2
	// Visible rows plus the hidden row, framed.
	h = panelHUD + f.HiddenRow() + 1 + 2 + panelFoot
	return w, h
}

// BoardsSize returns the screen area DrawBoards needs for views.
func BoardsSize(views []versus.View) (w, h int) {
	for i, v := range views {
		pw, ph := panelSize(v.Field)
		if i > 0 {
			w += panelGap
		}
		w += pw
		h = max(h, ph)
	}
	return w, h
}

// DrawBoards draws the players side by side starting at (x, y).
func DrawBoards(dst *core.Screen, views []versus.View, x, y int) {
	for _, v := range views {
		pw, _ := panelSize(v.Field)
		drawPanel(dst, v, x, y)
		x += pw + panelGap
	}
}

func drawPanel(dst *core.Screen, v versus.View, x, y int) {
	f := v.Field
	pw, _ := panelSize(f)
	top := f.HiddenRow()

	nameColor := core.ColorBrightWhite
	if v.Lost {
		nameColor = core.ColorGray
	}
	name := v.Name
	if len(name) > pw {
		name = name[:pw]
	}
	dst.DrawTextColor(x, y, name, nameColor)

	for i, icon := range v.Tray {
		if g, ok := trayGlyphs[icon]; ok {
			dst.SetColor(x+1+i*cellW, y+1, g, core.ColorBrightRed)
		}
	}

	well := core.NewRect(x, y+panelHUD, pw, top+3)
	dst.DrawBox(well, core.ColorGray)

	// Screen row of field row fy.
	rowY := func(fy int) int { return well.Y + 1 + top - fy }
	colX := func(fx int) int { return well.X + 1 + fx*cellW }

	for fx := 0; fx < f.Width(); fx++ {
		dst.DrawTextColor(colX(fx), rowY(top), "..", core.ColorGray)
	}
	// Death cell marker.
	d := f.DeathCell()
	dst.DrawTextColor(colX(d.X), rowY(d.Y), "><", core.ColorRed)

	for _, s := range v.Shadow {
		if s.Y <= top {
			dst.DrawTextColor(colX(s.X), rowY(s.Y), "::", core.PuyoColor(s.Color))
		}
	}

	for fy := 0; fy < f.Height(); fy++ {
		for fx := 0; fx < f.Width(); fx++ {
			p := f.At(fx, fy)
			if p == nil {
				continue
			}
			vy := fy
			if p.Fall == field.Falling {
				vy = int(math.Round(p.PosY))
			}
			if vy > top || vy < 0 {
				continue
			}
			drawPuyo(dst, colX(fx), rowY(vy), p)
		}
	}

	if v.HasPiece {
		cells := v.Piece.Cells()
		colors := [2]int{v.Piece.Pivot, v.Piece.Second}
		for i, c := range cells {
			if c.Y <= top && c.Y >= 0 {
				dst.DrawTextColor(colX(c.X), rowY(c.Y), "()", core.PuyoColor(colors[i]).Highlight())
			}
		}
	}

	switch {
	case v.Lost:
		drawCentered(dst, well, "LOST", core.ColorGray)
	case v.Chain > 1:
		drawCentered(dst, well, fmt.Sprintf("%d chain!", v.Chain), core.ColorBrightYellow)
	case v.AllClear:
		drawCentered(dst, well, "ALL CLEAR", core.ColorBrightCyan)
	}

	foot := well.Bottom()
	dst.DrawText(x, foot, "next")
	nx := x + 5
	for _, pair := range v.Next {
		dst.DrawTextColor(nx, foot, "()", core.PuyoColor(pair[0]))
		dst.DrawTextColor(nx+2, foot, "()", core.PuyoColor(pair[1]))
		nx += 5
	}
	dst.DrawText(x, foot+1, fmt.Sprintf("%08d", v.Score))
	chain := fmt.Sprintf("max %d", v.LastChain)
	if v.Predicted > 0 {
		chain = fmt.Sprintf("max %d  hint %d", v.LastChain, v.Predicted)
	}
	dst.DrawTextColor(x, foot+2, chain, core.ColorGray)
}

func drawPuyo(dst *core.Screen, x, y int, p *field.Puyo) {
	if p.Kind == field.KindNuisance {
		dst.DrawTextColor(x, y, "<>", core.ColorGray)
		return
	}
	c := core.PuyoColor(p.Color)
	glyph := "()"
	if p.Glow {
		c = c.Highlight()
		glyph = "[]"
	}
	dst.DrawTextColor(x, y, glyph, c)
}

func drawCentered(dst *core.Screen, r core.Rect, text string, c core.Color) {
	cx, cy := r.Center()
	dst.DrawTextColor(cx-len(text)/2, cy, text, c)
}
