// Package viewer is the windowed debug view of a running battle. It draws
// the world, the heatmap overlay and a HUD, and turns mouse and keyboard
// input into simulation commands.
package viewer

import (
	"fmt"
	"image/color"
	"math"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/rs/zerolog"
	"golang.org/x/image/font/basicfont"

	"github.com/Garsondee/frontline/internal/game"
)

const (
	hudHeight   = 120
	flashTime   = 0.4
	reportEvery = 60 // ticks
)

var (
	colOpen    = color.RGBA{R: 52, G: 70, B: 46, A: 255}
	colWall    = color.RGBA{R: 70, G: 66, B: 60, A: 255}
	colWater   = color.RGBA{R: 40, G: 70, B: 120, A: 255}
	colBlue    = color.RGBA{R: 80, G: 140, B: 255, A: 255}
	colRed     = color.RGBA{R: 230, G: 70, B: 60, A: 255}
	colNeutral = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	colSelect  = color.RGBA{R: 255, G: 230, B: 90, A: 255}
	colFire    = color.RGBA{R: 255, G: 120, B: 20, A: 150}
	colSmoke   = color.RGBA{R: 180, G: 180, B: 180, A: 90}
	colHUD     = color.RGBA{R: 220, G: 220, B: 210, A: 255}
)

// flash is a short-lived explosion or gunshot marker.
type flash struct {
	x, y, r float64
	left    float64
}

// Viewer implements ebiten.Game over a game.World.
type Viewer struct {
	world    *game.World
	terrain  *game.TileTerrain
	fires    *game.FireField
	smoke    *game.SmokeField
	reporter *game.SimReporter
	log      zerolog.Logger

	width, height int
	scale         float64
	face          *text.GoXFace
	terrainImg    *ebiten.Image

	paused   bool
	showHeat bool
	selected int // unit id
	flashes  []flash
	status   string
}

// New creates a viewer over w and registers it as the world's explosion and
// sound sink. fires and smoke should be the collaborators the world was built
// with so the viewer can draw them.
func New(w *game.World, t *game.TileTerrain, fires *game.FireField, smoke *game.SmokeField, width, height int, log zerolog.Logger) *Viewer {
	v := &Viewer{
		world:    w,
		terrain:  t,
		fires:    fires,
		smoke:    smoke,
		reporter: game.NewSimReporter(0),
		log:      log,
		width:    width,
		height:   height,
		face:     text.NewGoXFace(basicfont.Face7x13),
	}
	v.scale = math.Min(float64(width)/w.Width, float64(height-hudHeight)/w.Height)
	w.Effects.Explosions = v
	w.Effects.Sound = v
	return v
}

// AddExplosion implements game.ExplosionSink.
func (v *Viewer) AddExplosion(x, y, r float64) {
	v.flashes = append(v.flashes, flash{x: x, y: y, r: r, left: flashTime})
	if v.smoke != nil {
		v.smoke.Add(x, y, r*1.5)
	}
}

// CreateSoundwave implements game.SoundwaveSink. Only loud reports flash.
func (v *Viewer) CreateSoundwave(x, y, loudness float64) {
	if loudness >= 3 {
		v.flashes = append(v.flashes, flash{x: x, y: y, r: 6 * loudness, left: flashTime / 2})
	}
}

func (v *Viewer) toScreen(x, y float64) (float32, float32) {
	return float32(x * v.scale), float32(y * v.scale)
}

func (v *Viewer) toWorld(sx, sy int) (float64, float64) {
	return float64(sx) / v.scale, float64(sy) / v.scale
}

// Update advances the simulation one tick unless paused and applies input.
func (v *Viewer) Update() error {
	v.handleInput()
	if v.paused && !inpututil.IsKeyJustPressed(ebiten.KeyPeriod) {
		return nil
	}
	v.world.Step()
	if v.world.Tick%reportEvery == 0 {
		v.reporter.Collect(v.world)
	}
	dt := v.world.DT()
	kept := v.flashes[:0]
	for _, f := range v.flashes {
		if f.left -= dt; f.left > 0 {
			kept = append(kept, f)
		}
	}
	v.flashes = kept
	return nil
}

func (v *Viewer) handleInput() {
	w := v.world
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		v.paused = !v.paused
	case inpututil.IsKeyJustPressed(ebiten.KeyH):
		v.showHeat = !v.showHeat
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		v.selected = 0
		w.Deselect()
	case inpututil.IsKeyJustPressed(ebiten.KeyC):
		v.copyReport()
	}
	if v.selected != 0 {
		for key, st := range map[ebiten.Key]game.Stance{
			ebiten.Key1: game.StanceNone,
			ebiten.Key2: game.StanceDefensive,
			ebiten.Key3: game.StanceOffensive,
		} {
			if inpututil.IsKeyJustPressed(key) {
				w.SetStance(v.selected, st)
			}
		}
		if inpututil.IsKeyJustPressed(ebiten.KeyR) {
			w.Retreat(v.selected)
		}
	}

	mx, my := ebiten.CursorPosition()
	x, y := v.toWorld(mx, my)
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		v.selected = 0
		w.Deselect()
		if u := w.UnitAt(x, y); u != nil {
			v.selected = u.ID
		} else if c := w.CannonAt(x, y); c != nil {
			w.SelectCannon(c.ID)
		}
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight) {
		id := v.selected
		if id == 0 {
			id = w.Selected()
		}
		if id == 0 {
			return
		}
		if u := w.UnitAt(x, y); u != nil && w.SetManualTarget(id, game.UnitRef(u.ID)) {
			return
		}
		if c := w.CannonAt(x, y); c != nil && w.SetManualTarget(id, game.CannonRef(c.ID)) {
			return
		}
		w.MoveTo(id, x, y)
	}
}

// copyReport puts the latest summary on the system clipboard.
func (v *Viewer) copyReport() {
	v.reporter.Collect(v.world)
	if err := clipboard.WriteAll(v.reporter.Summary() + v.world.SimLog.Format()); err != nil {
		v.log.Warn().Err(err).Msg("clipboard copy failed")
		v.status = "clipboard unavailable"
		return
	}
	v.status = "report copied"
}

// Draw renders the battlefield and HUD.
func (v *Viewer) Draw(screen *ebiten.Image) {
	if v.terrainImg == nil {
		v.bakeTerrain()
	}
	screen.DrawImage(v.terrainImg, nil)
	if v.showHeat {
		v.drawHeatmap(screen)
	}
	v.drawEffects(screen)
	v.drawObjectives(screen)
	v.drawCannons(screen)
	v.drawUnits(screen)
	v.drawShells(screen)
	v.drawHUD(screen)
}

// Layout reports the fixed logical screen size.
func (v *Viewer) Layout(_, _ int) (int, int) { return v.width, v.height }

func (v *Viewer) bakeTerrain() {
	w, h := v.toScreen(v.world.Width, v.world.Height)
	img := ebiten.NewImage(int(w)+1, int(h)+1)
	v.terrain.Tiles(func(x, y, size float64, kind game.TerrainKind, height float64) {
		col := colOpen
		switch kind {
		case game.TerrainWall:
			col = colWall
		case game.TerrainWater:
			col = colWater
		default:
			lift := uint8(math.Min(40, height))
			col = color.RGBA{R: colOpen.R + lift, G: colOpen.G + lift, B: colOpen.B + lift/2, A: 255}
		}
		sx, sy := v.toScreen(x, y)
		s := float32(size * v.scale)
		vector.FillRect(img, sx, sy, s+0.5, s+0.5, col, false)
	})
	v.terrainImg = img
}

func factionColor(f game.Faction) color.RGBA {
	switch f {
	case game.FactionBlue:
		return colBlue
	case game.FactionRed:
		return colRed
	default:
		return colNeutral
	}
}

func (v *Viewer) drawHeatmap(screen *ebiten.Image) {
	hm := v.world.Heatmap
	cols, rows := hm.Dims()
	tw, th := hm.TileSize()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			t := hm.Tile(c, r)
			base := factionColor(t.Faction)
			alpha := uint8(math.Min(200, 20+t.Score*3))
			sx, sy := v.toScreen(float64(c)*tw, float64(r)*th)
			sw, sh := float32(tw*v.scale), float32(th*v.scale)
			vector.FillRect(screen, sx, sy, sw, sh, color.RGBA{R: base.R / 2, G: base.G / 2, B: base.B / 2, A: alpha}, false)
			if t.Danger {
				vector.StrokeRect(screen, sx+1, sy+1, sw-2, sh-2, 1, colRed, false)
			}
			if t.HasArrow {
				from := hm.TileCenter(c, r)
				to := hm.TileCenter(t.ArrowCol, t.ArrowRow)
				x0, y0 := v.toScreen(from.X, from.Y)
				x1, y1 := v.toScreen(from.X+(to.X-from.X)*0.4, from.Y+(to.Y-from.Y)*0.4)
				col := colHUD
				if t.Flank {
					col = colSelect
				}
				vector.StrokeLine(screen, x0, y0, x1, y1, 1.5, col, false)
			}
			ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%.0f", t.Score), int(sx)+2, int(sy)+2)
		}
	}
	for _, j := range v.world.Jobs.Jobs() {
		x, y := v.toScreen(j.Center.X, j.Center.Y)
		vector.StrokeCircle(screen, x, y, float32(tw*1.5*v.scale), 2, colSelect, true)
	}
}

func (v *Viewer) drawEffects(screen *ebiten.Image) {
	if v.fires != nil {
		for _, f := range v.fires.AllFires() {
			x, y := v.toScreen(f.X, f.Y)
			vector.FillCircle(screen, x, y, float32(f.Radius*v.scale), colFire, true)
		}
	}
	if v.smoke != nil {
		for _, s := range v.smoke.AllSmoke() {
			x, y := v.toScreen(s.X, s.Y)
			vector.FillCircle(screen, x, y, float32(s.Radius*v.scale), colSmoke, true)
		}
	}
	for _, f := range v.flashes {
		x, y := v.toScreen(f.x, f.y)
		a := uint8(255 * f.left / flashTime)
		vector.FillCircle(screen, x, y, float32(f.r*v.scale), color.RGBA{R: 255, G: 200, B: 80, A: a}, true)
	}
}

func (v *Viewer) drawObjectives(screen *ebiten.Image) {
	for _, o := range v.world.Reg.Objectives() {
		x, y := v.toScreen(o.Pos.X, o.Pos.Y)
		r := float32(o.Radius * v.scale)
		vector.StrokeCircle(screen, x, y, r, 1, factionColor(o.Faction), true)
		if o.Kind != game.ObjectiveFlag {
			continue
		}
		bar := float32(o.Progress) * r
		col := colBlue
		if bar < 0 {
			col = colRed
			bar = -bar
		}
		vector.FillRect(screen, x-r, y+r+2, 2*r, 3, color.RGBA{A: 160}, false)
		vector.FillRect(screen, x-r, y+r+2, bar*2, 3, col, false)
		if o.SuccessActive() {
			vector.StrokeCircle(screen, x, y, r+3, 2, colSelect, true)
		}
	}
}

func (v *Viewer) drawCannons(screen *ebiten.Image) {
	for _, c := range v.world.Reg.Cannons() {
		x, y := v.toScreen(c.Pos().X, c.Pos().Y)
		r := float32(c.Radius() * v.scale)
		vector.FillRect(screen, x-r, y-r, 2*r, 2*r, factionColor(c.Faction), false)
		bx := x + float32(math.Cos(c.Heading()))*r*1.8
		by := y + float32(math.Sin(c.Heading()))*r*1.8
		vector.StrokeLine(screen, x, y, bx, by, 3, colHUD, false)
		if c.ID == v.world.Selected() {
			vector.StrokeRect(screen, x-r-2, y-r-2, 2*r+4, 2*r+4, 1, colSelect, false)
		}
		if !c.Loaded && len(c.Crew) > 0 {
			frac := float32(c.ReloadTimer / c.ReloadDuration)
			vector.FillRect(screen, x-r, y-r-5, 2*r*frac, 2, colSelect, false)
		}
	}
}

func (v *Viewer) drawUnits(screen *ebiten.Image) {
	for _, u := range v.world.Reg.Units() {
		x, y := v.toScreen(u.Pos().X, u.Pos().Y)
		r := float32(u.Radius() * v.scale)
		col := factionColor(u.Faction)
		if u.Dying() {
			col = color.RGBA{R: col.R / 3, G: col.G / 3, B: col.B / 3, A: 200}
		}
		vector.FillCircle(screen, x, y, r, col, true)
		hx := x + float32(math.Cos(u.Heading()))*r*1.6
		hy := y + float32(math.Sin(u.Heading()))*r*1.6
		vector.StrokeLine(screen, x, y, hx, hy, 1, colHUD, false)
		if u.Panicking() {
			vector.StrokeCircle(screen, x, y, r+2, 1, colSelect, true)
		}
		if u.ID == v.selected {
			vector.StrokeCircle(screen, x, y, r+4, 1.5, colSelect, true)
			if ti, ok := v.world.Reg.Resolve(u.LockedTarget()); ok {
				tx, ty := v.toScreen(ti.Pos.X, ti.Pos.Y)
				vector.StrokeLine(screen, x, y, tx, ty, 1, colSelect, false)
			}
		}
	}
}

func (v *Viewer) drawShells(screen *ebiten.Image) {
	for _, s := range v.world.Shells() {
		x, y := v.toScreen(s.Pos.X, s.Pos.Y)
		vector.FillCircle(screen, x, y, 2.5, colHUD, true)
	}
}

func (v *Viewer) drawHUD(screen *ebiten.Image) {
	y0 := float64(v.height - hudHeight)
	vector.FillRect(screen, 0, float32(y0), float32(v.width), hudHeight, color.RGBA{R: 16, G: 18, B: 16, A: 235}, false)

	lines := []string{
		v.world.String(),
		"[space] pause  [.] step  [H] heatmap  [1/2/3] stance  [R] retreat  [C] copy report  [esc] deselect",
	}
	if u := v.world.Reg.Unit(v.selected); u != nil {
		lines = append(lines, fmt.Sprintf("U%d %s hp %.0f/%.0f distress %.0f stance %s mag %d target %v",
			u.ID, u.Faction, u.Health, u.MaxHealth, u.Distress, u.Stance(), u.Magazine(), u.LockedTarget()))
	}
	if c := v.world.Reg.Cannon(v.world.Selected()); c != nil {
		lines = append(lines, fmt.Sprintf("C%d %s %s state %s crew %d reload %.1f/%.1f",
			c.ID, c.Type, c.Faction, c.State, len(c.Crew), c.ReloadTimer, c.ReloadDuration))
	}
	if v.status != "" {
		lines = append(lines, v.status)
	}
	for i, l := range lines {
		op := &text.DrawOptions{}
		op.GeoM.Translate(8, y0+8+float64(i)*16)
		op.ColorScale.ScaleWithColor(colHUD)
		text.Draw(screen, l, v.face, op)
	}
}
