package client

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"legion/pkg/protocol"
)

const (
	ScreenWidth  = 960
	ScreenHeight = 640

	// 世界坐标到屏幕的缩放
	worldScale = 6.0

	// 事件侧栏
	feedWidth = 260
	feedLines = 24
)

var viewFont = text.NewGoXFace(basicfont.Face7x13)

// 阵营配色，id 取模
var factionColors = []color.RGBA{
	{90, 160, 255, 255},  // 蓝
	{255, 100, 90, 255},  // 红
	{110, 220, 120, 255}, // 绿
	{240, 200, 80, 255},  // 黄
	{200, 120, 240, 255}, // 紫
}

// View 观战视图（Ebiten 游戏循环）
type View struct {
	network *NetworkClient

	state *protocol.WorldState
	feed  []string

	disconnected bool
}

// NewView 创建观战视图
func NewView(network *NetworkClient) *View {
	return &View{
		network: network,
		feed:    make([]string, 0, feedLines),
	}
}

// Update 拉取最新的状态与事件
func (v *View) Update() error {
	if !v.network.IsConnected() {
		v.disconnected = true
		return nil
	}

	// 只保留最新一帧状态
	for {
		state := v.network.ReceiveState()
		if state == nil {
			break
		}
		v.state = state
	}

	for {
		batch := v.network.ReceiveEvents()
		if batch == nil {
			break
		}
		for _, ev := range batch.Events {
			v.pushFeed(ev)
		}
	}

	if errMsg := v.network.ReceiveError(); errMsg != nil {
		v.feed = append(v.feed, fmt.Sprintf("[错误] %s: %s", errMsg.Code, errMsg.Message))
		v.trimFeed()
	}

	return nil
}

func (v *View) pushFeed(ev protocol.EventMsg) {
	var line string
	switch ev.Kind {
	case "target_selected":
		line = fmt.Sprintf("t%d 单位%d 锁定 %d (%s)", ev.Tick, ev.Unit, ev.Target, ev.Reason)
	case "target_lost":
		line = fmt.Sprintf("t%d 单位%d 丢失目标 %d", ev.Tick, ev.Unit, ev.Target)
	case "targeting_mode_evolved":
		line = fmt.Sprintf("t%d 阵营%d 模式演进 -> %s", ev.Tick, ev.Faction, ev.Mode)
	case "tree_switched":
		line = fmt.Sprintf("t%d 单位%d 切树 -> %s", ev.Tick, ev.Unit, ev.Tree)
	default:
		// decision_made 每帧都有，刷屏，不进侧栏
		return
	}
	v.feed = append(v.feed, line)
	v.trimFeed()
}

func (v *View) trimFeed() {
	if len(v.feed) > feedLines {
		v.feed = v.feed[len(v.feed)-feedLines:]
	}
}

// Draw 渲染世界与事件侧栏
func (v *View) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{24, 26, 30, 255})

	if v.disconnected {
		v.drawText(screen, "连接已断开", ScreenWidth/2-40, ScreenHeight/2, color.RGBA{255, 120, 120, 255})
		return
	}
	if v.state == nil {
		v.drawText(screen, "等待服务器状态...", ScreenWidth/2-70, ScreenHeight/2, color.White)
		return
	}

	units := make(map[int64]protocol.UnitState, len(v.state.Units))
	for _, u := range v.state.Units {
		units[u.ID] = u
	}

	// 先画目标连线再画单位，圆点盖在线上
	for _, u := range v.state.Units {
		if u.TargetID < 0 {
			continue
		}
		t, ok := units[u.TargetID]
		if !ok {
			continue
		}
		x1, y1 := v.worldToScreen(u.X, u.Z)
		x2, y2 := v.worldToScreen(t.X, t.Z)
		vector.StrokeLine(screen, x1, y1, x2, y2, 1, color.RGBA{255, 255, 255, 60}, false)
	}

	for _, u := range v.state.Units {
		x, y := v.worldToScreen(u.X, u.Z)
		c := factionColors[int(u.FactionID)%len(factionColors)]

		radius := float32(4)
		if u.Type == "tank" || u.Type == "artillery" {
			radius = 6
		}
		vector.DrawFilledCircle(screen, x, y, radius, c, false)

		// 血量环：血量越低颜色越暗
		hp := u.HealthPercent
		outline := color.RGBA{uint8(float64(c.R) * hp), uint8(float64(c.G) * hp), uint8(float64(c.B) * hp), 255}
		vector.StrokeCircle(screen, x, y, radius+2, 1, outline, false)
	}

	v.drawSidebar(screen)
}

func (v *View) drawSidebar(screen *ebiten.Image) {
	x0 := float32(ScreenWidth - feedWidth)
	vector.DrawFilledRect(screen, x0, 0, feedWidth, ScreenHeight, color.RGBA{16, 16, 20, 230}, false)

	y := 16
	v.drawText(screen, fmt.Sprintf("tick: %d  单位: %d", v.state.Tick, len(v.state.Units)), int(x0)+10, y, color.White)
	y += 20

	for _, f := range v.state.Factions {
		c := factionColors[int(f.ID)%len(factionColors)]
		line := fmt.Sprintf("%s  xp=%.0f  %s", f.Name, f.XP, f.Mode)
		v.drawText(screen, line, int(x0)+10, y, c)
		y += 16
	}

	y += 10
	for _, line := range v.feed {
		v.drawText(screen, line, int(x0)+10, y, color.RGBA{200, 200, 200, 255})
		y += 14
	}
}

func (v *View) drawText(screen *ebiten.Image, msg string, x, y int, c color.Color) {
	options := &text.DrawOptions{}
	options.GeoM.Translate(float64(x), float64(y))
	options.ColorScale.ScaleWithColor(c)
	text.Draw(screen, msg, viewFont, options)
}

// worldToScreen XZ 平面俯视投影，原点在画面中心
func (v *View) worldToScreen(x, z float64) (float32, float32) {
	sx := float32((ScreenWidth-feedWidth)/2 + x*worldScale)
	sy := float32(ScreenHeight/2 + z*worldScale)
	return sx, sy
}

// Layout 固定窗口尺寸
func (v *View) Layout(outsideWidth, outsideHeight int) (int, int) {
	return ScreenWidth, ScreenHeight
}
