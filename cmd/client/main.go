package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	client "legion/internal/client"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "服务器地址")
	proto := flag.String("proto", "tcp", "连接协议 (tcp/kcp)")
	name := flag.String("name", "observer", "观战名称")
	flag.Parse()

	network := client.NewNetworkClient(*addr, *proto, *name)
	if err := network.Connect(); err != nil {
		log.Fatalf("接入服务器失败: %v", err)
	}
	defer network.Close()

	view := client.NewView(network)

	// 设置窗口选项
	ebiten.SetWindowSize(client.ScreenWidth, client.ScreenHeight)
	ebiten.SetWindowTitle("Legion 观战端 [" + *addr + "]")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeDisabled)

	// 运行观战视图
	if err := ebiten.RunGame(view); err != nil {
		log.Fatal(err)
	}
}
