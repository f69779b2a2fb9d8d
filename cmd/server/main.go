package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"legion/internal/config"
	"legion/internal/persist"
	"legion/internal/server"
	"legion/pkg/ai"
	"legion/pkg/core"
	"legion/pkg/events"
	"legion/pkg/mathx"
)

func main() {
	// 命令行参数
	configPath := flag.String("config", "configs/server.yaml", "配置文件路径")
	addr := flag.String("addr", "", "监听地址，覆盖配置文件")
	noResume := flag.Bool("no-resume", false, "忽略已有存档，从空世界启动")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}

	bus := events.NewBus()
	world := core.NewWorld(bus)
	world.Targeting().SetUpdateFrequency(float64(cfg.Targeting.UpdateHz))
	world.Targeting().SetVisibilityRange(cfg.Targeting.VisibilityRange)

	// 加载磁盘上的行为树模板
	if cfg.TreeDir != "" {
		n, err := ai.LoadTreeDir(world.Manager(), cfg.TreeDir)
		if err != nil {
			log.Fatalf("加载行为树目录失败: %v", err)
		}
		log.Printf("加载行为树模板: %d 个, 目录 %s", n, cfg.TreeDir)
	}

	// 存档索引库
	store, err := persist.OpenStore(filepath.Join(cfg.Save.Dir, "saves.db"))
	if err != nil {
		log.Fatalf("打开存档库失败: %v", err)
	}
	defer store.Close()

	// 尝试续档
	if !*noResume {
		rec, err := store.LatestSave(cfg.Save.Slot)
		if err != nil {
			log.Fatalf("查询存档失败: %v", err)
		}
		if rec != nil {
			st, err := persist.ReadSnapshot(rec.Path)
			if err != nil {
				log.Printf("读存档失败，从空世界启动: %v", err)
			} else {
				world.Load(st)
				log.Printf("续档成功: tick=%d, %d 单位", world.Tick(), world.UnitCount())
			}
		}
	}

	// 空世界时摆一场演示战斗
	if world.UnitCount() == 0 {
		seedDemoBattle(world)
		log.Printf("生成演示战场: %d 单位", world.UnitCount())
	}

	// 回放日志
	eventLog, err := persist.OpenEventLog(filepath.Join(cfg.Save.Dir, "replay.jsonl.zst"))
	if err != nil {
		log.Fatalf("打开回放日志失败: %v", err)
	}
	defer eventLog.Close()

	srv := server.NewServer(cfg, world, bus, store, eventLog)

	// 启动服务器（在新的 goroutine 中）
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("服务器启动失败: %v", err)
		}
	}()

	log.Println("========================================")
	log.Println("  Legion 决策引擎服务器")
	log.Println("========================================")
	log.Printf("监听地址: %s (%s)", cfg.ListenAddr, cfg.Proto)
	log.Printf("模拟频率: %d TPS", cfg.TickRateHz)
	log.Printf("索敌频率: %d Hz, 视野 %.0f", cfg.Targeting.UpdateHz, cfg.Targeting.VisibilityRange)
	log.Println("========================================")
	log.Println("按 Ctrl+C 停止服务器")

	// 等待中断信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("\n正在关闭服务器...")
	srv.Shutdown()

	log.Println("服务器已关闭，再见！")
}

// seedDemoBattle 两个阵营隔线对峙，混编兵种
func seedDemoBattle(world *core.World) {
	world.AddFaction(1, "北方军团")
	world.AddFaction(2, "南方军团")

	spawn := func(faction int64, unitType string, x, z float64, template string) {
		id, ok := world.SpawnUnit(faction, unitType, mathx.Vec3{X: x, Z: z}, template)
		if !ok {
			log.Printf("生成单位失败: 阵营 %d 类型 %s", faction, unitType)
			return
		}
		// 来回巡逻两点
		world.SetPatrolRoute(id, []mathx.Vec3{
			{X: x, Z: z},
			{X: -x, Z: z},
		})
	}

	for i := 0; i < 8; i++ {
		x := float64(-28 + i*8)
		spawn(1, "soldier", x, -20, "assault")
		spawn(2, "soldier", x, 20, "assault")
	}
	for i := 0; i < 3; i++ {
		x := float64(-16 + i*16)
		spawn(1, "tank", x, -26, "guard")
		spawn(2, "tank", x, 26, "guard")
	}
	for i := 0; i < 4; i++ {
		x := float64(-24 + i*16)
		spawn(1, "drone", x, -14, "skirmish")
		spawn(2, "drone", x, 14, "skirmish")
	}
	spawn(1, "artillery", 0, -32, "guard")
	spawn(2, "artillery", 0, 32, "guard")
	spawn(1, "engineer", 10, -30, "patrol")
	spawn(2, "engineer", -10, 30, "patrol")
}
