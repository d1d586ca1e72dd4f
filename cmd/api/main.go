package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-schoolfeeding/internal/audit"
	"go-schoolfeeding/internal/config"
	"go-schoolfeeding/internal/handler"
	"go-schoolfeeding/internal/lock"
	"go-schoolfeeding/internal/middleware"
	"go-schoolfeeding/internal/model"
	"go-schoolfeeding/internal/repository"
	"go-schoolfeeding/internal/service"
	"go-schoolfeeding/internal/ws"
	"go-schoolfeeding/pkg/database"
	"go-schoolfeeding/pkg/jwt"
	applog "go-schoolfeeding/pkg/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func main() {
	// 1. Config and logging
	cfg := config.Load()
	log := applog.New(cfg.LogLevel)
	jwt.SetSecret(cfg.JWTSecret)

	// 2. Database
	db := database.ConnectDB(cfg.DBLogLevel)
	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		log.WithError(err).Fatal("auto migrate failed")
	}
	seedPrivilegesRolesAndAdmin(db, log)

	// 3. Realtime hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 4. Budget lock: shared through Redis when configured
	var locker lock.Locker = lock.NewLocalLocker()
	var rdb *redis.Client
	if cfg.RedisAddress != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddress})
		locker = lock.NewRedisLocker(rdb)
		log.WithField("addr", cfg.RedisAddress).Info("using redis budget lock")
	}

	// 5. Audit trail: database always, Kafka when brokers are set
	dbSink := audit.NewDBSink(db)
	sinks := []audit.Sink{dbSink}
	var kafkaSink *audit.KafkaSink
	if len(cfg.KafkaBrokers) > 0 {
		ks, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.WithError(err).Warn("kafka audit sink disabled")
		} else {
			kafkaSink = ks
			sinks = append(sinks, ks)
		}
	}
	events := service.NewEvents(audit.NewMultiSink(log, sinks...), wsHub, log)

	// 6. Dependency Injection (Wiring Layers)
	userRepo := repository.NewUserRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)
	itemRepo := repository.NewItemRepo(db)
	schoolRepo := repository.NewSchoolRepo(db)
	requestRepo := repository.NewRequestRepo(db)
	orderRepo := repository.NewOrderRepo(db)
	stockRepo := repository.NewStockRepo(db)
	stockOutRepo := repository.NewStockOutRepo(db)
	budgetRepo := repository.NewBudgetRepo(db)

	ledger := service.NewInventoryLedger(stockRepo, cfg.LowStockThreshold)
	stockInService := service.NewStockInService(stockRepo, ledger, events)
	stockOutService := service.NewStockOutService(db, stockOutRepo, itemRepo, ledger, events)
	requestService := service.NewRequestService(db, requestRepo, itemRepo, events)
	orderService := service.NewOrderService(db, orderRepo, requestRepo, userRepo, stockInService, events)
	budgetService := service.NewBudgetService(db, budgetRepo, schoolRepo, locker, cfg.BudgetLockTTL, events)
	authService := service.NewAuthService(userRepo, wsHub)
	userService := service.NewUserService(userRepo, roleRepo, itemRepo)

	// 7. Fiber
	app := fiber.New(fiber.Config{
		AppName: "School Feeding Supply Chain v1.0",
	})
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	handler.RegisterRoutes(app, handler.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		User:    handler.NewUserHandler(userService),
		Role:    handler.NewRoleHandler(roleRepo, privilegeRepo),
		Catalog: handler.NewCatalogHandler(itemRepo, schoolRepo),
		Request: handler.NewRequestHandler(requestService),
		Order:   handler.NewOrderHandler(orderService),
		Stock:   handler.NewStockHandler(ledger, stockInService, stockOutService),
		Budget:  handler.NewBudgetHandler(budgetService),
		Audit:   handler.NewAuditHandler(dbSink),
	}, middleware.RequireAuth(userRepo))

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Panic("listen failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}
	if kafkaSink != nil {
		if err := kafkaSink.Close(); err != nil {
			log.WithError(err).Warn("closing kafka writer")
		}
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	log.Info("Server exited")
}

// seedPrivilegesRolesAndAdmin creates the default privileges, the four actor
// roles and a GOV_ADMIN account if they don't exist.
func seedPrivilegesRolesAndAdmin(db *gorm.DB, log *logrus.Logger) {
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	userRepo := repository.NewUserRepo(db)

	if err := privilegeRepo.SeedDefaults(); err != nil {
		log.WithError(err).Warn("failed to seed privileges")
	}
	if err := roleRepo.SeedDefaults(); err != nil {
		log.WithError(err).Warn("failed to seed roles")
	}

	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = "admin@example.com"
	}
	if _, err := userRepo.FindByEmail(email); err == nil {
		return
	}

	govRole, err := roleRepo.FindByCode(model.RoleGovAdmin)
	if err != nil {
		log.WithError(err).Warn("GOV_ADMIN role missing, admin not created")
		return
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
	}
	admin := &model.User{
		Email:      email,
		FullName:   "Government Administrator",
		RoleID:     &govRole.ID,
		IsActive:   true,
		Privileges: govRole.Privileges,
	}
	admin.CreatedBy = "system"
	admin.UpdatedBy = "system"
	if err := admin.SetPassword(password); err != nil {
		log.WithError(err).Warn("failed to hash admin password")
		return
	}
	if err := userRepo.Create(admin); err != nil {
		log.WithError(err).Warn("failed to create admin user")
		return
	}
	log.WithField("email", email).Info("admin user created (GOV_ADMIN)")
}
