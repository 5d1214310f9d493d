package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	// Infraestrutura e utilitários
	"gofulfill/config"
	"gofulfill/internal/pkg/cache"
	"gofulfill/internal/pkg/database"
	"gofulfill/internal/pkg/logger"
	"gofulfill/internal/pkg/middleware"
	"gofulfill/internal/pkg/token"

	// Núcleo de alocação
	"gofulfill/internal/catalog"
	"gofulfill/internal/inventory"
	"gofulfill/internal/ledger"

	// Camadas para Injeção de Dependências
	catalogapi "gofulfill/internal/api/catalog"
	"gofulfill/internal/api/order"
	"gofulfill/internal/api/router"
	"gofulfill/internal/api/stock"
	"gofulfill/internal/repository/migrations"
	"gofulfill/internal/repository/orderrepo"
	"gofulfill/internal/repository/stockrepo"
	"gofulfill/internal/service/catalogservice"
	"gofulfill/internal/service/orderservice"
	"gofulfill/internal/service/stockservice"
)

func main() {
	log.Println("⚡ Inicializando serviço gofulfill...")
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("Configurações carregadas.", map[string]interface{}{"env": cfg.Environment})

	// 1. Banco de Dados (PostgreSQL)
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	log.Info("Conexão PostgreSQL estabelecida.", nil)

	if cfg.AutoMigrate {
		if err := migrations.Up(db); err != nil {
			log.Fatal("Falha ao aplicar migrações.", err)
		}
		log.Info("Migrações aplicadas.", nil)
	}

	// 2. Rate limiter: Redis quando disponível, senão em memória
	limiter := newLimiter(cfg, log)

	// 3. Catálogo, inventário e ledger
	catalogStore, err := catalog.NewStore(cfg.CatalogPath, log)
	if err != nil {
		log.Fatal("Falha ao carregar o catálogo.", err)
	}
	inv := inventory.NewStore(cfg.LockTimeout, log)
	orderLedger := ledger.New(cfg.LockTimeout, log)

	// 4. INJEÇÃO DE DEPENDÊNCIAS: Repository -> Service -> Handler
	stockRepo := stockrepo.NewStockRepository(db, cfg.DBTimeout, log)
	orderRepo := orderrepo.NewOrderRepository(db, cfg.DBTimeout, log)

	stockSvc := stockservice.NewService(stockRepo, catalogStore, inv, log)
	orderSvc := orderservice.NewService(orderRepo, catalogStore, inv, orderLedger, orderservice.Options{
		MaxAttempts:  cfg.OrderMaxAttempts,
		RetryBackoff: cfg.OrderRetryBackoff,
	}, log)
	catalogSvc := catalogservice.NewService(catalogStore, stockSvc, log)

	// 5. Recuperação do estado persistido
	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 30*time.Second)
	if _, err := stockSvc.LoadInventory(bootCtx, catalogStore.Snapshot()); err != nil {
		log.Fatal("Falha ao carregar o inventário.", err)
	}
	if err := orderSvc.RestoreLedger(bootCtx); err != nil {
		log.Fatal("Falha ao restaurar o ledger de pedidos.", err)
	}
	cancelBoot()

	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)

	r := router.NewRouter(router.Handlers{
		Catalog: catalogapi.NewHandler(catalogSvc, log),
		Orders:  order.NewHandler(orderSvc, log),
		Stock:   stock.NewHandler(stockSvc, log),
	}, tokenSvc, limiter, log)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 6. Execução e Graceful Shutdown
	go func() {
		log.Info("Servidor gofulfill ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Servidor falhou.", err)
		}
	}()

	// SIGHUP recarrega o catálogo; SIGINT/SIGTERM encerram.
	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-reload:
			log.Info("SIGHUP recebido. Recarregando catálogo...", nil)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if _, err := catalogSvc.Reload(ctx); err != nil {
				log.Error("Recarga do catálogo falhou.", err)
			}
			cancel()
		case <-quit:
			log.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			if err := server.Shutdown(ctx); err != nil {
				log.Error("Desligamento do servidor forçado.", err)
			}
			cancel()

			log.Info("Servidor encerrado com sucesso.", nil)
			return
		}
	}
}

func newLimiter(cfg *config.Config, log logger.Logger) middleware.Limiter {
	if cfg.RedisAddr != "" {
		client := cache.NewRedisClient(cfg.RedisAddr)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := client.Ping(ctx)
		if err == nil {
			log.Info("Conexão Redis estabelecida.", map[string]interface{}{"addr": cfg.RedisAddr})
			return middleware.NewRedisLimiter(client, cfg.RateLimitMaxRequests, cfg.RateLimitPeriod, cfg.CacheTimeout)
		}
		log.Warn("Redis indisponível; usando rate limiter em memória.", map[string]interface{}{"addr": cfg.RedisAddr, "error": err.Error()})
		client.Close()
	}

	local := middleware.NewLocalLimiter(cfg.RateLimitMaxRequests, cfg.RateLimitPeriod)
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			local.Cleanup(10000)
		}
	}()
	return local
}
