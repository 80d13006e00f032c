package main

import (
	"context"
	"os"
	"os/signal"
	"researchchat/m/v2/app/ai/gemini"
	"researchchat/m/v2/app/ai/nebius"
	"researchchat/m/v2/app/api"
	"researchchat/m/v2/app/config"
	"researchchat/m/v2/app/db/mongo"
	"researchchat/m/v2/app/db/redis"
	"researchchat/m/v2/app/lib"
	"researchchat/m/v2/app/payments"
	"researchchat/m/v2/app/util"
	"researchchat/m/v2/app/workers"
	"researchchat/m/v2/app/workers/reconcile"
	"researchchat/m/v2/app/workers/status"
	"syscall"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	fasthttpprom "github.com/carousell/fasthttp-prometheus-middleware"
	"github.com/fasthttp/router"
	log "github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
)

func main() {
	done := make(chan struct{}, 1)
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	env := util.Env("ENV", "dev")
	dataDogClient, err := statsd.New(util.Env("STATSD_ADDRESS", "127.0.0.1:8125"), statsd.WithNamespace("researchchat."))
	if err != nil && env == "production" {
		log.Fatalf("error creating main DataDog client: %v", err)
	}

	cfg := &config.Config{
		DataDogClient:     dataDogClient,
		Environment:       env,
		GeminiAPIKey:      util.Env("GEMINI_API_KEY"),
		GeminiAPIEndpoint: util.Env("GEMINI_API_ENDPOINT", "https://generativelanguage.googleapis.com/v1beta"),
		ListenAddress:     util.Env("BACKEND_LISTEN_ADDRESS"),
		MongoDBConnection: util.Env("MONGO_DB_CONNECTION_STRING"),
		MongoDBName:       util.Env("MONGO_DB_NAME", "researchchat"),
		NebiusAPIKey:      util.Env("NEBIUS_API_KEY"),
		NebiusAPIEndpoint: util.Env("NEBIUS_API_ENDPOINT", "https://api.studio.nebius.com/v1"),
		RazorpayKeyID:     util.Env("RAZORPAY_KEY_ID"),
		RazorpaySecret:    util.Env("RAZORPAY_SECRET"),
		Redis: config.Redis{
			Host:     util.Env("REDIS_HOST", "127.0.0.1"),
			Port:     "6379",
			Password: util.Env("REDIS_PASSWORD", ""),
		},
	}

	err = dataDogClient.Count("main.start", 1, []string{"env:" + cfg.Environment}, 1)
	if err != nil {
		log.Errorf("error sending metric: %v", err)
	}
	if cfg.Environment == "production" {
		log.SetFormatter(&log.JSONFormatter{
			DisableTimestamp: true,
		})
	} else {
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp: true,
			DisableColors: false,
		})
		log.SetLevel(log.TraceLevel)
	}

	storage := mongo.NewClient(cfg.MongoDBConnection, cfg.MongoDBName)
	redisClient := redis.NewClient(cfg.Redis)

	geminiAPI := gemini.NewAPI(cfg)
	nebiusAPI := nebius.NewAPI(cfg)
	gateway := payments.NewRazorpayGateway(cfg)
	quota := lib.NewQuotaGate(storage, redisClient, cfg.DataDogClient)
	issuer := payments.NewIssuer(gateway, cfg.DataDogClient)
	verifier := payments.NewVerifier(gateway, storage, cfg.RazorpaySecret, redisClient, cfg.DataDogClient)

	server := api.NewServer(storage, quota, geminiAPI, nebiusAPI, issuer, verifier, cfg.DataDogClient)
	rtr := router.New()
	server.RegisterRoutes(rtr)

	statusWorker := workers.NewWorker("status", time.Minute, status.Run(cfg, storage, redisClient, geminiAPI, nebiusAPI))
	go statusWorker.Start()

	reconcileWorker := workers.NewWorker("reconcile", time.Hour, reconcile.Run(cfg, storage))
	go reconcileWorker.Start()

	go TearDown(sigs, done, storage, statusWorker, reconcileWorker)

	p := fasthttpprom.NewPrometheus("")
	p.Use(rtr)

	go func() {
		err := fasthttp.ListenAndServe(cfg.ListenAddress, fasthttp.TimeoutHandler(p.Handler, time.Second*30, "Request timeout"))
		util.Assert(err == nil, "ListenAndServe:", err)
	}()

	log.Infof("research chat backend started successfully on %s", cfg.ListenAddress)
	<-done
	log.Info("Done")
}

func TearDown(sigs chan os.Signal, done chan struct{}, storage mongo.Storage, workersToStop ...*workers.Worker) {
	<-sigs
	log.Info("research chat backend bids farewell")
	for _, worker := range workersToStop {
		worker.StopWorker()
	}
	err := storage.Disconnect(context.Background())
	if err != nil {
		log.Errorf("TearDown: Disconnecting from MongoDB: %v", err)
	}
	done <- struct{}{}
}
