// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/moov-io/base/admin"

	"github.com/jsbank/billgate"
	"github.com/jsbank/billgate/internal/accounts"
	"github.com/jsbank/billgate/internal/bills"
	appcfg "github.com/jsbank/billgate/internal/config"
	"github.com/jsbank/billgate/internal/database"
	"github.com/jsbank/billgate/internal/deposits"
	"github.com/jsbank/billgate/internal/events"
	"github.com/jsbank/billgate/internal/notify"
	"github.com/jsbank/billgate/internal/route"
	"github.com/jsbank/billgate/internal/transfers"
	"github.com/jsbank/billgate/internal/util"
	"github.com/jsbank/billgate/pkg/stream"
	"github.com/jsbank/billgate/pkg/trace"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"
	"github.com/opentracing/opentracing-go"
	"gocloud.dev/pubsub"
)

var (
	flagConfigFile = flag.String("config", "", "Filepath for config file to load")
	flagLogFormat  = flag.String("log.format", "", "Format for log lines (Options: json, plain)")
)

func main() {
	flag.Parse()

	configFilepath := util.Or(os.Getenv("CONFIG_FILE"), *flagConfigFile)
	cfg, err := readConfig(configFilepath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	cfg.SetLogFormat(*flagLogFormat)
	cfg.Logger.Log("startup", fmt.Sprintf("Starting billgate server version %s", billgate.Version))

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	tracer, closer, err := setupTracer(cfg.Logger)
	if err != nil {
		panic(fmt.Sprintf("error starting tracer: %v", err))
	}
	defer closer.Close()
	opentracing.SetGlobalTracer(tracer)

	// migrate database
	db, err := database.New(cfg.Logger, cfg.Database)
	if err != nil {
		panic(fmt.Sprintf("error creating database: %v", err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			cfg.Logger.Log("exit", err)
		}
	}()

	// Listen for application termination.
	errs := make(chan error)
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		errs <- fmt.Errorf("%s", <-c)
	}()

	// Spin up admin HTTP server
	adminAddr := util.Or(os.Getenv("HTTP_ADMIN_BIND_ADDRESS"), cfg.Admin.BindAddress)
	adminServer := admin.NewServer(adminAddr)
	adminServer.AddVersionHandler(billgate.Version) // Setup 'GET /version'
	go func() {
		cfg.Logger.Log("admin", fmt.Sprintf("listening on %s", adminServer.BindAddr()))
		if err := adminServer.Listen(); err != nil {
			err = fmt.Errorf("problem starting admin http: %v", err)
			cfg.Logger.Log("admin", err)
			errs <- err
		}
	}()
	defer adminServer.Shutdown()

	// Setup repositories
	depositRepo := deposits.NewRepo(cfg.Logger, db)
	defer depositRepo.Close()

	transferRepo := transfers.NewRepo(cfg.Logger, db)
	defer transferRepo.Close()

	eventRepo := events.NewRepo(cfg.Logger, db)
	defer eventRepo.Close()

	httpClient, err := route.TLSHttpClient(os.Getenv("HTTP_CLIENT_CAFILE"))
	if err != nil {
		panic(fmt.Sprintf("problem creating TLS ready *http.Client: %v", err))
	}

	// Bring up the store service clients
	accountsClient := setupAccountsClient(cfg, adminServer, httpClient)
	billsClient := setupBillsClient(cfg, adminServer, httpClient)
	if billsClient == nil {
		panic("billgate can't run without the Bill Store Service")
	}

	mutator := bills.NewBalanceMutator(cfg.Logger, billsClient)
	resolver := bills.NewDefaultBillResolver(cfg.Logger, billsClient)

	// Notification publisher
	topic, closeTopic := setupNotificationTopic(ctx, cfg)
	defer closeTopic()
	emitter := notify.NewStreamEmitter(cfg.Logger, topic, notificationRoutingKey(cfg))

	depositOrch := deposits.NewOrchestrator(cfg.Logger, accountsClient, mutator, resolver, depositRepo, eventRepo, emitter)
	transferOrch := transfers.NewOrchestrator(cfg.Logger, accountsClient, mutator, resolver, transferRepo, eventRepo, emitter)

	// Create HTTP handler
	handler := mux.NewRouter()
	deposits.AddRoutes(cfg.Logger, handler, depositOrch, depositRepo)
	transfers.AddRoutes(cfg.Logger, handler, transferOrch, transferRepo)
	events.AddRoutes(cfg.Logger, handler, eventRepo)
	route.PingRoute(cfg.Logger, handler)

	httpAddr := util.Or(os.Getenv("HTTP_BIND_ADDRESS"), cfg.Http.BindAddress)
	serve := &http.Server{
		Addr:    httpAddr,
		Handler: handler,
		TLSConfig: &tls.Config{
			InsecureSkipVerify:       false,
			PreferServerCipherSuites: true,
			MinVersion:               tls.VersionTLS12,
		},
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	shutdownServer := func() {
		if err := serve.Shutdown(context.TODO()); err != nil {
			cfg.Logger.Log("shutdown", err)
		}
	}
	defer shutdownServer()

	// Start main HTTP server
	go func() {
		if certFile, keyFile := os.Getenv("HTTPS_CERT_FILE"), os.Getenv("HTTPS_KEY_FILE"); certFile != "" && keyFile != "" {
			cfg.Logger.Log("startup", fmt.Sprintf("binding to %s for secure HTTP server", httpAddr))
			if err := serve.ListenAndServeTLS(certFile, keyFile); err != nil {
				cfg.Logger.Log("exit", err)
			}
		} else {
			cfg.Logger.Log("startup", fmt.Sprintf("binding to %s for HTTP server", httpAddr))
			if err := serve.ListenAndServe(); err != nil {
				cfg.Logger.Log("exit", err)
			}
		}
	}()

	if err := <-errs; err != nil {
		cfg.Logger.Log("exit", err)
	}
}

func readConfig(path string) (*appcfg.Config, error) {
	return appcfg.FromFile(path)
}

// setupTracer records every span by default. Busy deployments can set
// TRACING_SAMPLE_RATE (e.g. "0.25") to sample instead.
func setupTracer(logger log.Logger) (opentracing.Tracer, io.Closer, error) {
	if v := os.Getenv("TRACING_SAMPLE_RATE"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid TRACING_SAMPLE_RATE %q: %v", v, err)
		}
		return trace.NewProbabilisticTracer(logger, "billgate", rate)
	}
	return trace.NewConstantTracer(logger, "billgate")
}

func setupAccountsClient(cfg *appcfg.Config, svc *admin.Server, httpClient *http.Client) accounts.Client {
	if cfg.Accounts.Disabled {
		return nil
	}
	client := accounts.NewClient(cfg.Logger, util.Or(os.Getenv("ACCOUNTS_ENDPOINT"), cfg.Accounts.Endpoint), httpClient)
	if client == nil {
		panic("no Accounts client created")
	}
	svc.AddLivenessCheck("accounts", client.Ping)
	return client
}

func setupBillsClient(cfg *appcfg.Config, svc *admin.Server, httpClient *http.Client) bills.Client {
	if cfg.Bills.Disabled {
		return nil
	}
	client := bills.NewClient(cfg.Logger, util.Or(os.Getenv("BILLS_ENDPOINT"), cfg.Bills.Endpoint), httpClient)
	if client == nil {
		panic("no Bills client created")
	}
	svc.AddLivenessCheck("bills", client.Ping)
	return client
}

// setupNotificationTopic opens the configured pubsub topic, defaulting
// to an in-memory topic when nothing is configured.
func setupNotificationTopic(ctx context.Context, cfg *appcfg.Config) (*pubsub.Topic, func()) {
	if rabbit := cfg.Notifications.Rabbit; rabbit != nil {
		conn, err := stream.RabbitConnection(rabbit.Address)
		if err != nil {
			panic(fmt.Sprintf("problem connecting to rabbitmq: %v", err))
		}
		exchange := util.Or(rabbit.Exchange, notify.Exchange)
		topic := stream.RabbitTopic(conn, exchange)
		cfg.Logger.Log("startup", fmt.Sprintf("publishing notifications to rabbitmq exchange %s", exchange))
		return topic, func() {
			if err := topic.Shutdown(ctx); err != nil {
				cfg.Logger.Log("shutdown", err)
			}
			conn.Close()
		}
	}

	url := "mem://billgate"
	if inmem := cfg.Notifications.InMem; inmem != nil && inmem.URL != "" {
		url = inmem.URL
	}
	topic, err := stream.Topic(ctx, url)
	if err != nil {
		panic(fmt.Sprintf("problem opening topic %s: %v", url, err))
	}
	cfg.Logger.Log("startup", fmt.Sprintf("publishing notifications to %s", url))
	return topic, func() {
		if err := topic.Shutdown(ctx); err != nil {
			cfg.Logger.Log("shutdown", err)
		}
	}
}

func notificationRoutingKey(cfg *appcfg.Config) string {
	if rabbit := cfg.Notifications.Rabbit; rabbit != nil {
		return util.Or(rabbit.RoutingKey, notify.RoutingKey)
	}
	return notify.RoutingKey
}

