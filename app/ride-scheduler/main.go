package main

import (
	"fmt"
	logger "log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/RideMatchTools/ridematch/app/ride-scheduler/scheduler"
	"github.com/RideMatchTools/ridematch/business/data/rides"
	"github.com/RideMatchTools/ridematch/business/ridematch/solver"
	"github.com/RideMatchTools/ridematch/foundation/database"
	"github.com/RideMatchTools/ridematch/foundation/directions"
	"github.com/ardanlabs/conf"
	"github.com/nats-io/nats.go"
)

var build = "develop"

func main() {
	log := logger.New(os.Stdout, "RIDE_SCHEDULER : ", logger.LstdFlags|logger.Lmicroseconds|logger.Lshortfile)
	if err := run(log); err != nil {
		log.Printf("main: error: %v", err)
		os.Exit(1)
	}
}

func run(log *logger.Logger) error {
	var cfg struct {
		conf.Version
		Args conf.Args
		DB   struct {
			Path string `conf:"default:ridematch.db"`
		}
		Web struct {
			HttpPort int `conf:"default:8080"`
		}
		Scheduler struct {
			TickSeconds  int  `conf:"default:60"`
			SkipWeekends bool `conf:"default:false"`
			SkipHolidays bool `conf:"default:false"`
		}
		Directions struct {
			Url    string `conf:"default:https://maps.googleapis.com/maps/api/directions/json"`
			ApiKey string `conf:"default:,noprint"`
		}
		Solver struct {
			PopulationSize int     `conf:"default:200"`
			Generations    int     `conf:"default:150"`
			MutationRate   float64 `conf:"default:0.2"`
		}
		NATS struct {
			Url     string `conf:"default:"`
			Subject string `conf:"default:ridematch.routeplan"`
		}
	}
	cfg.Version.SVN = build
	cfg.Version.Desc = "Generate daily ride route plans on a schedule"
	const prefix = "RIDEMATCH"
	if err := conf.Parse(os.Args[1:], prefix, &cfg); err != nil {
		switch err {
		case conf.ErrHelpWanted:
			usage, err := conf.Usage(prefix, &cfg)
			if err != nil {
				return fmt.Errorf("generating config usage: %w", err)
			}
			printUsage(usage)
			return nil
		case conf.ErrVersionWanted:
			version, err := conf.VersionString(prefix, &cfg)
			if err != nil {
				return fmt.Errorf("generating config version: %w", err)
			}
			fmt.Println(version)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Printf("main : Started : Application initializing : version %s", build)
	defer log.Println("main: Completed")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Printf("main: Config :\n%v\n", out)

	// =========================================================================
	// Start Database

	log.Println("main: Initializing database support")

	db, err := database.Open(database.Config{Path: cfg.DB.Path})
	if err != nil {
		return fmt.Errorf("connecting to db: %w", err)
	}
	defer func() {
		log.Printf("main: Database Stopping : %s", cfg.DB.Path)
		err = db.Close()
		if err != nil {
			log.Printf("main: error closing database: %v", err)
		}
	}()

	if err = rides.EnsureSchema(db); err != nil {
		return fmt.Errorf("preparing db schema: %w", err)
	}

	// =========================================================================
	// Connect NATS, when configured

	var natsConn *nats.Conn
	if cfg.NATS.Url != "" {
		natsConn, err = nats.Connect(cfg.NATS.Url)
		if err != nil {
			return fmt.Errorf("connecting to nats at %s: %w", cfg.NATS.Url, err)
		}
		defer natsConn.Close()
		log.Printf("main: publishing route plans on %s", cfg.NATS.Subject)
	} else {
		log.Println("main: no nats url configured, route plan publication disabled")
	}

	// =========================================================================
	// Build the pipeline and start services

	// directions results are cached per waypoint set for the life of the
	// process; rosters rarely move between runs
	provider := directions.NewCache(directions.NewClientWithBaseURL(cfg.Directions.ApiKey, cfg.Directions.Url))

	solverCfg := solver.DefaultConfig()
	solverCfg.PopulationSize = cfg.Solver.PopulationSize
	solverCfg.Generations = cfg.Solver.Generations
	solverCfg.MutationRate = cfg.Solver.MutationRate

	sched := scheduler.NewService(log, db, provider, natsConn, scheduler.ServiceConfig{
		TickSeconds:    cfg.Scheduler.TickSeconds,
		SkipWeekends:   cfg.Scheduler.SkipWeekends,
		SkipHolidays:   cfg.Scheduler.SkipHolidays,
		PublishSubject: cfg.NATS.Subject,
		Solver:         solverCfg,
	})

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	webShutdown := make(chan bool)
	wg := sync.WaitGroup{}
	go scheduler.RunWebService(log, &wg, db, sched, cfg.Web.HttpPort, webShutdown)

	err = sched.RunLoop(shutdown)

	close(webShutdown)
	wg.Wait()
	return err
}

func printUsage(confUsage string) {
	fmt.Println(confUsage)
}
