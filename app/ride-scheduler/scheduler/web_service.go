package scheduler

import (
	"context"
	"encoding/json"
	"io"
	logger "log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/RideMatchTools/ridematch/business/data/rides"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
)

//defaultHttpHandler simple default http handler for default route
type defaultHttpHandler struct {
}

//ServeHTTP implements defaultHttpHandler http.Handler interface
func (h *defaultHttpHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Add("Application-Status", "OK")
}

//runLogHandler serves recent scheduling run outcomes
type runLogHandler struct {
	log *logger.Logger
	db  *sqlx.DB
}

func (h *runLogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.FormValue("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}
	entries, err := rides.GetRecentRuns(h.db, limit)
	if err != nil {
		h.log.Printf("error loading run log: %v", err)
		http.Error(w, "Error serving request", http.StatusInternalServerError)
		return
	}
	writeJSON(h.log, w, entries)
}

//latestPlanHandler serves the most recently generated route plan
type latestPlanHandler struct {
	log *logger.Logger
	db  *sqlx.DB
}

func (h *latestPlanHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	plan, err := rides.GetLatestRoutePlan(h.db)
	if err != nil {
		h.log.Printf("error loading latest route plan: %v", err)
		http.Error(w, "Error serving request", http.StatusInternalServerError)
		return
	}
	if plan == nil {
		http.Error(w, "no route plan generated yet", http.StatusNotFound)
		return
	}
	writeJSON(h.log, w, plan)
}

//settingsPayload is the wire form of the scheduling settings
type settingsPayload struct {
	Enabled       bool   `json:"enabled"`
	ScheduledTime string `json:"scheduled_time"`
}

//settingsHandler reads and updates the scheduling settings
type settingsHandler struct {
	log *logger.Logger
	db  *sqlx.DB
}

func (h *settingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPut {
		h.update(w, r)
		return
	}
	settings, err := rides.GetSchedulingSettings(h.db)
	if err != nil {
		h.log.Printf("error loading scheduling settings: %v", err)
		http.Error(w, "Error serving request", http.StatusInternalServerError)
		return
	}
	writeJSON(h.log, w, settingsPayload{Enabled: settings.Enabled, ScheduledTime: settings.ScheduledTime})
}

func (h *settingsHandler) update(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 4096))
	if err != nil {
		http.Error(w, "error reading request body", http.StatusBadRequest)
		return
	}
	var payload settingsPayload
	if err = json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "request body must be json settings", http.StatusBadRequest)
		return
	}
	settings := rides.SchedulingSettings{Enabled: payload.Enabled, ScheduledTime: payload.ScheduledTime}
	if err = rides.SetSchedulingSettings(h.db, &settings); err != nil {
		h.log.Printf("rejected scheduling settings update: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.log.Printf("scheduling settings updated: enabled=%t time=%s", settings.Enabled, settings.ScheduledTime)
	writeJSON(h.log, w, payload)
}

//schedulerControlHandler exposes the scheduler state and pause/resume
type schedulerControlHandler struct {
	log       *logger.Logger
	scheduler *Scheduler
}

func (h *schedulerControlHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/pause"):
		h.scheduler.Pause()
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/resume"):
		h.scheduler.Resume()
	}
	writeJSON(h.log, w, h.scheduler.Status())
}

//writeJSON marshals v to the response, logging rather than surfacing write errors
func writeJSON(log *logger.Logger, w http.ResponseWriter, v interface{}) {
	jsonData, err := json.Marshal(v)
	if err != nil {
		log.Printf("error marshaling json response: %v", err)
		http.Error(w, "Error serving request", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err = w.Write(jsonData); err != nil {
		log.Printf("error writing json response: %v", err)
	}
}

//createServer creates configured http.Server for the scheduler web service
func createServer(log *logger.Logger, db *sqlx.DB, scheduler *Scheduler, httpPort int) *http.Server {
	control := &schedulerControlHandler{log: log, scheduler: scheduler}

	r := mux.NewRouter()
	r.Handle("/", &defaultHttpHandler{})
	r.Handle("/runlog", &runLogHandler{log: log, db: db}).Methods(http.MethodGet)
	r.Handle("/plan/latest", &latestPlanHandler{log: log, db: db}).Methods(http.MethodGet)
	r.Handle("/settings", &settingsHandler{log: log, db: db}).Methods(http.MethodGet, http.MethodPut)
	r.Handle("/scheduler", control).Methods(http.MethodGet)
	r.Handle("/scheduler/pause", control).Methods(http.MethodPost)
	r.Handle("/scheduler/resume", control).Methods(http.MethodPost)
	srv := &http.Server{
		Addr: strings.Join([]string{"0.0.0.0", strconv.Itoa(httpPort)}, ":"),
		// Good practice to set timeouts to avoid Slowloris attacks.
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      r,
	}
	return srv
}

//RunWebService starts up the scheduler web service, and terminates on shutdown signal
func RunWebService(log *logger.Logger,
	wg *sync.WaitGroup,
	db *sqlx.DB,
	scheduler *Scheduler,
	httpPort int,
	shutdownSignal chan bool,
) {
	wg.Add(1)
	defer wg.Done()
	srv := createServer(log, db, scheduler, httpPort)
	log.Printf("Starting server on port %d", httpPort)
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			log.Printf("server ListenAndServe ended. %s", err)
		}
	}()
	<-shutdownSignal
	log.Printf("ending webservice on shutdown signal")
	shutdownCtx, serverCancelFunc := context.WithTimeout(context.Background(), time.Duration(5)*time.Second)
	defer serverCancelFunc()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("error shutting down webservice, error:%s", err)
	}
}
