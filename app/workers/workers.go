package workers

import (
	"time"

	log "github.com/sirupsen/logrus"
)

type Worker struct {
	Interval time.Duration
	Name     string
	Run      func()
	Stop     chan struct{}
}

func NewWorker(name string, interval time.Duration, run func()) *Worker {
	return &Worker{
		Interval: interval,
		Name:     name,
		Run:      run,
		Stop:     make(chan struct{}),
	}
}

func (w *Worker) Start() {
	log.Infof("starting %s worker, interval %s", w.Name, w.Interval)
	w.Run()
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.Run()
		case <-w.Stop:
			return
		}
	}
}

func (w *Worker) StopWorker() {
	w.Stop <- struct{}{}
}
