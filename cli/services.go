package cli

import (
	"fmt"
	"io"

	"dingwecker/chain"
	"dingwecker/config"
	"dingwecker/journal"
	"dingwecker/launcher"
	"dingwecker/log"
	"dingwecker/notify"
)

// services are the long-lived parts shared by run and trigger.
type services struct {
	chain   *chain.Chain
	journal *journal.Store
	mqtt    *notify.MQTT

	// onFinished, if set before the first trigger, is called after the
	// run is recorded.
	onFinished func(run chain.Run)
	// onStatus, if set before the first trigger, receives chain status
	// snapshots in order.
	onStatus func(st chain.Status)
}

// newServices wires the chain to the launcher, the given notifiers, MQTT
// and the journal. Optional parts that fail to start are logged and left out.
func newServices(cfg *config.Config, notifiers ...notify.Notifier) *services {
	s := &services{}

	if cfg.MQTT.Broker != "" {
		pub, err := notify.NewRealPublisher(cfg.MQTT.Broker, "")
		if err != nil {
			log.Warn("mqtt disabled", "broker", cfg.MQTT.Broker, "error", err)
		} else {
			s.mqtt = notify.NewMQTT(pub, cfg.MQTT.Topic)
			notifiers = append(notifiers, s.mqtt)
		}
	}

	if cfg.Journal.Path != "" {
		store, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			log.Warn("journal disabled", "path", cfg.Journal.Path, "error", err)
		} else {
			s.journal = store
		}
	}

	s.chain = chain.New(cfg, launcher.New(cfg.Target, cfg.Host), notify.NewMulti(notifiers...), chain.Options{
		ReturnDelay: cfg.ReturnDelay,
		Policy:      cfg.Retrigger,
		TargetName:  cfg.Target.Name,
	})
	s.chain.SetCallbacks(chain.Callbacks{
		OnStatusChanged: func(st chain.Status) {
			if s.onStatus != nil {
				s.onStatus(st)
			}
		},
		OnRunFinished: func(run chain.Run) {
			s.record(run)
			if s.onFinished != nil {
				s.onFinished(run)
			}
		},
	})
	return s
}

// record stores a finished run, if the journal is open.
func (s *services) record(run chain.Run) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Record(run); err != nil {
		log.Warn("recording run", "run_id", run.ID, "error", err)
	}
}

// Close waits for finished runs to be recorded, then closes MQTT and the
// journal.
func (s *services) Close() {
	s.chain.Wait()
	if s.mqtt != nil {
		s.mqtt.Close()
	}
	if s.journal != nil {
		s.journal.Close()
	}
}

// printer writes chain messages to a terminal, one per line.
type printer struct {
	w io.Writer
}

func (p printer) ShowTransient(message string) {
	fmt.Fprintln(p.w, message)
}
