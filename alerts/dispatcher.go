package alerts

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// clearSchedule is how often the whole dedup cache is dropped to bound
// memory and reset long-term occurrence counts.
const clearSchedule = "@every 24h"

/**
 * Dispatcher is the sole consumer of error-level log records and the
 * gatekeeper for outbound notification traffic. It owns the dedup cache
 * and the cron entry that clears it once a day.
 *
 * Delivery is best effort: sends run on their own goroutines, individual
 * recipient failures are logged to the diagnostics channel and otherwise
 * discarded. A logging call never blocks on, or fails because of, mail
 * delivery.
 */
type Dispatcher struct {
	config *Config
	cache  *Cache
	mailer Mailer
	cron   *cron.Cron
	diag   *log.Logger

	now    func() time.Time
	sendWG sync.WaitGroup
}

/**
 * NewDispatcher creates a dispatcher and starts its daily cache-clear
 * schedule. Call Close to stop the scheduler and drain in-flight sends.
 *
 * @param config Application name, notification window and recipient list
 * @param mailer Transport used for each per-recipient send
 * @return *Dispatcher Running dispatcher
 */
func NewDispatcher(config Config, mailer Mailer) *Dispatcher {
	if config.Window < 0 {
		config.Window = 0
	}

	d := &Dispatcher{
		config: &config,
		cache:  NewCache(config.Window),
		mailer: mailer,
		cron:   cron.New(),
		diag:   log.New(os.Stderr, "", log.LstdFlags),
		now:    time.Now,
	}

	if _, err := d.cron.AddFunc(clearSchedule, d.cache.Clear); err != nil {
		d.diag.Printf("[alerts] failed to schedule cache clear: %v", err)
	}
	d.cron.Start()

	return d
}

// Dispatch consults the dedup cache for the record's signature and, when
// the cache says send, composes the summarized notification and fans it
// out. When the cache says no, the occurrence has already been counted
// and the record is absorbed silently.
func (d *Dispatcher) Dispatch(record Record) {
	send, occurrences := d.cache.Observe(signatureFor(record.Level, record.Message), d.now())
	if !send {
		return
	}

	d.fanout(d.subject(occurrences), record.Body())
}

// Notify bypasses the dedup cache entirely and sends body to every
// recipient immediately. Used for one-off administrative notices.
func (d *Dispatcher) Notify(subject, body string) {
	d.fanout(subject, body)
}

// subject builds the alert subject line. With batching disabled there is
// no window to summarize, so the count is omitted.
func (d *Dispatcher) subject(occurrences int) string {
	if d.config.Window <= 0 {
		return fmt.Sprintf("%s Error", d.config.Name)
	}
	return fmt.Sprintf(
		"%s Error (%d occurrences in past %d minutes)",
		d.config.Name,
		occurrences,
		int(d.config.Window.Minutes()),
	)
}

// fanout attempts delivery to each recipient on its own goroutine. One
// recipient failing never prevents attempts to the others, and failures
// only reach the diagnostics logger; re-raising them could turn an
// alerting outage into an endless error-about-an-error loop.
func (d *Dispatcher) fanout(subject, body string) {
	for _, recipient := range d.config.Recipients {
		d.sendWG.Add(1)
		go func(to string) {
			defer d.sendWG.Done()
			if err := d.mailer.Send(subject, body, to); err != nil {
				d.diag.Printf("[alerts] failed to send to %s: %v", to, err)
			}
		}(recipient)
	}
}

// Flush waits for in-flight sends without stopping the dispatcher.
func (d *Dispatcher) Flush() {
	d.sendWG.Wait()
}

// Close stops the cache-clear scheduler and waits for in-flight sends.
func (d *Dispatcher) Close() {
	ctx := d.cron.Stop()
	<-ctx.Done()
	d.sendWG.Wait()
}
