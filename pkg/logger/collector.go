package logger

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// SymbolKey is the field name the collector reads affected tickers from.
const SymbolKey = "symbol"

const maxSymbolsPerEntry = 20

// Publisher ships aggregated log batches (Kafka in production).
type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
}

type CollectionConfig struct {
	Service        string
	TimeInterval   time.Duration // flush interval
	CountThreshold int           // unique entries that force an early flush
	Topic          string
	Publisher      Publisher
}

// LogRecord is one error entry as handed over by Logger.
type LogRecord struct {
	Level     string
	Message   string
	Component string
	Caller    string
	Fields    map[string]interface{}
}

// AggregatedLogEntry folds repeats of one call site. Fields are those of the first occurrence.
type AggregatedLogEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Component string                 `json:"component,omitempty"`
	Caller    string                 `json:"caller"`
	Symbols   []string               `json:"symbols,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// LogBatch is the published payload, most frequent entries first.
type LogBatch struct {
	Service   string               `json:"service"`
	FlushedAt time.Time            `json:"flushed_at"`
	Entries   []AggregatedLogEntry `json:"entries"`
}

// LogCollector groups error entries by level, component, call site and message, so a failure
// hitting many symbols becomes one entry listing them.
type LogCollector struct {
	config  *CollectionConfig
	entries map[uint64]*AggregatedLogEntry
	now     func() time.Time
	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewLogCollector(config *CollectionConfig) *LogCollector {
	if config.TimeInterval <= 0 {
		config.TimeInterval = 30 * time.Second
	}
	if config.CountThreshold <= 0 {
		config.CountThreshold = 100
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &LogCollector{
		config:  config,
		entries: make(map[uint64]*AggregatedLogEntry),
		now:     time.Now,
		cancel:  cancel,
	}
	c.wg.Add(1)
	go c.run(ctx)
	return c
}

func (c *LogCollector) AddLog(r LogRecord) {
	key := xxhash.Sum64String(r.Level + "\x00" + r.Component + "\x00" + r.Caller + "\x00" + r.Message)
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		e = &AggregatedLogEntry{
			Level:     r.Level,
			Message:   r.Message,
			Component: r.Component,
			Caller:    r.Caller,
			Fields:    r.Fields,
			FirstSeen: now,
		}
		c.entries[key] = e
	}
	e.Count++
	e.LastSeen = now
	if sym, ok := r.Fields[SymbolKey].(string); ok && sym != "" {
		e.addSymbol(sym)
	}

	if len(c.entries) >= c.config.CountThreshold {
		c.flushLocked()
	}
}

func (e *AggregatedLogEntry) addSymbol(sym string) {
	if len(e.Symbols) >= maxSymbolsPerEntry {
		return
	}
	for _, s := range e.Symbols {
		if s == sym {
			return
		}
	}
	e.Symbols = append(e.Symbols, sym)
}

// Pending returns the number of unique entries waiting to be flushed.
func (c *LogCollector) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *LogCollector) run(ctx context.Context) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.config.TimeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			c.mu.Lock()
			c.flushLocked()
			c.mu.Unlock()
			return
		}
		c.mu.Lock()
		c.flushLocked()
		c.mu.Unlock()
	}
}

func (c *LogCollector) flushLocked() {
	if len(c.entries) == 0 {
		return
	}
	if c.config.Publisher == nil {
		// nowhere to ship; drop the window so memory stays bounded
		c.entries = make(map[uint64]*AggregatedLogEntry)
		return
	}
	batch := LogBatch{
		Service:   c.config.Service,
		FlushedAt: c.now(),
		Entries:   make([]AggregatedLogEntry, 0, len(c.entries)),
	}
	for _, e := range c.entries {
		batch.Entries = append(batch.Entries, *e)
	}
	sort.Slice(batch.Entries, func(i, j int) bool {
		a, b := batch.Entries[i], batch.Entries[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Caller+a.Message < b.Caller+b.Message
	})
	c.entries = make(map[uint64]*AggregatedLogEntry)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := c.config.Publisher.PublishMessage(ctx, c.config.Topic, batch); err != nil {
			// the logger cannot log its own delivery failures
			fmt.Fprintln(os.Stderr, "log collector: publish "+strconv.Itoa(len(batch.Entries))+" entries: "+err.Error())
		}
	}()
}

// Close stops the flush loop and waits for the final batch to be published.
func (c *LogCollector) Close() {
	c.cancel()
	c.wg.Wait()
}
