package app

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"
)

// Profiler accumulates wall time per named stage and arbitrary counters such
// as node or texel counts. It is safe for concurrent use.
type Profiler struct {
	mu         sync.Mutex
	Scopes     map[string]time.Duration
	Calls      map[string]int
	StartTimes map[string]time.Time
	Counts     map[string]int
	Order      []string
}

func NewProfiler() *Profiler {
	return &Profiler{
		Scopes:     make(map[string]time.Duration),
		Calls:      make(map[string]int),
		StartTimes: make(map[string]time.Time),
		Counts:     make(map[string]int),
		Order:      make([]string, 0),
	}
}

func (p *Profiler) BeginScope(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.StartTimes[name] = time.Now()
	// first use fixes display order
	if !slices.Contains(p.Order, name) {
		p.Order = append(p.Order, name)
	}
}

// EndScope adds the time since the matching BeginScope. Unmatched calls are
// ignored.
func (p *Profiler) EndScope(name string) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	start, ok := p.StartTimes[name]
	if !ok {
		return 0
	}
	delete(p.StartTimes, name)
	d := time.Since(start)
	p.Scopes[name] += d
	p.Calls[name]++
	return d
}

// Scope is BeginScope with a deferred EndScope:
//
//	defer p.Scope("bvh")()
func (p *Profiler) Scope(name string) func() {
	p.BeginScope(name)
	return func() { p.EndScope(name) }
}

func (p *Profiler) SetCount(name string, count int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Counts[name] = count
}

func (p *Profiler) Duration(name string) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Scopes[name]
}

func (p *Profiler) Count(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Counts[name]
}

// Reset clears timings and counters but keeps the display order.
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	clear(p.Scopes)
	clear(p.Calls)
	clear(p.StartTimes)
	clear(p.Counts)
}

func (p *Profiler) GetStatsString() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var sb strings.Builder

	sb.WriteString("Timings (CPU):\n")
	for _, name := range p.Order {
		ms := float64(p.Scopes[name].Microseconds()) / 1000.0
		sb.WriteString(fmt.Sprintf("  %-15s: %.2f ms (%d calls)\n", name, ms, p.Calls[name]))
	}

	sb.WriteString("\nStats:\n")
	keys := make([]string, 0, len(p.Counts))
	for k := range p.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("  %-15s: %d\n", k, p.Counts[k]))
	}

	return sb.String()
}
